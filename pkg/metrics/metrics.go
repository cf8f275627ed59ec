// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label constants.
const (
	LblType   = "type"
	LblKind   = "kind"
	LblResult = "result"

	opSucc   = "ok"
	opFailed = "err"

	// ResultExecuted means a chain was driven to completion by recovery.
	ResultExecuted = "executed"
	// ResultBinlogged means a chain was closed because its xid was committed.
	ResultBinlogged = "binlogged"
	// ResultFailed means a chain was left enabled after an action error.
	ResultFailed = "failed"
	// ResultCorrupt means a chain head could not be decoded.
	ResultCorrupt = "corrupt"
)

// RetLabel returns "ok" when err == nil and "err" when err != nil.
// This could be useful when you need to observe the operation result.
func RetLabel(err error) string {
	if err == nil {
		return opSucc
	}
	return opFailed
}

// RegisterMetrics registers the metrics which are ONLY used in the ddl log.
func RegisterMetrics(registerer prometheus.Registerer) {
	registerer.MustRegister(RecordWriteCounter)
	registerer.MustRegister(SyncDuration)
	registerer.MustRegister(ActionCounter)
	registerer.MustRegister(ActionDuration)
	registerer.MustRegister(RecoveryChainCounter)
	registerer.MustRegister(ActiveChainGauge)
}

// UnregisterMetrics unregisters the metrics registered by RegisterMetrics.
func UnregisterMetrics(registerer prometheus.Registerer) {
	registerer.Unregister(RecordWriteCounter)
	registerer.Unregister(SyncDuration)
	registerer.Unregister(ActionCounter)
	registerer.Unregister(ActionDuration)
	registerer.Unregister(RecoveryChainCounter)
	registerer.Unregister(ActiveChainGauge)
}
