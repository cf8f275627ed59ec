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

// Record write types.
const (
	WriteTypeEntry   = "entry"
	WriteTypeExecute = "execute"
	WriteTypePhase   = "phase"
	WriteTypeXID     = "xid"
)

// ddl log metrics.
var (
	RecordWriteCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tidb",
			Subsystem: "ddl_log",
			Name:      "record_write_total",
			Help:      "Counter of ddl log record writes.",
		}, []string{LblType, LblResult})

	SyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tidb",
			Subsystem: "ddl_log",
			Name:      "sync_duration_seconds",
			Help:      "Bucketed histogram of ddl log sync duration.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 20), // 50us ~ 26s
		}, []string{LblResult})

	ActionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tidb",
			Subsystem: "ddl_log",
			Name:      "action_total",
			Help:      "Counter of executed ddl log action phases.",
		}, []string{LblKind, LblResult})

	ActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tidb",
			Subsystem: "ddl_log",
			Name:      "action_duration_seconds",
			Help:      "Bucketed histogram of ddl log action phase duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 20), // 100us ~ 52s
		}, []string{LblKind})

	RecoveryChainCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tidb",
			Subsystem: "ddl_log",
			Name:      "recovery_chain_total",
			Help:      "Counter of chains handled by ddl log recovery.",
		}, []string{LblResult})

	ActiveChainGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tidb",
			Subsystem: "ddl_log",
			Name:      "active_chains",
			Help:      "Number of enabled chains in the ddl log.",
		})
)
