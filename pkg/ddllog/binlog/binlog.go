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

package binlog

import (
	"slices"
	"sync"
)

// Registry answers whether a binlog transaction was committed. The ddl log
// doesn't replay a chain whose statement already reached the binlog.
type Registry interface {
	IsCommitted(xid uint64) bool
}

// XIDSet is a Registry over a set of committed xids, as collected by a
// binlog recovery scan.
type XIDSet struct {
	mu   sync.RWMutex
	xids map[uint64]struct{}
}

// NewXIDSet returns a set holding xids.
func NewXIDSet(xids ...uint64) *XIDSet {
	s := &XIDSet{xids: make(map[uint64]struct{}, len(xids))}
	for _, x := range xids {
		s.xids[x] = struct{}{}
	}
	return s
}

// Add records xid as committed.
func (s *XIDSet) Add(xid uint64) {
	s.mu.Lock()
	s.xids[xid] = struct{}{}
	s.mu.Unlock()
}

// IsCommitted implements Registry interface. Xid 0 means no transaction and
// is never committed.
func (s *XIDSet) IsCommitted(xid uint64) bool {
	if xid == 0 {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.xids[xid]
	return ok
}

// Len returns the number of xids.
func (s *XIDSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.xids)
}

// XIDs returns the xids in ascending order.
func (s *XIDSet) XIDs() []uint64 {
	s.mu.RLock()
	res := make([]uint64, 0, len(s.xids))
	for x := range s.xids {
		res = append(res, x)
	}
	s.mu.RUnlock()
	slices.Sort(res)
	return res
}

// Empty is a Registry where nothing is committed.
var Empty Registry = NewXIDSet()
