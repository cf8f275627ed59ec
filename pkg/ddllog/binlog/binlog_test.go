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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXIDSet(t *testing.T) {
	s := NewXIDSet(3, 1)
	require.True(t, s.IsCommitted(1))
	require.False(t, s.IsCommitted(2))
	s.Add(0)
	require.False(t, s.IsCommitted(0))

	var wg sync.WaitGroup
	for i := uint64(10); i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(i)
		}()
	}
	wg.Wait()
	require.Equal(t, 13, s.Len())
	require.Equal(t, []uint64{0, 1, 3, 10, 11}, s.XIDs()[:5])
	require.False(t, Empty.IsCommitted(1))
}
