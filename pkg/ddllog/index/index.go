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

package index

import (
	"fmt"
	"iter"
	"math"

	"github.com/google/btree"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
)

type slotState uint8

const (
	slotFree slotState = iota
	slotUsed
	slotActive
)

func (s slotState) String() string {
	switch s {
	case slotFree:
		return "free"
	case slotUsed:
		return "used"
	case slotActive:
		return "active"
	}
	return "invalid"
}

type slot struct {
	state slotState
	// gen is bumped every time the slot is handed out, so a handle kept
	// after its release is detected.
	gen uint32
}

// Handle is the in-memory reference to one log position.
type Handle struct {
	pos uint32
	gen uint32
}

// Position returns the log position the handle refers to.
func (h *Handle) Position() uint32 {
	return h.pos
}

// String implements fmt.Stringer interface.
func (h *Handle) String() string {
	return fmt.Sprintf("handle(%d)", h.pos)
}

const btreeDegree = 16

// Index tracks which log positions are free, in use, or enabled chain heads.
// Slot i of the arena is position i, slot 0 is never used.
//
// Index is not safe for concurrent use.
type Index struct {
	slots  []slot
	free   *btree.BTreeG[uint32]
	active *btree.BTreeG[uint32]
	gen    uint32
}

// New returns an empty index.
func New() *Index {
	return &Index{
		slots:  make([]slot, 1),
		free:   btree.NewG(btreeDegree, btree.Less[uint32]()),
		active: btree.NewG(btreeDegree, btree.Less[uint32]()),
	}
}

// Len returns the highest position known to the index.
func (ix *Index) Len() int {
	return len(ix.slots) - 1
}

// FreeLen returns the number of free positions.
func (ix *Index) FreeLen() int {
	return ix.free.Len()
}

// ActiveLen returns the number of active chain heads.
func (ix *Index) ActiveLen() int {
	return ix.active.Len()
}

// Grow registers positions up to n as free. Positions already known are kept
// as they are.
func (ix *Index) Grow(n uint32) {
	for p := uint32(len(ix.slots)); p <= n; p++ {
		ix.slots = append(ix.slots, slot{})
		ix.free.ReplaceOrInsert(p)
	}
}

// Allocate hands out the lowest free position, or a new one past the end.
// The caller writes the record before the handle is used for anything else.
func (ix *Index) Allocate() *Handle {
	pos, ok := ix.free.DeleteMin()
	if !ok {
		pos = uint32(len(ix.slots))
		ix.slots = append(ix.slots, slot{})
	}
	return ix.take(pos)
}

func (ix *Index) take(pos uint32) *Handle {
	s := &ix.slots[pos]
	ix.gen++
	s.state = slotUsed
	s.gen = ix.gen
	return &Handle{pos: pos, gen: s.gen}
}

// Claim takes the given free position. It is used to rebuild the index from
// records already on disk.
func (ix *Index) Claim(pos uint32) (*Handle, error) {
	if pos == 0 {
		return nil, ddllogerrors.ErrInvalidPosition.GenWithStackByArgs(pos)
	}
	ix.Grow(pos)
	if ix.slots[pos].state != slotFree {
		return nil, ddllogerrors.ErrInvalidPosition.GenWithStackByArgs(pos)
	}
	ix.free.Delete(pos)
	return ix.take(pos), nil
}

func (ix *Index) slotOf(h *Handle) (*slot, error) {
	if h == nil || h.pos == 0 || int(h.pos) >= len(ix.slots) {
		pos := uint32(0)
		if h != nil {
			pos = h.pos
		}
		return nil, ddllogerrors.ErrHandleNotInUse.GenWithStackByArgs(pos)
	}
	s := &ix.slots[h.pos]
	if s.state == slotFree || s.gen != h.gen {
		return nil, ddllogerrors.ErrHandleNotInUse.GenWithStackByArgs(h.pos)
	}
	return s, nil
}

// Release returns the position of h to the free set. An active chain head
// can't be released.
func (ix *Index) Release(h *Handle) error {
	s, err := ix.slotOf(h)
	if err != nil {
		return err
	}
	if s.state == slotActive {
		return ddllogerrors.ErrStillActive.GenWithStackByArgs(h.pos)
	}
	s.state = slotFree
	ix.free.ReplaceOrInsert(h.pos)
	return nil
}

// ActivateChainHead registers h as an enabled chain head.
func (ix *Index) ActivateChainHead(h *Handle) error {
	s, err := ix.slotOf(h)
	if err != nil {
		return err
	}
	s.state = slotActive
	ix.active.ReplaceOrInsert(h.pos)
	return nil
}

// DeactivateChainHead removes h from the active chain heads. It is a no-op
// for a handle that is not active.
func (ix *Index) DeactivateChainHead(h *Handle) error {
	s, err := ix.slotOf(h)
	if err != nil {
		return err
	}
	if s.state == slotActive {
		s.state = slotUsed
		ix.active.Delete(h.pos)
	}
	return nil
}

// IsActive reports whether h is an active chain head.
func (ix *Index) IsActive(h *Handle) bool {
	s, err := ix.slotOf(h)
	return err == nil && s.state == slotActive
}

// NextActive returns the active chain head with the lowest position not
// below from.
func (ix *Index) NextActive(from uint32) (*Handle, bool) {
	var (
		pos   uint32
		found bool
	)
	ix.active.AscendGreaterOrEqual(from, func(p uint32) bool {
		pos, found = p, true
		return false
	})
	if !found {
		return nil, false
	}
	return &Handle{pos: pos, gen: ix.slots[pos].gen}, true
}

// ActiveHeads iterates the active chain heads in position order. Every step
// looks up the successor of the last yielded position, so heads may be
// deactivated or released while iterating. Each call starts over.
func (ix *Index) ActiveHeads() iter.Seq[*Handle] {
	return func(yield func(*Handle) bool) {
		from := uint32(1)
		for {
			h, ok := ix.NextActive(from)
			if !ok || !yield(h) || h.pos == math.MaxUint32 {
				return
			}
			from = h.pos + 1
		}
	}
}

// Reset drops every position.
func (ix *Index) Reset() {
	ix.slots = ix.slots[:1]
	ix.free.Clear(false)
	ix.active.Clear(false)
}
