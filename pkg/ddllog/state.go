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

package ddllog

import (
	"context"

	"github.com/pingcap/ddllog/pkg/ddllog/index"
	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/metrics"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// State is the log state of one ddl statement: the steps it logged, newest
// first, and the chain head that publishes them.
//
// A State is used by one statement at a time.
type State struct {
	log *Log
	// firstStep is the position the next step links to.
	firstStep uint32
	steps     []*index.Handle
	head      *index.Handle
	xid       uint64
}

// Head returns the chain head handle, nil before WriteExecuteEntry.
func (s *State) Head() *index.Handle {
	return s.head
}

// Steps returns the step handles, newest first.
func (s *State) Steps() []*index.Handle {
	return s.steps
}

// FirstStep returns the position of the newest step, where the chain starts.
func (s *State) FirstStep() uint32 {
	return s.firstStep
}

// AddEntry writes the step e and links it in front of the steps logged so
// far.
func (s *State) AddEntry(e *model.Entry) (*index.Handle, error) {
	e.Type = model.EntryStep
	e.Next = s.firstStep
	h, err := s.log.WriteEntry(e)
	if err != nil {
		return nil, err
	}
	s.steps = append([]*index.Handle{h}, s.steps...)
	s.firstStep = h.Position()
	return h, nil
}

// WriteExecuteEntry makes the logged steps durable and publishes them by
// writing the chain head.
func (s *State) WriteExecuteEntry() error {
	l := s.log
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h, err := l.writeExecuteEntryLocked(s.firstStep, s.xid, s.head)
	if err != nil {
		return err
	}
	s.head = h
	return nil
}

// UpdatePhase sets the phase of the newest step.
func (s *State) UpdatePhase(phase uint8) error {
	l := s.log
	if err := l.checkOpen(); err != nil {
		return err
	}
	if len(s.steps) == 0 {
		return ddllogerrors.ErrInvalidPosition.GenWithStackByArgs(0)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pos := s.steps[0].Position()
	e, err := l.store.Read(pos)
	if err != nil {
		return errors.Trace(err)
	}
	if !model.ValidPhase(e.Action, phase) {
		return ddllogerrors.ErrInvalidPhase.GenWithStackByArgs(phase, e.Action.String())
	}
	if err = l.updatePhaseLocked(pos, phase); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(l.store.Sync())
}

// UpdateXID records the binlog transaction of the statement. It is written
// to the chain head at once when the head exists.
func (s *State) UpdateXID(xid uint64) error {
	l := s.log
	if err := l.checkOpen(); err != nil {
		return err
	}
	s.xid = xid
	if s.head == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, err := l.store.Read(s.head.Position())
	if err != nil {
		return errors.Trace(err)
	}
	e.XID = xid
	if err = l.writeLocked(e, metrics.WriteTypeXID); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(l.store.Sync())
}

// Disable disables every step and then the chain head without running
// anything. The handles are kept.
func (s *State) Disable() error {
	l := s.log
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, h := range s.steps {
		if err := l.updatePhaseLocked(h.Position(), model.FinalPhase); err != nil {
			return errors.Trace(err)
		}
	}
	if s.head == nil {
		return errors.Trace(l.store.Sync())
	}
	return l.disableHeadLocked(s.head)
}

// Complete is the success path of a statement: the chain is disabled and the
// handles are released.
func (s *State) Complete() error {
	if err := s.Disable(); err != nil {
		return err
	}
	return s.Release()
}

// Revert is the failure path of a statement. The logged steps describe what
// makes the objects consistent, so they are run to the end through the
// executor, then the chain is disabled and the handles released. When a step
// fails the chain stays enabled for the next recovery.
func (s *State) Revert(ctx context.Context) error {
	if len(s.steps) == 0 {
		return s.Complete()
	}
	if s.head == nil {
		if err := s.WriteExecuteEntry(); err != nil {
			return err
		}
	}
	ctx = logCtx(ctx)
	if err := s.log.executeChain(ctx, s.firstStep); err != nil {
		logutil.Logger(ctx).Warn("revert ddl log chain failed",
			zap.Uint32(logutil.LogFieldPosition, s.head.Position()), zap.Error(err))
		return err
	}
	if err := s.log.DisableExecuteEntry(s.head); err != nil {
		return err
	}
	return s.Release()
}

// Release returns every handle of the state to the index. The chain head
// must be disabled first.
func (s *State) Release() error {
	l := s.log
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.head != nil && l.index.IsActive(s.head) {
		return ddllogerrors.ErrStillActive.GenWithStackByArgs(s.head.Position())
	}
	for _, h := range s.steps {
		if err := l.index.Release(h); err != nil {
			return errors.Trace(err)
		}
	}
	if s.head != nil {
		if err := l.index.Release(s.head); err != nil {
			return errors.Trace(err)
		}
	}
	s.steps = nil
	s.head = nil
	s.firstStep = 0
	s.xid = 0
	return nil
}
