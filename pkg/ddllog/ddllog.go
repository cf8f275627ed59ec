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
	"sync"

	"github.com/pingcap/ddllog/pkg/ddllog/handler"
	"github.com/pingcap/ddllog/pkg/ddllog/index"
	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/ddllog/store"
	"github.com/pingcap/ddllog/pkg/metrics"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/pingcap/errors"
	"github.com/spf13/afero"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Options are the options of Open.
type Options struct {
	// FS is the file system of the log file, the OS one when nil.
	FS afero.Fs
	// Path is the path of the log file.
	Path string
	// IOSize is the size of one record block.
	IOSize int
	// Router finds the handlers that perform the physical actions.
	Router *handler.Router
}

// Log is the ddl log. Every record mutation happens under mu and is synced
// before the physical action that depends on it. The physical actions
// themselves run without holding mu.
type Log struct {
	mu     sync.Mutex
	store  *store.Store
	index  *index.Index
	router *handler.Router
	// recovered holds the step handles of every chain found enabled at open,
	// keyed by chain head position. They are released when the chain is
	// disabled by recovery.
	recovered map[uint32][]*index.Handle
	// corrupt is the number of undecodable records found at open.
	corrupt int
	closed  *atomic.Bool
}

// Open opens the ddl log and rebuilds the index from the records on disk.
// Every enabled chain head becomes active, to be handled by Recover.
func Open(opts Options) (*Log, error) {
	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	st, err := store.Open(fs, opts.Path, opts.IOSize)
	if err != nil {
		return nil, errors.Trace(err)
	}
	l := &Log{
		store:     st,
		index:     index.New(),
		router:    opts.Router,
		recovered: make(map[uint32][]*index.Handle),
		closed:    atomic.NewBool(false),
	}
	if err = l.rebuild(); err != nil {
		if cerr := st.Close(); cerr != nil {
			logutil.DDLLogger().Warn("close ddl log failed", zap.Error(cerr))
		}
		return nil, errors.Trace(err)
	}
	return l, nil
}

func (l *Log) rebuild() error {
	records, err := l.store.ReadAll()
	if err != nil {
		return err
	}
	l.index.Grow(l.store.NumEntries())
	for _, r := range records {
		if r.Err != nil {
			l.corrupt++
			logutil.DDLLogger().Warn("skip corrupt ddl log record", zap.Uint32(logutil.LogFieldPosition, r.Position), zap.Error(r.Err))
			continue
		}
		if r.Entry.Type != model.EntryChainHead || r.Entry.IsFinal() {
			continue
		}
		head, err := l.index.Claim(r.Position)
		if err != nil {
			logutil.DDLLogger().Warn("chain head is referenced by another chain", zap.Uint32(logutil.LogFieldPosition, r.Position))
			continue
		}
		if err = l.index.ActivateChainHead(head); err != nil {
			return err
		}
		var steps []*index.Handle
		visited := map[uint32]struct{}{r.Position: {}}
		for next := r.Entry.Next; next != 0 && next <= uint32(len(records)); {
			if _, ok := visited[next]; ok {
				break
			}
			visited[next] = struct{}{}
			step := records[next-1]
			if step.Err != nil || step.Entry.Type != model.EntryStep {
				break
			}
			h, err := l.index.Claim(next)
			if err != nil {
				break
			}
			steps = append(steps, h)
			next = step.Entry.Next
		}
		l.recovered[r.Position] = steps
	}
	l.updateActiveGauge()
	logutil.DDLLogger().Info("ddl log loaded",
		zap.Int("records", len(records)),
		zap.Int("active-chains", l.index.ActiveLen()),
		zap.Int("corrupt", l.corrupt))
	return nil
}

// Close closes the log. Handles still held by callers become invalid.
func (l *Log) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Trace(l.store.Close())
}

func (l *Log) checkOpen() error {
	if l.closed.Load() {
		return ddllogerrors.ErrClosed.GenWithStackByArgs()
	}
	return nil
}

func (l *Log) updateActiveGauge() {
	metrics.ActiveChainGauge.Set(float64(l.index.ActiveLen()))
}

// writeLocked writes e and counts the write.
func (l *Log) writeLocked(e *model.Entry, tp string) error {
	_, err := l.store.Write(e)
	metrics.RecordWriteCounter.WithLabelValues(tp, metrics.RetLabel(err)).Inc()
	return err
}

func (l *Log) updatePhaseLocked(pos uint32, phase uint8) error {
	err := l.store.UpdatePhase(pos, phase)
	metrics.RecordWriteCounter.WithLabelValues(metrics.WriteTypePhase, metrics.RetLabel(err)).Inc()
	return err
}

// WriteEntry allocates a position for the step e and writes it. The write is
// made durable by the WriteExecuteEntry that publishes the chain.
func (l *Log) WriteEntry(e *model.Entry) (*index.Handle, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	if e.Type != model.EntryStep || !e.Action.Valid() || !model.ValidPhase(e.Action, e.Phase) {
		return nil, ddllogerrors.ErrInvalidPhase.GenWithStackByArgs(e.Phase, e.Action.String())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.index.Allocate()
	e.Position = h.Position()
	if err := l.writeLocked(e, metrics.WriteTypeEntry); err != nil {
		if rerr := l.index.Release(h); rerr != nil {
			logutil.DDLLogger().Warn("release ddl log handle failed", zap.Error(rerr))
		}
		return nil, errors.Trace(err)
	}
	return h, nil
}

// WriteExecuteEntry publishes a chain: the pending steps are synced, then the
// chain head pointing at firstStep is written and synced. A nil head
// allocates a new chain head, an existing one is rewritten with its xid kept.
// With complete set the chain head is disabled instead, which like
// DisableExecuteEntry needs a head.
func (l *Log) WriteExecuteEntry(firstStep uint32, complete bool, head *index.Handle) (*index.Handle, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	if complete {
		if err := l.DisableExecuteEntry(head); err != nil {
			return nil, err
		}
		return head, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var xid uint64
	if head != nil {
		e, err := l.store.Read(head.Position())
		if err != nil {
			return nil, errors.Trace(err)
		}
		xid = e.XID
	}
	return l.writeExecuteEntryLocked(firstStep, xid, head)
}

func (l *Log) writeExecuteEntryLocked(firstStep uint32, xid uint64, head *index.Handle) (*index.Handle, error) {
	if err := l.store.Sync(); err != nil {
		return nil, errors.Trace(err)
	}
	allocated := head == nil
	if allocated {
		head = l.index.Allocate()
	}
	e := &model.Entry{Type: model.EntryChainHead, Position: head.Position(), Next: firstStep, XID: xid}
	err := l.writeLocked(e, metrics.WriteTypeExecute)
	if err == nil {
		err = l.store.Sync()
	}
	if err == nil {
		err = l.index.ActivateChainHead(head)
	}
	if err != nil {
		if allocated {
			if rerr := l.index.Release(head); rerr != nil {
				logutil.DDLLogger().Warn("release ddl log handle failed", zap.Error(rerr))
			}
		}
		return nil, errors.Trace(err)
	}
	l.updateActiveGauge()
	return head, nil
}

// DisableExecuteEntry disables the chain head without running its steps.
func (l *Log) DisableExecuteEntry(head *index.Handle) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	if head == nil {
		return ddllogerrors.ErrNoExecuteEntry.GenWithStackByArgs()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disableHeadLocked(head)
}

func (l *Log) disableHeadLocked(head *index.Handle) error {
	if err := l.updatePhaseLocked(head.Position(), model.FinalPhase); err != nil {
		return errors.Trace(err)
	}
	if err := l.store.Sync(); err != nil {
		return errors.Trace(err)
	}
	if err := l.index.DeactivateChainHead(head); err != nil {
		return errors.Trace(err)
	}
	l.updateActiveGauge()
	return nil
}

// IncrementPhase advances the step at pos by one phase, disabling it after
// its last phase. A disabled step is left alone.
func (l *Log) IncrementPhase(pos uint32) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, err := l.store.Read(pos)
	if err != nil {
		return errors.Trace(err)
	}
	if e.Type != model.EntryStep {
		return ddllogerrors.ErrInvalidPosition.GenWithStackByArgs(pos)
	}
	if e.IsFinal() {
		return nil
	}
	return l.incrementPhaseLocked(e)
}

// incrementPhaseLocked advances e durably and updates e.Phase.
func (l *Log) incrementPhaseLocked(e *model.Entry) error {
	next := e.Phase + 1
	if next >= model.PhaseCount(e.Action) {
		next = model.FinalPhase
	}
	if err := l.updatePhaseLocked(e.Position, next); err != nil {
		return errors.Trace(err)
	}
	if err := l.store.Sync(); err != nil {
		return errors.Trace(err)
	}
	e.Phase = next
	return nil
}

// ReleaseMemoryEntry returns h to the free positions.
func (l *Log) ReleaseMemoryEntry(h *index.Handle) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Trace(l.index.Release(h))
}

// Sync makes every record written so far durable.
func (l *Log) Sync() error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Trace(l.store.Sync())
}

// Entries returns every record of the log.
func (l *Log) Entries() ([]store.Record, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	records, err := l.store.ReadAll()
	return records, errors.Trace(err)
}

// ActiveChains returns the number of enabled chain heads.
func (l *Log) ActiveChains() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index.ActiveLen()
}

// NewState starts the log state of one ddl statement.
func (l *Log) NewState() *State {
	return &State{log: l}
}
