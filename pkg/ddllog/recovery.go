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
	"iter"

	"github.com/pingcap/ddllog/pkg/ddllog/binlog"
	"github.com/pingcap/ddllog/pkg/ddllog/index"
	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/metrics"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// RecoveryReport counts the chains handled by Recover.
type RecoveryReport struct {
	// Executed chains were run to the end and disabled.
	Executed int
	// Binlogged chains were disabled without running, their xid was
	// committed.
	Binlogged int
	// Failed chains hit an action error and are still enabled.
	Failed int
	// Corrupt counts the records and chain heads that could not be decoded.
	Corrupt int
}

// activeHeads iterates the active chain heads of the index, taking the lock
// for every step so the chains can be disabled in between.
func (l *Log) activeHeads() iter.Seq[*index.Handle] {
	return func(yield func(*index.Handle) bool) {
		next, stop := iter.Pull(l.index.ActiveHeads())
		defer stop()
		for {
			l.mu.Lock()
			h, ok := next()
			l.mu.Unlock()
			if !ok || !yield(h) {
				return
			}
		}
	}
}

// Recover drives every enabled chain to its end. It runs once at startup
// before any statement uses the log. A chain whose xid is committed in reg is
// disabled without running. A chain that hits an action error stays enabled
// and the scan goes on, while an I/O error aborts the recovery. When no
// position is in use any more the log file is emptied.
func (l *Log) Recover(ctx context.Context, reg binlog.Registry) (*RecoveryReport, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = binlog.Empty
	}
	ctx = logCtx(ctx)
	report := &RecoveryReport{Corrupt: l.corrupt}
	l.corrupt = 0
	for head := range l.activeHeads() {
		if err := l.recoverChain(ctx, head, reg, report); err != nil {
			logutil.Logger(ctx).Error("ddl log recovery aborted",
				zap.Uint32(logutil.LogFieldPosition, head.Position()), zap.Error(err))
			return report, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Sync(); err != nil {
		return report, errors.Trace(err)
	}
	if l.index.ActiveLen() == 0 && l.index.FreeLen() == l.index.Len() {
		if err := l.store.Reset(); err != nil {
			return report, errors.Trace(err)
		}
		l.index.Reset()
		clear(l.recovered)
	}
	l.updateActiveGauge()
	logutil.Logger(ctx).Info("ddl log recovery finished",
		zap.Int("executed", report.Executed),
		zap.Int("binlogged", report.Binlogged),
		zap.Int("failed", report.Failed),
		zap.Int("corrupt", report.Corrupt))
	return report, nil
}

func (l *Log) recoverChain(ctx context.Context, head *index.Handle, reg binlog.Registry, report *RecoveryReport) error {
	pos := head.Position()
	ctx = logutil.WithFields(ctx, zap.Uint32("chain-head", pos))
	logger := logutil.Logger(ctx)
	l.mu.Lock()
	e, err := l.readOpenLocked(pos)
	l.mu.Unlock()
	if err != nil {
		if !ddllogerrors.ErrCorruptRecord.Equal(err) {
			return errors.Trace(err)
		}
		logger.Warn("skip corrupt ddl log chain head", zap.Error(err))
		report.Corrupt++
		metrics.RecoveryChainCounter.WithLabelValues(metrics.ResultCorrupt).Inc()
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.forgetChainLocked(head)
	}
	if e.Type != model.EntryChainHead || e.IsFinal() {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.forgetChainLocked(head)
	}

	if reg.IsCommitted(e.XID) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err = l.disableChainLocked(head, e.Next); err != nil {
			return err
		}
		report.Binlogged++
		metrics.RecoveryChainCounter.WithLabelValues(metrics.ResultBinlogged).Inc()
		logger.Info("ddl log chain already in binlog", zap.Uint64("xid", e.XID))
		return nil
	}

	if err = l.executeChain(ctx, e.Next); err != nil {
		if !ddllogerrors.ErrActionFailed.Equal(err) {
			return err
		}
		report.Failed++
		metrics.RecoveryChainCounter.WithLabelValues(metrics.ResultFailed).Inc()
		logger.Error("ddl log chain left enabled", zap.Error(err))
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err = l.disableHeadLocked(head); err != nil {
		return err
	}
	report.Executed++
	metrics.RecoveryChainCounter.WithLabelValues(metrics.ResultExecuted).Inc()
	logger.Info("ddl log chain recovered")
	return l.forgetChainLocked(head)
}

// disableChainLocked disables every step of the chain starting at first,
// then the chain head, with one sync.
func (l *Log) disableChainLocked(head *index.Handle, first uint32) error {
	visited := make(map[uint32]struct{})
	for pos := first; pos != 0; {
		if _, ok := visited[pos]; ok {
			break
		}
		visited[pos] = struct{}{}
		e, err := l.store.Read(pos)
		if err != nil {
			if ddllogerrors.ErrCorruptRecord.Equal(err) || ddllogerrors.ErrRecordNotFound.Equal(err) {
				break
			}
			return errors.Trace(err)
		}
		if e.Type != model.EntryStep {
			break
		}
		if !e.IsFinal() {
			if err = l.updatePhaseLocked(pos, model.FinalPhase); err != nil {
				return errors.Trace(err)
			}
		}
		pos = e.Next
	}
	if err := l.disableHeadLocked(head); err != nil {
		return err
	}
	return l.forgetChainLocked(head)
}

// forgetChainLocked drops a chain found at open from the index once it needs
// no more work.
func (l *Log) forgetChainLocked(head *index.Handle) error {
	if err := l.index.DeactivateChainHead(head); err != nil {
		return errors.Trace(err)
	}
	l.updateActiveGauge()
	steps, ok := l.recovered[head.Position()]
	if !ok {
		return nil
	}
	delete(l.recovered, head.Position())
	for _, h := range steps {
		if err := l.index.Release(h); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(l.index.Release(head))
}

// CloseBinloggedEvents disables, without running them, the enabled chains
// whose xid is committed in reg. It returns the number of chains disabled.
func (l *Log) CloseBinloggedEvents(reg binlog.Registry) (int, error) {
	if err := l.checkOpen(); err != nil {
		return 0, err
	}
	closed := 0
	for head := range l.activeHeads() {
		l.mu.Lock()
		e, err := l.readOpenLocked(head.Position())
		if err == nil && e.Type == model.EntryChainHead && !e.IsFinal() && reg.IsCommitted(e.XID) {
			err = l.disableChainLocked(head, e.Next)
			if err == nil {
				closed++
			}
		} else if ddllogerrors.ErrCorruptRecord.Equal(err) {
			err = nil
		}
		l.mu.Unlock()
		if err != nil {
			return closed, errors.Trace(err)
		}
	}
	return closed, nil
}
