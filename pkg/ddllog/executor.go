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
	"time"

	"github.com/pingcap/ddllog/pkg/ddllog/handler"
	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/metrics"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"go.uber.org/zap"
)

// ViewEngine is the engine tag of view objects.
const ViewEngine = "VIEW"

// crashBeforeAdvancePhase stops the executor after the physical action of a
// phase and before the phase is advanced on disk. Its value is either true or
// the phase to stop after.
const crashBeforeAdvancePhase = "github.com/pingcap/ddllog/pkg/ddllog/crashBeforeAdvancePhase"

// ActionError is returned when a handler fails a phase of a step. It equals
// ErrActionFailed and unwraps to the handler error.
type ActionError struct {
	err   error
	cause error
}

func newActionError(e *model.Entry, cause error) *ActionError {
	return &ActionError{
		err:   ddllogerrors.ErrActionFailed.GenWithStackByArgs(e.Action.String(), e.Phase, e.Position, cause.Error()),
		cause: cause,
	}
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return e.err.Error()
}

// Cause returns the ErrActionFailed error.
func (e *ActionError) Cause() error {
	return e.err
}

// Unwrap returns the handler error.
func (e *ActionError) Unwrap() error {
	return e.cause
}

// logCtx attaches the ddl log category to ctx unless the caller already put a
// logger in it.
func logCtx(ctx context.Context) context.Context {
	if _, ok := ctx.Value(logutil.CtxLogKey).(*zap.Logger); ok {
		return ctx
	}
	return logutil.WithCategory(ctx, logutil.DDLLogCategory)
}

// ExecuteEntry runs the chain starting at the step at firstEntry.
func (l *Log) ExecuteEntry(ctx context.Context, firstEntry uint32) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	return l.executeChain(logCtx(ctx), firstEntry)
}

// executeChain runs every enabled step from pos to the end of the chain. The
// chain ends at next = 0, at a record that is not a step, or at a corrupt
// record.
func (l *Log) executeChain(ctx context.Context, pos uint32) error {
	visited := make(map[uint32]struct{})
	for pos != 0 {
		if _, ok := visited[pos]; ok {
			logutil.Logger(ctx).Warn("stop at ddl log chain cycle", zap.Error(ddllogerrors.ErrChainCycle.GenWithStackByArgs(pos)))
			return nil
		}
		visited[pos] = struct{}{}

		l.mu.Lock()
		e, err := l.readOpenLocked(pos)
		l.mu.Unlock()
		if err != nil {
			if ddllogerrors.ErrCorruptRecord.Equal(err) || ddllogerrors.ErrRecordNotFound.Equal(err) {
				logutil.Logger(ctx).Warn("ddl log chain ends at unreadable record",
					zap.Uint32(logutil.LogFieldPosition, pos), zap.Error(err))
				return nil
			}
			return errors.Trace(err)
		}
		if e.Type != model.EntryStep {
			return nil
		}
		if err = l.executeStep(ctx, e); err != nil {
			return err
		}
		pos = e.Next
	}
	return nil
}

// executeStep runs the phases of e from its recorded phase to the end. Every
// phase is advanced durably before the next one runs.
func (l *Log) executeStep(ctx context.Context, e *model.Entry) error {
	for !e.IsFinal() {
		start := time.Now()
		err := l.runPhase(ctx, e)
		metrics.ActionDuration.WithLabelValues(e.Action.String()).Observe(time.Since(start).Seconds())
		metrics.ActionCounter.WithLabelValues(e.Action.String(), metrics.RetLabel(err)).Inc()
		if err != nil {
			logutil.Logger(ctx).Warn("ddl log action failed",
				zap.Uint32(logutil.LogFieldPosition, e.Position),
				zap.Stringer("kind", e.Action),
				zap.String("phase", model.PhaseName(e.Action, e.Phase)),
				zap.Error(err))
			return newActionError(e, err)
		}
		if crashAfter(e.Phase) {
			return ddllogerrors.ErrSimulatedCrash.GenWithStackByArgs(e.Position, e.Phase)
		}
		l.mu.Lock()
		err = l.checkOpen()
		if err == nil {
			err = l.incrementPhaseLocked(e)
		}
		l.mu.Unlock()
		if err != nil {
			return err
		}
	}
	logutil.Logger(ctx).Debug("ddl log step done", zap.Stringer("entry", e))
	return nil
}

// readOpenLocked reads the record at pos unless the log was closed while the
// lock was released.
func (l *Log) readOpenLocked(pos uint32) (*model.Entry, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	return l.store.Read(pos)
}

func crashAfter(phase uint8) bool {
	v, err := failpoint.Eval(crashBeforeAdvancePhase)
	if err != nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val == int(phase)
	}
	return false
}

// runPhase performs the physical action of the current phase of e.
func (l *Log) runPhase(ctx context.Context, e *model.Entry) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	if l.router == nil {
		return ddllogerrors.ErrUnknownEngine.GenWithStackByArgs(e.Engine)
	}
	target := handler.Object{Engine: e.Engine, DB: e.DB, Name: e.Name}
	source := handler.Object{Engine: e.Engine, DB: e.FromDB, Name: e.FromName}
	switch e.Action {
	case model.ActionDelete:
		return l.deleteObject(ctx, target)
	case model.ActionRename:
		return l.renameObject(ctx, source, target)
	case model.ActionReplace:
		if e.Phase == model.ReplacePhaseClear {
			return l.deleteObject(ctx, target)
		}
		return l.renameObject(ctx, source, target)
	case model.ActionExchange:
		temp := handler.Object{Engine: e.Engine, DB: e.DB, Name: e.TmpName}
		switch e.Phase {
		case model.ExchangePhaseNameToTemp:
			return l.renameObject(ctx, target, temp)
		case model.ExchangePhaseFromToName:
			return l.renameObject(ctx, source, target)
		default:
			return l.renameObject(ctx, temp, source)
		}
	case model.ActionRenameTable:
		switch e.Phase {
		case model.RenameTablePhaseTrigger:
			return l.renameMeta(ctx, source, target, handler.MetaHandler.RenameTriggers)
		case model.RenameTablePhaseStat:
			return l.renameMeta(ctx, source, target, handler.MetaHandler.RenameStats)
		default:
			return l.renameObject(ctx, source, target)
		}
	case model.ActionRenameView:
		if e.Phase == model.RenameViewPhaseTrigger {
			return l.renameMeta(ctx, source, target, handler.MetaHandler.RenameTriggers)
		}
		return l.renameObject(ctx, source, target)
	}
	return ddllogerrors.ErrInvalidPhase.GenWithStackByArgs(e.Phase, e.Action.String())
}

// deleteObject drops obj. A missing object was already dropped.
func (l *Log) deleteObject(ctx context.Context, obj handler.Object) error {
	h, err := l.router.Handler(obj.Engine)
	if err != nil {
		return err
	}
	err = h.Delete(ctx, obj)
	if ddllogerrors.ErrObjectNotExist.Equal(err) {
		return nil
	}
	return err
}

// renameObject renames from to to. A missing source with the target in place
// was already renamed.
func (l *Log) renameObject(ctx context.Context, from, to handler.Object) error {
	h, err := l.router.Handler(from.Engine)
	if err != nil {
		return err
	}
	ok, err := h.Exists(ctx, from)
	if err != nil {
		return err
	}
	if !ok {
		if ok, err = h.Exists(ctx, to); err != nil {
			return err
		} else if ok {
			return nil
		}
		return ddllogerrors.ErrObjectNotExist.GenWithStackByArgs(from.String())
	}
	return h.Rename(ctx, from, to)
}

// renameMeta moves metadata rows of from to to. Nothing to move is success.
func (l *Log) renameMeta(ctx context.Context, from, to handler.Object,
	fn func(handler.MetaHandler, context.Context, handler.Object, handler.Object) (int, error)) error {
	meta := l.router.Meta()
	if meta == nil {
		return ddllogerrors.ErrUnknownEngine.GenWithStackByArgs("metadata")
	}
	n, err := fn(meta, ctx, from, to)
	if err != nil {
		return err
	}
	logutil.Logger(ctx).Debug("metadata renamed", zap.Stringer("from", from), zap.Stringer("to", to), zap.Int("rows", n))
	return nil
}
