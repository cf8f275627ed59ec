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
	"fmt"
	"testing"

	"github.com/pingcap/ddllog/pkg/ddllog/handler"
	"github.com/pingcap/ddllog/pkg/ddllog/handler/mock"
	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestReplaceCrash(t *testing.T) {
	for _, crashPhase := range []string{"return(0)", "return(1)"} {
		t.Run(crashPhase, func(t *testing.T) {
			env := newTestEnv(t)
			env.createTable(t, "test", "src", "new")
			env.createTable(t, "test", "dst", "old")

			l := env.open(t)
			st := l.NewState()
			h, err := st.AddEntry(&model.Entry{Action: model.ActionReplace, Engine: testEngine, DB: "test", Name: "dst", FromDB: "test", FromName: "src"})
			require.NoError(t, err)
			require.NoError(t, st.WriteExecuteEntry())

			disableCrash := enableCrash(t, crashPhase)
			err = l.ExecuteEntry(context.Background(), st.FirstStep())
			require.True(t, ddllogerrors.ErrSimulatedCrash.Equal(err))
			if crashPhase == "return(0)" {
				// cleared, not moved
				require.Equal(t, "", env.content(t, "test", "dst"))
				require.Equal(t, "new", env.content(t, "test", "src"))
				require.Equal(t, model.ReplacePhaseClear, entryAt(t, l, h.Position()).Phase)
			} else {
				require.Equal(t, "new", env.content(t, "test", "dst"))
				require.Equal(t, "", env.content(t, "test", "src"))
				require.Equal(t, model.ReplacePhaseMove, entryAt(t, l, h.Position()).Phase)
			}
			disableCrash()
			require.NoError(t, l.Close())

			l2 := env.open(t)
			report, err := l2.Recover(context.Background(), nil)
			require.NoError(t, err)
			require.Equal(t, 1, report.Executed)
			require.Equal(t, "new", env.content(t, "test", "dst"))
			require.Equal(t, "", env.content(t, "test", "src"))
			require.Equal(t, 0, l2.ActiveChains())
		})
	}
}

func TestReplacePersistedAtMove(t *testing.T) {
	env := newTestEnv(t)
	env.createTable(t, "test", "src", "new")

	l := env.open(t)
	st := l.NewState()
	_, err := st.AddEntry(&model.Entry{Action: model.ActionReplace, Engine: testEngine, DB: "test", Name: "dst", FromDB: "test", FromName: "src"})
	require.NoError(t, err)
	require.NoError(t, st.WriteExecuteEntry())
	require.NoError(t, st.UpdatePhase(model.ReplacePhaseMove))
	require.NoError(t, l.Close())

	l2 := env.open(t)
	report, err := l2.Recover(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Executed)
	require.Equal(t, "new", env.content(t, "test", "dst"))
	require.Equal(t, "", env.content(t, "test", "src"))
}

func TestExchangeCrash(t *testing.T) {
	for phase := 0; phase < 3; phase++ {
		t.Run(model.PhaseName(model.ActionExchange, uint8(phase)), func(t *testing.T) {
			env := newTestEnv(t)
			env.createTable(t, "test", "a", "A")
			env.createTable(t, "test", "b", "B")

			l := env.open(t)
			st := l.NewState()
			_, err := st.AddEntry(&model.Entry{Action: model.ActionExchange, Engine: testEngine, DB: "test", Name: "a", FromDB: "test", FromName: "b", TmpName: "#tmp"})
			require.NoError(t, err)
			require.NoError(t, st.WriteExecuteEntry())

			disableCrash := enableCrash(t, fmt.Sprintf("return(%d)", phase))
			err = l.ExecuteEntry(context.Background(), st.FirstStep())
			require.True(t, ddllogerrors.ErrSimulatedCrash.Equal(err))
			a, b := env.content(t, "test", "a"), env.content(t, "test", "b")
			require.False(t, a == "" && b == "", "both tables are missing after phase %d", phase)
			disableCrash()
			require.NoError(t, l.Close())

			l2 := env.open(t)
			report, err := l2.Recover(context.Background(), nil)
			require.NoError(t, err)
			require.Equal(t, 1, report.Executed)
			require.Equal(t, "B", env.content(t, "test", "a"))
			require.Equal(t, "A", env.content(t, "test", "b"))
			require.Equal(t, "", env.content(t, "test", "#tmp"))
		})
	}
}

func TestExchangeNormalPath(t *testing.T) {
	env := newTestEnv(t)
	env.createTable(t, "test", "a", "A")
	env.createTable(t, "test", "b", "B")
	l := env.open(t)
	st := l.NewState()
	h, err := st.AddEntry(&model.Entry{Action: model.ActionExchange, Engine: testEngine, DB: "test", Name: "a", FromDB: "test", FromName: "b", TmpName: "#tmp"})
	require.NoError(t, err)
	require.NoError(t, st.WriteExecuteEntry())
	require.NoError(t, l.ExecuteEntry(context.Background(), st.FirstStep()))
	require.True(t, entryAt(t, l, h.Position()).IsFinal())
	require.Equal(t, "B", env.content(t, "test", "a"))
	require.Equal(t, "A", env.content(t, "test", "b"))
	require.NoError(t, st.Complete())
}

func newMockRouter(t *testing.T) (*handler.Router, *mock.MockObjectHandler, *mock.MockMetaHandler) {
	ctrl := gomock.NewController(t)
	obj := mock.NewMockObjectHandler(ctrl)
	meta := mock.NewMockMetaHandler(ctrl)
	router := handler.NewRouter(meta)
	router.Register(testEngine, obj)
	router.Register(ViewEngine, obj)
	return router, obj, meta
}

func TestRenameTableOrder(t *testing.T) {
	router, obj, meta := newMockRouter(t)
	l := openTestLog(t, afero.NewMemMapFs(), router)
	from := handler.Object{Engine: testEngine, DB: "test", Name: "t1"}
	to := handler.Object{Engine: testEngine, DB: "db2", Name: "t2"}

	gomock.InOrder(
		meta.EXPECT().RenameTriggers(gomock.Any(), from, to).Return(2, nil),
		meta.EXPECT().RenameStats(gomock.Any(), from, to).Return(0, nil),
		obj.EXPECT().Exists(gomock.Any(), from).Return(true, nil),
		obj.EXPECT().Rename(gomock.Any(), from, to).Return(nil),
	)
	st := l.NewState()
	require.NoError(t, l.RenameTable(context.Background(), st, testEngine, "test", "t1", "db2", "t2"))
	require.Equal(t, 0, l.ActiveChains())
	require.True(t, entryAt(t, l, st.FirstStep()).IsFinal())
	require.NoError(t, st.Release())
}

func TestRenameTableResumesInOrder(t *testing.T) {
	router, obj, meta := newMockRouter(t)
	fs := afero.NewMemMapFs()
	from := handler.Object{Engine: testEngine, DB: "test", Name: "t1"}
	to := handler.Object{Engine: testEngine, DB: "test", Name: "t2"}

	l := openTestLog(t, fs, router)
	st := l.NewState()
	_, err := st.AddEntry(&model.Entry{Action: model.ActionRenameTable, Engine: testEngine, DB: "test", Name: "t2", FromDB: "test", FromName: "t1"})
	require.NoError(t, err)
	require.NoError(t, st.WriteExecuteEntry())
	// The trigger phase finished before the crash.
	require.NoError(t, st.UpdatePhase(model.RenameTablePhaseStat))
	require.NoError(t, l.Close())

	gomock.InOrder(
		meta.EXPECT().RenameStats(gomock.Any(), from, to).Return(1, nil),
		obj.EXPECT().Exists(gomock.Any(), from).Return(true, nil),
		obj.EXPECT().Rename(gomock.Any(), from, to).Return(nil),
	)
	l2 := openTestLog(t, fs, router)
	report, err := l2.Recover(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Executed)
}

func TestRenameTableEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.createTable(t, "test", "t1", "data")
	require.NoError(t, env.cat.CreateTrigger("test", "t1", "trg", []byte("BEFORE INSERT")))
	require.NoError(t, env.cat.PutStats("test", "t1", "table_stats", []byte("rows=1")))

	l := env.open(t)
	st := l.NewState()
	require.NoError(t, l.RenameTable(context.Background(), st, testEngine, "test", "t1", "db2", "t2"))
	require.NoError(t, l.RenameTable(context.Background(), st, testEngine, "db2", "t2", "db2", "t3"))
	require.Len(t, st.Steps(), 2)
	require.NoError(t, st.Complete())

	require.Equal(t, "data", env.content(t, "db2", "t3"))
	require.Equal(t, "", env.content(t, "test", "t1"))
	names, err := env.cat.Triggers("db2", "t3")
	require.NoError(t, err)
	require.Equal(t, []string{"trg"}, names)
	stats, err := env.cat.Stats("db2", "t3")
	require.NoError(t, err)
	require.Len(t, stats, 1)
}

func TestRenameView(t *testing.T) {
	env := newTestEnv(t)
	v1 := handler.Object{Engine: ViewEngine, DB: "test", Name: "v1"}
	require.NoError(t, env.cat.CreateObject(v1, []byte("select 1")))

	l := env.open(t)
	st := l.NewState()
	require.NoError(t, l.RenameView(context.Background(), st, "test", "v1", "test", "v2"))
	require.NoError(t, st.Complete())
	def, ok, err := env.cat.Object(handler.Object{Engine: ViewEngine, DB: "test", Name: "v2"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "select 1", string(def))

	// A missing view fails and keeps the chain for recovery.
	st = l.NewState()
	err = l.RenameView(context.Background(), st, "test", "nope", "test", "v3")
	require.True(t, ddllogerrors.ErrActionFailed.Equal(err))
	require.Equal(t, 1, l.ActiveChains())
	require.True(t, ddllogerrors.ErrStillActive.Equal(st.Release()))
}

func TestBuilderKeepsPendingSteps(t *testing.T) {
	router, obj, meta := newMockRouter(t)
	l := openTestLog(t, afero.NewMemMapFs(), router)
	st := l.NewState()
	// A step logged for the revert path is not run by the builder.
	pending, err := st.AddEntry(&model.Entry{Action: model.ActionDelete, Engine: testEngine, DB: "test", Name: "tmp"})
	require.NoError(t, err)

	meta.EXPECT().RenameTriggers(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	meta.EXPECT().RenameStats(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	obj.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(true, nil)
	obj.EXPECT().Rename(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, l.RenameTable(context.Background(), st, testEngine, "test", "t1", "test", "t2"))
	require.Equal(t, uint8(0), entryAt(t, l, pending.Position()).Phase)
	require.Equal(t, 1, l.ActiveChains())

	obj.EXPECT().Delete(gomock.Any(), handler.Object{Engine: testEngine, DB: "test", Name: "tmp"}).Return(nil)
	require.NoError(t, st.Revert(context.Background()))
	require.Equal(t, 0, l.ActiveChains())
	require.Empty(t, st.Steps())
}

func TestIdempotentPhases(t *testing.T) {
	env := newTestEnv(t)
	l := env.open(t)
	ctx := context.Background()
	env.createTable(t, "test", "t1", "x")
	env.createTable(t, "test", "gone", "y")

	del := &model.Entry{Type: model.EntryStep, Action: model.ActionDelete, Engine: testEngine, DB: "test", Name: "gone"}
	require.NoError(t, l.runPhase(ctx, del))
	require.NoError(t, l.runPhase(ctx, del))
	require.Equal(t, "", env.content(t, "test", "gone"))

	ren := &model.Entry{Type: model.EntryStep, Action: model.ActionRename, Engine: testEngine, DB: "test", Name: "t2", FromDB: "test", FromName: "t1"}
	require.NoError(t, l.runPhase(ctx, ren))
	require.NoError(t, l.runPhase(ctx, ren))
	require.Equal(t, "x", env.content(t, "test", "t2"))
	require.Equal(t, "", env.content(t, "test", "t1"))

	// Rename with neither side present, or both, is an error.
	missing := &model.Entry{Type: model.EntryStep, Action: model.ActionRename, Engine: testEngine, DB: "test", Name: "b", FromDB: "test", FromName: "a"}
	require.True(t, ddllogerrors.ErrObjectNotExist.Equal(l.runPhase(ctx, missing)))
	env.createTable(t, "test", "t1", "z")
	require.True(t, ddllogerrors.ErrObjectExists.Equal(l.runPhase(ctx, ren)))

	unknown := &model.Entry{Type: model.EntryStep, Action: model.ActionDelete, Engine: "Archive", DB: "test", Name: "t"}
	require.True(t, ddllogerrors.ErrUnknownEngine.Equal(l.runPhase(ctx, unknown)))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, l.runPhase(cctx, del))
}

func TestActionErrorLeavesPhase(t *testing.T) {
	router, obj, _ := newMockRouter(t)
	l := openTestLog(t, afero.NewMemMapFs(), router)
	st := l.NewState()
	h, err := st.AddEntry(&model.Entry{Action: model.ActionDelete, Engine: testEngine, DB: "test", Name: "t"})
	require.NoError(t, err)
	require.NoError(t, st.WriteExecuteEntry())

	handlerErr := ddllogerrors.ErrHandlerIO.GenWithStackByArgs("t", "disk full")
	obj.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(handlerErr)
	err = l.ExecuteEntry(context.Background(), st.FirstStep())
	require.True(t, ddllogerrors.ErrActionFailed.Equal(err))
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, uint8(0), entryAt(t, l, h.Position()).Phase)
	// the handler error stays reachable
	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	require.ErrorIs(t, err, handlerErr)
	require.True(t, ddllogerrors.ErrHandlerIO.Equal(actionErr.Unwrap()))

	obj.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(ddllogerrors.ErrHandlerIO.GenWithStackByArgs("t", "disk full"))
	require.True(t, ddllogerrors.ErrActionFailed.Equal(st.Revert(context.Background())))
	require.Equal(t, 1, l.ActiveChains())
	require.True(t, ddllogerrors.ErrStillActive.Equal(st.Release()))

	obj.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, st.Revert(context.Background()))
	require.True(t, entryAt(t, l, h.Position()).IsFinal())
	require.Equal(t, 0, l.ActiveChains())
}

func TestCloseDuringAction(t *testing.T) {
	router, obj, _ := newMockRouter(t)
	fs := afero.NewMemMapFs()
	l := openTestLog(t, fs, router)
	st := l.NewState()
	h, err := st.AddEntry(&model.Entry{Action: model.ActionDelete, Engine: testEngine, DB: "test", Name: "t"})
	require.NoError(t, err)
	require.NoError(t, st.WriteExecuteEntry())

	started, release := make(chan struct{}), make(chan struct{})
	obj.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, handler.Object) error {
		close(started)
		<-release
		return nil
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.ExecuteEntry(context.Background(), st.FirstStep())
	}()
	<-started
	require.NoError(t, l.Close())
	close(release)
	require.True(t, ddllogerrors.ErrClosed.Equal(<-errCh))

	// the phase was never advanced
	l2 := openTestLog(t, fs, router)
	require.Equal(t, uint8(0), entryAt(t, l2, h.Position()).Phase)
	require.Equal(t, 1, l2.ActiveChains())
}

func TestRevertWithoutHead(t *testing.T) {
	router, obj, _ := newMockRouter(t)
	l := openTestLog(t, afero.NewMemMapFs(), router)

	require.NoError(t, l.NewState().Revert(context.Background()))

	st := l.NewState()
	_, err := st.AddEntry(&model.Entry{Action: model.ActionDelete, Engine: testEngine, DB: "test", Name: "t"})
	require.NoError(t, err)
	obj.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(ddllogerrors.ErrObjectNotExist.GenWithStackByArgs("test.t"))
	require.NoError(t, st.Revert(context.Background()))
	require.Nil(t, st.Head())
	require.Equal(t, l.index.Len(), l.index.FreeLen())
}

func TestChainWalkStops(t *testing.T) {
	router, obj, _ := newMockRouter(t)
	l := openTestLog(t, afero.NewMemMapFs(), router)

	h1, err := l.WriteEntry(&model.Entry{Type: model.EntryStep, Action: model.ActionDelete, Engine: testEngine, DB: "test", Name: "t1"})
	require.NoError(t, err)
	// A step pointing at itself is run once.
	l.mu.Lock()
	_, err = l.store.Write(&model.Entry{Type: model.EntryStep, Action: model.ActionDelete, Position: h1.Position(), Next: h1.Position(), Engine: testEngine, DB: "test", Name: "t1"})
	l.mu.Unlock()
	require.NoError(t, err)
	obj.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	require.NoError(t, l.ExecuteEntry(context.Background(), h1.Position()))

	// next past the end terminates the chain
	require.NoError(t, l.ExecuteEntry(context.Background(), 40))
	require.NoError(t, l.ExecuteEntry(context.Background(), 0))
}

func TestLogContext(t *testing.T) {
	ctx := logCtx(context.Background())
	_, ok := ctx.Value(logutil.CtxLogKey).(*zap.Logger)
	require.True(t, ok)

	// a logger set by the caller is kept
	custom := logutil.WithFields(context.Background(), zap.String("conn", "1"))
	require.True(t, custom == logCtx(custom))
}
