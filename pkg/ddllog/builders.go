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

	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/errors"
)

// RenameTable logs the rename of orgDB.orgName to newDB.newName as one step
// of state and runs it: the triggers move first, then the statistics, then
// the table itself. Only the new step runs, steps logged before it are left
// to the caller. The chain head is disabled once no step of the chain has
// work left.
func (l *Log) RenameTable(ctx context.Context, state *State, engine, orgDB, orgName, newDB, newName string) error {
	return l.addAndRun(ctx, state, &model.Entry{
		Action:   model.ActionRenameTable,
		Engine:   engine,
		DB:       newDB,
		Name:     newName,
		FromDB:   orgDB,
		FromName: orgName,
	})
}

// RenameView logs and runs the rename of the view orgDB.orgName to
// newDB.newName: the trigger references first, then the view definition.
func (l *Log) RenameView(ctx context.Context, state *State, orgDB, orgName, newDB, newName string) error {
	return l.addAndRun(ctx, state, &model.Entry{
		Action:   model.ActionRenameView,
		Engine:   ViewEngine,
		DB:       newDB,
		Name:     newName,
		FromDB:   orgDB,
		FromName: orgName,
	})
}

func (l *Log) addAndRun(ctx context.Context, state *State, e *model.Entry) error {
	if _, err := state.AddEntry(e); err != nil {
		return err
	}
	if err := state.WriteExecuteEntry(); err != nil {
		return err
	}
	if err := l.executeStep(logCtx(ctx), e); err != nil {
		return err
	}
	done, err := l.chainDone(state.FirstStep())
	if err != nil || !done {
		return err
	}
	return l.DisableExecuteEntry(state.Head())
}

// chainDone reports whether every step of the chain starting at first is
// disabled.
func (l *Log) chainDone(first uint32) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	visited := make(map[uint32]struct{})
	for pos := first; pos != 0; {
		if _, ok := visited[pos]; ok {
			break
		}
		visited[pos] = struct{}{}
		e, err := l.store.Read(pos)
		if err != nil {
			return false, errors.Trace(err)
		}
		if e.Type != model.EntryStep {
			break
		}
		if !e.IsFinal() {
			return false, nil
		}
		pos = e.Next
	}
	return true, nil
}
