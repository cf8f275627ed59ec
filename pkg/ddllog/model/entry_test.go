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

package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhaseCount(t *testing.T) {
	cases := []struct {
		kind  ActionKind
		count uint8
	}{
		{ActionDelete, 1},
		{ActionRename, 1},
		{ActionReplace, 2},
		{ActionExchange, 3},
		{ActionRenameTable, 3},
		{ActionRenameView, 2},
		{ActionKind(42), 0},
	}
	for _, c := range cases {
		require.Equal(t, c.count, PhaseCount(c.kind), c.kind.String())
	}

	require.True(t, ValidPhase(ActionExchange, ExchangePhaseTempToFrom))
	require.False(t, ValidPhase(ActionExchange, 3))
	require.True(t, ValidPhase(ActionDelete, FinalPhase))
	require.False(t, ValidPhase(ActionKind(42), 0))

	require.Equal(t, "move", PhaseName(ActionReplace, ReplacePhaseMove))
	require.Equal(t, "stat", PhaseName(ActionRenameTable, RenameTablePhaseStat))
	require.Equal(t, "final", PhaseName(ActionRename, FinalPhase))
	require.Equal(t, "invalid phase 7", PhaseName(ActionRename, 7))
}

func TestEnumString(t *testing.T) {
	require.Equal(t, "chain head", EntryChainHead.String())
	require.Equal(t, "invalid entry type 9", EntryType(9).String())
	require.Equal(t, "rename table", ActionRenameTable.String())
	require.Equal(t, "invalid action 9", ActionKind(9).String())
}

func TestEntryValidate(t *testing.T) {
	e := &Entry{Type: EntryStep, Action: ActionReplace, Phase: ReplacePhaseMove}
	require.NoError(t, e.Validate())
	require.True(t, e.IsEnabled())

	e.Phase = 2
	require.ErrorContains(t, e.Validate(), "phase 2 is out of range")
	e.Phase = FinalPhase
	require.NoError(t, e.Validate())
	require.False(t, e.IsEnabled())
	require.True(t, e.IsFinal())

	e.Action = ActionKind(100)
	require.ErrorContains(t, e.Validate(), "action kind 100")

	e = &Entry{Type: EntryType(7)}
	err := e.Validate()
	require.ErrorContains(t, err, "entry type 7")
	// the error carries the stack of the check
	require.Contains(t, fmt.Sprintf("%+v", err), "Validate")

	// Non step entries don't use the action and phase fields.
	e = &Entry{Type: EntryChainHead, Action: ActionKind(100), Phase: 5}
	require.NoError(t, e.Validate())
	require.True(t, e.IsEnabled())
	require.False(t, (&Entry{Type: EntryIgnored}).IsEnabled())
}

func TestEntryCloneAndString(t *testing.T) {
	e := &Entry{Type: EntryStep, Action: ActionRename, Position: 3, Next: 2, DB: "test", Name: "t2", FromDB: "test", FromName: "t1"}
	c := e.Clone()
	c.Name = "t3"
	require.Equal(t, "t2", e.Name)
	require.Equal(t, "pos 3 step rename phase rename next 2 test.t2 <- test.t1", e.String())

	h := &Entry{Type: EntryChainHead, Position: 4, Next: 3, XID: 10}
	require.Equal(t, "pos 4 chain head enabled next 3 xid 10", h.String())
	h.Phase = FinalPhase
	require.Equal(t, "pos 4 chain head disabled next 3 xid 10", h.String())
	require.Equal(t, "pos 5 ignored", (&Entry{Type: EntryIgnored, Position: 5}).String())
}
