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
	"strconv"

	"github.com/pingcap/errors"
)

// EntryType is the type of a ddl log record.
type EntryType uint8

// List of entry types.
const (
	// EntryUnknown marks a block that was never written, it is all zero.
	EntryUnknown EntryType = iota
	// EntryChainHead is an execute entry. Its Next field points at the first
	// step of the chain it governs.
	EntryChainHead
	// EntryStep is an action to be executed as part of a chain.
	EntryStep
	// EntryIgnored is a logically deleted record.
	EntryIgnored

	entryTypeEnd
)

var entryTypeNames = [...]string{
	EntryUnknown:   "unknown",
	EntryChainHead: "chain head",
	EntryStep:      "step",
	EntryIgnored:   "ignored",
}

// String implements fmt.Stringer interface.
func (t EntryType) String() string {
	if t < entryTypeEnd {
		return entryTypeNames[t]
	}
	return "invalid entry type " + strconv.Itoa(int(t))
}

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t < entryTypeEnd
}

// ActionKind is the physical action a step performs.
type ActionKind uint8

// List of action kinds.
const (
	// ActionDelete removes an object.
	ActionDelete ActionKind = iota
	// ActionRename renames FromDB.FromName to DB.Name.
	ActionRename
	// ActionReplace drops DB.Name if it exists, then renames
	// FromDB.FromName to DB.Name.
	ActionReplace
	// ActionExchange swaps DB.Name and FromDB.FromName through DB.TmpName.
	ActionExchange
	// ActionRenameTable renames the triggers, the statistics and the table
	// FromDB.FromName to DB.Name.
	ActionRenameTable
	// ActionRenameView renames the trigger references and the view
	// FromDB.FromName to DB.Name.
	ActionRenameView

	actionKindEnd
)

var actionKindNames = [...]string{
	ActionDelete:      "delete",
	ActionRename:      "rename",
	ActionReplace:     "replace",
	ActionExchange:    "exchange",
	ActionRenameTable: "rename table",
	ActionRenameView:  "rename view",
}

// String implements fmt.Stringer interface.
func (k ActionKind) String() string {
	if k < actionKindEnd {
		return actionKindNames[k]
	}
	return "invalid action " + strconv.Itoa(int(k))
}

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	return k < actionKindEnd
}

// FinalPhase marks a record as completed. Setting it has the same effect as
// changing the entry type to EntryIgnored.
const FinalPhase uint8 = 0xff

// Phases of ActionReplace.
const (
	ReplacePhaseClear uint8 = iota
	ReplacePhaseMove
)

// Phases of ActionExchange.
const (
	ExchangePhaseNameToTemp uint8 = iota
	ExchangePhaseFromToName
	ExchangePhaseTempToFrom
)

// Phases of ActionRenameTable.
const (
	RenameTablePhaseTrigger uint8 = iota
	RenameTablePhaseStat
	RenameTablePhaseTable
)

// Phases of ActionRenameView.
const (
	RenameViewPhaseTrigger uint8 = iota
	RenameViewPhaseView
)

var phaseCounts = [...]uint8{
	ActionDelete:      1,
	ActionRename:      1,
	ActionReplace:     2,
	ActionExchange:    3,
	ActionRenameTable: 3,
	ActionRenameView:  2,
}

var phaseNames = [...][]string{
	ActionDelete:      {"delete"},
	ActionRename:      {"rename"},
	ActionReplace:     {"clear", "move"},
	ActionExchange:    {"to temp", "from to name", "temp to from"},
	ActionRenameTable: {"trigger", "stat", "table"},
	ActionRenameView:  {"trigger", "view"},
}

// PhaseCount returns the number of phases of k, 0 for an invalid kind.
func PhaseCount(k ActionKind) uint8 {
	if !k.Valid() {
		return 0
	}
	return phaseCounts[k]
}

// PhaseName returns a readable name of phase p of kind k.
func PhaseName(k ActionKind, p uint8) string {
	if p == FinalPhase {
		return "final"
	}
	if !k.Valid() || p >= phaseCounts[k] {
		return "invalid phase " + strconv.Itoa(int(p))
	}
	return phaseNames[k][p]
}

// ValidPhase reports whether p is a legal phase of kind k.
func ValidPhase(k ActionKind, p uint8) bool {
	return p == FinalPhase || p < PhaseCount(k)
}

// Entry is one ddl log record.
type Entry struct {
	Type   EntryType
	Action ActionKind
	// Phase is the next phase to execute, or FinalPhase.
	Phase uint8
	// Next is the position of the next step, 0 terminates the chain.
	Next uint32
	// Position is set when the entry is allocated and never changes.
	Position uint32
	// XID is the binlog transaction of the statement, 0 if none.
	XID uint64

	// Engine is the handler tag used to find the object handler.
	Engine   string
	DB       string
	Name     string
	FromDB   string
	FromName string
	TmpName  string
}

// Clone returns a copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// IsFinal reports whether e is completed.
func (e *Entry) IsFinal() bool {
	return e.Phase == FinalPhase
}

// IsEnabled reports whether e is a chain head or a step that still has work
// to do.
func (e *Entry) IsEnabled() bool {
	return (e.Type == EntryChainHead || e.Type == EntryStep) && e.Phase != FinalPhase
}

// Validate checks that every field is inside its domain.
func (e *Entry) Validate() error {
	if !e.Type.Valid() {
		return errors.Errorf("entry type %d is out of range", e.Type)
	}
	if e.Type != EntryStep {
		return nil
	}
	if !e.Action.Valid() {
		return errors.Errorf("action kind %d is out of range", e.Action)
	}
	if !ValidPhase(e.Action, e.Phase) {
		return errors.Errorf("phase %d is out of range for %s", e.Phase, e.Action)
	}
	return nil
}

// String implements fmt.Stringer interface.
func (e *Entry) String() string {
	switch e.Type {
	case EntryStep:
		return fmt.Sprintf("pos %d step %s phase %s next %d %s.%s <- %s.%s",
			e.Position, e.Action, PhaseName(e.Action, e.Phase), e.Next, e.DB, e.Name, e.FromDB, e.FromName)
	case EntryChainHead:
		phase := "enabled"
		if e.IsFinal() {
			phase = "disabled"
		}
		return fmt.Sprintf("pos %d chain head %s next %d xid %d", e.Position, phase, e.Next, e.XID)
	default:
		return fmt.Sprintf("pos %d %s", e.Position, e.Type)
	}
}
