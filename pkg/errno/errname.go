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

package errno

// ErrMessage is the message template of an error code.
type ErrMessage struct {
	Raw string
	// RedactArgPos lists the positions of arguments that carry user data.
	RedactArgPos []int
}

// Message creates an error message with the format specified.
func Message(message string, redactArgs []int) *ErrMessage {
	return &ErrMessage{Raw: message, RedactArgPos: redactArgs}
}

// ErrName maps error codes to their message templates.
var ErrName = map[uint16]*ErrMessage{
	ErrDDLLogIOFault:         Message("ddl log I/O error during %s: %s", nil),
	ErrDDLLogRecordNotFound:  Message("ddl log has no record at position %d", nil),
	ErrDDLLogActionFailed:    Message("ddl log action %s (phase %d) at position %d failed: %s", nil),
	ErrDDLLogCorruptRecord:   Message("ddl log record at position %d is corrupt: %s", nil),
	ErrDDLLogStillActive:     Message("ddl log entry at position %d is still active", nil),
	ErrDDLLogNameTooLong:     Message("ddl log record at position %d does not fit in %d bytes", nil),
	ErrDDLLogInvalidFile:     Message("invalid ddl log file '%s': %s", []int{0}),
	ErrDDLLogInvalidPhase:    Message("phase %d is out of range for action %s", nil),
	ErrDDLLogHandleNotInUse:  Message("ddl log entry at position %d is not in use", nil),
	ErrDDLLogNoExecuteEntry:  Message("ddl log state has no execute entry", nil),
	ErrDDLLogClosed:          Message("ddl log is closed", nil),
	ErrDDLLogSimulatedCrash:  Message("simulated crash before advancing position %d to phase %d", nil),
	ErrDDLLogChainCycle:      Message("ddl log chain revisits position %d", nil),
	ErrDDLLogInvalidIOSize:   Message("invalid ddl log io size %d", nil),
	ErrDDLLogPositionInvalid: Message("invalid ddl log position %d", nil),

	ErrObjectNotExist:      Message("object '%s' does not exist", []int{0}),
	ErrObjectExists:        Message("object '%s' already exists", []int{0}),
	ErrUnknownEngine:       Message("unknown engine '%s'", nil),
	ErrHandlerIO:           Message("handler I/O error on '%s': %s", []int{0}),
	ErrCatalogIO:           Message("catalog I/O error: %s", nil),
	ErrCatalogInvalidName:  Message("invalid catalog name '%s'", []int{0}),
	ErrCatalogAlreadyExist: Message("catalog row '%s' already exists", []int{0}),

	ErrConfigInvalid:       Message("invalid configuration: %s", nil),
	ErrConfigUnknownOption: Message("config file %s contained invalid configuration options: %s", []int{0}),
}
