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

package ddllogerrors

import (
	"github.com/pingcap/ddllog/pkg/errno"
	"github.com/pingcap/ddllog/pkg/util/dbterror"
)

// ddl log error definitions.
var (
	// ErrIOFault is returned when the log file could not be read, written or synced.
	ErrIOFault = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogIOFault)
	// ErrRecordNotFound is returned when a position is past the end of the log.
	ErrRecordNotFound = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogRecordNotFound)
	// ErrActionFailed is returned when a physical action of a step failed.
	ErrActionFailed = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogActionFailed)
	// ErrCorruptRecord is returned when a record is outside its valid domain.
	ErrCorruptRecord = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogCorruptRecord)
	// ErrStillActive is returned when releasing an enabled chain head.
	ErrStillActive = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogStillActive)
	// ErrNameTooLong is returned when a record does not fit in one block.
	ErrNameTooLong = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogNameTooLong)
	// ErrInvalidFile is returned when the log file header is not recognized.
	ErrInvalidFile = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogInvalidFile)
	// ErrInvalidPhase is returned when a phase is outside the action's range.
	ErrInvalidPhase = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogInvalidPhase)
	// ErrHandleNotInUse is returned when releasing or activating a free handle.
	ErrHandleNotInUse = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogHandleNotInUse)
	// ErrNoExecuteEntry is returned when a state has no chain head yet.
	ErrNoExecuteEntry = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogNoExecuteEntry)
	// ErrClosed is returned when using a closed log.
	ErrClosed = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogClosed)
	// ErrSimulatedCrash is returned by the crash failpoint of the executor.
	ErrSimulatedCrash = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogSimulatedCrash)
	// ErrChainCycle is returned when a chain links back to a visited position.
	ErrChainCycle = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogChainCycle)
	// ErrInvalidIOSize is returned when the block size is not usable.
	ErrInvalidIOSize = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogInvalidIOSize)
	// ErrInvalidPosition is returned for position 0 or a position out of the index.
	ErrInvalidPosition = dbterror.ClassDDLLog.NewStd(errno.ErrDDLLogPositionInvalid)
)

// handler error definitions.
var (
	// ErrObjectNotExist is returned when the object of an action is missing.
	ErrObjectNotExist = dbterror.ClassHandler.NewStd(errno.ErrObjectNotExist)
	// ErrObjectExists is returned when the target of a rename is occupied.
	ErrObjectExists = dbterror.ClassHandler.NewStd(errno.ErrObjectExists)
	// ErrUnknownEngine is returned when no handler serves an engine.
	ErrUnknownEngine = dbterror.ClassHandler.NewStd(errno.ErrUnknownEngine)
	// ErrHandlerIO is returned when the file system failed.
	ErrHandlerIO = dbterror.ClassHandler.NewStd(errno.ErrHandlerIO)
)

// catalog error definitions.
var (
	// ErrCatalogIO is returned when the catalog storage failed.
	ErrCatalogIO = dbterror.ClassCatalog.NewStd(errno.ErrCatalogIO)
	// ErrCatalogInvalidName is returned for names the key encoding can't hold.
	ErrCatalogInvalidName = dbterror.ClassCatalog.NewStd(errno.ErrCatalogInvalidName)
	// ErrCatalogAlreadyExist is returned when creating an existing row.
	ErrCatalogAlreadyExist = dbterror.ClassCatalog.NewStd(errno.ErrCatalogAlreadyExist)
)

// config error definitions.
var (
	// ErrInvalidConfig is returned when a config value is out of its domain.
	ErrInvalidConfig = dbterror.ClassConfig.NewStd(errno.ErrConfigInvalid)
	// ErrUnknownConfigOption is returned when a config file has unknown keys.
	ErrUnknownConfigOption = dbterror.ClassConfig.NewStd(errno.ErrConfigUnknownOption)
)
