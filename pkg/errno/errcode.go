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

// ddl log error codes.
const (
	ErrDDLLogIOFault         = 8300
	ErrDDLLogRecordNotFound  = 8301
	ErrDDLLogActionFailed    = 8302
	ErrDDLLogCorruptRecord   = 8303
	ErrDDLLogStillActive     = 8304
	ErrDDLLogNameTooLong     = 8305
	ErrDDLLogInvalidFile     = 8306
	ErrDDLLogInvalidPhase    = 8307
	ErrDDLLogHandleNotInUse  = 8308
	ErrDDLLogNoExecuteEntry  = 8309
	ErrDDLLogClosed          = 8310
	ErrDDLLogSimulatedCrash  = 8311
	ErrDDLLogChainCycle      = 8312
	ErrDDLLogInvalidIOSize   = 8313
	ErrDDLLogPositionInvalid = 8314
)

// physical action handler error codes.
const (
	ErrObjectNotExist      = 8350
	ErrObjectExists        = 8351
	ErrUnknownEngine       = 8352
	ErrHandlerIO           = 8353
	ErrCatalogIO           = 8360
	ErrCatalogInvalidName  = 8361
	ErrCatalogAlreadyExist = 8362
)

// config error codes.
const (
	ErrConfigInvalid       = 8370
	ErrConfigUnknownOption = 8371
)
