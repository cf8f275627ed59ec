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

package dbterror

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/ddllog/pkg/errno"
	"github.com/pingcap/errors"
)

// ErrClass represents a class of errors.
type ErrClass int

// ErrCode represents a specific error type in a error class.
// Same error code can be used in different error classes.
type ErrCode int

// Error classes
const (
	ClassDDLLog ErrClass = iota + 1
	ClassHandler
	ClassCatalog
	ClassConfig
	// Add more as needed.
)

var errClassToDesc = map[ErrClass]string{
	ClassDDLLog:  "ddllog",
	ClassHandler: "handler",
	ClassCatalog: "catalog",
	ClassConfig:  "config",
}

// String implements fmt.Stringer interface.
func (ec ErrClass) String() string {
	if s, ok := errClassToDesc[ec]; ok {
		return s
	}
	return strconv.Itoa(int(ec))
}

func (ec ErrClass) codeText(code ErrCode) string {
	return fmt.Sprintf("DDLLog:%s:%d", ec, code)
}

// NewStd calls New using the standard message for the error code.
func (ec ErrClass) NewStd(code ErrCode) *errors.Error {
	msg, ok := errno.ErrName[uint16(code)]
	if !ok {
		return ec.New(code, "unknown error")
	}
	return ec.NewStdErr(code, msg)
}

// NewStdErr defines an *Error with an error code and an error message.
func (ec ErrClass) NewStdErr(code ErrCode, message *errno.ErrMessage) *errors.Error {
	opts := []errors.NormalizeOption{
		errors.RFCCodeText(ec.codeText(code)),
		errors.MySQLErrorCode(int(code)),
	}
	if len(message.RedactArgPos) > 0 {
		opts = append(opts, errors.RedactArgs(message.RedactArgPos))
	}
	return errors.Normalize(message.Raw, opts...)
}

// New defines an *Error with an error code and a plain message.
func (ec ErrClass) New(code ErrCode, message string) *errors.Error {
	return errors.Normalize(message, errors.RFCCodeText(ec.codeText(code)), errors.MySQLErrorCode(int(code)))
}

// EqualClass returns true if err is *Error with the same class.
func (ec ErrClass) EqualClass(err error) bool {
	e := errors.Cause(err)
	if e == nil {
		return false
	}
	if te, ok := e.(*errors.Error); ok {
		return strings.HasPrefix(string(te.RFCCode()), "DDLLog:"+ec.String()+":")
	}
	return false
}

// ToErrCode returns the numeric code carried by err, or 0 when err is not a
// class error.
func ToErrCode(err error) ErrCode {
	if te, ok := errors.Cause(err).(*errors.Error); ok {
		return ErrCode(te.Code())
	}
	return 0
}
