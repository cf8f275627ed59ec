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

// Package faultfs wraps an afero.Fs and fails selected file operations on
// demand. It is used to simulate device errors under the ddl log.
package faultfs

import (
	"os"

	"github.com/pingcap/errors"
	"github.com/spf13/afero"
	"go.uber.org/atomic"
)

// Op is a file operation that can be failed.
type Op uint32

// List of operations.
const (
	OpRead Op = 1 << iota
	OpWrite
	OpSync
	OpTruncate
	OpOpen
	OpRename
	OpRemove
)

// ErrInjected is returned by failed operations.
var ErrInjected = errors.New("injected device error")

// Fs is an afero.Fs with fault injection.
type Fs struct {
	afero.Fs
	failing *atomic.Uint32
	// countdown is the number of matching operations let through before
	// failing, -1 fails immediately.
	countdown *atomic.Int64
}

// New wraps fs.
func New(fs afero.Fs) *Fs {
	return &Fs{Fs: fs, failing: atomic.NewUint32(0), countdown: atomic.NewInt64(0)}
}

// Fail makes every following op in ops fail.
func (f *Fs) Fail(ops Op) {
	f.countdown.Store(0)
	f.failing.Store(uint32(ops))
}

// FailAfter lets n matching operations succeed, then fails the rest.
func (f *Fs) FailAfter(ops Op, n int64) {
	f.countdown.Store(n)
	f.failing.Store(uint32(ops))
}

// Heal stops failing operations.
func (f *Fs) Heal() {
	f.failing.Store(0)
	f.countdown.Store(0)
}

func (f *Fs) check(op Op) error {
	if Op(f.failing.Load())&op == 0 {
		return nil
	}
	if f.countdown.Dec() >= 0 {
		return nil
	}
	return errors.Trace(ErrInjected)
}

// OpenFile implements afero.Fs interface.
func (f *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := f.check(OpOpen); err != nil {
		return nil, err
	}
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &File{File: file, fs: f}, nil
}

// Open implements afero.Fs interface.
func (f *Fs) Open(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDONLY, 0)
}

// Create implements afero.Fs interface.
func (f *Fs) Create(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// Rename implements afero.Fs interface.
func (f *Fs) Rename(oldname, newname string) error {
	if err := f.check(OpRename); err != nil {
		return err
	}
	return f.Fs.Rename(oldname, newname)
}

// Remove implements afero.Fs interface.
func (f *Fs) Remove(name string) error {
	if err := f.check(OpRemove); err != nil {
		return err
	}
	return f.Fs.Remove(name)
}

// File is an afero.File opened through Fs.
type File struct {
	afero.File
	fs *Fs
}

// ReadAt implements io.ReaderAt interface.
func (f *File) ReadAt(b []byte, off int64) (int, error) {
	if err := f.fs.check(OpRead); err != nil {
		return 0, err
	}
	return f.File.ReadAt(b, off)
}

// WriteAt implements io.WriterAt interface.
func (f *File) WriteAt(b []byte, off int64) (int, error) {
	if err := f.fs.check(OpWrite); err != nil {
		return 0, err
	}
	return f.File.WriteAt(b, off)
}

// Sync implements afero.File interface.
func (f *File) Sync() error {
	if err := f.fs.check(OpSync); err != nil {
		return err
	}
	return f.File.Sync()
}

// Truncate implements afero.File interface.
func (f *File) Truncate(size int64) error {
	if err := f.fs.check(OpTruncate); err != nil {
		return err
	}
	return f.File.Truncate(size)
}
