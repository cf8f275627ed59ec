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

package store

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/metrics"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/pingcap/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	minIOSize = 64
	maxIOSize = 1 << 16
)

// Store is the durable container of ddl log records. Records are fixed size
// blocks addressed by position, block 0 holds the file header.
//
// Store is not safe for concurrent use, the ddl log serializes every call.
type Store struct {
	fs         afero.Fs
	path       string
	file       afero.File
	ioSize     int
	numEntries uint32
}

// Record is one block read back by ReadAll.
type Record struct {
	Position uint32
	// Entry is nil when Err is set.
	Entry *model.Entry
	// Err is a corrupt record error, the scan goes on after it.
	Err error
}

// Open opens the log file at path, creating it when it doesn't exist.
func Open(fs afero.Fs, path string, ioSize int) (*Store, error) {
	if ioSize < minIOSize || ioSize > maxIOSize {
		return nil, ddllogerrors.ErrInvalidIOSize.GenWithStackByArgs(ioSize)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, ddllogerrors.ErrIOFault.GenWithStackByArgs("mkdir", err.Error())
	}
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return nil, ddllogerrors.ErrIOFault.GenWithStackByArgs("open", err.Error())
	}
	s := &Store{fs: fs, path: path, file: f, ioSize: ioSize}
	if err = s.init(); err != nil {
		terror := f.Close()
		if terror != nil {
			logutil.DDLLogger().Warn("close ddl log file failed", zap.Error(terror))
		}
		return nil, err
	}
	logutil.DDLLogger().Info("ddl log file opened",
		zap.String("path", path), zap.Int("io-size", ioSize), zap.Uint32("entries", s.numEntries))
	return s, nil
}

func (s *Store) init() error {
	info, err := s.file.Stat()
	if err != nil {
		return ddllogerrors.ErrIOFault.GenWithStackByArgs("stat", err.Error())
	}
	if info.Size() == 0 {
		if _, err = s.file.WriteAt(encodeHeader(s.ioSize), 0); err != nil {
			return ddllogerrors.ErrIOFault.GenWithStackByArgs("write header", err.Error())
		}
		return s.Sync()
	}
	buf := make([]byte, headerLen)
	if n, err := s.file.ReadAt(buf, 0); n < headerLen {
		if err == nil || err == io.EOF {
			return ddllogerrors.ErrInvalidFile.GenWithStackByArgs(s.path, "short header")
		}
		return ddllogerrors.ErrIOFault.GenWithStackByArgs("read header", err.Error())
	}
	fileIOSize, err := decodeHeader(s.path, buf)
	if err != nil {
		return err
	}
	if fileIOSize != s.ioSize {
		return ddllogerrors.ErrInvalidFile.GenWithStackByArgs(s.path, "io size differs from the file header")
	}
	// A torn trailing block was never referenced, it is dropped.
	blocks := info.Size() / int64(s.ioSize)
	if blocks > 0 {
		s.numEntries = uint32(blocks - 1)
	}
	return nil
}

// Path returns the path of the log file.
func (s *Store) Path() string {
	return s.path
}

// IOSize returns the size of one record block.
func (s *Store) IOSize() int {
	return s.ioSize
}

// NumEntries returns the highest position written so far.
func (s *Store) NumEntries() uint32 {
	return s.numEntries
}

// checkOpen fails every file access after Close.
func (s *Store) checkOpen() error {
	if s.file == nil {
		return ddllogerrors.ErrClosed.GenWithStackByArgs()
	}
	return nil
}

func (s *Store) offset(pos uint32) int64 {
	return int64(pos) * int64(s.ioSize)
}

// Read reads the record at pos.
func (s *Store) Read(pos uint32) (*model.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if pos == 0 || pos > s.numEntries {
		return nil, ddllogerrors.ErrRecordNotFound.GenWithStackByArgs(pos)
	}
	buf := make([]byte, s.ioSize)
	if err := s.readBlock(pos, buf); err != nil {
		return nil, err
	}
	return decodeEntry(pos, buf)
}

func (s *Store) readBlock(pos uint32, buf []byte) error {
	n, err := s.file.ReadAt(buf, s.offset(pos))
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return ddllogerrors.ErrRecordNotFound.GenWithStackByArgs(pos)
	}
	return ddllogerrors.ErrIOFault.GenWithStackByArgs("read", err.Error())
}

// ReadAll reads every record of the log. Corrupt records are returned with
// their error, only device errors stop the scan.
func (s *Store) ReadAll() ([]Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	records := make([]Record, 0, s.numEntries)
	buf := make([]byte, s.ioSize)
	for pos := uint32(1); pos <= s.numEntries; pos++ {
		if err := s.readBlock(pos, buf); err != nil {
			return nil, err
		}
		e, err := decodeEntry(pos, buf)
		records = append(records, Record{Position: pos, Entry: e, Err: err})
	}
	return records, nil
}

// Write writes the whole record at e.Position and returns the position. The
// file grows when the position is past the end.
func (s *Store) Write(e *model.Entry) (uint32, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if e.Position == 0 {
		return 0, ddllogerrors.ErrInvalidPosition.GenWithStackByArgs(e.Position)
	}
	buf, err := encodeEntry(e, s.ioSize)
	if err != nil {
		return 0, err
	}
	if _, err = s.file.WriteAt(buf, s.offset(e.Position)); err != nil {
		return 0, ddllogerrors.ErrIOFault.GenWithStackByArgs("write", err.Error())
	}
	if e.Position > s.numEntries {
		s.numEntries = e.Position
	}
	return e.Position, nil
}

// UpdatePhase rewrites the phase byte of the record at pos.
func (s *Store) UpdatePhase(pos uint32, phase uint8) error {
	return s.updateByte(pos, offPhase, phase)
}

func (s *Store) updateByte(pos uint32, off int, b byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if pos == 0 || pos > s.numEntries {
		return ddllogerrors.ErrRecordNotFound.GenWithStackByArgs(pos)
	}
	if _, err := s.file.WriteAt([]byte{b}, s.offset(pos)+int64(off)); err != nil {
		return ddllogerrors.ErrIOFault.GenWithStackByArgs("update", err.Error())
	}
	return nil
}

// Sync makes every write issued so far durable.
func (s *Store) Sync() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	start := time.Now()
	err := s.file.Sync()
	metrics.SyncDuration.WithLabelValues(metrics.RetLabel(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		return ddllogerrors.ErrIOFault.GenWithStackByArgs("sync", err.Error())
	}
	return nil
}

// Reset drops every record and keeps the header.
func (s *Store) Reset() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.file.Truncate(int64(s.ioSize)); err != nil {
		return ddllogerrors.ErrIOFault.GenWithStackByArgs("truncate", err.Error())
	}
	s.numEntries = 0
	return errors.Trace(s.Sync())
}

// Close closes the log file.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return ddllogerrors.ErrIOFault.GenWithStackByArgs("close", err.Error())
	}
	return nil
}
