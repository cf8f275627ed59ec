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
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/errors"
)

// Record block layout.
//
//	0      entry type    mutable, not checksummed
//	1      phase         mutable, not checksummed
//	2      action kind
//	3      reserved
//	4..8   next          little endian
//	8..16  xid           little endian
//	16..20 crc32c of [2,16) and [20,ioSize)
//	20..   engine, db, name, from db, from name, tmp name; u16 length + bytes
const (
	offEntryType = 0
	offPhase     = 1
	offAction    = 2
	offNext      = 4
	offXID       = 8
	offChecksum  = 16
	offStrings   = 20
)

// Header block layout.
//
//	0..8   magic
//	8..12  format version
//	12..16 io size
//	16..20 crc32c of [0,16)
const (
	headerLen     = 20
	formatVersion = 1
)

var (
	headerMagic = []byte("DDLLOG\x00\x01")
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

func blockChecksum(buf []byte) uint32 {
	crc := crc32.Checksum(buf[offAction:offChecksum], crcTable)
	return crc32.Update(crc, crcTable, buf[offStrings:])
}

// encodeEntry serializes e into a block of ioSize bytes.
func encodeEntry(e *model.Entry, ioSize int) ([]byte, error) {
	buf := make([]byte, ioSize)
	buf[offEntryType] = byte(e.Type)
	buf[offPhase] = e.Phase
	buf[offAction] = byte(e.Action)
	binary.LittleEndian.PutUint32(buf[offNext:], e.Next)
	binary.LittleEndian.PutUint64(buf[offXID:], e.XID)
	off := offStrings
	for _, s := range []string{e.Engine, e.DB, e.Name, e.FromDB, e.FromName, e.TmpName} {
		if len(s) > 0xffff || off+2+len(s) > ioSize {
			return nil, ddllogerrors.ErrNameTooLong.GenWithStackByArgs(e.Position, ioSize)
		}
		binary.LittleEndian.PutUint16(buf[off:], uint16(len(s)))
		off += 2
		off += copy(buf[off:], s)
	}
	binary.LittleEndian.PutUint32(buf[offChecksum:], blockChecksum(buf))
	return buf, nil
}

func isZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// decodeEntry parses the block at pos. A block that was never written decodes
// as EntryUnknown.
func decodeEntry(pos uint32, buf []byte) (*model.Entry, error) {
	e := &model.Entry{Position: pos}
	if isZero(buf) {
		return e, nil
	}
	if len(buf) < offStrings {
		return nil, ddllogerrors.ErrCorruptRecord.GenWithStackByArgs(pos, "short block")
	}
	if got, want := binary.LittleEndian.Uint32(buf[offChecksum:]), blockChecksum(buf); got != want {
		return nil, ddllogerrors.ErrCorruptRecord.GenWithStackByArgs(pos, "checksum mismatch")
	}
	e.Type = model.EntryType(buf[offEntryType])
	e.Phase = buf[offPhase]
	e.Action = model.ActionKind(buf[offAction])
	e.Next = binary.LittleEndian.Uint32(buf[offNext:])
	e.XID = binary.LittleEndian.Uint64(buf[offXID:])

	off := offStrings
	fields := []*string{&e.Engine, &e.DB, &e.Name, &e.FromDB, &e.FromName, &e.TmpName}
	for _, f := range fields {
		if off+2 > len(buf) {
			return nil, ddllogerrors.ErrCorruptRecord.GenWithStackByArgs(pos, "truncated names")
		}
		l := int(binary.LittleEndian.Uint16(buf[off:]))
		off += 2
		if off+l > len(buf) {
			return nil, ddllogerrors.ErrCorruptRecord.GenWithStackByArgs(pos, "truncated names")
		}
		*f = string(buf[off : off+l])
		off += l
	}
	if err := e.Validate(); err != nil {
		return nil, ddllogerrors.ErrCorruptRecord.GenWithStackByArgs(pos, err.Error())
	}
	return e, nil
}

func encodeHeader(ioSize int) []byte {
	buf := make([]byte, ioSize)
	copy(buf, headerMagic)
	binary.LittleEndian.PutUint32(buf[8:], formatVersion)
	binary.LittleEndian.PutUint32(buf[12:], uint32(ioSize))
	binary.LittleEndian.PutUint32(buf[16:], crc32.Checksum(buf[:16], crcTable))
	return buf
}

// decodeHeader returns the io size recorded in the header.
func decodeHeader(path string, buf []byte) (int, error) {
	if len(buf) < headerLen || !bytes.Equal(buf[:len(headerMagic)], headerMagic) {
		return 0, ddllogerrors.ErrInvalidFile.GenWithStackByArgs(path, "bad magic")
	}
	if binary.LittleEndian.Uint32(buf[16:]) != crc32.Checksum(buf[:16], crcTable) {
		return 0, ddllogerrors.ErrInvalidFile.GenWithStackByArgs(path, "header checksum mismatch")
	}
	if v := binary.LittleEndian.Uint32(buf[8:]); v != formatVersion {
		return 0, errors.Trace(ddllogerrors.ErrInvalidFile.GenWithStackByArgs(path, "unsupported version"))
	}
	return int(binary.LittleEndian.Uint32(buf[12:])), nil
}
