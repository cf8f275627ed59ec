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
	"testing"

	"github.com/pingcap/ddllog/pkg/ddllog/model"
	"github.com/stretchr/testify/require"
)

func TestDecodeZeroBlock(t *testing.T) {
	e, err := decodeEntry(7, make([]byte, 128))
	require.NoError(t, err)
	require.Equal(t, model.EntryUnknown, e.Type)
	require.Equal(t, uint32(7), e.Position)
}

func TestChecksumSkipsMutableBytes(t *testing.T) {
	e := &model.Entry{Type: model.EntryChainHead, Position: 2, Next: 1, XID: 99}
	buf, err := encodeEntry(e, 128)
	require.NoError(t, err)
	sum := blockChecksum(buf)

	buf[offEntryType] = byte(model.EntryIgnored)
	buf[offPhase] = model.FinalPhase
	require.Equal(t, sum, blockChecksum(buf))
	got, err := decodeEntry(2, buf)
	require.NoError(t, err)
	require.Equal(t, model.EntryIgnored, got.Type)
	require.True(t, got.IsFinal())

	buf[offXID] ^= 1
	_, err = decodeEntry(2, buf)
	require.ErrorContains(t, err, "checksum mismatch")
}

func TestNamesFillBlock(t *testing.T) {
	// 20 bytes of fixed fields and 12 bytes of lengths leave 96 name bytes.
	e := &model.Entry{Type: model.EntryStep, Action: model.ActionRename, Position: 1, Name: string(make([]byte, 96))}
	buf, err := encodeEntry(e, 128)
	require.NoError(t, err)
	got, err := decodeEntry(1, buf)
	require.NoError(t, err)
	require.Len(t, got.Name, 96)

	e.Name += "x"
	_, err = encodeEntry(e, 128)
	require.ErrorContains(t, err, "position 1")
}

func TestHeader(t *testing.T) {
	size, err := decodeHeader("f", encodeHeader(4096))
	require.NoError(t, err)
	require.Equal(t, 4096, size)

	buf := encodeHeader(512)
	buf[8] = 2
	_, err = decodeHeader("f", buf)
	require.Error(t, err)
}
