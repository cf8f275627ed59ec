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

package handler

import (
	"context"
	"testing"

	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/faultfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var innodbExts = []string{".frm", ".ibd"}

func writeObject(t *testing.T, fs afero.Fs, db, name string, exts ...string) {
	for _, ext := range exts {
		require.NoError(t, afero.WriteFile(fs, "/data/"+db+"/"+name+ext, []byte(name+ext), 0o640))
	}
}

func TestFSHandlerDelete(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	h := NewFSHandler(fs, "/data", innodbExts)
	obj := Object{Engine: "InnoDB", DB: "test", Name: "t1"}

	writeObject(t, fs, "test", "t1", innodbExts...)
	ok, err := h.Exists(ctx, obj)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, h.Delete(ctx, obj))
	ok, err = h.Exists(ctx, obj)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, ddllogerrors.ErrObjectNotExist.Equal(h.Delete(ctx, obj)))

	// Half deleted objects are finished.
	writeObject(t, fs, "test", "t1", ".ibd")
	require.NoError(t, h.Delete(ctx, obj))
	ok, err = afero.Exists(fs, "/data/test/t1.ibd")
	require.NoError(t, err)
	require.False(t, ok)

	require.True(t, ddllogerrors.ErrObjectNotExist.Equal(h.Delete(ctx, Object{DB: "test", Name: "../t1"})))
	ok, err = h.Exists(ctx, Object{DB: "..", Name: "t1"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFSHandlerRename(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	h := NewFSHandler(fs, "/data", innodbExts)
	from := Object{DB: "test", Name: "t1"}
	to := Object{DB: "other", Name: "t2"}

	require.True(t, ddllogerrors.ErrObjectNotExist.Equal(h.Rename(ctx, from, to)))

	writeObject(t, fs, "test", "t1", innodbExts...)
	require.NoError(t, h.Rename(ctx, from, to))
	data, err := afero.ReadFile(fs, "/data/other/t2.ibd")
	require.NoError(t, err)
	require.Equal(t, "t1.ibd", string(data))
	ok, err := h.Exists(ctx, from)
	require.NoError(t, err)
	require.False(t, ok)

	// both present
	writeObject(t, fs, "test", "t1", innodbExts...)
	require.True(t, ddllogerrors.ErrObjectExists.Equal(h.Rename(ctx, from, to)))
	ok, err = h.Exists(ctx, from)
	require.NoError(t, err)
	require.True(t, ok)

	// An interrupted rename moved .frm only, running it again moves the rest.
	require.NoError(t, h.Delete(ctx, to))
	require.NoError(t, fs.Rename("/data/test/t1.frm", "/data/other/t2.frm"))
	require.NoError(t, h.Rename(ctx, from, to))
	for _, ext := range innodbExts {
		ok, err = afero.Exists(fs, "/data/other/t2"+ext)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestFSHandlerIOError(t *testing.T) {
	ctx := context.Background()
	fs := faultfs.New(afero.NewMemMapFs())
	h := NewFSHandler(fs, "/data", innodbExts)
	writeObject(t, fs, "test", "t1", innodbExts...)

	fs.Fail(faultfs.OpRename)
	err := h.Rename(ctx, Object{DB: "test", Name: "t1"}, Object{DB: "test", Name: "t2"})
	require.True(t, ddllogerrors.ErrHandlerIO.Equal(err))
	fs.Fail(faultfs.OpRemove)
	require.True(t, ddllogerrors.ErrHandlerIO.Equal(h.Delete(ctx, Object{DB: "test", Name: "t1"})))
	fs.Heal()
	require.NoError(t, h.Delete(ctx, Object{DB: "test", Name: "t1"}))
}

func TestRouter(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewRouter(nil)
	innodb := NewFSHandler(fs, "/data", innodbExts)
	r.Register("InnoDB", innodb)

	h, err := r.Handler("innodb")
	require.NoError(t, err)
	require.Same(t, innodb, h)
	_, err = r.Handler("Aria")
	require.True(t, ddllogerrors.ErrUnknownEngine.Equal(err))
	require.Nil(t, r.Meta())
	require.Equal(t, []string{"innodb"}, r.Engines())
	require.Equal(t, "test.t1", Object{DB: "test", Name: "t1"}.String())
}
