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
	"os"
	"path/filepath"
	"strings"

	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FSHandler stores an object as a set of files under a data directory, one
// file per extension of its engine: <root>/<db>/<name><ext>.
type FSHandler struct {
	fs   afero.Fs
	root string
	exts []string
}

// NewFSHandler returns a handler for an engine whose objects consist of the
// files with the given extensions.
func NewFSHandler(fs afero.Fs, root string, exts []string) *FSHandler {
	return &FSHandler{fs: fs, root: root, exts: exts}
}

func (h *FSHandler) path(obj Object, ext string) string {
	return filepath.Join(h.root, obj.DB, obj.Name+ext)
}

func (h *FSHandler) exists(path string) (bool, error) {
	ok, err := afero.Exists(h.fs, path)
	if err != nil {
		return false, ddllogerrors.ErrHandlerIO.GenWithStackByArgs(path, err.Error())
	}
	return ok, nil
}

func validName(obj Object) bool {
	for _, s := range []string{obj.DB, obj.Name} {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return false
		}
	}
	return true
}

// Exists implements ObjectHandler interface.
func (h *FSHandler) Exists(_ context.Context, obj Object) (bool, error) {
	if !validName(obj) {
		return false, nil
	}
	for _, ext := range h.exts {
		ok, err := h.exists(h.path(obj, ext))
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Delete implements ObjectHandler interface. Every file of obj that is still
// there is removed, so a delete interrupted halfway can be run again.
func (h *FSHandler) Delete(_ context.Context, obj Object) error {
	if !validName(obj) {
		return ddllogerrors.ErrObjectNotExist.GenWithStackByArgs(obj.String())
	}
	removed := 0
	for _, ext := range h.exts {
		p := h.path(obj, ext)
		err := h.fs.Remove(p)
		if err == nil {
			removed++
			continue
		}
		if !os.IsNotExist(err) {
			return ddllogerrors.ErrHandlerIO.GenWithStackByArgs(p, err.Error())
		}
	}
	if removed == 0 {
		return ddllogerrors.ErrObjectNotExist.GenWithStackByArgs(obj.String())
	}
	logutil.DDLLogger().Debug("object files removed", zap.Stringer("object", obj), zap.Int("files", removed))
	return nil
}

// Rename implements ObjectHandler interface. Files already moved by an
// interrupted rename are skipped.
func (h *FSHandler) Rename(_ context.Context, from, to Object) error {
	if !validName(from) {
		return ddllogerrors.ErrObjectNotExist.GenWithStackByArgs(from.String())
	}
	if !validName(to) {
		return ddllogerrors.ErrObjectExists.GenWithStackByArgs(to.String())
	}
	type move struct{ src, dst string }
	moves := make([]move, 0, len(h.exts))
	for _, ext := range h.exts {
		src, dst := h.path(from, ext), h.path(to, ext)
		srcOK, err := h.exists(src)
		if err != nil {
			return err
		}
		if !srcOK {
			continue
		}
		dstOK, err := h.exists(dst)
		if err != nil {
			return err
		}
		if dstOK {
			return ddllogerrors.ErrObjectExists.GenWithStackByArgs(to.String())
		}
		moves = append(moves, move{src: src, dst: dst})
	}
	if len(moves) == 0 {
		return ddllogerrors.ErrObjectNotExist.GenWithStackByArgs(from.String())
	}
	dir := filepath.Join(h.root, to.DB)
	if err := h.fs.MkdirAll(dir, 0o750); err != nil {
		return ddllogerrors.ErrHandlerIO.GenWithStackByArgs(dir, err.Error())
	}
	for _, m := range moves {
		if err := h.fs.Rename(m.src, m.dst); err != nil {
			return ddllogerrors.ErrHandlerIO.GenWithStackByArgs(m.src, err.Error())
		}
	}
	logutil.DDLLogger().Debug("object files renamed",
		zap.Stringer("from", from), zap.Stringer("to", to), zap.Int("files", len(moves)))
	return nil
}
