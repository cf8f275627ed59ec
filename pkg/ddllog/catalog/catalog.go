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

package catalog

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pingcap/ddllog/pkg/ddllog/handler"
	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
	"github.com/pingcap/ddllog/pkg/util/logutil"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Key prefixes. Names are separated by a zero byte, so a name can't contain
// one.
var (
	triggerPrefix = []byte("/trigger/")
	statsPrefix   = []byte("/stats/")
	objectPrefix  = []byte("/object/")
)

const sep = 0

// Catalog keeps the metadata rows of the server: trigger definitions,
// statistics rows and the definitions of objects that have no data files,
// such as views.
type Catalog struct {
	db     *pebble.DB
	closed *atomic.Bool
}

var (
	_ handler.MetaHandler   = (*Catalog)(nil)
	_ handler.ObjectHandler = (*Catalog)(nil)
)

// Open opens the catalog stored under dir. A nil fs means the OS file
// system.
func Open(dir string, fs vfs.FS) (*Catalog, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	logutil.BgLogger().Info("catalog opened", zap.String("dir", dir))
	return &Catalog{db: db, closed: atomic.NewBool(false)}, nil
}

// Close closes the catalog. It is safe to call more than once.
func (c *Catalog) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return nil
}

func (c *Catalog) check() error {
	if c.closed.Load() {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs("catalog is closed")
	}
	return nil
}

func checkNames(names ...string) error {
	for _, n := range names {
		if n == "" || strings.IndexByte(n, sep) >= 0 {
			return ddllogerrors.ErrCatalogInvalidName.GenWithStackByArgs(n)
		}
	}
	return nil
}

func encodeKey(prefix []byte, names ...string) []byte {
	key := slices.Clone(prefix)
	for i, n := range names {
		if i > 0 {
			key = append(key, sep)
		}
		key = append(key, n...)
	}
	return key
}

// tablePrefix returns the prefix of every row attached to db.table.
func tablePrefix(prefix []byte, db, table string) []byte {
	return append(encodeKey(prefix, db, table), sep)
}

func prefixEnd(prefix []byte) []byte {
	end := slices.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func objectKey(obj handler.Object) []byte {
	return encodeKey(append(slices.Clone(objectPrefix), strings.ToLower(obj.Engine)+"/"...), obj.DB, obj.Name)
}

func (c *Catalog) get(key []byte) ([]byte, bool, error) {
	v, closer, err := c.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	res := slices.Clone(v)
	if err = closer.Close(); err != nil {
		return nil, false, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return res, true, nil
}

func (c *Catalog) create(key []byte, name string, value []byte) error {
	_, ok, err := c.get(key)
	if err != nil {
		return err
	}
	if ok {
		return ddllogerrors.ErrCatalogAlreadyExist.GenWithStackByArgs(name)
	}
	if err = c.db.Set(key, value, pebble.Sync); err != nil {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return nil
}

type row struct {
	name  string
	value []byte
}

// scan returns the rows under prefix, named by the key suffix.
func (c *Catalog) scan(prefix []byte) ([]row, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	var rows []row
	for iter.First(); iter.Valid(); iter.Next() {
		rows = append(rows, row{
			name:  string(bytes.TrimPrefix(iter.Key(), prefix)),
			value: slices.Clone(iter.Value()),
		})
	}
	err = iter.Error()
	if cerr := iter.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return rows, nil
}

// move re-keys every row under the from prefix to the to prefix in one
// synced batch.
func (c *Catalog) move(fromPrefix, toPrefix []byte) (int, error) {
	rows, err := c.scan(fromPrefix)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	b := c.db.NewBatch()
	defer func() {
		if cerr := b.Close(); cerr != nil {
			logutil.BgLogger().Warn("close catalog batch failed", zap.Error(cerr))
		}
	}()
	for _, r := range rows {
		if err = b.Set(append(slices.Clone(toPrefix), r.name...), r.value, nil); err != nil {
			return 0, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
		}
		if err = b.Delete(append(slices.Clone(fromPrefix), r.name...), nil); err != nil {
			return 0, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
		}
	}
	if err = b.Commit(pebble.Sync); err != nil {
		return 0, ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return len(rows), nil
}

// CreateTrigger stores the definition of trigger on db.table.
func (c *Catalog) CreateTrigger(db, table, trigger string, body []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := checkNames(db, table, trigger); err != nil {
		return err
	}
	return c.create(encodeKey(triggerPrefix, db, table, trigger), trigger, body)
}

// Triggers returns the trigger names of db.table in name order.
func (c *Catalog) Triggers(db, table string) ([]string, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	rows, err := c.scan(tablePrefix(triggerPrefix, db, table))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.name)
	}
	return names, nil
}

// Trigger returns the definition of a trigger.
func (c *Catalog) Trigger(db, table, trigger string) ([]byte, bool, error) {
	if err := c.check(); err != nil {
		return nil, false, err
	}
	return c.get(encodeKey(triggerPrefix, db, table, trigger))
}

// PutStats stores one statistics row of db.table, replacing the previous
// value of kind.
func (c *Catalog) PutStats(db, table, kind string, value []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := checkNames(db, table, kind); err != nil {
		return err
	}
	if err := c.db.Set(encodeKey(statsPrefix, db, table, kind), value, pebble.Sync); err != nil {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return nil
}

// Stats returns the statistics rows of db.table by kind.
func (c *Catalog) Stats(db, table string) (map[string][]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	rows, err := c.scan(tablePrefix(statsPrefix, db, table))
	if err != nil {
		return nil, err
	}
	res := make(map[string][]byte, len(rows))
	for _, r := range rows {
		res[r.name] = r.value
	}
	return res, nil
}

// CreateObject stores the definition of obj.
func (c *Catalog) CreateObject(obj handler.Object, def []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := checkNames(obj.Engine, obj.DB, obj.Name); err != nil {
		return err
	}
	return c.create(objectKey(obj), obj.String(), def)
}

// Object returns the definition of obj.
func (c *Catalog) Object(obj handler.Object) ([]byte, bool, error) {
	if err := c.check(); err != nil {
		return nil, false, err
	}
	return c.get(objectKey(obj))
}

// RenameTriggers implements handler.MetaHandler interface.
func (c *Catalog) RenameTriggers(_ context.Context, from, to handler.Object) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	if err := checkNames(from.DB, from.Name, to.DB, to.Name); err != nil {
		return 0, err
	}
	n, err := c.move(tablePrefix(triggerPrefix, from.DB, from.Name), tablePrefix(triggerPrefix, to.DB, to.Name))
	if err == nil && n > 0 {
		logutil.DDLLogger().Debug("triggers moved", zap.Stringer("from", from), zap.Stringer("to", to), zap.Int("count", n))
	}
	return n, err
}

// RenameStats implements handler.MetaHandler interface.
func (c *Catalog) RenameStats(_ context.Context, from, to handler.Object) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	if err := checkNames(from.DB, from.Name, to.DB, to.Name); err != nil {
		return 0, err
	}
	return c.move(tablePrefix(statsPrefix, from.DB, from.Name), tablePrefix(statsPrefix, to.DB, to.Name))
}

// Exists implements handler.ObjectHandler interface.
func (c *Catalog) Exists(_ context.Context, obj handler.Object) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	_, ok, err := c.get(objectKey(obj))
	return ok, err
}

// Delete implements handler.ObjectHandler interface.
func (c *Catalog) Delete(ctx context.Context, obj handler.Object) error {
	ok, err := c.Exists(ctx, obj)
	if err != nil {
		return err
	}
	if !ok {
		return ddllogerrors.ErrObjectNotExist.GenWithStackByArgs(obj.String())
	}
	if err = c.db.Delete(objectKey(obj), pebble.Sync); err != nil {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return nil
}

// Rename implements handler.ObjectHandler interface.
func (c *Catalog) Rename(_ context.Context, from, to handler.Object) error {
	if err := c.check(); err != nil {
		return err
	}
	def, ok, err := c.get(objectKey(from))
	if err != nil {
		return err
	}
	if !ok {
		return ddllogerrors.ErrObjectNotExist.GenWithStackByArgs(from.String())
	}
	if _, ok, err = c.get(objectKey(to)); err != nil {
		return err
	} else if ok {
		return ddllogerrors.ErrObjectExists.GenWithStackByArgs(to.String())
	}
	b := c.db.NewBatch()
	defer func() {
		if cerr := b.Close(); cerr != nil {
			logutil.BgLogger().Warn("close catalog batch failed", zap.Error(cerr))
		}
	}()
	if err = b.Set(objectKey(to), def, nil); err != nil {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	if err = b.Delete(objectKey(from), nil); err != nil {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	if err = b.Commit(pebble.Sync); err != nil {
		return ddllogerrors.ErrCatalogIO.GenWithStackByArgs(err.Error())
	}
	return nil
}
