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

//go:generate mockgen -package mock -destination mock/handler_mock.go github.com/pingcap/ddllog/pkg/ddllog/handler ObjectHandler,MetaHandler

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/pingcap/ddllog/pkg/util/dbterror/ddllogerrors"
)

// Object names one schema object handled by a storage engine.
type Object struct {
	Engine string
	DB     string
	Name   string
}

// String implements fmt.Stringer interface.
func (o Object) String() string {
	return o.DB + "." + o.Name
}

// ObjectHandler performs the physical primitives of one storage engine.
type ObjectHandler interface {
	// Exists reports whether any part of obj is present.
	Exists(ctx context.Context, obj Object) (bool, error)
	// Delete drops obj. It returns ErrObjectNotExist when nothing was there.
	Delete(ctx context.Context, obj Object) error
	// Rename moves from to to. It returns ErrObjectNotExist when from is
	// missing and ErrObjectExists when to is already there.
	Rename(ctx context.Context, from, to Object) error
}

// MetaHandler moves the metadata attached to a table.
type MetaHandler interface {
	// RenameTriggers moves every trigger of from to to and returns the
	// number of triggers moved.
	RenameTriggers(ctx context.Context, from, to Object) (int, error)
	// RenameStats moves every statistics row of from to to and returns the
	// number of rows moved.
	RenameStats(ctx context.Context, from, to Object) (int, error)
}

// Router finds the handler serving an engine. Engine names are case
// insensitive.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]ObjectHandler
	meta     MetaHandler
}

// NewRouter returns a router using meta for the trigger and statistics
// phases.
func NewRouter(meta MetaHandler) *Router {
	return &Router{
		handlers: make(map[string]ObjectHandler),
		meta:     meta,
	}
}

// Register binds engine to h, replacing a previous binding.
func (r *Router) Register(engine string, h ObjectHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(engine)] = h
}

// Handler returns the handler of engine.
func (r *Router) Handler(engine string) (ObjectHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[strings.ToLower(engine)]
	if !ok {
		return nil, ddllogerrors.ErrUnknownEngine.GenWithStackByArgs(engine)
	}
	return h, nil
}

// Meta returns the metadata handler.
func (r *Router) Meta() MetaHandler {
	return r.meta
}

// Engines returns the registered engine names in ascending order.
func (r *Router) Engines() []string {
	r.mu.RLock()
	res := make([]string, 0, len(r.handlers))
	for e := range r.handlers {
		res = append(res, e)
	}
	r.mu.RUnlock()
	slices.Sort(res)
	return res
}
