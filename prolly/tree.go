// Copyright 2026 The Prolly-Gunna Authors
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

// Package prolly exposes the public Tree handle: a persistent, ordered,
// content-addressed key/value map backed by the node model, mutation
// engine, cursors, diff and garbage collector in package tree.
package prolly

import (
	"context"

	"github.com/Ntropish/prolly-gunna-sub000/chunks"
	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
	"github.com/Ntropish/prolly-gunna-sub000/tree"
)

// Type aliases give callers the full public surface through this one
// package, without reaching into tree directly for everyday use.
type (
	Config        = tree.Config
	ScanArgs      = tree.ScanArgs
	ScanPage      = tree.ScanPage
	Cursor        = tree.Cursor
	KV            = tree.KV
	DiffEntry     = tree.DiffEntry
	HierarchyPage = tree.HierarchyPage
	DAGItem       = tree.DAGItem
)

// DefaultConfig returns the package's reasonable default tunables.
var DefaultConfig = tree.DefaultConfig

// DAGItem kinds, re-exported alongside the DAGItem alias.
const (
	DAGItemNode          = tree.DAGItemNode
	DAGItemInternalEntry = tree.DAGItemInternalEntry
	DAGItemLeafEntry     = tree.DAGItemLeafEntry
)

// Tree is a persistent, ordered, content-addressed key/value map. A
// single Tree value owns exactly one mutable cell, its current root
// hash; callers are responsible for serializing writers onto one handle
// (see the concurrency model), though concurrent readers are safe.
type Tree struct {
	rootHash *hash.Hash
	cfg      tree.Config
	store    chunks.Store
	ns       *tree.NodeStore
}

// New creates an empty Tree over store using cfg.
func New(store chunks.Store, cfg tree.Config) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tree{cfg: cfg, store: store, ns: tree.NewNodeStore(store)}, nil
}

// FromRootHash opens an existing tree at root, eagerly validating that
// root decodes as a node before accepting it (rather than deferring the
// failure to the first operation that happens to touch it).
func FromRootHash(ctx context.Context, store chunks.Store, cfg tree.Config, root hash.Hash) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ns := tree.NewNodeStore(store)
	if _, err := ns.Load(ctx, root); err != nil {
		return nil, errs.InvalidRootHash(root)
	}
	h := root
	return &Tree{rootHash: &h, cfg: cfg, store: store, ns: ns}, nil
}

// RootHash returns the tree's current root hash, and false if the tree
// is currently empty.
func (t *Tree) RootHash() (hash.Hash, bool) {
	if t.rootHash == nil {
		return hash.Empty, false
	}
	return *t.rootHash, true
}

// Checkout validates that root decodes as a node and, if so, swaps it in
// as the tree's current root.
func (t *Tree) Checkout(ctx context.Context, root hash.Hash) error {
	if _, err := t.ns.Load(ctx, root); err != nil {
		return errs.InvalidRootHash(root)
	}
	h := root
	t.rootHash = &h
	return nil
}

// Get looks up key, returning ok=false if absent.
func (t *Tree) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	return tree.Get(ctx, t.ns, t.rootHash, key)
}

// Insert sets key to value, creating or updating it. changed reports
// whether the tree's root hash actually moved (false for a no-op
// re-insert of an identical (key, value) pair).
func (t *Tree) Insert(ctx context.Context, key, value []byte) (changed bool, err error) {
	newRoot, changed, err := tree.Insert(ctx, t.ns, t.cfg, t.rootHash, key, value)
	if err != nil {
		return false, err
	}
	if changed {
		t.rootHash = &newRoot
	}
	return changed, nil
}

// InsertBatch applies every (key, value) pair in items in order,
// returning changed=true iff at least one insert moved the root.
func (t *Tree) InsertBatch(ctx context.Context, items [][2][]byte) (changed bool, err error) {
	newRoot, changed, err := tree.InsertBatch(ctx, t.ns, t.cfg, t.rootHash, items)
	if err != nil {
		return false, err
	}
	if changed {
		t.rootHash = newRoot
	}
	return changed, nil
}

// Delete removes key, collapsing the root afterward if it has become a
// single-child internal node. changed reports whether key was present.
func (t *Tree) Delete(ctx context.Context, key []byte) (changed bool, err error) {
	newRoot, changed, err := tree.Delete(ctx, t.ns, t.cfg, t.rootHash, key)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	if newRoot == nil {
		t.rootHash = nil
		return true, nil
	}
	collapsed, err := tree.CollapseRoot(ctx, t.ns, *newRoot)
	if err != nil {
		return false, err
	}
	t.rootHash = &collapsed
	return true, nil
}

// CountAllItems returns the total number of key/value pairs in the tree.
func (t *Tree) CountAllItems(ctx context.Context) (uint64, error) {
	return tree.CountAllItems(ctx, t.ns, t.rootHash)
}

// CursorStart returns a cursor positioned at the tree's first entry.
func (t *Tree) CursorStart(ctx context.Context) (*tree.Cursor, error) {
	return tree.CursorStart(ctx, t.ns, t.rootHash)
}

// Seek returns a cursor positioned at key, or its sorted insertion point.
func (t *Tree) Seek(ctx context.Context, key []byte) (*tree.Cursor, error) {
	return tree.Seek(ctx, t.ns, t.rootHash, key)
}

// Scan materializes one page of a range scan.
func (t *Tree) Scan(ctx context.Context, args tree.ScanArgs) (tree.ScanPage, error) {
	return tree.Scan(ctx, t.ns, t.rootHash, args)
}

// HierarchyScan materializes one page of a DAG-level walk, for
// inspection and visualization tooling.
func (t *Tree) HierarchyScan(ctx context.Context, hasMaxDepth bool, maxDepth, offset int, hasLimit bool, limit int) (tree.HierarchyPage, error) {
	return tree.HierarchyScan(ctx, t.ns, t.rootHash, hasMaxDepth, maxDepth, offset, hasLimit, limit)
}

// Diff reports every key that differs between t and other.
func (t *Tree) Diff(ctx context.Context, other *Tree) ([]tree.DiffEntry, error) {
	return tree.Diff(ctx, t.ns, t.rootHash, other.rootHash)
}

// GC reclaims every chunk not reachable from the tree's current root or
// from extraLiveRoots. extraLiveRoots lets a caller keep historical roots
// (e.g. ones recorded outside this handle) alive across the sweep even
// though they are no longer the tree's current root.
func (t *Tree) GC(ctx context.Context, extraLiveRoots []hash.Hash) (int, error) {
	liveRoots := make([]hash.Hash, 0, len(extraLiveRoots)+1)
	liveRoots = append(liveRoots, extraLiveRoots...)
	if t.rootHash != nil {
		liveRoots = append(liveRoots, *t.rootHash)
	}
	return tree.Collect(ctx, t.store, liveRoots)
}
