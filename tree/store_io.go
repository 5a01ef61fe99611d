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

package tree

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Ntropish/prolly-gunna-sub000/chunks"
	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// defaultNodeCacheSize bounds the number of decoded nodes kept resident.
// Ancestors near the root are requested on nearly every descent, so even
// a modest cache avoids most repeat decodes on a hot tree.
const defaultNodeCacheSize = 4096

// NodeStore bundles the raw chunk store with a read-through decode cache
// for nodes (C5, Tree I/O). It is the single point through which the
// mutation engine, cursors and diff read and write nodes; GC (Collect)
// reads the raw chunk store and decodes nodes itself.
type NodeStore struct {
	store chunks.Store
	cache *lru.Cache[hash.Hash, *Node]
}

// NewNodeStore wraps store with an LRU node-decode cache. Grounded in
// dolt's use of github.com/hashicorp/golang-lru/v2 for its own working-set
// caches; here it sits directly in front of node decoding rather than in
// front of raw chunk bytes, since re-running DecodeNode on a hot ancestor
// is the cost worth avoiding, not the underlying store round-trip.
func NewNodeStore(store chunks.Store) *NodeStore {
	c, err := lru.New[hash.Hash, *Node](defaultNodeCacheSize)
	if err != nil {
		// Only fails for a non-positive size, which defaultNodeCacheSize
		// never is; treat as unreachable rather than threading an error
		// through every NodeStore construction site.
		panic(err)
	}
	return &NodeStore{store: store, cache: c}
}

// Store returns the underlying chunk store, for components (value
// reconstruction, GC) that operate on raw chunk bytes rather than nodes.
func (ns *NodeStore) Store() chunks.Store {
	return ns.store
}

// Load fetches and decodes the node at h, consulting the cache first.
func (ns *NodeStore) Load(ctx context.Context, h hash.Hash) (*Node, error) {
	if n, ok := ns.cache.Get(h); ok {
		return n, nil
	}
	n, err := LoadNode(ctx, ns.store, h)
	if err != nil {
		return nil, err
	}
	ns.cache.Add(h, n)
	return n, nil
}

// Write encodes, persists and caches n, returning its boundary key and hash.
func (ns *NodeStore) Write(ctx context.Context, n *Node) (boundaryKey []byte, h hash.Hash, err error) {
	boundaryKey, h, err = StoreNode(ctx, ns.store, n)
	if err != nil {
		return nil, hash.Empty, err
	}
	ns.cache.Add(h, n)
	return boundaryKey, h, nil
}

// StoreNode encodes n, persists it, and derives its boundary key.
// Storing a node with zero entries is a programmer error.
func StoreNode(ctx context.Context, store chunks.Store, n *Node) (boundaryKey []byte, h hash.Hash, err error) {
	if n.NumEntries() == 0 {
		return nil, hash.Empty, errs.Internal("cannot store a node with zero entries")
	}
	encoded, err := EncodeNode(n)
	if err != nil {
		return nil, hash.Empty, err
	}
	h, err = store.Put(ctx, encoded)
	if err != nil {
		return nil, hash.Empty, errs.Storage(err)
	}
	return n.BoundaryKey(), h, nil
}

// LoadNode fetches and decodes the node at h.
func LoadNode(ctx context.Context, store chunks.Store, h hash.Hash) (*Node, error) {
	data, ok, err := store.Get(ctx, h)
	if err != nil {
		return nil, errs.Storage(err)
	}
	if !ok {
		return nil, errs.ChunkNotFound(h)
	}
	return DecodeNode(data)
}
