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

// Package chunks defines the abstract content-addressed chunk store
// contract and a couple of concrete implementations: an in-memory map
// and a transparent snappy-compressing decorator.
package chunks

import (
	"context"

	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// Store is the abstract content-addressed chunk store contract. Every
// method must be safe for concurrent use; Put is linearizable with
// respect to Get/Exists. Implementations report failures as errors
// wrapping errs.ErrStorageError; the caller propagates them unchanged.
type Store interface {
	// Get returns the chunk for hash h, or ok=false if absent. It never
	// returns a partial chunk.
	Get(ctx context.Context, h hash.Hash) (data []byte, ok bool, err error)

	// Put computes hash.Of(data), stores it if not already present, and
	// returns the hash. Duplicate puts of the same bytes are no-ops.
	Put(ctx context.Context, data []byte) (hash.Hash, error)

	// Exists reports whether h is currently stored.
	Exists(ctx context.Context, h hash.Hash) (bool, error)

	// DeleteBatch removes every present hash in hs; missing hashes are
	// silently ignored.
	DeleteBatch(ctx context.Context, hs []hash.Hash) error

	// AllHashes returns a snapshot of every hash currently stored. Used
	// exclusively by the garbage collector.
	AllHashes(ctx context.Context) ([]hash.Hash, error)
}
