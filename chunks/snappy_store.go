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

package chunks

import (
	"context"

	"github.com/golang/snappy"

	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// snappyStore wraps an underlying Store, snappy-compressing chunk bytes
// on the way in and decompressing on the way out. Content addressing is
// computed over the original (uncompressed) bytes, so hashes are stable
// regardless of whether a given Store in the chain compresses.
//
// Modeled on dolt's NBS chunk-table compression, which stores chunks
// snappy-compressed on disk while addressing them by their plaintext hash.
type snappyStore struct {
	inner Store
}

// NewSnappyStore returns a Store that transparently compresses chunk
// bytes with snappy before delegating to inner, and decompresses on read.
//
// inner must implement keyedPutter (MemoryStore does). Content addresses
// are computed over plaintext, but inner only ever sees compressed bytes,
// so without a way to store those bytes under a caller-supplied hash
// there is no key under which the plaintext hash would ever resolve.
func NewSnappyStore(inner Store) (Store, error) {
	if _, ok := inner.(keyedPutter); !ok {
		return nil, errs.Internal("snappy store requires an inner store that implements PutKeyed")
	}
	return &snappyStore{inner: inner}, nil
}

var (
	_ Store       = (*snappyStore)(nil)
	_ keyedPutter = (*MemoryStore)(nil)
)

func (s *snappyStore) Get(ctx context.Context, h hash.Hash) ([]byte, bool, error) {
	compressed, ok, err := s.inner.Get(ctx, h)
	if err != nil || !ok {
		return nil, ok, err
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, false, errs.Storage(err)
	}
	return data, true, nil
}

func (s *snappyStore) Put(ctx context.Context, data []byte) (hash.Hash, error) {
	// Hash the plaintext so callers and other Store implementations agree
	// on content addresses regardless of compression.
	h := hash.Of(data)
	compressed := snappy.Encode(nil, data)
	// The inner store must not re-derive the hash from the compressed
	// bytes; MemoryStore-style stores key purely by hash.Of(argument), so
	// we go through the keyedPutter seam enforced by NewSnappyStore to
	// supply the plaintext hash directly.
	keyed := s.inner.(keyedPutter)
	if err := keyed.PutKeyed(ctx, h, compressed); err != nil {
		return hash.Empty, err
	}
	return h, nil
}

func (s *snappyStore) Exists(ctx context.Context, h hash.Hash) (bool, error) {
	return s.inner.Exists(ctx, h)
}

func (s *snappyStore) DeleteBatch(ctx context.Context, hs []hash.Hash) error {
	return s.inner.DeleteBatch(ctx, hs)
}

func (s *snappyStore) AllHashes(ctx context.Context) ([]hash.Hash, error) {
	return s.inner.AllHashes(ctx)
}

// keyedPutter is an optional capability: a Store that can store bytes
// under a caller-supplied hash rather than deriving the hash from those
// exact bytes. MemoryStore implements it so snappyStore can
// store compressed bytes addressed by the plaintext hash.
type keyedPutter interface {
	PutKeyed(ctx context.Context, h hash.Hash, data []byte) error
}
