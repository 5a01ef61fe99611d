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
	"sync"

	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// MemoryStore is a process-local, concurrency-safe Store backed by a map.
// It never evicts; callers rely on GC (see tree.Collect) to reclaim
// unreferenced chunks.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[hash.Hash][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[hash.Hash][]byte)}
}

var _ Store = (*MemoryStore)(nil)

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, h hash.Hash) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.chunks[h]
	if !ok {
		return nil, false, nil
	}
	// Return a copy: the stored chunk is logically immutable, callers
	// must not be able to corrupt it in place.
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, data []byte) (hash.Hash, error) {
	h := hash.Of(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[h]; !ok {
		stored := make([]byte, len(data))
		copy(stored, data)
		s.chunks[h] = stored
	}
	return h, nil
}

// Exists implements Store.
func (s *MemoryStore) Exists(_ context.Context, h hash.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[h]
	return ok, nil
}

// DeleteBatch implements Store.
func (s *MemoryStore) DeleteBatch(_ context.Context, hs []hash.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hs {
		delete(s.chunks, h)
	}
	return nil
}

// AllHashes implements Store.
func (s *MemoryStore) AllHashes(_ context.Context) ([]hash.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]hash.Hash, 0, len(s.chunks))
	for h := range s.chunks {
		out = append(out, h)
	}
	return out, nil
}

// Len reports the number of chunks currently stored. Convenience for
// tests and the stats CLI command, not part of the Store contract.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// PutKeyed stores data under the caller-supplied hash h without
// re-deriving it from data. This lets decorators such as snappyStore
// store a transformed representation (e.g. compressed bytes) while
// keeping content addresses stable over the original bytes. Not part of
// the Store interface; accessed through the keyedPutter seam.
func (s *MemoryStore) PutKeyed(_ context.Context, h hash.Hash, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[h]; !ok {
		stored := make([]byte, len(data))
		copy(stored, data)
		s.chunks[h] = stored
	}
	return nil
}
