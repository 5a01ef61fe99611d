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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

func TestMemoryStorePutGetExists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	h, err := s.Put(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, hash.Of([]byte("hello")), h)

	ok, err := s.Exists(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)

	data, ok, err := s.Get(ctx, h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data)

	missing := hash.Of([]byte("never put"))
	_, ok, err = s.Get(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorePutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	h1, err := s.Put(ctx, []byte("abc"))
	require.NoError(t, err)
	h2, err := s.Put(ctx, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreDeleteBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	h1, _ := s.Put(ctx, []byte("a"))
	h2, _ := s.Put(ctx, []byte("b"))
	missing := hash.Of([]byte("never put"))

	err := s.DeleteBatch(ctx, []hash.Hash{h1, missing})
	require.NoError(t, err)

	ok, _ := s.Exists(ctx, h1)
	assert.False(t, ok)
	ok, _ = s.Exists(ctx, h2)
	assert.True(t, ok)
}

func TestMemoryStoreAllHashes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	h1, _ := s.Put(ctx, []byte("a"))
	h2, _ := s.Put(ctx, []byte("b"))

	all, err := s.AllHashes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []hash.Hash{h1, h2}, all)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Put(ctx, []byte{byte(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestSnappyStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s, err := NewSnappyStore(inner)
	require.NoError(t, err)

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 7)
	}

	h, err := s.Put(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, hash.Of(payload), h, "content address must be over plaintext, not compressed bytes")

	got, ok, err := s.Get(ctx, h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	// The underlying store should actually hold compressed bytes.
	raw, ok, err := inner.Get(ctx, h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Less(t, len(raw), len(payload))
}

// bareStore delegates to a MemoryStore through the Store interface only,
// standing in for a third-party Store that never implements PutKeyed.
type bareStore struct {
	inner Store
}

func (s bareStore) Get(ctx context.Context, h hash.Hash) ([]byte, bool, error) {
	return s.inner.Get(ctx, h)
}
func (s bareStore) Put(ctx context.Context, data []byte) (hash.Hash, error) {
	return s.inner.Put(ctx, data)
}
func (s bareStore) Exists(ctx context.Context, h hash.Hash) (bool, error) {
	return s.inner.Exists(ctx, h)
}
func (s bareStore) DeleteBatch(ctx context.Context, hs []hash.Hash) error {
	return s.inner.DeleteBatch(ctx, hs)
}
func (s bareStore) AllHashes(ctx context.Context) ([]hash.Hash, error) {
	return s.inner.AllHashes(ctx)
}

func TestNewSnappyStoreRejectsNonKeyedInner(t *testing.T) {
	_, err := NewSnappyStore(bareStore{NewMemoryStore()})
	assert.Error(t, err)
}
