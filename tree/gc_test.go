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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ntropish/prolly-gunna-sub000/chunks"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

func TestCollectIsolatesOrphanedGeneration(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	ns := NewNodeStore(store)
	cfg := scenarioConfig()

	var liveRoot *hash.Hash
	for i := 1; i <= 20; i++ {
		key := []byte{byte(i)}
		h, _, err := Insert(ctx, ns, cfg, liveRoot, key, []byte("v"))
		require.NoError(t, err)
		liveRoot = &h
	}

	// Drop the intermediate versions the inserts above left behind, so
	// that before holds exactly the chunks reachable from liveRoot.
	_, err := Collect(ctx, store, []hash.Hash{*liveRoot})
	require.NoError(t, err)

	before, err := store.AllHashes(ctx)
	require.NoError(t, err)

	// Build an orphaned generation descending from the live root but
	// never itself referenced by anything: a detached root.
	orphanRoot := *liveRoot
	for i := 21; i <= 25; i++ {
		key := []byte{byte(i)}
		h, _, err := Insert(ctx, ns, cfg, &orphanRoot, key, []byte("orphan"))
		require.NoError(t, err)
		orphanRoot = h
	}

	after, err := store.AllHashes(ctx)
	require.NoError(t, err)
	assert.Greater(t, len(after), len(before))

	deleted, err := Collect(ctx, store, []hash.Hash{*liveRoot})
	require.NoError(t, err)
	assert.Greater(t, deleted, 0)

	remaining, err := store.AllHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(remaining))

	// The live root and every key reachable from it must survive.
	val, ok, err := Get(ctx, ns, liveRoot, []byte{1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	exists, err := store.Exists(ctx, *liveRoot)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, orphanRoot)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCollectWithNoLiveRootsDeletesEverything(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	ns := NewNodeStore(store)
	cfg := scenarioConfig()

	var root *hash.Hash
	h, _, err := Insert(ctx, ns, cfg, root, []byte("k"), []byte("v"))
	require.NoError(t, err)
	root = &h

	before, err := store.AllHashes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	deleted, err := Collect(ctx, store, nil)
	require.NoError(t, err)
	assert.Equal(t, len(before), deleted)

	after, err := store.AllHashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestCollectMarksChunkedValueChunks(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	ns := NewNodeStore(store)
	cfg := Config{
		TargetFanout:       4,
		MinFanout:          2,
		MaxInlineValueSize: 8,
		CDCMinSize:         64,
		CDCAvgSize:         256,
		CDCMaxSize:         1024,
	}

	value := make([]byte, 4096)
	for i := range value {
		value[i] = byte(i)
	}

	var root *hash.Hash
	h, _, err := Insert(ctx, ns, cfg, root, []byte("big"), value)
	require.NoError(t, err)
	root = &h

	deleted, err := Collect(ctx, store, []hash.Hash{*root})
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	val, ok, err := Get(ctx, ns, root, []byte("big"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, val)
}
