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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ntropish/prolly-gunna-sub000/chunks"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

func scenarioConfig() Config {
	return Config{
		TargetFanout:       4,
		MinFanout:          2,
		MaxInlineValueSize: 64,
		CDCMinSize:         64,
		CDCAvgSize:         256,
		CDCMaxSize:         1024,
	}
}

func TestSplitPropagation(t *testing.T) {
	ctx := context.Background()
	ns := NewNodeStore(chunks.NewMemoryStore())
	cfg := scenarioConfig()

	keys := [][]byte{{1}, {2}, {3}, {4}, {5}}
	vals := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}

	var root *hash.Hash
	for i := range keys {
		h, _, err := Insert(ctx, ns, cfg, root, keys[i], vals[i])
		require.NoError(t, err)
		root = &h
	}

	rootNode, err := ns.Load(ctx, *root)
	require.NoError(t, err)
	require.False(t, rootNode.IsLeaf())
	require.Len(t, rootNode.Children, 2)

	left, err := ns.Load(ctx, rootNode.Children[0].ChildHash)
	require.NoError(t, err)
	right, err := ns.Load(ctx, rootNode.Children[1].ChildHash)
	require.NoError(t, err)

	assert.Len(t, left.Entries, 2)
	assert.Len(t, right.Entries, 3)

	val, ok, err := Get(ctx, ns, root, []byte{3})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("c"), val)

	count, err := CountAllItems(ctx, ns, root)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
}

func TestDeterministicHashAcrossInsertionOrder(t *testing.T) {
	ctx := context.Background()
	cfg := scenarioConfig()

	build := func(order [][2][]byte) hash.Hash {
		ns := NewNodeStore(chunks.NewMemoryStore())
		var root *hash.Hash
		for _, kv := range order {
			h, _, err := Insert(ctx, ns, cfg, root, kv[0], kv[1])
			require.NoError(t, err)
			root = &h
		}
		return *root
	}

	orderA := [][2][]byte{
		{{1}, []byte("a")}, {{2}, []byte("b")}, {{3}, []byte("c")}, {{4}, []byte("d")}, {{5}, []byte("e")},
	}
	orderB := [][2][]byte{
		{{3}, []byte("c")}, {{1}, []byte("a")}, {{5}, []byte("e")}, {{2}, []byte("b")}, {{4}, []byte("d")},
	}

	assert.Equal(t, build(orderA), build(orderB))
}

func TestUnderflowViaMerge(t *testing.T) {
	ctx := context.Background()
	ns := NewNodeStore(chunks.NewMemoryStore())
	cfg := scenarioConfig()

	keys := [][]byte{{1}, {2}, {3}, {4}, {5}}
	vals := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}
	var root *hash.Hash
	for i := range keys {
		h, _, err := Insert(ctx, ns, cfg, root, keys[i], vals[i])
		require.NoError(t, err)
		root = &h
	}

	newRoot, changed, err := Delete(ctx, ns, cfg, root, []byte{5})
	require.NoError(t, err)
	require.True(t, changed)
	root = newRoot

	rootNode, err := ns.Load(ctx, *root)
	require.NoError(t, err)
	require.False(t, rootNode.IsLeaf())
	right, err := ns.Load(ctx, rootNode.Children[1].ChildHash)
	require.NoError(t, err)
	assert.Len(t, right.Entries, 2)

	newRoot, changed, err = Delete(ctx, ns, cfg, root, []byte{4})
	require.NoError(t, err)
	require.True(t, changed)
	root = newRoot

	collapsed, err := CollapseRoot(ctx, ns, *root)
	require.NoError(t, err)

	finalNode, err := ns.Load(ctx, collapsed)
	require.NoError(t, err)
	require.True(t, finalNode.IsLeaf())
	assert.Len(t, finalNode.Entries, 3)

	count, err := CountAllItems(ctx, ns, &collapsed)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	val, ok, err := Get(ctx, ns, &collapsed, []byte{3})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("c"), val)
}

func TestChunkedValueRoundTrip(t *testing.T) {
	ctx := context.Background()
	ns := NewNodeStore(chunks.NewMemoryStore())
	cfg := Config{
		TargetFanout:       4,
		MinFanout:          2,
		MaxInlineValueSize: 8,
		CDCMinSize:         64,
		CDCAvgSize:         256,
		CDCMaxSize:         1024,
	}

	rnd := rand.New(rand.NewSource(42))
	value := make([]byte, 10*1024)
	rnd.Read(value)

	var root *hash.Hash
	h, _, err := Insert(ctx, ns, cfg, root, []byte("k"), value)
	require.NoError(t, err)
	root = &h

	got, ok, err := Get(ctx, ns, root, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)

	rootNode, err := ns.Load(ctx, *root)
	require.NoError(t, err)
	require.True(t, rootNode.IsLeaf())
	require.Len(t, rootNode.Entries, 1)

	repr := rootNode.Entries[0].Value
	require.Equal(t, ValueChunkedSequence, repr.Kind)
	assert.Equal(t, uint64(len(value)), repr.TotalSize)
	assert.Greater(t, len(repr.Chunks), 1)

	for _, ch := range repr.Chunks {
		ok, err := ns.Store().Exists(ctx, ch)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestGetInsertDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	ns := NewNodeStore(chunks.NewMemoryStore())
	cfg := DefaultConfig()

	var root *hash.Hash
	h, changed, err := Insert(ctx, ns, cfg, root, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.True(t, changed)
	root = &h

	val, ok, err := Get(ctx, ns, root, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), val)

	// Re-inserting the same (k,v) is a no-op on the root hash.
	h2, changed, err := Insert(ctx, ns, cfg, root, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, *root, h2)

	newRoot, changed, err := Delete(ctx, ns, cfg, root, []byte("k1"))
	require.NoError(t, err)
	require.True(t, changed)
	assert.Nil(t, newRoot)

	val, ok, err = Get(ctx, ns, newRoot, []byte("k1"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)

	// Re-deleting is a no-op returning false.
	newRoot2, changed, err := Delete(ctx, ns, cfg, newRoot, []byte("k1"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, newRoot2)
}

func TestEmptyTreeOperations(t *testing.T) {
	ctx := context.Background()
	ns := NewNodeStore(chunks.NewMemoryStore())
	cfg := DefaultConfig()

	val, ok, err := Get(ctx, ns, nil, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)

	newRoot, changed, err := Delete(ctx, ns, cfg, nil, []byte("k"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, newRoot)

	count, err := CountAllItems(ctx, ns, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
