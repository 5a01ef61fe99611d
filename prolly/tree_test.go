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

package prolly

import (
	"context"
	"fmt"
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

func TestTreeEmptyHasNoRoot(t *testing.T) {
	tr, err := New(chunks.NewMemoryStore(), DefaultConfig())
	require.NoError(t, err)

	_, ok := tr.RootHash()
	assert.False(t, ok)

	val, ok, err := tr.Get(context.Background(), []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestTreeInsertGetDelete(t *testing.T) {
	ctx := context.Background()
	tr, err := New(chunks.NewMemoryStore(), scenarioConfig())
	require.NoError(t, err)

	changed, err := tr.Insert(ctx, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	assert.True(t, changed)

	_, ok := tr.RootHash()
	assert.True(t, ok)

	val, ok, err := tr.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), val)

	changed, err = tr.Delete(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.True(t, changed)

	_, ok = tr.RootHash()
	assert.False(t, ok)
}

func TestTreeInsertBatchAndCollapseAfterDelete(t *testing.T) {
	ctx := context.Background()
	tr, err := New(chunks.NewMemoryStore(), scenarioConfig())
	require.NoError(t, err)

	items := make([][2][]byte, 0, 5)
	for i := 1; i <= 5; i++ {
		items = append(items, [2][]byte{{byte(i)}, []byte(fmt.Sprintf("v%d", i))})
	}
	changed, err := tr.InsertBatch(ctx, items)
	require.NoError(t, err)
	assert.True(t, changed)

	count, err := tr.CountAllItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)

	changed, err = tr.Delete(ctx, []byte{5})
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = tr.Delete(ctx, []byte{4})
	require.NoError(t, err)
	require.True(t, changed)

	count, err = tr.CountAllItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestTreeFromRootHashValidatesEagerly(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	tr, err := New(store, scenarioConfig())
	require.NoError(t, err)

	_, err = tr.Insert(ctx, []byte("k"), []byte("v"))
	require.NoError(t, err)
	root, _ := tr.RootHash()

	reopened, err := FromRootHash(ctx, store, scenarioConfig(), root)
	require.NoError(t, err)
	val, ok, err := reopened.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	garbageHash := root
	garbageHash[0] ^= 0xFF
	_, err = FromRootHash(ctx, store, scenarioConfig(), garbageHash)
	assert.Error(t, err)
}

func TestTreeCheckoutValidates(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	tr, err := New(store, scenarioConfig())
	require.NoError(t, err)

	_, err = tr.Insert(ctx, []byte("k"), []byte("v"))
	require.NoError(t, err)
	root, _ := tr.RootHash()

	tr2, err := New(store, scenarioConfig())
	require.NoError(t, err)
	require.NoError(t, tr2.Checkout(ctx, root))

	val, ok, err := tr2.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestTreeScanAndCursor(t *testing.T) {
	ctx := context.Background()
	tr, err := New(chunks.NewMemoryStore(), scenarioConfig())
	require.NoError(t, err)

	for i := 1; i <= 20; i++ {
		_, err := tr.Insert(ctx, []byte(fmt.Sprintf("%02d", i)), []byte(fmt.Sprintf("v%02d", i)))
		require.NoError(t, err)
	}

	cur, err := tr.CursorStart(ctx)
	require.NoError(t, err)
	k, _, ok, err := cur.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "01", string(k))

	page, err := tr.Scan(ctx, ScanArgs{
		StartBound:     []byte("05"),
		HasStartBound:  true,
		StartInclusive: true,
		HasLimit:       true,
		Limit:          3,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "05", string(page.Items[0].Key))
}

func TestTreeHierarchyScan(t *testing.T) {
	ctx := context.Background()
	tr, err := New(chunks.NewMemoryStore(), scenarioConfig())
	require.NoError(t, err)

	for i := 1; i <= 20; i++ {
		_, err := tr.Insert(ctx, []byte(fmt.Sprintf("%02d", i)), []byte(fmt.Sprintf("v%02d", i)))
		require.NoError(t, err)
	}

	page, err := tr.HierarchyScan(ctx, false, 0, 0, true, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, DAGItemNode, page.Items[0].Kind)
}

func TestTreeDiff(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	cfg := scenarioConfig()

	left, err := New(store, cfg)
	require.NoError(t, err)
	_, err = left.Insert(ctx, []byte("k1"), []byte("v1"))
	require.NoError(t, err)

	right, err := New(store, cfg)
	require.NoError(t, err)
	_, err = right.Insert(ctx, []byte("k1"), []byte("v1-changed"))
	require.NoError(t, err)

	entries, err := left.Diff(ctx, right)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k1", string(entries[0].Key))
}

func TestTreeGC(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	tr, err := New(store, scenarioConfig())
	require.NoError(t, err)

	_, err = tr.Insert(ctx, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	_, err = tr.Insert(ctx, []byte("k2"), []byte("v2"))
	require.NoError(t, err)
	_, err = tr.Delete(ctx, []byte("k2"))
	require.NoError(t, err)

	deleted, err := tr.GC(ctx, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, 0)

	val, ok, err := tr.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), val)
}

// TestTreeGCKeepsExtraLiveRoots covers the isolation scenario where a
// caller GCs with a historical root (no longer the tree's current root)
// passed alongside it, and that historical root's data must survive.
func TestTreeGCKeepsExtraLiveRoots(t *testing.T) {
	ctx := context.Background()
	store := chunks.NewMemoryStore()
	tr, err := New(store, scenarioConfig())
	require.NoError(t, err)

	_, err = tr.Insert(ctx, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	historicalRoot, ok := tr.RootHash()
	require.True(t, ok)

	_, err = tr.Insert(ctx, []byte("k1"), []byte("v1-updated"))
	require.NoError(t, err)
	_, err = tr.Insert(ctx, []byte("k2"), []byte("v2"))
	require.NoError(t, err)
	_, err = tr.Delete(ctx, []byte("k2"))
	require.NoError(t, err)
	currentRoot, ok := tr.RootHash()
	require.True(t, ok)
	require.NotEqual(t, historicalRoot, currentRoot)

	_, err = tr.GC(ctx, []hash.Hash{historicalRoot})
	require.NoError(t, err)

	val, ok, err := tr.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1-updated"), val)

	historical, err := FromRootHash(ctx, store, scenarioConfig(), historicalRoot)
	require.NoError(t, err)
	oldVal, ok, err := historical.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), oldVal, "historical root passed as an extra live root must survive GC")
}
