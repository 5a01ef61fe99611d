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

	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// DAGItemKind tags the variant held by a DAGItem.
type DAGItemKind uint8

const (
	// DAGItemNode reports a node's first visit.
	DAGItemNode DAGItemKind = iota
	// DAGItemInternalEntry reports one child reference of a just-visited
	// internal node.
	DAGItemInternalEntry
	// DAGItemLeafEntry reports one key/value entry of a just-visited leaf.
	DAGItemLeafEntry
)

// DAGNode describes a node the hierarchy cursor has just visited.
type DAGNode struct {
	Hash        hash.Hash
	Level       uint8
	IsLeaf      bool
	NumEntries  int
	PathIndices []int
}

// DAGInternalEntry describes one child reference of a visited internal node.
type DAGInternalEntry struct {
	ParentHash      hash.Hash
	EntryIndex      int
	BoundaryKey     []byte
	ChildHash       hash.Hash
	NumItemsSubtree uint64
}

// DAGLeafEntry describes one key/value entry of a visited leaf. ValueSize
// is populated when it is cheaply knowable without an extra store read
// (inline length, or a chunked sequence's recorded total size); ValueHash
// is populated for a single-chunk value instead.
type DAGLeafEntry struct {
	ParentHash hash.Hash
	EntryIndex int
	Key        []byte
	ValueKind  ValueKind
	ValueHash  *hash.Hash
	ValueSize  uint64
}

// DAGItem is one emission of the hierarchy cursor: exactly one of Node,
// InternalEntry, LeafEntry is set, selected by Kind.
type DAGItem struct {
	Kind          DAGItemKind
	Node          *DAGNode
	InternalEntry *DAGInternalEntry
	LeafEntry     *DAGLeafEntry
}

type pendingNode struct {
	Hash        hash.Hash
	Depth       int
	PathIndices []int
}

// HierarchyCursor walks the tree breadth-first-friendly at the DAG-item
// level: a node is emitted once, immediately followed by all of its
// entries, before moving to the next pending node. It holds two work
// queues, exactly as described for this walk: a traversal queue of
// pending nodes, and a per-node queue of entries awaiting emission.
type HierarchyCursor struct {
	ns          *NodeStore
	hasMaxDepth bool
	maxDepth    int

	traversal []pendingNode
	entries   []DAGItem
	exhausted bool
}

// NewHierarchyCursor starts a walk at rootHash. A nil rootHash yields an
// immediately-exhausted cursor. When hasMaxDepth is true, children of a
// node at depth >= maxDepth are not traversed (though that node's own
// entries are still emitted).
func NewHierarchyCursor(ns *NodeStore, rootHash *hash.Hash, hasMaxDepth bool, maxDepth int) *HierarchyCursor {
	hc := &HierarchyCursor{ns: ns, hasMaxDepth: hasMaxDepth, maxDepth: maxDepth}
	if rootHash == nil {
		hc.exhausted = true
		return hc
	}
	hc.traversal = append(hc.traversal, pendingNode{Hash: *rootHash})
	return hc
}

// NextItem returns the next DAG item, or ok=false once the walk is done.
func (hc *HierarchyCursor) NextItem(ctx context.Context) (DAGItem, bool, error) {
	if len(hc.entries) > 0 {
		item := hc.entries[0]
		hc.entries = hc.entries[1:]
		return item, true, nil
	}
	if hc.exhausted {
		return DAGItem{}, false, nil
	}

	for len(hc.traversal) > 0 {
		pn := hc.traversal[0]
		hc.traversal = hc.traversal[1:]

		node, err := hc.ns.Load(ctx, pn.Hash)
		if err != nil {
			return DAGItem{}, false, err
		}

		nodeItem := DAGItem{Kind: DAGItemNode, Node: &DAGNode{
			Hash:        pn.Hash,
			Level:       node.Level,
			IsLeaf:      node.IsLeaf(),
			NumEntries:  node.NumEntries(),
			PathIndices: pn.PathIndices,
		}}

		if node.IsLeaf() {
			for i, e := range node.Entries {
				li := &DAGLeafEntry{ParentHash: pn.Hash, EntryIndex: i, Key: e.Key, ValueKind: e.Value.Kind}
				switch e.Value.Kind {
				case ValueInline:
					li.ValueSize = uint64(len(e.Value.Inline))
				case ValueChunked:
					h := e.Value.Chunk
					li.ValueHash = &h
				case ValueChunkedSequence:
					li.ValueSize = e.Value.TotalSize
				}
				hc.entries = append(hc.entries, DAGItem{Kind: DAGItemLeafEntry, LeafEntry: li})
			}
		} else {
			atMaxDepth := hc.hasMaxDepth && pn.Depth >= hc.maxDepth
			for i, c := range node.Children {
				hc.entries = append(hc.entries, DAGItem{Kind: DAGItemInternalEntry, InternalEntry: &DAGInternalEntry{
					ParentHash:      pn.Hash,
					EntryIndex:      i,
					BoundaryKey:     c.BoundaryKey,
					ChildHash:       c.ChildHash,
					NumItemsSubtree: c.NumItemsSubtree,
				}})
				if !atMaxDepth {
					childPath := make([]int, len(pn.PathIndices)+1)
					copy(childPath, pn.PathIndices)
					childPath[len(pn.PathIndices)] = i
					hc.traversal = append(hc.traversal, pendingNode{Hash: c.ChildHash, Depth: pn.Depth + 1, PathIndices: childPath})
				}
			}
		}
		return nodeItem, true, nil
	}

	hc.exhausted = true
	return DAGItem{}, false, nil
}

// HierarchyPage is one page of a hierarchy walk.
type HierarchyPage struct {
	Items       []DAGItem
	HasNextPage bool
}

// HierarchyScan materializes one page of the hierarchy walk rooted at
// rootHash, skipping `offset` items and fetching `limit+1` to detect
// HasNextPage, exactly analogous to the range-scan pagination in Scan.
func HierarchyScan(ctx context.Context, ns *NodeStore, rootHash *hash.Hash, hasMaxDepth bool, maxDepth int, offset int, hasLimit bool, limit int) (HierarchyPage, error) {
	hc := NewHierarchyCursor(ns, rootHash, hasMaxDepth, maxDepth)

	for i := 0; i < offset; i++ {
		_, ok, err := hc.NextItem(ctx)
		if err != nil {
			return HierarchyPage{}, err
		}
		if !ok {
			break
		}
	}

	fetchLimit := -1
	if hasLimit {
		fetchLimit = limit + 1
	}
	var items []DAGItem
	for fetchLimit < 0 || len(items) < fetchLimit {
		item, ok, err := hc.NextItem(ctx)
		if err != nil {
			return HierarchyPage{}, err
		}
		if !ok {
			break
		}
		items = append(items, item)
	}

	page := HierarchyPage{}
	if hasLimit && len(items) > limit {
		page.HasNextPage = true
		items = items[:limit]
	}
	page.Items = items
	return page, nil
}
