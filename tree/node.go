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
	"bytes"

	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// ValueKind tags the variant held by a ValueRepr.
type ValueKind uint8

const (
	// ValueInline holds the value bytes directly.
	ValueInline ValueKind = iota
	// ValueChunked holds a single CDC chunk hash.
	ValueChunked
	// ValueChunkedSequence holds an ordered list of CDC chunk hashes
	// plus the total reconstructed size.
	ValueChunkedSequence
)

// ValueRepr is the tagged representation of a leaf entry's value,
// produced by PrepareValue and consumed by ReconstructValue.
type ValueRepr struct {
	Kind ValueKind

	// Inline is set when Kind == ValueInline.
	Inline []byte

	// Chunk is set when Kind == ValueChunked.
	Chunk hash.Hash

	// Chunks and TotalSize are set when Kind == ValueChunkedSequence.
	Chunks    []hash.Hash
	TotalSize uint64
}

// LeafEntry is one key/value pair stored in a leaf node.
type LeafEntry struct {
	Key   []byte
	Value ValueRepr
}

// InternalEntry is one child reference stored in an internal node.
// BoundaryKey equals the largest key present in the subtree rooted at
// ChildHash; NumItemsSubtree is the total leaf-entry count of that
// subtree.
type InternalEntry struct {
	BoundaryKey     []byte
	ChildHash       hash.Hash
	NumItemsSubtree uint64
}

// Node is either a leaf (Level == 0, Entries populated) or an internal
// node (Level > 0, Children populated). Nodes are immutable once built;
// every mutation produces a new Node value.
type Node struct {
	Level    uint8
	Entries  []LeafEntry
	Children []InternalEntry
}

// IsLeaf reports whether n is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Level == 0
}

// NumEntries returns the fanout of n: len(Entries) for a leaf,
// len(Children) for an internal node.
func (n *Node) NumEntries() int {
	if n.IsLeaf() {
		return len(n.Entries)
	}
	return len(n.Children)
}

// BoundaryKey returns the largest key in the subtree rooted at n: the
// last entry's key for a leaf, or the last child's BoundaryKey for an
// internal node. Panics if n has no entries/children; callers must not
// call this on an empty node (storing one is an internal error, see
// StoreNode).
func (n *Node) BoundaryKey() []byte {
	if n.IsLeaf() {
		return n.Entries[len(n.Entries)-1].Key
	}
	return n.Children[len(n.Children)-1].BoundaryKey
}

// NumItemsSubtree returns the total leaf-entry count of the subtree
// rooted at n: len(Entries) for a leaf, the sum of children's
// NumItemsSubtree for an internal node.
func (n *Node) NumItemsSubtree() uint64 {
	if n.IsLeaf() {
		return uint64(len(n.Entries))
	}
	var total uint64
	for _, c := range n.Children {
		total += c.NumItemsSubtree
	}
	return total
}

// searchLeaf returns the index of key within a leaf's sorted Entries,
// and whether it was found exactly. If not found, idx is the insertion
// point that keeps Entries sorted.
func searchLeaf(entries []LeafEntry, key []byte) (idx int, found bool) {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch bytes.Compare(entries[mid].Key, key) {
		case 0:
			return mid, true
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return lo, false
}

// chooseChild implements the descent rule of §4.6.1: the first child
// whose BoundaryKey >= targetKey, or the last child if none qualifies.
func chooseChild(children []InternalEntry, targetKey []byte) int {
	for i, c := range children {
		if bytes.Compare(c.BoundaryKey, targetKey) >= 0 {
			return i
		}
	}
	return len(children) - 1
}
