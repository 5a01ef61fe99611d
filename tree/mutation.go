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

	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// splitInfo describes the new right sibling produced when a node's
// entry/child count exceeds cfg.TargetFanout during insert.
type splitInfo struct {
	Hash        hash.Hash
	BoundaryKey []byte
	ItemCount   uint64
}

// nodeUpdate is what a recursive insert call returns to its caller: the
// persisted replacement for the node it was asked to update, plus an
// optional sibling produced by a split. Level is the level of the node
// this update replaces, which a split never changes.
type nodeUpdate struct {
	Hash        hash.Hash
	BoundaryKey []byte
	ItemCount   uint64
	Level       uint8
	Split       *splitInfo
}

// deleteOutcome tags what happened to a node during a recursive delete.
type deleteOutcome int

const (
	deleteNotFound deleteOutcome = iota
	deleteUpdated
	deleteMerged
)

type deleteResult struct {
	Outcome deleteOutcome
	Update  nodeUpdate // valid only when Outcome == deleteUpdated
}

// Get descends from rootHash to find key, reconstructing its value. It
// returns ok=false if rootHash is nil (empty tree) or key is absent.
func Get(ctx context.Context, ns *NodeStore, rootHash *hash.Hash, key []byte) ([]byte, bool, error) {
	if rootHash == nil {
		return nil, false, nil
	}
	repr, ok, err := getRecursive(ctx, ns, *rootHash, key)
	if err != nil || !ok {
		return nil, false, err
	}
	val, err := ReconstructValue(ctx, ns.Store(), repr)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func getRecursive(ctx context.Context, ns *NodeStore, h hash.Hash, key []byte) (ValueRepr, bool, error) {
	node, err := ns.Load(ctx, h)
	if err != nil {
		return ValueRepr{}, false, err
	}
	if node.IsLeaf() {
		idx, found := searchLeaf(node.Entries, key)
		if !found {
			return ValueRepr{}, false, nil
		}
		return node.Entries[idx].Value, true, nil
	}
	if len(node.Children) == 0 {
		return ValueRepr{}, false, errs.Internal("encountered internal node with zero children during get")
	}
	idx := chooseChild(node.Children, key)
	return getRecursive(ctx, ns, node.Children[idx].ChildHash, key)
}

// Insert computes the value representation for value, then inserts
// (key, value) into the tree rooted at rootHash (nil for an empty
// tree), returning the new root hash and whether it differs from the
// old one.
func Insert(ctx context.Context, ns *NodeStore, cfg Config, rootHash *hash.Hash, key, value []byte) (hash.Hash, bool, error) {
	repr, err := PrepareValue(ctx, ns.Store(), cfg, value)
	if err != nil {
		return hash.Empty, false, err
	}

	if rootHash == nil {
		leaf := &Node{Level: 0, Entries: []LeafEntry{{Key: key, Value: repr}}}
		_, h, err := ns.Write(ctx, leaf)
		if err != nil {
			return hash.Empty, false, err
		}
		return h, true, nil
	}

	update, err := insertRecursive(ctx, ns, cfg, *rootHash, key, repr)
	if err != nil {
		return hash.Empty, false, err
	}

	var newRoot hash.Hash
	if update.Split != nil {
		root := &Node{
			Level: update.Level + 1,
			Children: []InternalEntry{
				{BoundaryKey: update.BoundaryKey, ChildHash: update.Hash, NumItemsSubtree: update.ItemCount},
				{BoundaryKey: update.Split.BoundaryKey, ChildHash: update.Split.Hash, NumItemsSubtree: update.Split.ItemCount},
			},
		}
		_, newRoot, err = ns.Write(ctx, root)
		if err != nil {
			return hash.Empty, false, err
		}
	} else {
		newRoot = update.Hash
	}

	return newRoot, newRoot != *rootHash, nil
}

func insertRecursive(ctx context.Context, ns *NodeStore, cfg Config, h hash.Hash, key []byte, repr ValueRepr) (nodeUpdate, error) {
	node, err := ns.Load(ctx, h)
	if err != nil {
		return nodeUpdate{}, err
	}
	if node.IsLeaf() {
		return insertLeaf(ctx, ns, cfg, node, key, repr)
	}
	return insertInternal(ctx, ns, cfg, node, key, repr)
}

func insertLeaf(ctx context.Context, ns *NodeStore, cfg Config, node *Node, key []byte, repr ValueRepr) (nodeUpdate, error) {
	idx, found := searchLeaf(node.Entries, key)
	entries := make([]LeafEntry, len(node.Entries))
	copy(entries, node.Entries)
	if found {
		entries[idx] = LeafEntry{Key: key, Value: repr}
	} else {
		entries = append(entries, LeafEntry{})
		copy(entries[idx+1:], entries[idx:])
		entries[idx] = LeafEntry{Key: key, Value: repr}
	}

	if len(entries) > cfg.TargetFanout {
		mid := len(entries) / 2
		left := &Node{Level: 0, Entries: entries[:mid]}
		right := &Node{Level: 0, Entries: entries[mid:]}

		lBoundary, lHash, err := ns.Write(ctx, left)
		if err != nil {
			return nodeUpdate{}, err
		}
		rBoundary, rHash, err := ns.Write(ctx, right)
		if err != nil {
			return nodeUpdate{}, err
		}
		return nodeUpdate{
			Hash:        lHash,
			BoundaryKey: lBoundary,
			ItemCount:   uint64(len(left.Entries)),
			Level:       0,
			Split: &splitInfo{
				Hash:        rHash,
				BoundaryKey: rBoundary,
				ItemCount:   uint64(len(right.Entries)),
			},
		}, nil
	}

	newNode := &Node{Level: 0, Entries: entries}
	boundary, h, err := ns.Write(ctx, newNode)
	if err != nil {
		return nodeUpdate{}, err
	}
	return nodeUpdate{Hash: h, BoundaryKey: boundary, ItemCount: uint64(len(entries)), Level: 0}, nil
}

func insertInternal(ctx context.Context, ns *NodeStore, cfg Config, node *Node, key []byte, repr ValueRepr) (nodeUpdate, error) {
	if len(node.Children) == 0 {
		return nodeUpdate{}, errs.Internal("encountered internal node with zero children during insert")
	}
	idx := chooseChild(node.Children, key)
	childUpdate, err := insertRecursive(ctx, ns, cfg, node.Children[idx].ChildHash, key, repr)
	if err != nil {
		return nodeUpdate{}, err
	}

	children := make([]InternalEntry, len(node.Children))
	copy(children, node.Children)
	children[idx] = InternalEntry{
		BoundaryKey:     childUpdate.BoundaryKey,
		ChildHash:       childUpdate.Hash,
		NumItemsSubtree: childUpdate.ItemCount,
	}

	if childUpdate.Split != nil {
		sib := InternalEntry{
			BoundaryKey:     childUpdate.Split.BoundaryKey,
			ChildHash:       childUpdate.Split.Hash,
			NumItemsSubtree: childUpdate.Split.ItemCount,
		}
		children = insertChildAt(children, idx+1, sib)
	}

	if len(children) > cfg.TargetFanout {
		mid := len(children) / 2
		left := &Node{Level: node.Level, Children: children[:mid]}
		right := &Node{Level: node.Level, Children: children[mid:]}

		lBoundary, lHash, err := ns.Write(ctx, left)
		if err != nil {
			return nodeUpdate{}, err
		}
		rBoundary, rHash, err := ns.Write(ctx, right)
		if err != nil {
			return nodeUpdate{}, err
		}
		return nodeUpdate{
			Hash:        lHash,
			BoundaryKey: lBoundary,
			ItemCount:   left.NumItemsSubtree(),
			Level:       node.Level,
			Split: &splitInfo{
				Hash:        rHash,
				BoundaryKey: rBoundary,
				ItemCount:   right.NumItemsSubtree(),
			},
		}, nil
	}

	newNode := &Node{Level: node.Level, Children: children}
	boundary, h, err := ns.Write(ctx, newNode)
	if err != nil {
		return nodeUpdate{}, err
	}
	return nodeUpdate{Hash: h, BoundaryKey: boundary, ItemCount: newNode.NumItemsSubtree(), Level: node.Level}, nil
}

func insertChildAt(children []InternalEntry, idx int, e InternalEntry) []InternalEntry {
	children = append(children, InternalEntry{})
	copy(children[idx+1:], children[idx:])
	children[idx] = e
	return children
}

// Delete removes key from the tree rooted at rootHash. It returns the
// new root hash (nil if the tree is now empty), and whether anything
// changed. The caller (the Tree handle, C11) is responsible for
// iteratively collapsing a single-child internal root afterward.
func Delete(ctx context.Context, ns *NodeStore, cfg Config, rootHash *hash.Hash, key []byte) (*hash.Hash, bool, error) {
	if rootHash == nil {
		return nil, false, nil
	}

	result, err := deleteRecursive(ctx, ns, cfg, *rootHash, key)
	if err != nil {
		return nil, false, err
	}

	switch result.Outcome {
	case deleteNotFound:
		return rootHash, false, nil
	case deleteMerged:
		return nil, true, nil
	case deleteUpdated:
		h := result.Update.Hash
		return &h, true, nil
	default:
		return nil, false, errs.Internal("unknown delete outcome")
	}
}

func deleteRecursive(ctx context.Context, ns *NodeStore, cfg Config, h hash.Hash, key []byte) (deleteResult, error) {
	node, err := ns.Load(ctx, h)
	if err != nil {
		return deleteResult{}, err
	}
	if node.IsLeaf() {
		return deleteLeaf(ctx, ns, node, key)
	}
	return deleteInternal(ctx, ns, cfg, node, key)
}

func deleteLeaf(ctx context.Context, ns *NodeStore, node *Node, key []byte) (deleteResult, error) {
	idx, found := searchLeaf(node.Entries, key)
	if !found {
		return deleteResult{Outcome: deleteNotFound}, nil
	}
	entries := make([]LeafEntry, 0, len(node.Entries)-1)
	entries = append(entries, node.Entries[:idx]...)
	entries = append(entries, node.Entries[idx+1:]...)

	if len(entries) == 0 {
		return deleteResult{Outcome: deleteMerged}, nil
	}

	newNode := &Node{Level: 0, Entries: entries}
	boundary, h, err := ns.Write(ctx, newNode)
	if err != nil {
		return deleteResult{}, err
	}
	return deleteResult{
		Outcome: deleteUpdated,
		Update:  nodeUpdate{Hash: h, BoundaryKey: boundary, ItemCount: uint64(len(entries)), Level: 0},
	}, nil
}

func deleteInternal(ctx context.Context, ns *NodeStore, cfg Config, node *Node, key []byte) (deleteResult, error) {
	if len(node.Children) == 0 {
		return deleteResult{}, errs.Internal("encountered internal node with zero children during delete")
	}
	idx := chooseChild(node.Children, key)
	childResult, err := deleteRecursive(ctx, ns, cfg, node.Children[idx].ChildHash, key)
	if err != nil {
		return deleteResult{}, err
	}

	switch childResult.Outcome {
	case deleteNotFound:
		return deleteResult{Outcome: deleteNotFound}, nil

	case deleteMerged:
		children := make([]InternalEntry, 0, len(node.Children)-1)
		children = append(children, node.Children[:idx]...)
		children = append(children, node.Children[idx+1:]...)
		if len(children) == 0 {
			return deleteResult{Outcome: deleteMerged}, nil
		}
		newNode := &Node{Level: node.Level, Children: children}
		boundary, h, err := ns.Write(ctx, newNode)
		if err != nil {
			return deleteResult{}, err
		}
		return deleteResult{
			Outcome: deleteUpdated,
			Update:  nodeUpdate{Hash: h, BoundaryKey: boundary, ItemCount: newNode.NumItemsSubtree(), Level: node.Level},
		}, nil

	case deleteUpdated:
		children := make([]InternalEntry, len(node.Children))
		copy(children, node.Children)
		children[idx] = InternalEntry{
			BoundaryKey:     childResult.Update.BoundaryKey,
			ChildHash:       childResult.Update.Hash,
			NumItemsSubtree: childResult.Update.ItemCount,
		}

		updatedChildNode, err := ns.Load(ctx, childResult.Update.Hash)
		if err != nil {
			return deleteResult{}, err
		}
		if updatedChildNode.NumEntries() < cfg.MinFanout {
			children, err = handleUnderflow(ctx, ns, cfg, children, idx)
			if err != nil {
				return deleteResult{}, err
			}
		}

		if len(children) == 0 {
			return deleteResult{Outcome: deleteMerged}, nil
		}
		newNode := &Node{Level: node.Level, Children: children}
		boundary, h, err := ns.Write(ctx, newNode)
		if err != nil {
			return deleteResult{}, err
		}
		return deleteResult{
			Outcome: deleteUpdated,
			Update:  nodeUpdate{Hash: h, BoundaryKey: boundary, ItemCount: newNode.NumItemsSubtree(), Level: node.Level},
		}, nil

	default:
		return deleteResult{}, errs.Internal("unknown delete outcome from child")
	}
}

// handleUnderflow implements the §4.6.4 underflow strategy on the child
// at idx: borrow from the left sibling if it can spare an entry, else
// the right sibling, else merge with a sibling (left preferred). It
// returns the (possibly shorter) children slice with idx's entry and its
// chosen sibling's entry updated in place.
func handleUnderflow(ctx context.Context, ns *NodeStore, cfg Config, children []InternalEntry, idx int) ([]InternalEntry, error) {
	hasLeft := idx > 0
	hasRight := idx < len(children)-1

	if hasLeft {
		leftNode, err := ns.Load(ctx, children[idx-1].ChildHash)
		if err != nil {
			return nil, err
		}
		if leftNode.NumEntries() > cfg.MinFanout {
			return borrowFromLeft(ctx, ns, children, idx, leftNode)
		}
	}
	if hasRight {
		rightNode, err := ns.Load(ctx, children[idx+1].ChildHash)
		if err != nil {
			return nil, err
		}
		if rightNode.NumEntries() > cfg.MinFanout {
			return borrowFromRight(ctx, ns, children, idx, rightNode)
		}
	}
	if hasLeft {
		leftNode, err := ns.Load(ctx, children[idx-1].ChildHash)
		if err != nil {
			return nil, err
		}
		node, err := ns.Load(ctx, children[idx].ChildHash)
		if err != nil {
			return nil, err
		}
		return mergeSiblings(ctx, ns, children, idx-1, idx, leftNode, node)
	}
	if hasRight {
		node, err := ns.Load(ctx, children[idx].ChildHash)
		if err != nil {
			return nil, err
		}
		rightNode, err := ns.Load(ctx, children[idx+1].ChildHash)
		if err != nil {
			return nil, err
		}
		return mergeSiblings(ctx, ns, children, idx, idx+1, node, rightNode)
	}
	// No sibling at all: the parent has exactly one child. Nothing to
	// rebalance against; leave the underflowed child as-is.
	return children, nil
}

func borrowFromLeft(ctx context.Context, ns *NodeStore, children []InternalEntry, idx int, leftNode *Node) ([]InternalEntry, error) {
	node, err := ns.Load(ctx, children[idx].ChildHash)
	if err != nil {
		return nil, err
	}

	var newLeft, newNode *Node
	if leftNode.IsLeaf() {
		last := leftNode.Entries[len(leftNode.Entries)-1]
		newLeft = &Node{Level: 0, Entries: leftNode.Entries[:len(leftNode.Entries)-1]}
		entries := append([]LeafEntry{last}, node.Entries...)
		newNode = &Node{Level: 0, Entries: entries}
	} else {
		last := leftNode.Children[len(leftNode.Children)-1]
		newLeft = &Node{Level: leftNode.Level, Children: leftNode.Children[:len(leftNode.Children)-1]}
		ch := append([]InternalEntry{last}, node.Children...)
		newNode = &Node{Level: node.Level, Children: ch}
	}

	lBoundary, lHash, err := ns.Write(ctx, newLeft)
	if err != nil {
		return nil, err
	}
	boundary, h, err := ns.Write(ctx, newNode)
	if err != nil {
		return nil, err
	}

	out := make([]InternalEntry, len(children))
	copy(out, children)
	out[idx-1] = InternalEntry{BoundaryKey: lBoundary, ChildHash: lHash, NumItemsSubtree: newLeft.NumItemsSubtree()}
	out[idx] = InternalEntry{BoundaryKey: boundary, ChildHash: h, NumItemsSubtree: newNode.NumItemsSubtree()}
	return out, nil
}

func borrowFromRight(ctx context.Context, ns *NodeStore, children []InternalEntry, idx int, rightNode *Node) ([]InternalEntry, error) {
	node, err := ns.Load(ctx, children[idx].ChildHash)
	if err != nil {
		return nil, err
	}

	var newNode, newRight *Node
	if rightNode.IsLeaf() {
		first := rightNode.Entries[0]
		newRight = &Node{Level: 0, Entries: rightNode.Entries[1:]}
		entries := append(append([]LeafEntry{}, node.Entries...), first)
		newNode = &Node{Level: 0, Entries: entries}
	} else {
		first := rightNode.Children[0]
		newRight = &Node{Level: rightNode.Level, Children: rightNode.Children[1:]}
		ch := append(append([]InternalEntry{}, node.Children...), first)
		newNode = &Node{Level: node.Level, Children: ch}
	}

	boundary, h, err := ns.Write(ctx, newNode)
	if err != nil {
		return nil, err
	}
	rBoundary, rHash, err := ns.Write(ctx, newRight)
	if err != nil {
		return nil, err
	}

	out := make([]InternalEntry, len(children))
	copy(out, children)
	out[idx] = InternalEntry{BoundaryKey: boundary, ChildHash: h, NumItemsSubtree: newNode.NumItemsSubtree()}
	out[idx+1] = InternalEntry{BoundaryKey: rBoundary, ChildHash: rHash, NumItemsSubtree: newRight.NumItemsSubtree()}
	return out, nil
}

// mergeSiblings merges the node at children[rightIdx] into the node at
// children[leftIdx] (leftIdx+1 == rightIdx), dropping rightIdx from the
// returned slice.
func mergeSiblings(ctx context.Context, ns *NodeStore, children []InternalEntry, leftIdx, rightIdx int, leftNode, rightNode *Node) ([]InternalEntry, error) {
	var merged *Node
	if leftNode.IsLeaf() {
		entries := append(append([]LeafEntry{}, leftNode.Entries...), rightNode.Entries...)
		merged = &Node{Level: 0, Entries: entries}
	} else {
		ch := append(append([]InternalEntry{}, leftNode.Children...), rightNode.Children...)
		merged = &Node{Level: leftNode.Level, Children: ch}
	}

	boundary, h, err := ns.Write(ctx, merged)
	if err != nil {
		return nil, err
	}

	out := make([]InternalEntry, 0, len(children)-1)
	out = append(out, children[:leftIdx]...)
	out = append(out, InternalEntry{BoundaryKey: boundary, ChildHash: h, NumItemsSubtree: merged.NumItemsSubtree()})
	out = append(out, children[rightIdx+1:]...)
	return out, nil
}

// InsertBatch applies each (key, value) pair in items via Insert, in
// order. There is no atomicity across items; the returned changed flag
// is the logical OR of every individual insert's changed flag.
func InsertBatch(ctx context.Context, ns *NodeStore, cfg Config, rootHash *hash.Hash, items [][2][]byte) (*hash.Hash, bool, error) {
	changedAny := false
	for _, kv := range items {
		newRoot, changed, err := Insert(ctx, ns, cfg, rootHash, kv[0], kv[1])
		if err != nil {
			return rootHash, changedAny, err
		}
		rootHash = &newRoot
		changedAny = changedAny || changed
	}
	return rootHash, changedAny, nil
}

// CountAllItems returns the total number of leaf entries reachable from
// rootHash (0 for an empty tree).
func CountAllItems(ctx context.Context, ns *NodeStore, rootHash *hash.Hash) (uint64, error) {
	if rootHash == nil {
		return 0, nil
	}
	root, err := ns.Load(ctx, *rootHash)
	if err != nil {
		return 0, err
	}
	return root.NumItemsSubtree(), nil
}

// CollapseRoot implements the §4.6.4/§4.11 root-collapse rule after a
// delete: if the root is an internal node with exactly one child, the
// root becomes that child. This repeats (resolving the §9 open
// question) until the root is a leaf or has at least two children.
func CollapseRoot(ctx context.Context, ns *NodeStore, rootHash hash.Hash) (hash.Hash, error) {
	for {
		node, err := ns.Load(ctx, rootHash)
		if err != nil {
			return hash.Empty, err
		}
		if node.IsLeaf() || len(node.Children) != 1 {
			return rootHash, nil
		}
		rootHash = node.Children[0].ChildHash
	}
}
