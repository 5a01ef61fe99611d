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
	"context"

	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// DiffEntry reports one key that differs between two trees: present in
// only one side, or present in both with different values.
type DiffEntry struct {
	Key           []byte
	HasLeftValue  bool
	LeftValue     []byte
	HasRightValue bool
	RightValue    []byte
}

// Diff reports every key present in exactly one of leftRoot/rightRoot,
// or present in both with differing values. Subtrees with identical
// hashes are skipped wholesale.
func Diff(ctx context.Context, ns *NodeStore, leftRoot, rightRoot *hash.Hash) ([]DiffEntry, error) {
	return diffSubtree(ctx, ns, leftRoot, rightRoot)
}

func diffSubtree(ctx context.Context, ns *NodeStore, leftHash, rightHash *hash.Hash) ([]DiffEntry, error) {
	if leftHash != nil && rightHash != nil && *leftHash == *rightHash {
		return nil, nil
	}

	var leftNode, rightNode *Node
	var err error
	if leftHash != nil {
		leftNode, err = ns.Load(ctx, *leftHash)
		if err != nil {
			return nil, err
		}
	}
	if rightHash != nil {
		rightNode, err = ns.Load(ctx, *rightHash)
		if err != nil {
			return nil, err
		}
	}

	if leftNode == nil && rightNode == nil {
		return nil, nil
	}
	if leftNode == nil {
		entries, err := flattenNode(ctx, ns, rightNode)
		if err != nil {
			return nil, err
		}
		return mergeLeafEntries(ctx, ns, nil, entries)
	}
	if rightNode == nil {
		entries, err := flattenNode(ctx, ns, leftNode)
		if err != nil {
			return nil, err
		}
		return mergeLeafEntries(ctx, ns, entries, nil)
	}

	if leftNode.IsLeaf() && rightNode.IsLeaf() {
		return mergeLeafEntries(ctx, ns, leftNode.Entries, rightNode.Entries)
	}

	// Children pair up one to one only when both nodes sit at the same
	// level with identical boundary lists; any other shape is diffed by
	// flattening both sides into ordered leaf entries and merging them.
	sameShape := leftNode.Level == rightNode.Level && len(leftNode.Children) == len(rightNode.Children)
	for k := 0; sameShape && k < len(leftNode.Children); k++ {
		sameShape = bytes.Equal(leftNode.Children[k].BoundaryKey, rightNode.Children[k].BoundaryKey)
	}
	if !sameShape {
		le, err := flattenNode(ctx, ns, leftNode)
		if err != nil {
			return nil, err
		}
		re, err := flattenNode(ctx, ns, rightNode)
		if err != nil {
			return nil, err
		}
		return mergeLeafEntries(ctx, ns, le, re)
	}

	// Both internal with identical boundary lists: walk children
	// two-pointer by BoundaryKey. Matching child hash is the
	// structural-sharing short-circuit; a differing hash recurses.
	var out []DiffEntry
	i, j := 0, 0
	for i < len(leftNode.Children) && j < len(rightNode.Children) {
		lc := leftNode.Children[i]
		rc := rightNode.Children[j]
		switch bytes.Compare(lc.BoundaryKey, rc.BoundaryKey) {
		case 0:
			if lc.ChildHash != rc.ChildHash {
				sub, err := diffSubtree(ctx, ns, &lc.ChildHash, &rc.ChildHash)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
			i++
			j++
		case -1:
			sub, err := diffSubtree(ctx, ns, &lc.ChildHash, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			i++
		default:
			sub, err := diffSubtree(ctx, ns, nil, &rc.ChildHash)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			j++
		}
	}
	for ; i < len(leftNode.Children); i++ {
		sub, err := diffSubtree(ctx, ns, &leftNode.Children[i].ChildHash, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	for ; j < len(rightNode.Children); j++ {
		sub, err := diffSubtree(ctx, ns, nil, &rightNode.Children[j].ChildHash)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// flattenNode collects every leaf entry of the subtree rooted at node,
// in key order.
func flattenNode(ctx context.Context, ns *NodeStore, node *Node) ([]LeafEntry, error) {
	if node.IsLeaf() {
		return node.Entries, nil
	}
	var out []LeafEntry
	for _, c := range node.Children {
		child, err := ns.Load(ctx, c.ChildHash)
		if err != nil {
			return nil, err
		}
		entries, err := flattenNode(ctx, ns, child)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// mergeLeafEntries two-pointer merges two sorted leaf-entry slices
// (either may be nil, reporting every entry of the other as one-sided)
// into diff entries, reconstructing values only when a key is present on
// both sides and its representation actually differs.
func mergeLeafEntries(ctx context.Context, ns *NodeStore, left, right []LeafEntry) ([]DiffEntry, error) {
	var out []DiffEntry
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch bytes.Compare(left[i].Key, right[j].Key) {
		case 0:
			if !reprEqual(left[i].Value, right[j].Value) {
				lv, err := ReconstructValue(ctx, ns.Store(), left[i].Value)
				if err != nil {
					return nil, err
				}
				rv, err := ReconstructValue(ctx, ns.Store(), right[j].Value)
				if err != nil {
					return nil, err
				}
				if !bytes.Equal(lv, rv) {
					out = append(out, DiffEntry{Key: left[i].Key, HasLeftValue: true, LeftValue: lv, HasRightValue: true, RightValue: rv})
				}
			}
			i++
			j++
		case -1:
			lv, err := ReconstructValue(ctx, ns.Store(), left[i].Value)
			if err != nil {
				return nil, err
			}
			out = append(out, DiffEntry{Key: left[i].Key, HasLeftValue: true, LeftValue: lv})
			i++
		default:
			rv, err := ReconstructValue(ctx, ns.Store(), right[j].Value)
			if err != nil {
				return nil, err
			}
			out = append(out, DiffEntry{Key: right[j].Key, HasRightValue: true, RightValue: rv})
			j++
		}
	}
	for ; i < len(left); i++ {
		lv, err := ReconstructValue(ctx, ns.Store(), left[i].Value)
		if err != nil {
			return nil, err
		}
		out = append(out, DiffEntry{Key: left[i].Key, HasLeftValue: true, LeftValue: lv})
	}
	for ; j < len(right); j++ {
		rv, err := ReconstructValue(ctx, ns.Store(), right[j].Value)
		if err != nil {
			return nil, err
		}
		out = append(out, DiffEntry{Key: right[j].Key, HasRightValue: true, RightValue: rv})
	}
	return out, nil
}

func reprEqual(a, b ValueRepr) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValueInline:
		return bytes.Equal(a.Inline, b.Inline)
	case ValueChunked:
		return a.Chunk == b.Chunk
	case ValueChunkedSequence:
		if a.TotalSize != b.TotalSize || len(a.Chunks) != len(b.Chunks) {
			return false
		}
		for i := range a.Chunks {
			if a.Chunks[i] != b.Chunks[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
