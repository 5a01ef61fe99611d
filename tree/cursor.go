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

	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// cursorFrame is one level of the cursor's path stack: the loaded node
// at Hash, and its index within its parent's Children (0 for the root
// frame, where it is unused). Nodes carry no back-pointers since they
// are content-addressed, so the cursor must record the descent path
// itself to step across leaves.
type cursorFrame struct {
	Hash          hash.Hash
	Node          *Node
	IndexInParent int
}

// Cursor holds an explicit path from root to the current leaf and a
// position within that leaf. Rather than an overloaded "max value"
// sentinel for "before the first entry" (natural in an unsigned-index
// language, awkward in Go's signed int), exhaustion in either direction
// is a separate boolean: once set, the cursor yields nothing more until
// repositioned.
type Cursor struct {
	ns        *NodeStore
	path      []cursorFrame
	idx       int
	exhausted bool
}

func (c *Cursor) currentLeaf() *Node {
	return c.path[len(c.path)-1].Node
}

// Valid reports whether the cursor currently points at a real entry.
func (c *Cursor) Valid() bool {
	if c.exhausted || len(c.path) == 0 {
		return false
	}
	leaf := c.currentLeaf()
	return c.idx >= 0 && c.idx < len(leaf.Entries)
}

func (c *Cursor) currentEntry() (key []byte, v ValueRepr, ok bool) {
	if !c.Valid() {
		return nil, ValueRepr{}, false
	}
	e := c.currentLeaf().Entries[c.idx]
	return e.Key, e.Value, true
}

// CurrentKey returns the key the cursor is currently positioned at, if any.
func (c *Cursor) CurrentKey() ([]byte, bool) {
	k, _, ok := c.currentEntry()
	return k, ok
}

// descendLeftmost loads h and appends it (tagged with indexInParent) to
// the path, then repeatedly descends into each internal node's first
// child until a leaf is reached.
func (c *Cursor) descendLeftmost(ctx context.Context, h hash.Hash, indexInParent int) error {
	for {
		node, err := c.ns.Load(ctx, h)
		if err != nil {
			return err
		}
		c.path = append(c.path, cursorFrame{Hash: h, Node: node, IndexInParent: indexInParent})
		if node.IsLeaf() {
			return nil
		}
		if len(node.Children) == 0 {
			return errs.Internal("encountered internal node with zero children during descent")
		}
		h = node.Children[0].ChildHash
		indexInParent = 0
	}
}

// descendRightmost is symmetric to descendLeftmost, always choosing the
// last child.
func (c *Cursor) descendRightmost(ctx context.Context, h hash.Hash, indexInParent int) error {
	for {
		node, err := c.ns.Load(ctx, h)
		if err != nil {
			return err
		}
		c.path = append(c.path, cursorFrame{Hash: h, Node: node, IndexInParent: indexInParent})
		if node.IsLeaf() {
			return nil
		}
		if len(node.Children) == 0 {
			return errs.Internal("encountered internal node with zero children during descent")
		}
		last := len(node.Children) - 1
		h = node.Children[last].ChildHash
		indexInParent = last
	}
}

// descendToKey descends choosing, at each internal node, the first
// child with BoundaryKey >= key (falling back to the last child), and
// positions at the leaf's binary-search result for key.
func (c *Cursor) descendToKey(ctx context.Context, h hash.Hash, indexInParent int, key []byte) error {
	for {
		node, err := c.ns.Load(ctx, h)
		if err != nil {
			return err
		}
		c.path = append(c.path, cursorFrame{Hash: h, Node: node, IndexInParent: indexInParent})
		if node.IsLeaf() {
			return nil
		}
		if len(node.Children) == 0 {
			return errs.Internal("encountered internal node with zero children during descent")
		}
		i := chooseChild(node.Children, key)
		h = node.Children[i].ChildHash
		indexInParent = i
	}
}

// advanceToNextLeaf pops the current leaf, then ancestors, until an
// ancestor has an unvisited right sibling; it descends that sibling's
// leftmost path and returns true. Returns false if no next leaf exists.
func (c *Cursor) advanceToNextLeaf(ctx context.Context) (bool, error) {
	i := len(c.path) - 1
	for i > 0 {
		cur := c.path[i]
		parent := c.path[i-1]
		if cur.IndexInParent+1 < len(parent.Node.Children) {
			siblingIdx := cur.IndexInParent + 1
			c.path = c.path[:i]
			if err := c.descendLeftmost(ctx, parent.Node.Children[siblingIdx].ChildHash, siblingIdx); err != nil {
				return false, err
			}
			return true, nil
		}
		i--
	}
	return false, nil
}

// advanceToPrevLeaf is symmetric: it descends the rightmost path of the
// previous sibling subtree.
func (c *Cursor) advanceToPrevLeaf(ctx context.Context) (bool, error) {
	i := len(c.path) - 1
	for i > 0 {
		cur := c.path[i]
		if cur.IndexInParent > 0 {
			parent := c.path[i-1]
			siblingIdx := cur.IndexInParent - 1
			c.path = c.path[:i]
			if err := c.descendRightmost(ctx, parent.Node.Children[siblingIdx].ChildHash, siblingIdx); err != nil {
				return false, err
			}
			return true, nil
		}
		i--
	}
	return false, nil
}

func (c *Cursor) stepForward(ctx context.Context) error {
	leaf := c.currentLeaf()
	if c.idx+1 < len(leaf.Entries) {
		c.idx++
		return nil
	}
	ok, err := c.advanceToNextLeaf(ctx)
	if err != nil {
		return err
	}
	if !ok {
		c.exhausted = true
		return nil
	}
	c.idx = 0
	return nil
}

func (c *Cursor) stepBackward(ctx context.Context) error {
	if c.idx-1 >= 0 {
		c.idx--
		return nil
	}
	ok, err := c.advanceToPrevLeaf(ctx)
	if err != nil {
		return err
	}
	if !ok {
		c.exhausted = true
		return nil
	}
	c.idx = len(c.currentLeaf().Entries) - 1
	return nil
}

// CursorStart returns a cursor positioned at the first entry of the
// tree rooted at rootHash (nil root yields an exhausted cursor).
func CursorStart(ctx context.Context, ns *NodeStore, rootHash *hash.Hash) (*Cursor, error) {
	if rootHash == nil {
		return &Cursor{ns: ns, exhausted: true}, nil
	}
	c := &Cursor{ns: ns}
	if err := c.descendLeftmost(ctx, *rootHash, 0); err != nil {
		return nil, err
	}
	c.idx = 0
	return c, nil
}

// Seek returns a cursor positioned at key, or at its sorted insertion
// point if key is absent.
func Seek(ctx context.Context, ns *NodeStore, rootHash *hash.Hash, key []byte) (*Cursor, error) {
	if rootHash == nil {
		return &Cursor{ns: ns, exhausted: true}, nil
	}
	c := &Cursor{ns: ns}
	if err := c.descendToKey(ctx, *rootHash, 0, key); err != nil {
		return nil, err
	}
	idx, _ := searchLeaf(c.currentLeaf().Entries, key)
	c.idx = idx
	if c.idx >= len(c.currentLeaf().Entries) {
		ok, err := c.advanceToNextLeaf(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.exhausted = true
		} else {
			c.idx = 0
		}
	}
	return c, nil
}

// Next yields the entry the cursor currently points at (reconstructing
// its value) and advances by one, crossing leaves transparently.
// Returns ok=false once the cursor is exhausted.
func (c *Cursor) Next(ctx context.Context) (key, value []byte, ok bool, err error) {
	if c.exhausted || len(c.path) == 0 {
		return nil, nil, false, nil
	}
	leaf := c.currentLeaf()
	if c.idx < 0 || c.idx >= len(leaf.Entries) {
		advanced, err := c.advanceToNextLeaf(ctx)
		if err != nil {
			return nil, nil, false, err
		}
		if !advanced {
			c.exhausted = true
			return nil, nil, false, nil
		}
		c.idx = 0
		return c.Next(ctx)
	}
	entry := leaf.Entries[c.idx]
	val, err := ReconstructValue(ctx, c.ns.Store(), entry.Value)
	if err != nil {
		return nil, nil, false, err
	}
	c.idx++
	return entry.Key, val, true, nil
}

// KV is a reconstructed key/value pair, as returned by a scan.
type KV struct {
	Key   []byte
	Value []byte
}

// ScanArgs configures a range scan. Omitted bounds (HasStartBound /
// HasEndBound false) mean unbounded on that side. For a reverse scan,
// StartBound is the upper bound and EndBound is the lower bound.
type ScanArgs struct {
	StartBound     []byte
	HasStartBound  bool
	EndBound       []byte
	HasEndBound    bool
	StartInclusive bool // zero value false: the start bound is exclusive unless set
	EndInclusive   bool // default false
	Reverse        bool
	Offset         int
	Limit          int
	HasLimit       bool
}

// NewForScan positions a cursor for args following the three-phase
// algorithm: descend toward the primary bound, apply offset, then apply
// the primary bound's inclusivity. Bound checks are independent of the
// offset walk (§9's resolution of the reverse-scan ambiguity).
func NewForScan(ctx context.Context, ns *NodeStore, rootHash *hash.Hash, args ScanArgs) (*Cursor, error) {
	if rootHash == nil {
		return &Cursor{ns: ns, exhausted: true}, nil
	}
	c := &Cursor{ns: ns}

	hasPrimary := args.HasStartBound
	primaryBound := args.StartBound

	var err error
	switch {
	case hasPrimary:
		err = c.descendToKey(ctx, *rootHash, 0, primaryBound)
	case !args.Reverse:
		err = c.descendLeftmost(ctx, *rootHash, 0)
	default:
		err = c.descendRightmost(ctx, *rootHash, 0)
	}
	if err != nil {
		return nil, err
	}

	leaf := c.currentLeaf()
	if hasPrimary {
		idx, found := searchLeaf(leaf.Entries, primaryBound)
		if args.Reverse {
			if found {
				c.idx = idx
			} else {
				c.idx = idx - 1
				if c.idx < 0 {
					ok, err := c.advanceToPrevLeaf(ctx)
					if err != nil {
						return nil, err
					}
					if !ok {
						c.exhausted = true
					} else {
						c.idx = len(c.currentLeaf().Entries) - 1
					}
				}
			}
		} else {
			c.idx = idx
			if c.idx >= len(leaf.Entries) {
				ok, err := c.advanceToNextLeaf(ctx)
				if err != nil {
					return nil, err
				}
				if !ok {
					c.exhausted = true
				} else {
					c.idx = 0
				}
			}
		}
	} else if args.Reverse {
		c.idx = len(leaf.Entries) - 1
	} else {
		c.idx = 0
	}

	for i := 0; i < args.Offset && !c.exhausted; i++ {
		if args.Reverse {
			err = c.stepBackward(ctx)
		} else {
			err = c.stepForward(ctx)
		}
		if err != nil {
			return nil, err
		}
	}

	if hasPrimary && !c.exhausted {
		if key, ok := c.CurrentKey(); ok && bytes.Equal(key, primaryBound) && !args.StartInclusive {
			if args.Reverse {
				err = c.stepBackward(ctx)
			} else {
				err = c.stepForward(ctx)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// NextInScan fetches the current entry, applies the secondary bound
// (args.EndBound), and if the scan is not yet stopped, reconstructs the
// value, advances the cursor one step, and returns (key, value, true).
func (c *Cursor) NextInScan(ctx context.Context, args ScanArgs) (key, value []byte, ok bool, err error) {
	if c.exhausted {
		return nil, nil, false, nil
	}
	k, repr, valid := c.currentEntry()
	if !valid {
		c.exhausted = true
		return nil, nil, false, nil
	}

	if args.HasEndBound {
		cmp := bytes.Compare(k, args.EndBound)
		stopped := false
		if args.Reverse {
			if args.EndInclusive {
				stopped = cmp < 0
			} else {
				stopped = cmp <= 0
			}
		} else {
			if args.EndInclusive {
				stopped = cmp > 0
			} else {
				stopped = cmp >= 0
			}
		}
		if stopped {
			c.exhausted = true
			return nil, nil, false, nil
		}
	}

	val, err := ReconstructValue(ctx, c.ns.Store(), repr)
	if err != nil {
		return nil, nil, false, err
	}

	if args.Reverse {
		err = c.stepBackward(ctx)
	} else {
		err = c.stepForward(ctx)
	}
	if err != nil {
		return nil, nil, false, err
	}

	return k, val, true, nil
}

// ScanPage is one page of a range scan, with enough bookkeeping to
// request the adjacent pages.
type ScanPage struct {
	Items              []KV
	HasNextPage        bool
	NextPageCursor     []byte
	HasPreviousPage    bool
	PreviousPageCursor []byte
}

// Scan materializes one page of args against the tree rooted at
// rootHash. It fetches Limit+1 items (when a limit is set) to determine
// HasNextPage/NextPageCursor without a second pass.
func Scan(ctx context.Context, ns *NodeStore, rootHash *hash.Hash, args ScanArgs) (ScanPage, error) {
	cur, err := NewForScan(ctx, ns, rootHash, args)
	if err != nil {
		return ScanPage{}, err
	}

	fetchLimit := -1 // -1 = unbounded
	if args.HasLimit {
		fetchLimit = args.Limit + 1
	}

	var items []KV
	for fetchLimit < 0 || len(items) < fetchLimit {
		k, v, ok, err := cur.NextInScan(ctx, args)
		if err != nil {
			return ScanPage{}, err
		}
		if !ok {
			break
		}
		items = append(items, KV{Key: k, Value: v})
	}

	page := ScanPage{
		HasPreviousPage: args.Offset > 0 || args.HasStartBound,
	}
	if args.HasLimit && len(items) > args.Limit {
		page.HasNextPage = true
		page.NextPageCursor = items[args.Limit].Key
		items = items[:args.Limit]
	}
	page.Items = items
	if len(items) > 0 {
		page.PreviousPageCursor = items[0].Key
	}
	return page, nil
}
