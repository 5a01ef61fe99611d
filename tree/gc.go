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

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/Ntropish/prolly-gunna-sub000/chunks"
	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// Collect runs a mark-and-sweep collection over store: it snapshots
// every hash currently stored, marks everything reachable from
// liveRoots (walking node children and, for leaves, any CDC value
// chunks referenced), and deletes the complement. A chunk that fails to
// decode as a node is treated as a DAG leaf (an opaque value chunk) and
// marked without further traversal, rather than as an error.
func Collect(ctx context.Context, store chunks.Store, liveRoots []hash.Hash) (int, error) {
	snapshot, err := store.AllHashes(ctx)
	if err != nil {
		return 0, errs.Storage(err)
	}

	live := make(map[hash.Hash]bool, len(snapshot))
	queue := make([]hash.Hash, 0, len(liveRoots))
	for _, r := range liveRoots {
		if !live[r] {
			live[r] = true
			queue = append(queue, r)
		}
	}

	enqueue := func(h hash.Hash) {
		if !live[h] {
			live[h] = true
			queue = append(queue, h)
		}
	}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		data, ok, err := store.Get(ctx, h)
		if err != nil {
			return 0, errs.Storage(err)
		}
		if !ok {
			continue
		}
		node, err := DecodeNode(data)
		if err != nil {
			continue
		}
		if node.IsLeaf() {
			for _, e := range node.Entries {
				switch e.Value.Kind {
				case ValueChunked:
					enqueue(e.Value.Chunk)
				case ValueChunkedSequence:
					for _, ch := range e.Value.Chunks {
						enqueue(ch)
					}
				}
			}
		} else {
			for _, c := range node.Children {
				enqueue(c.ChildHash)
			}
		}
	}

	var dead []hash.Hash
	for _, h := range snapshot {
		if !live[h] {
			dead = append(dead, h)
		}
	}

	if len(dead) > 0 {
		if err := store.DeleteBatch(ctx, dead); err != nil {
			return 0, errs.Storage(err)
		}
	}

	log.WithFields(log.Fields{
		"snapshot": humanize.Comma(int64(len(snapshot))),
		"live":     humanize.Comma(int64(len(live))),
		"dead":     humanize.Comma(int64(len(dead))),
	}).Debug("prolly: garbage collection complete")

	return len(dead), nil
}
