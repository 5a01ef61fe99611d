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

	log "github.com/sirupsen/logrus"

	"github.com/Ntropish/prolly-gunna-sub000/chunks"
	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// PrepareValue decides how value should be represented in a leaf entry:
// inline if it fits under cfg.MaxInlineValueSize, otherwise
// content-defined-chunked via FastCDC with cfg's CDC parameters. Each
// chunk produced is immediately written to store.
func PrepareValue(ctx context.Context, store chunks.Store, cfg Config, value []byte) (ValueRepr, error) {
	if len(value) <= cfg.MaxInlineValueSize {
		return ValueRepr{Kind: ValueInline, Inline: value}, nil
	}

	chunker := newFastCDC(cfg)
	parts := chunker.split(value)

	switch len(parts) {
	case 0:
		// Pathological input (e.g. cfg misconfigured so no boundary is
		// ever found and value is nonetheless empty): fall back to inline.
		return ValueRepr{Kind: ValueInline, Inline: value}, nil
	case 1:
		h, err := store.Put(ctx, parts[0])
		if err != nil {
			return ValueRepr{}, errs.Storage(err)
		}
		return ValueRepr{Kind: ValueChunked, Chunk: h}, nil
	default:
		hashes := make([]hash.Hash, 0, len(parts))
		for _, p := range parts {
			h, err := store.Put(ctx, p)
			if err != nil {
				return ValueRepr{}, errs.Storage(err)
			}
			hashes = append(hashes, h)
		}
		return ValueRepr{
			Kind:      ValueChunkedSequence,
			Chunks:    hashes,
			TotalSize: uint64(len(value)),
		}, nil
	}
}

// ReconstructValue reassembles the original byte value from its
// representation. For chunked sequences, a total-size mismatch after
// concatenation is logged as a warning and the reconstructed bytes are
// still returned (§7: non-fatal, outer layers may re-verify via hashes).
func ReconstructValue(ctx context.Context, store chunks.Store, repr ValueRepr) ([]byte, error) {
	switch repr.Kind {
	case ValueInline:
		return repr.Inline, nil
	case ValueChunked:
		data, ok, err := store.Get(ctx, repr.Chunk)
		if err != nil {
			return nil, errs.Storage(err)
		}
		if !ok {
			return nil, errs.ChunkNotFound(repr.Chunk)
		}
		return data, nil
	case ValueChunkedSequence:
		var buf bytes.Buffer
		for _, h := range repr.Chunks {
			data, ok, err := store.Get(ctx, h)
			if err != nil {
				return nil, errs.Storage(err)
			}
			if !ok {
				return nil, errs.ChunkNotFound(h)
			}
			buf.Write(data)
		}
		out := buf.Bytes()
		if uint64(len(out)) != repr.TotalSize {
			log.WithFields(log.Fields{
				"expected_size": repr.TotalSize,
				"actual_size":   len(out),
				"chunk_count":   len(repr.Chunks),
			}).Warn("prolly: chunked value size mismatch on reconstruction")
		}
		return out, nil
	default:
		return nil, errs.Internal("unknown value repr kind during reconstruction")
	}
}
