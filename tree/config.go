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

// Package tree implements the node model, codec, value representation,
// mutation engine, cursors and garbage collector that make up a prolly
// tree. The prolly package builds the public Tree handle on top of it.
package tree

import "github.com/Ntropish/prolly-gunna-sub000/errs"

// Config holds the tunables that determine node shape and value
// chunking. Two peers must use identical Config values to produce
// identical node and value encodings for the same logical content.
type Config struct {
	// TargetFanout is the upper bound on entries/children before a node
	// splits.
	TargetFanout int
	// MinFanout is the lower bound before underflow handling kicks in
	// for a non-root node.
	MinFanout int
	// MaxInlineValueSize is the threshold at or below which a value is
	// stored inline in its leaf entry rather than content-defined-chunked.
	MaxInlineValueSize int
	// CDCMinSize, CDCAvgSize, CDCMaxSize are the FastCDC parameters used
	// to split oversized values into chunks.
	CDCMinSize uint32
	CDCAvgSize uint32
	CDCMaxSize uint32
}

// DefaultConfig returns reasonable defaults, matching scenario 1 of the
// testable-properties suite in shape (not identical values, those tests
// build their own Config explicitly).
func DefaultConfig() Config {
	return Config{
		TargetFanout:       64,
		MinFanout:          16,
		MaxInlineValueSize: 256,
		CDCMinSize:         1 << 10,
		CDCAvgSize:         4 << 10,
		CDCMaxSize:         16 << 10,
	}
}

// Validate checks the fanout and CDC-size invariants, returning an
// errs.ErrConfigError-wrapped error describing the first violation found.
func (c Config) Validate() error {
	if c.MinFanout < 1 {
		return errs.Config("min_fanout must be >= 1")
	}
	if c.TargetFanout < 2*c.MinFanout {
		return errs.Config("target_fanout must be >= 2*min_fanout")
	}
	if c.MaxInlineValueSize <= 0 {
		return errs.Config("max_inline_value_size must be > 0")
	}
	if c.CDCMinSize == 0 || c.CDCAvgSize == 0 || c.CDCMaxSize == 0 {
		return errs.Config("cdc size parameters must be > 0")
	}
	if !(c.CDCMinSize < c.CDCAvgSize && c.CDCAvgSize < c.CDCMaxSize) {
		return errs.Config("cdc sizes must satisfy cdc_min_size < cdc_avg_size < cdc_max_size")
	}
	return nil
}
