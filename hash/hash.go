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

// Package hash implements the 32-byte BLAKE3 content address used
// throughout the tree: node hashes and content-defined-chunk hashes
// both live in this space.
package hash

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// ByteLen is the length in bytes of a Hash.
const ByteLen = 32

// Hash is a 32-byte BLAKE3 digest.
type Hash [ByteLen]byte

// Empty is the zero-value hash, used as a sentinel for "no hash".
var Empty = Hash{}

// Of computes the BLAKE3 digest of data.
func Of(data []byte) Hash {
	sum := blake3.Sum256(data)
	var h Hash
	copy(h[:], sum[:])
	return h
}

// IsEmpty reports whether h is the zero hash.
func (h Hash) IsEmpty() bool {
	return h == Empty
}

// String renders h as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Less reports whether h sorts before other, byte-wise.
func (h Hash) Less(other Hash) bool {
	return h.Compare(other) < 0
}

// Compare returns -1, 0 or 1 as h is less than, equal to, or greater than other.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Parse decodes a hex string into a Hash. It returns an error if s is not
// exactly ByteLen*2 hex characters.
func Parse(s string) (Hash, error) {
	var h Hash
	if len(s) != ByteLen*2 {
		return h, fmt.Errorf("hash: wrong length %d, want %d", len(s), ByteLen*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hash: %w", err)
	}
	copy(h[:], b)
	return h, nil
}

// MaybeParse is Parse without the error: it reports ok=false on any
// malformed input instead of returning an error.
func MaybeParse(s string) (h Hash, ok bool) {
	h, err := Parse(s)
	return h, err == nil
}
