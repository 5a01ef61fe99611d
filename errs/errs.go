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

// Package errs defines the error kinds shared by the chunk store, tree
// and prolly packages. Every operation that can fail returns an error
// wrapping one of the sentinels below, checkable with errors.Is.
package errs

import (
	"errors"
	"fmt"

	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// Sentinel errors, one per kind. Wrap with fmt.Errorf("%w: ...", ErrX, detail)
// to attach context while keeping errors.Is(err, ErrX) working.
var (
	// ErrChunkNotFound: store reported absence for a hash the tree believed present.
	ErrChunkNotFound = errors.New("chunk not found")
	// ErrNodeDeserialization: codec failed to decode a chunk as a node.
	ErrNodeDeserialization = errors.New("node deserialization failed")
	// ErrNodeSerialization: codec failed to encode a node.
	ErrNodeSerialization = errors.New("node serialization failed")
	// ErrStorageError: the underlying chunk store failed.
	ErrStorageError = errors.New("storage error")
	// ErrEmptyTree: operation disallowed on an empty tree.
	ErrEmptyTree = errors.New("operation not valid on empty tree")
	// ErrKeyNotFound: reserved; get returns absence rather than this error.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidRootHash: FromRootHash given a hash that does not resolve.
	ErrInvalidRootHash = errors.New("invalid root hash")
	// ErrConfigError: invalid TreeConfig.
	ErrConfigError = errors.New("invalid tree config")
	// ErrInvalidOperation: operation not valid in the caller's context.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInternalError: invariant violation; treated as a bug.
	ErrInternalError = errors.New("internal error")
)

// ChunkNotFound builds an ErrChunkNotFound wrapping the missing hash.
func ChunkNotFound(h hash.Hash) error {
	return fmt.Errorf("%w: %s", ErrChunkNotFound, h)
}

// NodeDeserialization builds an ErrNodeDeserialization with a reason.
func NodeDeserialization(reason string) error {
	return fmt.Errorf("%w: %s", ErrNodeDeserialization, reason)
}

// NodeSerialization builds an ErrNodeSerialization with a reason.
func NodeSerialization(reason string) error {
	return fmt.Errorf("%w: %s", ErrNodeSerialization, reason)
}

// Storage builds an ErrStorageError wrapping the underlying cause.
func Storage(cause error) error {
	return fmt.Errorf("%w: %v", ErrStorageError, cause)
}

// EmptyTree builds an ErrEmptyTree for the named operation.
func EmptyTree(op string) error {
	return fmt.Errorf("%w: %s", ErrEmptyTree, op)
}

// InvalidRootHash builds an ErrInvalidRootHash wrapping the offending hash.
func InvalidRootHash(h hash.Hash) error {
	return fmt.Errorf("%w: %s", ErrInvalidRootHash, h)
}

// Config builds an ErrConfigError with a reason.
func Config(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfigError, reason)
}

// InvalidOperation builds an ErrInvalidOperation with a reason.
func InvalidOperation(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, reason)
}

// Internal builds an ErrInternalError with a reason. Reaching this means
// an invariant was violated; callers should treat it as a bug report.
func Internal(reason string) error {
	return fmt.Errorf("%w: %s", ErrInternalError, reason)
}
