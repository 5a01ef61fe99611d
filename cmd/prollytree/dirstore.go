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

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Ntropish/prolly-gunna-sub000/chunks"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

var _ chunks.Store = (*dirStore)(nil)

// dirStore is a one-chunk-per-file chunk store rooted at a directory, for
// the CLI's own persistence needs. It is deliberately simple: the
// chunks.Store contract itself ships only the in-memory and
// compressing-decorator implementations as illustrative references, so
// this lives here rather than in package chunks.
type dirStore struct {
	root string
}

func newDirStore(root string) (*dirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &dirStore{root: root}, nil
}

func (s *dirStore) path(h hash.Hash) string {
	hex := h.String()
	return filepath.Join(s.root, hex[:2], hex[2:])
}

func (s *dirStore) Get(ctx context.Context, h hash.Hash) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(h))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *dirStore) Put(ctx context.Context, data []byte) (hash.Hash, error) {
	h := hash.Of(data)
	p := s.path(h)
	if _, err := os.Stat(p); err == nil {
		return h, nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return hash.Empty, err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return hash.Empty, err
	}
	if err := os.Rename(tmp, p); err != nil {
		return hash.Empty, err
	}
	return h, nil
}

func (s *dirStore) Exists(ctx context.Context, h hash.Hash) (bool, error) {
	_, err := os.Stat(s.path(h))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *dirStore) DeleteBatch(ctx context.Context, hs []hash.Hash) error {
	for _, h := range hs {
		if err := os.Remove(s.path(h)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (s *dirStore) AllHashes(ctx context.Context) ([]hash.Hash, error) {
	var out []hash.Hash
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, prefixDir := range entries {
		if !prefixDir.IsDir() {
			continue
		}
		inner, err := os.ReadDir(filepath.Join(s.root, prefixDir.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range inner {
			h, ok := hash.MaybeParse(prefixDir.Name() + f.Name())
			if ok {
				out = append(out, h)
			}
		}
	}
	return out, nil
}
