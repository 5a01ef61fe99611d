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

// Command prollytree is a small front end over a directory-backed
// prolly tree, in the spirit of dolt's own cmd/ tree: get, insert,
// delete, scan, gc and stats subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/Ntropish/prolly-gunna-sub000/hash"
	"github.com/Ntropish/prolly-gunna-sub000/prolly"
)

// fileConfig mirrors prolly.Config's fields for TOML decoding.
type fileConfig struct {
	TargetFanout       int    `toml:"target_fanout"`
	MinFanout          int    `toml:"min_fanout"`
	MaxInlineValueSize int    `toml:"max_inline_value_size"`
	CDCMinSize         uint32 `toml:"cdc_min_size"`
	CDCAvgSize         uint32 `toml:"cdc_avg_size"`
	CDCMaxSize         uint32 `toml:"cdc_max_size"`
}

func (f fileConfig) toTreeConfig() prolly.Config {
	return prolly.Config{
		TargetFanout:       f.TargetFanout,
		MinFanout:          f.MinFanout,
		MaxInlineValueSize: f.MaxInlineValueSize,
		CDCMinSize:         f.CDCMinSize,
		CDCAvgSize:         f.CDCAvgSize,
		CDCMaxSize:         f.CDCMaxSize,
	}
}

func loadConfig(path string) (prolly.Config, error) {
	if path == "" {
		return prolly.DefaultConfig(), nil
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return prolly.Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	return fc.toTreeConfig(), nil
}

const rootPointerFile = "ROOT"

func readRootPointer(dir string) (hash.Hash, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, rootPointerFile))
	if os.IsNotExist(err) {
		return hash.Empty, false, nil
	}
	if err != nil {
		return hash.Empty, false, err
	}
	h, ok := hash.MaybeParse(string(data))
	if !ok {
		return hash.Empty, false, fmt.Errorf("corrupt root pointer in %s", dir)
	}
	return h, true, nil
}

func writeRootPointer(dir string, h hash.Hash, present bool) error {
	p := filepath.Join(dir, rootPointerFile)
	if !present {
		err := os.Remove(p)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.WriteFile(p, []byte(h.String()), 0o644)
}

func openTree(ctx context.Context, dir, configPath string) (*prolly.Tree, *dirStore, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	store, err := newDirStore(dir)
	if err != nil {
		return nil, nil, err
	}
	root, present, err := readRootPointer(dir)
	if err != nil {
		return nil, nil, err
	}
	if !present {
		tr, err := prolly.New(store, cfg)
		return tr, store, err
	}
	tr, err := prolly.FromRootHash(ctx, store, cfg, root)
	return tr, store, err
}

func saveRootPointer(dir string, tr *prolly.Tree) error {
	h, present := tr.RootHash()
	return writeRootPointer(dir, h, present)
}

func main() {
	app := kingpin.New("prollytree", "Inspect and mutate a directory-backed prolly tree.")
	dirFlag := app.Flag("dir", "Directory backing the chunk store.").Required().String()
	configFlag := app.Flag("config", "Path to a TOML TreeConfig file.").String()

	getCmd := app.Command("get", "Look up a key.")
	getKey := getCmd.Arg("key", "Key to look up.").Required().String()

	insertCmd := app.Command("insert", "Insert or update a key.")
	insertKey := insertCmd.Arg("key", "Key to insert.").Required().String()
	insertValue := insertCmd.Arg("value", "Value to store.").Required().String()

	deleteCmd := app.Command("delete", "Delete a key.")
	deleteKey := deleteCmd.Arg("key", "Key to delete.").Required().String()

	scanCmd := app.Command("scan", "Scan a range of keys.")
	scanStart := scanCmd.Flag("start", "Inclusive start bound.").String()
	scanEnd := scanCmd.Flag("end", "Exclusive end bound.").String()
	scanLimit := scanCmd.Flag("limit", "Maximum number of items to return.").Default("100").Int()
	scanReverse := scanCmd.Flag("reverse", "Scan in descending key order.").Bool()

	gcCmd := app.Command("gc", "Reclaim chunks unreachable from the current root.")
	gcKeepRoots := gcCmd.Flag("keep-root", "Additional historical root hash to keep alive (repeatable).").Strings()

	statsCmd := app.Command("stats", "Print summary statistics about the tree.")

	cmd, err := app.Parse(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("%v", err)
	}

	ctx := context.Background()
	tr, _, err := openTree(ctx, *dirFlag, *configFlag)
	if err != nil {
		log.WithError(err).Fatal("prollytree: could not open tree")
	}

	switch cmd {
	case getCmd.FullCommand():
		val, ok, err := tr.Get(ctx, []byte(*getKey))
		if err != nil {
			log.WithError(err).Fatal("prollytree: get failed")
		}
		if !ok {
			fmt.Println("(not found)")
			os.Exit(1)
		}
		fmt.Println(string(val))

	case insertCmd.FullCommand():
		if _, err := tr.Insert(ctx, []byte(*insertKey), []byte(*insertValue)); err != nil {
			log.WithError(err).Fatal("prollytree: insert failed")
		}
		if err := saveRootPointer(*dirFlag, tr); err != nil {
			log.WithError(err).Fatal("prollytree: could not save root pointer")
		}

	case deleteCmd.FullCommand():
		changed, err := tr.Delete(ctx, []byte(*deleteKey))
		if err != nil {
			log.WithError(err).Fatal("prollytree: delete failed")
		}
		if !changed {
			fmt.Println("(not found)")
			os.Exit(1)
		}
		if err := saveRootPointer(*dirFlag, tr); err != nil {
			log.WithError(err).Fatal("prollytree: could not save root pointer")
		}

	case scanCmd.FullCommand():
		args := prolly.ScanArgs{Reverse: *scanReverse, HasLimit: true, Limit: *scanLimit}
		if *scanStart != "" {
			args.StartBound = []byte(*scanStart)
			args.HasStartBound = true
			args.StartInclusive = true
		}
		if *scanEnd != "" {
			args.EndBound = []byte(*scanEnd)
			args.HasEndBound = true
			args.EndInclusive = false
		}
		page, err := tr.Scan(ctx, args)
		if err != nil {
			log.WithError(err).Fatal("prollytree: scan failed")
		}
		for _, item := range page.Items {
			fmt.Printf("%s\t%s\n", item.Key, item.Value)
		}
		if page.HasNextPage {
			fmt.Fprintf(os.Stderr, "(more results; next_page_cursor=%s)\n", page.NextPageCursor)
		}

	case gcCmd.FullCommand():
		extraLiveRoots := make([]hash.Hash, 0, len(*gcKeepRoots))
		for _, s := range *gcKeepRoots {
			h, ok := hash.MaybeParse(s)
			if !ok {
				log.WithField("root", s).Fatal("prollytree: gc failed: invalid --keep-root hash")
			}
			extraLiveRoots = append(extraLiveRoots, h)
		}
		deleted, err := tr.GC(ctx, extraLiveRoots)
		if err != nil {
			log.WithError(err).Fatal("prollytree: gc failed")
		}
		fmt.Printf("reclaimed %s chunks\n", humanize.Comma(int64(deleted)))

	case statsCmd.FullCommand():
		count, err := tr.CountAllItems(ctx)
		if err != nil {
			log.WithError(err).Fatal("prollytree: stats failed")
		}
		root, present := tr.RootHash()
		fmt.Printf("items: %s\n", humanize.Comma(int64(count)))
		if present {
			fmt.Printf("root: %s\n", root)
		} else {
			fmt.Println("root: (empty tree)")
		}
	}
}
