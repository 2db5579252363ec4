// Copyright 2025 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/classrepo/classdb"
	"github.com/sunyihoo/classrepo/classfile"
	"github.com/sunyihoo/classrepo/classpath"
	"github.com/sunyihoo/classrepo/cmd/utils"
	"github.com/sunyihoo/classrepo/repository"
	"github.com/urfave/cli/v2"
)

var (
	importCommand = &cli.Command{
		Action:    importClasses,
		Name:      "import",
		Usage:     "Import class descriptors from TOML files",
		ArgsUsage: "<filename> (<filename 2> ... <filename N>) ",
		Description: `
The import command writes the class descriptors listed in the given TOML files
into the class database of the data directory. Every file holds an array of
[[Class]] tables whose keys are the fields of classfile.Descriptor. Existing
classes of the same name are overwritten.`,
	}
	deleteCommand = &cli.Command{
		Action:    deleteClasses,
		Name:      "delete",
		Usage:     "Delete class descriptors from the class database",
		ArgsUsage: "<class name> (<class name 2> ... <class name N>) ",
	}
	listCommand = &cli.Command{
		Action: listClasses,
		Name:   "list",
		Usage:  "List the classes stored in the class database",
	}
	resolveCommand = &cli.Command{
		Action:    resolveClasses,
		Name:      "resolve",
		Usage:     "Resolve classes through a cached class repository",
		ArgsUsage: "<class name> (<class name 2> ... <class name N>) ",
		Description: `
The resolve command loads every named class through a class repository backed by
the class path and prints its superclass chain and all implemented interfaces.`,
	}
)

// importFile is the layout of a class descriptor file.
type importFile struct {
	Class []classfile.Descriptor
}

func decodeImportFile(file string) ([]classfile.Descriptor, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var content importFile
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&content); err != nil {
		return nil, fmt.Errorf("%s, %v", file, err)
	}
	return content.Class, nil
}

func openWritableDatabase(cfg storeConfig) (classdb.KeyValueStore, func(), error) {
	lock, err := utils.LockDataDir(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	db, err := utils.OpenDatabase(cfg.DataDir, cfg.DBEngine, cfg.DBCache, false)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}
	if version := classdb.ReadDatabaseVersion(db); version == nil {
		classdb.WriteDatabaseVersion(db, classdb.SchemaVersion)
	} else if *version != classdb.SchemaVersion {
		db.Close()
		lock.Unlock()
		return nil, nil, fmt.Errorf("unsupported class database version %d, want %d", *version, classdb.SchemaVersion)
	}
	return db, func() {
		db.Close()
		lock.Unlock()
	}, nil
}

func importClasses(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		utils.Fatalf("This command requires an argument.")
	}
	cfg := loadBaseConfig(ctx)
	db, release, err := openWritableDatabase(cfg.Store)
	if err != nil {
		return err
	}
	defer release()

	for _, file := range ctx.Args().Slice() {
		var (
			start = time.Now()
			batch = db.NewBatch()
		)
		descs, err := decodeImportFile(file)
		if err != nil {
			return err
		}
		for _, desc := range descs {
			c, err := classfile.NewClass(desc)
			if err != nil {
				return fmt.Errorf("%s: %v", file, err)
			}
			if err := classdb.WriteClass(batch, c); err != nil {
				return err
			}
			if batch.ValueSize() >= classdb.IdealBatchSize {
				if err := batch.Write(); err != nil {
					return err
				}
				batch.Reset()
			}
		}
		if err := batch.Write(); err != nil {
			return err
		}
		log.Info("Imported class descriptors", "file", file, "classes", len(descs), "elapsed", common.PrettyDuration(time.Since(start)))
	}
	return nil
}

func deleteClasses(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		utils.Fatalf("This command requires an argument.")
	}
	cfg := loadBaseConfig(ctx)
	db, release, err := openWritableDatabase(cfg.Store)
	if err != nil {
		return err
	}
	defer release()

	for _, name := range ctx.Args().Slice() {
		ok, err := classdb.HasClass(db, name)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn("Class not in database", "class", name)
			continue
		}
		if err := classdb.DeleteClass(db, name); err != nil {
			return err
		}
		log.Info("Deleted class descriptor", "class", name)
	}
	return nil
}

func listClasses(ctx *cli.Context) error {
	cfg := loadBaseConfig(ctx)
	db, err := utils.OpenDatabase(cfg.Store.DataDir, cfg.Store.DBEngine, cfg.Store.DBCache, true)
	if err != nil {
		return err
	}
	defer db.Close()

	names, err := classdb.ReadClassNames(db)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(ctx.App.Writer, name)
	}
	return nil
}

// makeRepository opens the databases of the class path and builds the
// configured repository on top.
func makeRepository(cfg classrepoConfig) (*repository.ClassPathRepository, func(), error) {
	dirs := cfg.Store.ClassPath
	if len(dirs) == 0 {
		dirs = []string{cfg.Store.DataDir}
	}
	var (
		entries []classpath.Entry
		dbs     []classdb.KeyValueStore
	)
	closeAll := func() {
		for _, db := range dbs {
			db.Close()
		}
	}
	for _, dir := range dirs {
		db, err := utils.OpenDatabase(dir, cfg.Store.DBEngine, cfg.Store.DBCache, true)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("class path entry %s: %w", dir, err)
		}
		dbs = append(dbs, db)
		entry, err := classpath.NewIndexedDBEntry(dir, db)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("class path entry %s: %w", dir, err)
		}
		entries = append(entries, entry)
	}
	repo, err := repository.New(classpath.New(cfg.Path, entries...), cfg.Repository)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return repo, closeAll, nil
}

func resolveClasses(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		utils.Fatalf("This command requires an argument.")
	}
	repo, release, err := makeRepository(loadBaseConfig(ctx))
	if err != nil {
		return err
	}
	defer release()
	log.Debug("Resolving classes", "repository", repo)

	var failed error
	for _, name := range ctx.Args().Slice() {
		if err := resolveClass(ctx, repo, name); err != nil {
			log.Error("Failed to resolve class", "class", name, "err", err)
			failed = errors.Join(failed, err)
		}
	}
	stats := repo.Stats()
	log.Info("Class repository statistics", "hits", stats.Hits, "misses", stats.Misses,
		"loads", stats.Loads, "failures", stats.LoadFailures, "evictions", stats.Evictions, "cached", stats.Cached)
	return failed
}

func resolveClass(ctx *cli.Context, repo *repository.ClassPathRepository, name string) error {
	c, err := repo.LoadClass(name)
	if err != nil {
		return err
	}
	supers, err := c.SuperClasses()
	if err != nil {
		return err
	}
	ifaces, err := c.AllInterfaces()
	if err != nil {
		return err
	}
	chain := make([]string, len(supers))
	for i, super := range supers {
		chain[i] = super.Name()
	}
	w := ctx.App.Writer
	fmt.Fprintln(w, c)
	fmt.Fprintf(w, "  extends:    %s\n", strings.Join(chain, " -> "))
	fmt.Fprintf(w, "  implements: %s\n", strings.Join(ifaces, ", "))
	return nil
}
