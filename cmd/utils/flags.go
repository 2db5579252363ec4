// Copyright 2015 The go-ethereum Authors
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

// Package utils contains internal helper functions for classrepo commands.
package utils

import (
	"path/filepath"
	"strings"

	"github.com/sunyihoo/classrepo/classpath"
	"github.com/sunyihoo/classrepo/internal/flags"
	"github.com/sunyihoo/classrepo/repository"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// Class path settings
	DataDirFlag = &flags.DirectoryFlag{
		Name:     "datadir",
		Usage:    "Data directory holding the class database",
		Value:    flags.DirectoryString(DefaultDataDir()),
		Category: flags.ClassPathCategory,
	}
	ClassPathFlag = &cli.StringFlag{
		Name:     "classpath",
		Aliases:  []string{"cp"},
		Usage:    "Class databases to search, separated by '" + string(filepath.ListSeparator) + "' (default: the data directory)",
		Category: flags.ClassPathCategory,
	}
	DBEngineFlag = &cli.StringFlag{
		Name:     "db.engine",
		Usage:    "Backing database implementation to use for new databases ('pebble' or 'leveldb')",
		Value:    "pebble",
		Category: flags.ClassPathCategory,
	}
	DBCacheFlag = &cli.IntFlag{
		Name:     "db.cache",
		Usage:    "Megabytes of memory allocated to each class database",
		Value:    16,
		Category: flags.ClassPathCategory,
	}

	// Cache settings
	CacheModeFlag = &cli.StringFlag{
		Name:     "cache.mode",
		Usage:    "Class cache strategy ('lru', 'map' or 'weak')",
		Value:    repository.Defaults.Mode,
		Category: flags.CacheCategory,
	}
	CacheSizeFlag = &cli.IntFlag{
		Name:     "cache.size",
		Usage:    "Maximum number of classes held by the 'lru' class cache",
		Value:    repository.Defaults.Size,
		Category: flags.CacheCategory,
	}
	CacheRawFlag = &cli.IntFlag{
		Name:     "cache.raw",
		Usage:    "Megabytes of memory allocated to raw descriptor caching (0 = disabled)",
		Category: flags.CacheCategory,
	}
)

var (
	// DatabaseFlags is the flag group of all database flags.
	DatabaseFlags = []cli.Flag{
		DataDirFlag,
		ClassPathFlag,
		DBEngineFlag,
		DBCacheFlag,
	}
	// CacheFlags is the flag group of all class cache flags.
	CacheFlags = []cli.Flag{
		CacheModeFlag,
		CacheSizeFlag,
		CacheRawFlag,
	}
)

// SplitClassPath splits a class path flag value into its entries, dropping
// empty ones.
func SplitClassPath(value string) []string {
	var entries []string
	for _, entry := range filepath.SplitList(value) {
		if entry = strings.TrimSpace(entry); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// SetClassPathConfig applies class path related command line flags to the config.
func SetClassPathConfig(ctx *cli.Context, cfg *classpath.Config) {
	if ctx.IsSet(CacheRawFlag.Name) {
		cfg.RawCacheSize = ctx.Int(CacheRawFlag.Name) * 1024 * 1024
	}
}

// SetRepositoryConfig applies class cache related command line flags to the config.
func SetRepositoryConfig(ctx *cli.Context, cfg *repository.Config) {
	if ctx.IsSet(CacheModeFlag.Name) {
		cfg.Mode = ctx.String(CacheModeFlag.Name)
	}
	if ctx.IsSet(CacheSizeFlag.Name) {
		cfg.Size = ctx.Int(CacheSizeFlag.Name)
	}
}
