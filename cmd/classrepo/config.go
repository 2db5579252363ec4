// Copyright 2017 The go-ethereum Authors
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
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/sunyihoo/classrepo/classpath"
	"github.com/sunyihoo/classrepo/cmd/utils"
	"github.com/sunyihoo/classrepo/internal/flags"
	"github.com/sunyihoo/classrepo/repository"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}

	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type storeConfig struct {
	DataDir   string
	DBEngine  string
	DBCache   int
	ClassPath []string `toml:",omitempty"` // data directories searched by resolve, DataDir if empty
}

type classrepoConfig struct {
	Store      storeConfig
	Path       classpath.Config
	Repository repository.Config
}

func loadConfig(file string, cfg *classrepoConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadBaseConfig loads the classrepoConfig based on the given command line
// parameters and config file.
func loadBaseConfig(ctx *cli.Context) classrepoConfig {
	// Load defaults.
	cfg := classrepoConfig{
		Store: storeConfig{
			DataDir:  utils.DataDirFlag.Value.String(),
			DBEngine: utils.DBEngineFlag.Value,
			DBCache:  utils.DBCacheFlag.Value,
		},
		Repository: repository.Defaults,
	}

	// Load config file.
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			utils.Fatalf("%v", err)
		}
	}

	// Apply flags.
	setStoreConfig(ctx, &cfg.Store)
	utils.SetClassPathConfig(ctx, &cfg.Path)
	utils.SetRepositoryConfig(ctx, &cfg.Repository)
	return cfg
}

func setStoreConfig(ctx *cli.Context, cfg *storeConfig) {
	if ctx.IsSet(utils.DataDirFlag.Name) {
		cfg.DataDir = ctx.String(utils.DataDirFlag.Name)
	}
	if ctx.IsSet(utils.DBEngineFlag.Name) {
		cfg.DBEngine = ctx.String(utils.DBEngineFlag.Name)
	}
	if ctx.IsSet(utils.DBCacheFlag.Name) {
		cfg.DBCache = ctx.Int(utils.DBCacheFlag.Name)
	}
	if ctx.IsSet(utils.ClassPathFlag.Name) {
		cfg.ClassPath = utils.SplitClassPath(ctx.String(utils.ClassPathFlag.Name))
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := loadBaseConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	dump.Write(out)
	return nil
}
