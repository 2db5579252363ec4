// Copyright 2014 The go-ethereum Authors
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

// classrepo is a command-line tool to store class descriptors and resolve
// class hierarchies through a cached class repository.
package main

import (
	"fmt"
	"os"

	"github.com/sunyihoo/classrepo/cmd/utils"
	"github.com/sunyihoo/classrepo/internal/debug"
	"github.com/sunyihoo/classrepo/internal/flags"
	"github.com/sunyihoo/classrepo/internal/version"
	"github.com/urfave/cli/v2"
)

var app = flags.NewApp("the class repository command line interface")

func init() {
	git, _ := version.VCS()
	app.Version = version.WithCommit(git.Commit, git.Date)
	app.Commands = []*cli.Command{
		// See classcmd.go:
		importCommand,
		deleteCommand,
		listCommand,
		resolveCommand,
		// See config.go:
		dumpConfigCommand,
	}
	app.Flags = flags.Merge(
		[]cli.Flag{configFileFlag},
		utils.DatabaseFlags,
		utils.CacheFlags,
		debug.Flags,
	)
	app.Before = func(ctx *cli.Context) error {
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
