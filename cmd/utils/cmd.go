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

package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"github.com/sunyihoo/classrepo/classdb"
	"github.com/sunyihoo/classrepo/classdb/leveldb"
	"github.com/sunyihoo/classrepo/classdb/pebble"
	"github.com/sunyihoo/classrepo/internal/flags"
)

const (
	dbLeveldb = "leveldb"
	dbPebble  = "pebble"

	// dbHandles is the number of file descriptors allotted to each database.
	dbHandles = 128

	// dbDirName is the directory below the data directory holding the database.
	dbDirName = "classdata"
)

// ErrDatadirUsed is returned if a data directory is already locked by another
// process.
var ErrDatadirUsed = errors.New("datadir already used by another process")

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// DefaultDataDir is the default data directory to use for the class database.
func DefaultDataDir() string {
	home := flags.HomeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Classrepo")
	case "windows":
		if appdata := os.Getenv("LOCALAPPDATA"); appdata != "" {
			return filepath.Join(appdata, "Classrepo")
		}
		return filepath.Join(home, "AppData", "Local", "Classrepo")
	default:
		return filepath.Join(home, ".classrepo")
	}
}

// ClassDataDir returns the location of the class database in datadir.
func ClassDataDir(datadir string) string {
	return filepath.Join(datadir, dbDirName)
}

// PreexistingDatabase checks the given data directory whether a database is
// already instantiated at that location, and if so, returns its type.
func PreexistingDatabase(path string) string {
	if _, err := os.Stat(filepath.Join(path, "CURRENT")); err != nil {
		return "" // No pre-existing db
	}
	if matches, err := filepath.Glob(filepath.Join(path, "OPTIONS*")); len(matches) > 0 || err != nil {
		if err != nil {
			panic(err) // only possible if the pattern is malformed
		}
		return dbPebble
	}
	return dbLeveldb
}

// OpenDatabase opens the class database of the given data directory. An existing database is
// opened with the engine it was created with; engine only selects the backend
// for new ones.
func OpenDatabase(datadir, engine string, cache int, readonly bool) (classdb.KeyValueStore, error) {
	path := ClassDataDir(datadir)
	existing := PreexistingDatabase(path)
	if existing != "" && engine != "" && existing != engine {
		log.Warn("Ignoring requested database engine", "requested", engine, "existing", existing, "path", path)
	}
	if existing != "" {
		engine = existing
	}
	if readonly && existing == "" {
		return nil, fmt.Errorf("no class database at %s", path)
	}
	switch engine {
	case dbLeveldb:
		log.Debug("Using leveldb as the backing database", "path", path)
		return leveldb.New(path, cache, dbHandles, readonly)
	case dbPebble, "":
		log.Debug("Using pebble as the backing database", "path", path)
		return pebble.New(path, cache, dbHandles, readonly)
	default:
		return nil, fmt.Errorf("unknown db.engine %q", engine)
	}
}

// LockDataDir takes the exclusive lock of the data directory, creating it if
// needed. The lock file lives next to the database directory, which carries
// a lock of its own. The returned lock must be released by the caller.
func LockDataDir(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(path, "LOCK"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrDatadirUsed
	}
	return lock, nil
}
