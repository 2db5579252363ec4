// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package repository

import (
	"errors"
	"fmt"

	"github.com/sunyihoo/classrepo/classpath"
)

// Cache modes understood by New.
const (
	ModeLRU  = "lru"  // bounded, least recently used eviction
	ModeMap  = "map"  // unbounded
	ModeWeak = "weak" // reclaimed by the garbage collector
)

// ErrUnknownCacheMode is returned by New for a mode it does not know.
var ErrUnknownCacheMode = errors.New("unknown class cache mode")

// Config selects how a repository caches its classes.
type Config struct {
	Mode string
	Size int `toml:",omitempty"` // only used by ModeLRU
}

// Defaults contains the default repository settings.
var Defaults = Config{
	Mode: ModeLRU,
	Size: 1024,
}

// New creates a repository over loader according to config.
func New(loader classpath.Loader, config Config) (*ClassPathRepository, error) {
	switch config.Mode {
	case ModeLRU, "":
		return NewLruCacheClassPathRepository(loader, config.Size)
	case ModeMap:
		return NewClassPathRepository(loader), nil
	case ModeWeak:
		return NewMemorySensitiveClassPathRepository(loader), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCacheMode, config.Mode)
	}
}
