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

// Package classpath implements the class loader that class repositories fall
// back to on a cache miss: an ordered search over class databases.
// Package classpath 实现了类仓库在缓存未命中时使用的加载器：按顺序搜索多个类数据库。
package classpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	bloomfilter "github.com/holiman/bloomfilter/v2"
	"github.com/sunyihoo/classrepo/classdb"
	"github.com/sunyihoo/classrepo/classfile"
)

var (
	// ErrClassNotFound is returned if no class path entry knows the class.
	ErrClassNotFound = errors.New("class not found")

	// ErrNameMismatch is returned if the stored descriptor names another class
	// than the one it was looked up for.
	ErrNameMismatch = errors.New("class name mismatch")
)

var (
	rawHitMeter  = metrics.NewRegisteredMeter("classrepo/classpath/raw/hit", nil)
	rawMissMeter = metrics.NewRegisteredMeter("classrepo/classpath/raw/miss", nil)

	indexSkipMeter = metrics.NewRegisteredMeter("classrepo/classpath/index/skip", nil)
)

// Entry index parameters. Ten bits per class with seven hash functions keep
// the false positive rate below one percent.
const (
	indexBitsPerClass = 10
	indexFuncs        = 7
	indexMinClasses   = 64
)

// Loader produces a class descriptor from its name.
type Loader interface {
	Load(name string) (*classfile.Class, error)
}

// Entry is a single element of a class path.
type Entry interface {
	// Lookup returns the raw descriptor of the named class, or nil if the
	// entry does not contain it.
	Lookup(name string) ([]byte, error)

	// String describes the entry for logs and errors.
	String() string
}

// DBEntry is a class path entry backed by a class database.
type DBEntry struct {
	db    classdb.KeyValueReader
	name  string
	index *bloomfilter.Filter // names present in db, nil if not indexed
}

// NewDBEntry wraps a class database as a class path entry.
func NewDBEntry(name string, db classdb.KeyValueReader) *DBEntry {
	return &DBEntry{db: db, name: name}
}

// NewIndexedDBEntry wraps a class database as a class path entry and indexes
// the class names it holds in a bloom filter, so lookups of absent classes
// rarely reach the database. The database must not gain classes afterwards.
// NewIndexedDBEntry 使用布隆过滤器索引数据库中的类名，加速未命中的查找。
func NewIndexedDBEntry(name string, db classdb.Reader) (*DBEntry, error) {
	names, err := classdb.ReadClassNames(db)
	if err != nil {
		return nil, err
	}
	index, err := bloomfilter.New(uint64(max(len(names), indexMinClasses)*indexBitsPerClass), indexFuncs)
	if err != nil {
		return nil, err
	}
	for _, class := range names {
		index.AddHash(xxhash.Sum64String(class))
	}
	log.Debug("Indexed class path entry", "entry", name, "classes", len(names), "bits", index.M())
	return &DBEntry{db: db, name: name, index: index}, nil
}

// Lookup implements Entry.
func (e *DBEntry) Lookup(name string) ([]byte, error) {
	if e.index != nil && !e.index.ContainsHash(xxhash.Sum64String(name)) {
		indexSkipMeter.Mark(1)
		return nil, nil
	}
	return classdb.ReadClassBlob(e.db, name)
}

func (e *DBEntry) String() string { return e.name }

// Config contains the settings of a class path.
type Config struct {
	// RawCacheSize is the number of bytes of raw descriptor data kept in memory
	// in front of the entries. Zero disables the raw cache.
	RawCacheSize int `toml:",omitempty"`
}

// Path is an ordered list of class path entries. The first entry that has a
// class wins. Path is safe for concurrent use as long as its entries are.
type Path struct {
	entries []Entry
	raw     *fastcache.Cache // nil if disabled
}

// New creates a class path over the given entries.
func New(config Config, entries ...Entry) *Path {
	p := &Path{entries: entries}
	if config.RawCacheSize > 0 {
		p.raw = fastcache.New(config.RawCacheSize)
	}
	return p
}

// Entries returns the entries of the class path in search order.
func (p *Path) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Lookup returns the raw descriptor of the named class from the first entry
// that contains it.
func (p *Path) Lookup(name string) ([]byte, Entry, error) {
	if p.raw != nil {
		if blob, ok := p.raw.HasGet(nil, []byte(name)); ok {
			rawHitMeter.Mark(1)
			return blob, nil, nil
		}
		rawMissMeter.Mark(1)
	}
	for _, entry := range p.entries {
		blob, err := entry.Lookup(name)
		if err != nil {
			return nil, entry, fmt.Errorf("class path entry %s: %w", entry, err)
		}
		if blob != nil {
			if p.raw != nil {
				p.raw.Set([]byte(name), blob)
			}
			return blob, entry, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
}

// Load implements Loader. The returned class is freshly decoded and detached
// from any repository.
func (p *Path) Load(name string) (*classfile.Class, error) {
	blob, entry, err := p.Lookup(name)
	if err != nil {
		return nil, err
	}
	c, err := classfile.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	if c.Name() != name {
		return nil, fmt.Errorf("%w: looked up %s, found %s", ErrNameMismatch, name, c.Name())
	}
	log.Trace("Loaded class descriptor", "class", name, "entry", entry, "size", len(blob))
	return c, nil
}

// String renders the entries joined by the list separator.
func (p *Path) String() string {
	names := make([]string, len(p.entries))
	for i, e := range p.entries {
		names[i] = e.String()
	}
	return strings.Join(names, ":")
}
