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

// Package repository implements class repositories: caches of class
// descriptors that fall back to a class path on a miss.
//
// The repository flavours differ only in how they keep classes around:
//
//   - NewClassPathRepository keeps every class it ever loaded.
//   - NewLruCacheClassPathRepository keeps at most a fixed number of classes
//     and evicts the least recently used one, which bounds memory when the
//     class path is far larger than the working set.
//   - NewMemorySensitiveClassPathRepository keeps classes only as long as
//     somebody else references them.
//
// 仓库的几种实现只在缓存策略上不同：无界映射、LRU 有界缓存以及弱引用缓存。
package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"weak"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/sunyihoo/classrepo/classfile"
	"github.com/sunyihoo/classrepo/classpath"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidClassName is returned when a class is requested by an empty name.
var ErrInvalidClassName = errors.New("invalid class name")

var (
	cacheHitMeter   = metrics.NewRegisteredMeter("classrepo/cache/hit", nil)
	cacheMissMeter  = metrics.NewRegisteredMeter("classrepo/cache/miss", nil)
	cacheEvictMeter = metrics.NewRegisteredMeter("classrepo/cache/evict", nil)
	loadOKMeter     = metrics.NewRegisteredMeter("classrepo/load/ok", nil)
	loadFailMeter   = metrics.NewRegisteredMeter("classrepo/load/fail", nil)
)

// Repository is the contract shared by all class repositories.
type Repository interface {
	// StoreClass hands a class to the repository, which takes ownership and
	// becomes the class's repository for further resolution.
	StoreClass(c *classfile.Class)

	// RemoveClass drops a class from the repository.
	RemoveClass(c *classfile.Class)

	// FindClass returns the class if the repository currently holds it. It
	// never loads.
	FindClass(name string) (*classfile.Class, bool)

	// LoadClass returns the named class, loading and storing it on a miss.
	LoadClass(name string) (*classfile.Class, error)

	// Clear drops every class.
	Clear()
}

// Stats is a snapshot of a repository's counters.
type Stats struct {
	Hits         uint64 // FindClass calls answered from the cache
	Misses       uint64 // FindClass calls the cache could not answer
	Loads        uint64 // successful loader invocations
	LoadFailures uint64 // failed loader invocations
	Evictions    uint64 // classes pushed out by capacity pressure
	Cached       int    // classes currently held
}

// ClassPathRepository is a class repository backed by a class path loader.
// It is safe for concurrent use.
type ClassPathRepository struct {
	loader classpath.Loader
	cache  classCache
	kind   string

	loads singleflight.Group
	self  classfile.RepositoryRef // weak back-reference handed to stored classes

	hits, misses, loaded, failed, evicted atomic.Uint64

	log log.Logger
}

func newRepository(loader classpath.Loader, kind string) *ClassPathRepository {
	r := &ClassPathRepository{
		loader: loader,
		kind:   kind,
		log:    log.New("repo", kind),
	}
	wp := weak.Make(r)
	r.self = func() classfile.Repository {
		if repo := wp.Value(); repo != nil {
			return repo
		}
		return nil
	}
	return r
}

// NewClassPathRepository creates a repository that keeps every class it loads.
func NewClassPathRepository(loader classpath.Loader) *ClassPathRepository {
	r := newRepository(loader, "map")
	r.cache = newMapCache()
	return r
}

// NewLruCacheClassPathRepository creates a repository holding at most cacheSize
// classes. When a new class would exceed the limit, the least recently used one
// is evicted. Both storing and finding a class count as a use.
func NewLruCacheClassPathRepository(loader classpath.Loader, cacheSize int) (*ClassPathRepository, error) {
	r := newRepository(loader, "lru")
	cache, err := newLRUCache(cacheSize, r.onEvict)
	if err != nil {
		return nil, fmt.Errorf("invalid class cache size %d: %w", cacheSize, err)
	}
	r.cache = cache
	r.log.Debug("Created LRU class repository", "capacity", cacheSize)
	return r, nil
}

// NewMemorySensitiveClassPathRepository creates a repository that holds its
// classes weakly: a class is dropped once nothing outside the repository
// references it any more.
func NewMemorySensitiveClassPathRepository(loader classpath.Loader) *ClassPathRepository {
	r := newRepository(loader, "weak")
	r.cache = newWeakCache()
	return r
}

func (r *ClassPathRepository) onEvict(name string, c *classfile.Class) {
	r.evicted.Add(1)
	cacheEvictMeter.Mark(1)
	r.log.Trace("Evicted class", "class", name)
}

// StoreClass implements Repository. An existing class of the same name is
// replaced. The back-reference is set before the class becomes visible, so
// concurrent finders never see it detached.
func (r *ClassPathRepository) StoreClass(c *classfile.Class) {
	c.SetRepository(r.self)
	r.cache.store(c.Name(), c)
}

// RemoveClass implements Repository.
func (r *ClassPathRepository) RemoveClass(c *classfile.Class) {
	r.cache.remove(c.Name())
}

// FindClass implements Repository. A successful lookup marks the class as
// recently used.
func (r *ClassPathRepository) FindClass(name string) (*classfile.Class, bool) {
	c, ok := r.cache.find(name)
	if ok {
		r.hits.Add(1)
		cacheHitMeter.Mark(1)
	} else {
		r.misses.Add(1)
		cacheMissMeter.Mark(1)
	}
	return c, ok
}

// LoadClass implements Repository and classfile.Repository. Both '.' and '/'
// are accepted as package separators.
//
// Concurrent misses on the same name share a single loader invocation.
// 同名类的并发未命中只会触发一次加载。
func (r *ClassPathRepository) LoadClass(name string) (*classfile.Class, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "/", ".")
	if name == "" {
		return nil, ErrInvalidClassName
	}
	if c, ok := r.FindClass(name); ok {
		return c, nil
	}
	v, err, _ := r.loads.Do(name, func() (interface{}, error) {
		// A flight that finished since the miss above has stored the class.
		if c, ok := r.cache.find(name); ok {
			return c, nil
		}
		c, err := r.loader.Load(name)
		if err != nil {
			r.failed.Add(1)
			loadFailMeter.Mark(1)
			return nil, err
		}
		r.loaded.Add(1)
		loadOKMeter.Mark(1)
		r.StoreClass(c)
		return c, nil
	})
	if err != nil {
		r.log.Debug("Failed to load class", "class", name, "err", err)
		return nil, fmt.Errorf("failed to load class %s: %w", name, err)
	}
	return v.(*classfile.Class), nil
}

// Clear implements Repository.
func (r *ClassPathRepository) Clear() {
	r.cache.clear()
}

// Loader returns the class path the repository falls back to.
func (r *ClassPathRepository) Loader() classpath.Loader {
	return r.loader
}

// Len returns the number of classes currently held.
func (r *ClassPathRepository) Len() int {
	return r.cache.len()
}

// Cached returns the names of the classes currently held. For LRU
// repositories the names are ordered from least to most recently used,
// otherwise alphabetically.
func (r *ClassPathRepository) Cached() []string {
	return r.cache.keys()
}

// Stats returns a snapshot of the repository counters.
func (r *ClassPathRepository) Stats() Stats {
	return Stats{
		Hits:         r.hits.Load(),
		Misses:       r.misses.Load(),
		Loads:        r.loaded.Load(),
		LoadFailures: r.failed.Load(),
		Evictions:    r.evicted.Load(),
		Cached:       r.cache.len(),
	}
}

// String implements fmt.Stringer.
func (r *ClassPathRepository) String() string {
	return fmt.Sprintf("%s repository over %v", r.kind, r.loader)
}

var (
	_ Repository           = (*ClassPathRepository)(nil)
	_ classfile.Repository = (*ClassPathRepository)(nil)
)
