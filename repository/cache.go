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
	"runtime"
	"slices"
	"sync"
	"weak"

	"github.com/sunyihoo/classrepo/classfile"
	"github.com/sunyihoo/classrepo/common/lru"
)

// classCache is where a repository keeps the classes it has been handed.
// Lookups never fall back to loading.
type classCache interface {
	find(name string) (*classfile.Class, bool)
	store(name string, c *classfile.Class)
	remove(name string)
	clear()
	len() int
	keys() []string
}

// lruCache holds at most a fixed number of classes and evicts the least
// recently used one on overflow.
// lruCache 最多保存固定数量的类，溢出时驱逐最久未使用的类。
type lruCache struct {
	cache *lru.Cache[string, *classfile.Class]
}

func newLRUCache(size int, onEvict func(name string, c *classfile.Class)) (*lruCache, error) {
	cache, err := lru.NewCacheWithEvict(size, onEvict)
	if err != nil {
		return nil, err
	}
	return &lruCache{cache: cache}, nil
}

func (c *lruCache) find(name string) (*classfile.Class, bool) { return c.cache.Get(name) }
func (c *lruCache) store(name string, cls *classfile.Class)   { c.cache.Add(name, cls) }
func (c *lruCache) remove(name string)                        { c.cache.Remove(name) }
func (c *lruCache) clear()                                    { c.cache.Purge() }
func (c *lruCache) len() int                                  { return c.cache.Len() }
func (c *lruCache) keys() []string                            { return c.cache.Keys() }

// mapCache keeps every class it is given until removed.
type mapCache struct {
	lock    sync.RWMutex
	classes map[string]*classfile.Class
}

func newMapCache() *mapCache {
	return &mapCache{classes: make(map[string]*classfile.Class)}
}

func (c *mapCache) find(name string) (*classfile.Class, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	cls, ok := c.classes[name]
	return cls, ok
}

func (c *mapCache) store(name string, cls *classfile.Class) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.classes[name] = cls
}

func (c *mapCache) remove(name string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.classes, name)
}

func (c *mapCache) clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	clear(c.classes)
}

func (c *mapCache) len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.classes)
}

func (c *mapCache) keys() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	keys := make([]string, 0, len(c.classes))
	for name := range c.classes {
		keys = append(keys, name)
	}
	slices.Sort(keys)
	return keys
}

// weakCache only references its classes weakly, so the garbage collector may
// reclaim any class nobody else holds on to.
// weakCache 仅弱引用所保存的类，没有其他引用的类可以被垃圾回收。
type weakCache struct {
	lock    sync.Mutex
	classes map[string]weak.Pointer[classfile.Class]
}

func newWeakCache() *weakCache {
	return &weakCache{classes: make(map[string]weak.Pointer[classfile.Class])}
}

func (c *weakCache) find(name string) (*classfile.Class, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	wp, ok := c.classes[name]
	if !ok {
		return nil, false
	}
	cls := wp.Value()
	if cls == nil {
		delete(c.classes, name)
		return nil, false
	}
	return cls, true
}

func (c *weakCache) store(name string, cls *classfile.Class) {
	wp := weak.Make(cls)

	c.lock.Lock()
	c.classes[name] = wp
	c.lock.Unlock()

	runtime.AddCleanup(cls, c.prune, name)
}

// prune drops the entry of a collected class unless it was replaced since.
func (c *weakCache) prune(name string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if wp, ok := c.classes[name]; ok && wp.Value() == nil {
		delete(c.classes, name)
	}
}

func (c *weakCache) remove(name string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.classes, name)
}

func (c *weakCache) clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	clear(c.classes)
}

func (c *weakCache) len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	n := 0
	for _, wp := range c.classes {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

func (c *weakCache) keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.classes))
	for name, wp := range c.classes {
		if wp.Value() != nil {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	return keys
}
