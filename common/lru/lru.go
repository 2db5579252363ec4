// Copyright 2022 The go-ethereum Authors
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

package lru

import "sync"

// Cache is a LRU cache.
// This type is safe for concurrent use.
//
// Every operation, reads included, takes the same exclusive lock: Get moves
// the entry to the front of the recency list and is therefore a write.
// Cache 是并发安全的 LRU 缓存。Get 会修改最近使用顺序，因此同样持有互斥锁。
type Cache[K comparable, V any] struct {
	cache   BasicLRU[K, V]
	mu      sync.Mutex
	onEvict func(key K, value V)
}

// NewCache creates an LRU cache.
func NewCache[K comparable, V any](capacity int) (*Cache[K, V], error) {
	return NewCacheWithEvict[K, V](capacity, nil)
}

// NewCacheWithEvict creates an LRU cache which invokes onEvict for every entry
// pushed out by capacity pressure. The callback runs after the cache lock has
// been released, so it may call back into the cache.
func NewCacheWithEvict[K comparable, V any](capacity int, onEvict func(key K, value V)) (*Cache[K, V], error) {
	cache, err := NewBasicLRU[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{cache: cache, onEvict: onEvict}, nil
}

// Add adds a value to the cache. Returns true if an item was evicted to store the new item.
func (c *Cache[K, V]) Add(key K, value V) (evicted bool) {
	c.mu.Lock()
	ek, ev, evicted := c.cache.add(key, value)
	c.mu.Unlock()

	if evicted && c.onEvict != nil {
		c.onEvict(ek, ev)
	}
	return evicted
}

// Contains reports whether the given key exists in the cache.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Contains(key)
}

// Get retrieves a value from the cache. This marks the key as recently used.
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Get(key)
}

// GetOldest retrieves the least-recently-used item without touching it.
func (c *Cache[K, V]) GetOldest() (key K, value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.GetOldest()
}

// Len returns the current number of items in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Len()
}

// Cap returns the capacity the cache was created with.
func (c *Cache[K, V]) Cap() int {
	// Immutable after construction.
	return c.cache.Cap()
}

// Peek retrieves a value from the cache, but does not mark the key as recently used.
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Peek(key)
}

// Purge empties the cache.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge()
}

// Remove drops an item from the cache. Returns true if the key was present in cache.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Remove(key)
}

// Keys returns all keys of items currently in the LRU, oldest first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Keys()
}
