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

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheInvalidCapacity(t *testing.T) {
	_, err := NewCache[string, int](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewCacheWithEvict[string, int](-5, func(string, int) {})
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestCacheEvictCallback(t *testing.T) {
	var evicted []string
	cache, err := NewCacheWithEvict(2, func(key string, value int) {
		evicted = append(evicted, fmt.Sprintf("%s=%d", key, value))
	})
	require.NoError(t, err)

	cache.Add("A", 1)
	cache.Add("B", 2)
	cache.Get("A")
	assert.True(t, cache.Add("C", 3), "C should push out an entry")

	assert.Equal(t, []string{"B=2"}, evicted)
	assert.Equal(t, []string{"A", "C"}, cache.Keys())

	// Overwrites and explicit removals are not evictions.
	cache.Add("C", 30)
	cache.Remove("A")
	assert.Equal(t, []string{"B=2"}, evicted)
}

// The eviction callback runs outside the lock and may use the cache.
func TestCacheEvictCallbackReentrant(t *testing.T) {
	var cache *Cache[int, int]
	cache, err := NewCacheWithEvict(1, func(key int, value int) {
		_ = cache.Len()
		cache.Contains(key)
	})
	require.NoError(t, err)

	cache.Add(1, 1)
	cache.Add(2, 2)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheOldest(t *testing.T) {
	cache, err := NewCache[string, int](3)
	require.NoError(t, err)
	assert.Equal(t, 3, cache.Cap())

	for i, k := range []string{"A", "B", "C"} {
		cache.Add(k, i)
	}
	k, v, ok := cache.GetOldest()
	require.True(t, ok)
	assert.Equal(t, "A", k)
	assert.Equal(t, 0, v)

	// Peek must not refresh, Get must.
	cache.Peek("A")
	k, _, _ = cache.GetOldest()
	assert.Equal(t, "A", k)
	cache.Get("A")
	k, _, _ = cache.GetOldest()
	assert.Equal(t, "B", k)

	cache.Purge()
	assert.Zero(t, cache.Len())
	_, _, ok = cache.GetOldest()
	assert.False(t, ok)
}

func TestCacheConcurrent(t *testing.T) {
	const (
		capacity = 32
		workers  = 8
		rounds   = 2000
	)
	cache, err := NewCache[string, int](capacity)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				key := fmt.Sprintf("k%d", (w*rounds+i)%(capacity*3))
				if i%3 == 0 {
					cache.Get(key)
				} else {
					cache.Add(key, i)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), capacity)
	assert.Len(t, cache.Keys(), cache.Len())
}
