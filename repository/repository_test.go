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
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/classrepo/classdb"
	"github.com/sunyihoo/classrepo/classdb/pebble"
	"github.com/sunyihoo/classrepo/classfile"
	"github.com/sunyihoo/classrepo/classpath"
	"github.com/sunyihoo/classrepo/common/lru"
)

// testLoader hands out fresh classes for any name it knows and counts how
// often it was asked.
type testLoader struct {
	descs map[string]classfile.Descriptor
	calls atomic.Int32
	gate  chan struct{} // if non-nil, loads block until closed
}

func newTestLoader(names ...string) *testLoader {
	l := &testLoader{descs: make(map[string]classfile.Descriptor)}
	for _, name := range names {
		l.descs[name] = classfile.Descriptor{Name: name}
	}
	return l
}

func (l *testLoader) Load(name string) (*classfile.Class, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	d, ok := l.descs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", classpath.ErrClassNotFound, name)
	}
	return classfile.NewClass(d)
}

func newClass(t *testing.T, name string) *classfile.Class {
	t.Helper()
	c, err := classfile.NewClass(classfile.Descriptor{Name: name})
	require.NoError(t, err)
	return c
}

func newLRU(t *testing.T, size int) *ClassPathRepository {
	t.Helper()
	repo, err := NewLruCacheClassPathRepository(newTestLoader(), size)
	require.NoError(t, err)
	return repo
}

func TestInvalidCacheSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		repo, err := NewLruCacheClassPathRepository(newTestLoader(), size)
		assert.ErrorIs(t, err, lru.ErrInvalidCapacity, "size %d", size)
		assert.Nil(t, repo)
	}
}

func TestLRUFindProtectsClass(t *testing.T) {
	repo := newLRU(t, 2)
	a, b, c := newClass(t, "A"), newClass(t, "B"), newClass(t, "C")

	repo.StoreClass(a)
	repo.StoreClass(b)
	found, ok := repo.FindClass("A")
	require.True(t, ok)
	assert.Same(t, a, found)
	repo.StoreClass(c)

	assert.Equal(t, []string{"A", "C"}, repo.Cached())
	_, ok = repo.FindClass("B")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), repo.Stats().Evictions)
}

func TestLRUOverwrite(t *testing.T) {
	repo := newLRU(t, 3)
	for _, name := range []string{"A", "B", "C"} {
		repo.StoreClass(newClass(t, name))
	}
	a2 := newClass(t, "A")
	repo.StoreClass(a2)

	assert.Equal(t, 3, repo.Len())
	assert.Equal(t, []string{"B", "C", "A"}, repo.Cached())
	assert.Zero(t, repo.Stats().Evictions)

	found, ok := repo.FindClass("A")
	require.True(t, ok)
	assert.Same(t, a2, found)
}

func TestLRUSingleEvictionPerStore(t *testing.T) {
	repo := newLRU(t, 4)
	for i := 0; i < 20; i++ {
		before := repo.Stats().Evictions
		repo.StoreClass(newClass(t, fmt.Sprintf("C%d", i)))
		after := repo.Stats().Evictions
		assert.LessOrEqual(t, after-before, uint64(1))
		assert.LessOrEqual(t, repo.Len(), 4)
	}
	assert.Equal(t, uint64(16), repo.Stats().Evictions)
	assert.Equal(t, []string{"C16", "C17", "C18", "C19"}, repo.Cached())
}

func TestStoreSetsBackReference(t *testing.T) {
	repo := newLRU(t, 1)
	a := newClass(t, "A")
	assert.Nil(t, a.Repository())

	repo.StoreClass(a)
	assert.Same(t, repo, a.Repository())

	// Evicted classes keep pointing at the repository that owned them last.
	repo.StoreClass(newClass(t, "B"))
	_, ok := repo.FindClass("A")
	assert.False(t, ok)
	assert.Same(t, repo, a.Repository())

	other := NewClassPathRepository(newTestLoader())
	other.StoreClass(a)
	assert.Same(t, other, a.Repository())
}

// TestStoredClassVisibleWithRepository checks that a class is never visible
// in a repository before its back-reference points there.
func TestStoredClassVisibleWithRepository(t *testing.T) {
	for _, repo := range []*ClassPathRepository{
		newLRU(t, 2),
		NewClassPathRepository(newTestLoader()),
		NewMemorySensitiveClassPathRepository(newTestLoader()),
	} {
		var (
			wg       sync.WaitGroup
			stop     = make(chan struct{})
			detached atomic.Int32
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					if c, ok := repo.FindClass("A"); ok && c.Repository() == nil {
						detached.Add(1)
					}
				}
			}()
		}
		held := make([]*classfile.Class, 0, 2000)
		for i := 0; i < 2000; i++ {
			c := newClass(t, "A")
			held = append(held, c)
			repo.StoreClass(c)
		}
		close(stop)
		wg.Wait()

		assert.Zero(t, detached.Load(), repo.String())
		runtime.KeepAlive(held)
	}
}

func TestBackReferenceDoesNotOwn(t *testing.T) {
	c := newClass(t, "A")
	func() {
		repo, err := NewLruCacheClassPathRepository(newTestLoader(), 8)
		require.NoError(t, err)
		repo.StoreClass(c)
		require.NotNil(t, c.Repository())
	}()
	for i := 0; i < 10 && c.Repository() != nil; i++ {
		runtime.GC()
	}
	assert.Nil(t, c.Repository())

	_, err := c.SuperClass()
	assert.ErrorIs(t, err, classfile.ErrNoRepository)
}

func TestFindDoesNotLoad(t *testing.T) {
	loader := newTestLoader("A")
	repo, err := NewLruCacheClassPathRepository(loader, 4)
	require.NoError(t, err)

	c, ok := repo.FindClass("A")
	assert.False(t, ok)
	assert.Nil(t, c)
	assert.Zero(t, loader.calls.Load())
	assert.Zero(t, repo.Len())
	assert.Equal(t, uint64(1), repo.Stats().Misses)
}

func TestLoadClass(t *testing.T) {
	loader := newTestLoader("a.A")
	repo, err := NewLruCacheClassPathRepository(loader, 4)
	require.NoError(t, err)

	c1, err := repo.LoadClass("a.A")
	require.NoError(t, err)
	assert.Same(t, repo, c1.Repository())

	c2, err := repo.LoadClass("a/A")
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, int32(1), loader.calls.Load())

	stats := repo.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Loads)
	assert.Equal(t, 1, stats.Cached)
}

func TestLoadClassErrors(t *testing.T) {
	repo := newLRU(t, 4)

	for _, name := range []string{"", "  "} {
		_, err := repo.LoadClass(name)
		assert.ErrorIs(t, err, ErrInvalidClassName)
	}
	_, err := repo.LoadClass("a.Missing")
	assert.ErrorIs(t, err, classpath.ErrClassNotFound)
	assert.ErrorContains(t, err, "a.Missing")
	assert.Zero(t, repo.Len())
	assert.Equal(t, uint64(1), repo.Stats().LoadFailures)
}

func TestConcurrentLoadsCollapse(t *testing.T) {
	loader := newTestLoader("a.A")
	loader.gate = make(chan struct{})
	repo, err := NewLruCacheClassPathRepository(loader, 4)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		classes = make([]*classfile.Class, 16)
	)
	for i := range classes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := repo.LoadClass("a.A")
			assert.NoError(t, err)
			classes[i] = c
		}(i)
	}
	close(loader.gate)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, c := range classes {
		assert.Same(t, classes[0], c)
	}
}

func TestRemoveAndClear(t *testing.T) {
	for _, repo := range []*ClassPathRepository{
		newLRU(t, 4),
		NewClassPathRepository(newTestLoader()),
	} {
		a, b := newClass(t, "A"), newClass(t, "B")
		repo.StoreClass(a)
		repo.StoreClass(b)

		repo.RemoveClass(a)
		_, ok := repo.FindClass("A")
		assert.False(t, ok, repo.String())
		assert.Equal(t, []string{"B"}, repo.Cached(), repo.String())

		repo.Clear()
		assert.Zero(t, repo.Len(), repo.String())
		runtime.KeepAlive(b)
	}
}

func TestMapRepositoryKeepsEverything(t *testing.T) {
	repo := NewClassPathRepository(newTestLoader())
	for i := 0; i < 100; i++ {
		repo.StoreClass(newClass(t, fmt.Sprintf("C%03d", i)))
	}
	assert.Equal(t, 100, repo.Len())
	assert.Equal(t, "C000", repo.Cached()[0])
	assert.Zero(t, repo.Stats().Evictions)
}

func storeUnreferenced(t *testing.T, repo *ClassPathRepository, name string) {
	repo.StoreClass(newClass(t, name))
}

func TestMemorySensitiveRepository(t *testing.T) {
	repo := NewMemorySensitiveClassPathRepository(newTestLoader())

	held := newClass(t, "Held")
	repo.StoreClass(held)
	storeUnreferenced(t, repo, "Dropped")

	for i := 0; i < 10 && repo.Len() > 1; i++ {
		runtime.GC()
	}
	_, ok := repo.FindClass("Dropped")
	assert.False(t, ok)

	found, ok := repo.FindClass("Held")
	require.True(t, ok)
	assert.Same(t, held, found)
	assert.Equal(t, []string{"Held"}, repo.Cached())
	runtime.KeepAlive(held)
}

// TestResolveThroughClassPath wires a repository over a database backed class
// path and resolves a hierarchy through it with a cache too small to hold it.
func TestResolveThroughClassPath(t *testing.T) {
	db, err := pebble.NewMemory()
	require.NoError(t, err)
	defer db.Close()

	for _, d := range []classfile.Descriptor{
		{Name: "java.lang.Object"},
		{Name: "a.I", AccessFlags: classfile.AccInterface | classfile.AccAbstract},
		{Name: "a.J", AccessFlags: classfile.AccInterface | classfile.AccAbstract, Interfaces: []string{"a.I"}},
		{Name: "a.Base", Interfaces: []string{"a.I"}},
		{Name: "a.Impl", Super: "a.Base", Interfaces: []string{"a.J"}},
	} {
		c, err := classfile.NewClass(d)
		require.NoError(t, err)
		require.NoError(t, classdb.WriteClass(db, c))
	}
	path := classpath.New(classpath.Config{}, classpath.NewDBEntry("db", db))
	repo, err := NewLruCacheClassPathRepository(path, 1)
	require.NoError(t, err)
	assert.Same(t, path, repo.Loader())

	impl, err := repo.LoadClass("a.Impl")
	require.NoError(t, err)

	supers, err := impl.SuperClasses()
	require.NoError(t, err)
	require.Len(t, supers, 2)
	assert.Equal(t, "a.Base", supers[0].Name())
	assert.Equal(t, "java.lang.Object", supers[1].Name())

	ifaces, err := impl.AllInterfaces()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.I", "a.J"}, ifaces)

	assert.Equal(t, 1, repo.Len())
	assert.NotZero(t, repo.Stats().Evictions)
}
