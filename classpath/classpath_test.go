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

package classpath

import (
	"errors"
	"fmt"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/classrepo/classdb"
	"github.com/sunyihoo/classrepo/classdb/pebble"
	"github.com/sunyihoo/classrepo/classfile"
)

func newMemDB(t *testing.T) *pebble.Database {
	t.Helper()
	db, err := pebble.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newDB(t *testing.T, descs ...classfile.Descriptor) *pebble.Database {
	t.Helper()
	db := newMemDB(t)
	for _, d := range descs {
		c, err := classfile.NewClass(d)
		require.NoError(t, err)
		require.NoError(t, classdb.WriteClass(db, c))
	}
	return db
}

// countingEntry records how often the class path consulted it.
type countingEntry struct {
	Entry
	lookups int
}

func (e *countingEntry) Lookup(name string) ([]byte, error) {
	e.lookups++
	return e.Entry.Lookup(name)
}

type failingEntry struct{}

func (failingEntry) Lookup(string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingEntry) String() string                { return "failing" }

func TestPathOrder(t *testing.T) {
	first := newDB(t, classfile.Descriptor{Name: "a.A", Major: 52})
	second := newDB(t,
		classfile.Descriptor{Name: "a.A", Major: 61},
		classfile.Descriptor{Name: "a.B", Major: 61},
	)
	path := New(Config{}, NewDBEntry("first", first), NewDBEntry("second", second))
	assert.Equal(t, "first:second", path.String())
	assert.Len(t, path.Entries(), 2)

	a, err := path.Load("a.A")
	require.NoError(t, err)
	major, _ := a.Version()
	assert.Equal(t, uint16(52), major, "earlier entries shadow later ones")
	assert.Nil(t, a.Repository())

	b, err := path.Load("a.B")
	require.NoError(t, err)
	assert.Equal(t, "a.B", b.Name())
}

func TestPathNotFound(t *testing.T) {
	path := New(Config{}, NewDBEntry("db", newDB(t)))
	_, err := path.Load("a.Missing")
	assert.ErrorIs(t, err, ErrClassNotFound)
	assert.ErrorContains(t, err, "a.Missing")

	// Errors from an entry abort the search.
	path = New(Config{}, failingEntry{}, NewDBEntry("db", newDB(t, classfile.Descriptor{Name: "a.A"})))
	_, err = path.Load("a.A")
	assert.ErrorContains(t, err, "disk on fire")
	assert.False(t, errors.Is(err, ErrClassNotFound))
}

func TestPathNameMismatch(t *testing.T) {
	db := newMemDB(t)
	c, err := classfile.NewClass(classfile.Descriptor{Name: "a.Real"})
	require.NoError(t, err)
	blob, err := classfile.Encode(c)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("ca.Alias"), snappy.Encode(nil, blob)))

	_, err = New(Config{}, NewDBEntry("db", db)).Load("a.Alias")
	assert.ErrorIs(t, err, ErrNameMismatch)
}

func TestPathRawCache(t *testing.T) {
	entry := &countingEntry{Entry: NewDBEntry("db", newDB(t, classfile.Descriptor{Name: "a.A"}))}
	path := New(Config{RawCacheSize: 1024 * 1024}, entry)

	for i := 0; i < 3; i++ {
		c, err := path.Load("a.A")
		require.NoError(t, err)
		assert.Equal(t, "a.A", c.Name())
	}
	assert.Equal(t, 1, entry.lookups)

	// Every load still hands out a distinct value.
	c1, _ := path.Load("a.A")
	c2, _ := path.Load("a.A")
	assert.NotSame(t, c1, c2)
}

// countingReader records how often the database was hit.
type countingReader struct {
	*pebble.Database
	hits int
}

func (r *countingReader) Has(key []byte) (bool, error) {
	r.hits++
	return r.Database.Has(key)
}

func TestIndexedDBEntry(t *testing.T) {
	db := &countingReader{Database: newDB(t,
		classfile.Descriptor{Name: "a.A"},
		classfile.Descriptor{Name: "a.B"},
	)}
	entry, err := NewIndexedDBEntry("db", db)
	require.NoError(t, err)

	for _, name := range []string{"a.A", "a.B"} {
		blob, err := entry.Lookup(name)
		require.NoError(t, err)
		assert.NotNil(t, blob, name)
	}
	hits := db.hits

	for i := 0; i < 1000; i++ {
		blob, err := entry.Lookup(fmt.Sprintf("b.Missing%d", i))
		require.NoError(t, err)
		assert.Nil(t, blob)
	}
	skipped := 1000 - (db.hits - hits)
	assert.Greater(t, skipped, 950, "index should answer most misses")

	empty, err := NewIndexedDBEntry("empty", newDB(t))
	require.NoError(t, err)
	blob, err := empty.Lookup("a.A")
	require.NoError(t, err)
	assert.Nil(t, blob)
}
