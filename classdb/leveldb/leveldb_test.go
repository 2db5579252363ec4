// Copyright 2014 The go-ethereum Authors
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

package leveldb

import (
	"testing"

	"github.com/sunyihoo/classrepo/classdb"
	"github.com/sunyihoo/classrepo/classdb/dbtest"
)

func TestLevelDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() classdb.KeyValueStore {
			db, err := NewMemory()
			if err != nil {
				t.Fatal(err)
			}
			return db
		})
	})
}

func TestLevelDBOnDisk(t *testing.T) {
	dir := t.TempDir()
	db, err := New(dir, 0, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatal(err)
	}
	if db.Path() != dir {
		t.Fatalf("wrong path: %s", db.Path())
	}
	db.Close()

	// Reopen read-only and check the write survived.
	db, err = New(dir, 0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if v, err := db.Get([]byte("key")); err != nil || string(v) != "value" {
		t.Fatalf("have %q, %v", v, err)
	}
}

func BenchmarkLevelDB(b *testing.B) {
	dbtest.BenchDatabaseSuite(b, func() classdb.KeyValueStore {
		db, err := NewMemory()
		if err != nil {
			b.Fatal(err)
		}
		return db
	})
}
