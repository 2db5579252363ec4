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

package classdb

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/golang/snappy"
	"github.com/sunyihoo/classrepo/classfile"
)

// ReadDatabaseVersion retrieves the version number of the database.
func ReadDatabaseVersion(db KeyValueReader) *uint64 {
	enc, _ := db.Get(versionKey)
	if len(enc) != 8 {
		return nil
	}
	version := binary.BigEndian.Uint64(enc)
	return &version
}

// WriteDatabaseVersion stores the version number of the database.
func WriteDatabaseVersion(db KeyValueWriter, version uint64) {
	enc := binary.BigEndian.AppendUint64(nil, version)
	if err := db.Put(versionKey, enc); err != nil {
		log.Crit("Failed to store the database version", "err", err)
	}
}

// HasClass checks if the descriptor for the given class name is present.
func HasClass(db KeyValueReader, name string) (bool, error) {
	return db.Has(classKey(name))
}

// ReadClassBlob retrieves the raw RLP descriptor of a class. A missing class
// yields nil without an error.
// ReadClassBlob 读取类描述符的原始 RLP 数据；类不存在时返回 nil 且不报错。
func ReadClassBlob(db KeyValueReader, name string) ([]byte, error) {
	key := classKey(name)
	ok, err := db.Has(key)
	if err != nil || !ok {
		return nil, err
	}
	data, err := db.Get(key)
	if err != nil {
		return nil, err
	}
	blob, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("corrupt descriptor %q: %w", name, err)
	}
	return blob, nil
}

// ReadClass retrieves and decodes the descriptor of a class, nil if absent.
func ReadClass(db KeyValueReader, name string) (*classfile.Class, error) {
	blob, err := ReadClassBlob(db, name)
	if err != nil || blob == nil {
		return nil, err
	}
	return classfile.Decode(blob)
}

// WriteClass stores the descriptor of a class.
func WriteClass(db KeyValueWriter, c *classfile.Class) error {
	blob, err := classfile.Encode(c)
	if err != nil {
		return err
	}
	if err := db.Put(classKey(c.Name()), snappy.Encode(nil, blob)); err != nil {
		return fmt.Errorf("failed to store class %s: %w", c.Name(), err)
	}
	return nil
}

// DeleteClass removes the descriptor of a class.
func DeleteClass(db KeyValueWriter, name string) error {
	return db.Delete(classKey(name))
}

// ReadClassNames returns the names of all stored classes in ascending order.
func ReadClassNames(db Iteratee) ([]string, error) {
	it := db.NewIterator(classPrefix, nil)
	defer it.Release()

	var names []string
	for it.Next() {
		names = append(names, string(it.Key()[len(classPrefix):]))
	}
	return names, it.Error()
}
