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

// The fields below define the low level database schema prefixing.
var (
	// classPrefix + class name -> snappy(rlp(descriptor))
	classPrefix = []byte("c")

	// versionKey tracks the schema version of the database.
	versionKey = []byte("ClassDatabaseVersion")
)

// SchemaVersion is the layout version written by this package.
const SchemaVersion uint64 = 1

// classKey = classPrefix + name
func classKey(name string) []byte {
	return append(append([]byte{}, classPrefix...), name...)
}
