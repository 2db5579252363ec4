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

package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCommit(t *testing.T) {
	assert.Equal(t, WithMeta, WithCommit("", ""))
	assert.Equal(t, WithMeta+"-0123abcd-20250101", WithCommit("0123abcdef", "20250101"))
}

func TestBuildInfoVCS(t *testing.T) {
	info := &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123abcdef"},
		{Key: "vcs.time", Value: "2025-03-04T05:06:07Z"},
		{Key: "vcs.modified", Value: "true"},
	}}
	vcs, ok := buildInfoVCS(info)
	assert.True(t, ok)
	assert.Equal(t, VCSInfo{Commit: "0123abcdef", Date: "20250304", Dirty: true}, vcs)

	_, ok = buildInfoVCS(&debug.BuildInfo{})
	assert.False(t, ok)
}
