// Copyright 2025 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/classrepo/repository"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	file := writeFile(t, "config.toml", `
[Store]
DataDir = "/var/lib/classrepo"
DBEngine = "leveldb"
ClassPath = ["/opt/a", "/opt/b"]

[Path]
RawCacheSize = 4096

[Repository]
Mode = "weak"
`)
	cfg := classrepoConfig{Repository: repository.Defaults}
	require.NoError(t, loadConfig(file, &cfg))

	assert.Equal(t, "/var/lib/classrepo", cfg.Store.DataDir)
	assert.Equal(t, "leveldb", cfg.Store.DBEngine)
	assert.Equal(t, []string{"/opt/a", "/opt/b"}, cfg.Store.ClassPath)
	assert.Equal(t, 4096, cfg.Path.RawCacheSize)
	assert.Equal(t, repository.ModeWeak, cfg.Repository.Mode)
	assert.Equal(t, repository.Defaults.Size, cfg.Repository.Size, "unset fields keep their defaults")
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := writeFile(t, "config.toml", `
[Repository]
Capacity = 12
`)
	var cfg classrepoConfig
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), file)
	assert.Contains(t, err.Error(), "field 'Capacity' is not defined in repository.Config")
}
