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

package flags

import "github.com/urfave/cli/v2"

const (
	// ClassPathCategory 是与类路径和类数据库相关的标志的类别。
	ClassPathCategory = "CLASS PATH"
	// CacheCategory 是与类仓库缓存相关的标志的类别。
	CacheCategory = "CLASS CACHE"
	// LoggingCategory 是与日志和调试相关的标志的类别。
	LoggingCategory = "LOGGING AND DEBUGGING"
	// MiscCategory 是其他标志的类别。
	MiscCategory = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
	cli.VersionFlag.(*cli.BoolFlag).Category = MiscCategory
}
