//go:build !cgo_sqlite

package mustache

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const sqliteDriverName = "sqlite"
