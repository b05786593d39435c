// Package sqlite plugs SQLite into the native driver boundary through the
// pure Go modernc.org/sqlite driver. It needs no server, which makes it the
// backend of choice for local runs and integration tests.
//
// Import it for its side effect:
//
//	import _ "github.com/koustreak/dbpool/internal/database/sqlite"
package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

const driverName = "sqlite"

func init() {
	sqlbridge.Register(database.BackendSQLite, Dialect{})
}

// Dialect is the SQLite sqlbridge.Dialect. A script holds one statement;
// SQLite has no stored procedures, so it yields at most one recordset.
type Dialect struct{}

func (Dialect) Open(dsn string, attrs sqlbridge.Attrs) (*sql.DB, error) {
	return sql.Open(driverName, withBusyTimeout(dsn, attrs))
}

func (Dialect) PrepareStatements() bool { return true }

func (Dialect) SupportsMARS() bool { return false }
