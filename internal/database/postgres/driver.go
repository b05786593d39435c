// Package postgres plugs PostgreSQL into the native driver boundary through
// pgx's database/sql adapter.
//
// Import it for its side effect:
//
//	import _ "github.com/koustreak/dbpool/internal/database/postgres"
package postgres

import (
	"database/sql"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

func init() {
	sqlbridge.Register(database.BackendPostgres, Dialect{})
}

// Dialect is the PostgreSQL sqlbridge.Dialect.
//
// PostgreSQL returns one result set per statement and pgx does not expose
// further ones through database/sql, so scripts yield a single recordset.
type Dialect struct{}

// Open builds a *sql.DB over a pgx connection config. It does not connect.
func (Dialect) Open(connectionString string, attrs sqlbridge.Attrs) (*sql.DB, error) {
	cfg, err := buildConnConfig(connectionString, attrs)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*cfg), nil
}

func (Dialect) PrepareStatements() bool { return true }
func (Dialect) SupportsMARS() bool      { return false }
