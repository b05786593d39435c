// Package mysql plugs MySQL into the native driver boundary through
// go-sql-driver/mysql.
//
// Import it for its side effect:
//
//	import _ "github.com/koustreak/dbpool/internal/database/mysql"
package mysql

import (
	"database/sql"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

func init() {
	sqlbridge.Register(database.BackendMySQL, Dialect{})
}

// Dialect is the MySQL sqlbridge.Dialect. Every result set of a stored
// procedure call or a multi-statement script becomes one recordset.
type Dialect struct{}

// Open builds a *sql.DB over a mysql connector. It does not connect.
func (Dialect) Open(dsn string, attrs sqlbridge.Attrs) (*sql.DB, error) {
	cfg, err := buildConfig(dsn, attrs)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

func (Dialect) PrepareStatements() bool { return false }
func (Dialect) SupportsMARS() bool      { return false }
