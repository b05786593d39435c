// Package sqlserver plugs Microsoft SQL Server into the native driver
// boundary through go-mssqldb.
//
// Import it for its side effect:
//
//	import _ "github.com/koustreak/dbpool/internal/database/sqlserver"
//
// Scripts use the driver's parameter syntax, "@p1" … "@pN" or "?":
//
//	EXEC P_GAME_DAILY_ACHIEVEMENT_R @p1, @p2
package sqlserver

import (
	"database/sql"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

func init() {
	sqlbridge.Register(database.BackendSQLServer, Dialect{})
}

// Dialect is the SQL Server sqlbridge.Dialect. Every result set of a batch
// or a stored procedure becomes one recordset.
type Dialect struct{}

// Open builds a *sql.DB over a go-mssqldb connector. It does not connect.
func (Dialect) Open(connectionString string, attrs sqlbridge.Attrs) (*sql.DB, error) {
	dsn, err := withTimeouts(connectionString, attrs)
	if err != nil {
		return nil, err
	}
	connector, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

func (Dialect) PrepareStatements() bool { return false }

// SupportsMARS is false: go-mssqldb reads one result stream per connection.
func (Dialect) SupportsMARS() bool { return false }
