package sqlserver

import (
	"errors"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/koustreak/dbpool/internal/database"
)

// SQL Server error numbers
// Full list: https://learn.microsoft.com/sql/relational-databases/errors-events/database-engine-events-and-errors
const (
	errUniqueConstraint = 2627
	errUniqueIndex      = 2601
	errForeignKey       = 547
	errDeadlockVictim   = 1205
	errLoginFailed      = 18456
	errLockTimeout      = 1222
)

// Severity 20 and above terminates the connection.
const fatalClass = 20

const (
	stateAccessDenied   = "28000"
	stateDeadlock       = "40001"
	stateServerReported = "42000"
)

// Diagnose maps go-mssqldb errors to diagnostics.
func (Dialect) Diagnose(err error) database.Diagnostic {
	var msErr mssql.Error
	if !errors.As(err, &msErr) {
		return database.Diagnostic{}
	}

	var state string
	switch {
	case msErr.Class >= fatalClass:
		state = database.StateLinkFailure
	case msErr.Number == errUniqueConstraint, msErr.Number == errUniqueIndex, msErr.Number == errForeignKey:
		state = database.StateIntegrity
	case msErr.Number == errDeadlockVictim:
		state = stateDeadlock
	case msErr.Number == errLoginFailed:
		state = stateAccessDenied
	case msErr.Number == errLockTimeout:
		state = database.StateTimeout
	default:
		state = stateServerReported
	}
	return database.Diagnostic{State: state, Message: msErr.Message}
}
