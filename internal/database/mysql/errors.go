package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/dbpool/internal/database"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDuplicateEntry   = 1062
	errNoReferencedRow  = 1452
	errRowIsReferenced  = 1451
	errAccessDenied     = 1045
	errTooManyConns     = 1040
	errUserConnLimit    = 1203
	errLockWaitTimeout  = 1205
	errDeadlock         = 1213
	errQueryInterrupted = 1317
	errServerGone       = 2006
	errServerLost       = 2013
)

const (
	stateAccessDenied   = "28000"
	stateRejected       = "08004"
	stateDeadlock       = "40001"
	stateServerReported = "42000"
)

// Diagnose maps go-sql-driver/mysql errors to diagnostics.
//
// MySQL reports many ordinary server errors with the catch-all SQLSTATE
// HY000. A server that answers is reachable, so those are narrowed by
// error number instead of being treated as link failures.
func (Dialect) Diagnose(err error) database.Diagnostic {
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, mysql.ErrPktSync) || errors.Is(err, mysql.ErrPktSyncMul) {
		return database.Diagnostic{State: database.StateLinkFailure, Message: err.Error()}
	}

	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return database.Diagnostic{}
	}

	state := string(mysqlErr.SQLState[:])
	if mysqlErr.SQLState == [5]byte{} || state == database.StateGeneralError {
		state = classifyMySQLCode(mysqlErr.Number)
	}
	return database.Diagnostic{State: state, Message: mysqlErr.Message}
}

// classifyMySQLCode maps MySQL error numbers to SQLSTATE codes.
func classifyMySQLCode(code uint16) string {
	switch code {
	case errServerGone, errServerLost:
		return database.StateLinkFailure
	case errDuplicateEntry, errNoReferencedRow, errRowIsReferenced:
		return database.StateIntegrity
	case errAccessDenied:
		return stateAccessDenied
	case errTooManyConns, errUserConnLimit:
		return stateRejected
	case errLockWaitTimeout, errQueryInterrupted:
		return database.StateTimeout
	case errDeadlock:
		return stateDeadlock
	default:
		return stateServerReported
	}
}
