package sqlite

import (
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/koustreak/dbpool/internal/database"
)

// Diagnose maps SQLite result codes to diagnostics. Extended codes are
// folded to their primary code first.
func (Dialect) Diagnose(err error) database.Diagnostic {
	var sqlErr *msqlite.Error
	if !errors.As(err, &sqlErr) {
		return database.Diagnostic{}
	}

	var state string
	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		state = database.StateIntegrity
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		state = database.StateTimeout
	case sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN:
		state = database.StateGeneralError
	case sqlite3.SQLITE_MISMATCH:
		state = database.StateInvalidCast
	case sqlite3.SQLITE_RANGE:
		state = database.StateInvalidIndex
	default:
		state = database.StateSyntaxOrAccess
	}
	return database.Diagnostic{State: state, Message: sqlErr.Error()}
}
