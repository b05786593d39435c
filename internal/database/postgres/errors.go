package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/dbpool/internal/database"
)

// PostgreSQL SQLSTATE codes that mean the session is gone.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrConnectionException    = "08000"
	pgErrConnectionDoesNotExist = "08003"
	pgErrConnectionFailure      = "08006"
	pgErrAdminShutdown          = "57P01"
	pgErrCrashShutdown          = "57P02"
	pgErrQueryCanceled          = "57014"
)

// Diagnose maps pgx errors to diagnostics. Server errors already carry a
// SQLSTATE; those that end the session become link failures.
func (Dialect) Diagnose(err error) database.Diagnostic {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		state := pgErr.Code
		switch state {
		case pgErrConnectionException, pgErrConnectionDoesNotExist, pgErrConnectionFailure,
			pgErrAdminShutdown, pgErrCrashShutdown:
			state = database.StateLinkFailure
		case pgErrQueryCanceled:
			state = database.StateTimeout
		}
		return database.Diagnostic{State: state, Message: pgErr.Message}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return database.Diagnostic{State: database.StateConnectFailed, Message: connErr.Error()}
	}

	var parseErr *pgconn.ParseConfigError
	if errors.As(err, &parseErr) {
		return database.Diagnostic{State: database.StateConnectFailed, Message: parseErr.Error()}
	}

	if pgconn.Timeout(err) {
		return database.Diagnostic{State: database.StateTimeout, Message: err.Error()}
	}

	return database.Diagnostic{}
}
