package sqlbridge

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/koustreak/dbpool/internal/database"
)

// diagnose turns err into a diagnostic: the dialect's mapping first, then
// the errors every database/sql driver shares.
func diagnose(d Dialect, err error) database.Diagnostic {
	if diag := d.Diagnose(err); diag.State != "" {
		if diag.Message == "" {
			diag.Message = err.Error()
		}
		return diag
	}
	return database.Diagnostic{State: genericState(err), Message: err.Error()}
}

func genericState(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return database.StateTimeout
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return database.StateLinkUnusable
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return database.StateLinkFailure
	}

	// A socket that timed out mid-exchange is out of sync with the server.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return database.StateLinkFailure
	}

	// database/sql rejected an argument before it reached the server.
	if strings.Contains(err.Error(), "converting argument") {
		return database.StateRestrictedType
	}
	// Unclassified driver errors fail the query, not the link. HY000 is
	// reserved for drivers that report it themselves.
	return database.StateSyntaxOrAccess
}

func diag(state, msg string) database.Diagnostic {
	return database.Diagnostic{State: state, Message: msg}
}
