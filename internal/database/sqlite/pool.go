package sqlite

import (
	"fmt"
	"strings"

	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

// withBusyTimeout lets a locked database wait out the connection timeout
// instead of failing at once. A DSN that sets its own busy_timeout wins.
func withBusyTimeout(dsn string, attrs sqlbridge.Attrs) string {
	if attrs.ConnectionTimeout <= 0 || strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, attrs.ConnectionTimeout.Milliseconds())
}
