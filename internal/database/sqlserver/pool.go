package sqlserver

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

const defaultDialTimeout = 5 * time.Second

// withTimeouts adds the login timeout to the connection string as both the
// dial timeout and the overall connection timeout, unless the connection
// string sets them. URL ("sqlserver://") and ADO ("key=value;") forms are
// understood.
func withTimeouts(connectionString string, attrs sqlbridge.Attrs) (string, error) {
	d := attrs.LoginTimeout
	if d <= 0 {
		d = defaultDialTimeout
	}
	secs := strconv.Itoa(int((d + time.Second - 1) / time.Second))

	if strings.HasPrefix(connectionString, "sqlserver://") {
		u, err := url.Parse(connectionString)
		if err != nil {
			return "", err
		}
		q := u.Query()
		for _, key := range []string{"dial timeout", "connection timeout"} {
			if q.Get(key) == "" {
				q.Set(key, secs)
			}
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	lower := strings.ToLower(connectionString)
	out := strings.TrimRight(connectionString, "; ")
	for _, key := range []string{"dial timeout", "connection timeout"} {
		if !strings.Contains(lower, key+"=") {
			out += ";" + key + "=" + secs
		}
	}
	return out, nil
}
