package postgres

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultApplicationName = "dbpool"
)

// buildConnConfig parses the connection string and applies the connection
// attributes on top of it. Settings spelled out in the connection string
// win over the defaults but not over explicit attributes.
func buildConnConfig(connectionString string, attrs sqlbridge.Attrs) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}

	cfg.ConnectTimeout = withDefault(attrs.LoginTimeout, withDefault(cfg.ConnectTimeout, defaultConnTimeout))

	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = make(map[string]string)
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = defaultApplicationName
	}
	if attrs.ConnectionTimeout > 0 {
		cfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(attrs.ConnectionTimeout.Milliseconds(), 10)
	}

	return cfg, nil
}

// withDefault returns val if non-zero, otherwise returns def
func withDefault(val, def time.Duration) time.Duration {
	if val == 0 {
		return def
	}
	return val
}
