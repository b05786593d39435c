package mysql

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

const (
	defaultDialTimeout = 5 * time.Second
)

// buildConfig parses the DSN and applies the connection attributes.
//
// Stored procedures return several result sets and scripts may hold several
// statements, so multi statements are always on. Parameters are
// interpolated client side because the server refuses to prepare a
// multi-statement script.
func buildConfig(dsn string, attrs sqlbridge.Attrs) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql DSN: %w", err)
	}

	cfg.Timeout = withDefault(attrs.LoginTimeout, withDefault(cfg.Timeout, defaultDialTimeout))
	if attrs.ConnectionTimeout > 0 {
		cfg.ReadTimeout = attrs.ConnectionTimeout
		cfg.WriteTimeout = attrs.ConnectionTimeout
	}
	cfg.MultiStatements = true
	cfg.InterpolateParams = true
	cfg.ParseTime = true

	return cfg, nil
}

// withDefault returns val if non-zero, otherwise returns def
func withDefault(val, def time.Duration) time.Duration {
	if val == 0 {
		return def
	}
	return val
}
