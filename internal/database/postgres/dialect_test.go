package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state string
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, "23505"},
		{"syntax", &pgconn.PgError{Code: "42601"}, "42601"},
		{"admin shutdown", &pgconn.PgError{Code: pgErrAdminShutdown}, database.StateLinkFailure},
		{"connection failure", &pgconn.PgError{Code: pgErrConnectionFailure}, database.StateLinkFailure},
		{"canceled", &pgconn.PgError{Code: pgErrQueryCanceled}, database.StateTimeout},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "22012"}), "22012"},
		{"deadline", context.DeadlineExceeded, database.StateTimeout},
		{"unknown", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.state, Dialect{}.Diagnose(tt.err).State)
		})
	}
}

func TestDiagnose_KeepsServerMessage(t *testing.T) {
	d := Dialect{}.Diagnose(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
	assert.Equal(t, "duplicate key value", d.Message)
}

func TestBuildConnConfig(t *testing.T) {
	cfg, err := buildConnConfig("postgres://u:p@localhost:5432/game", sqlbridge.Attrs{
		LoginTimeout:      3 * time.Second,
		ConnectionTimeout: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "dbpool", cfg.RuntimeParams["application_name"])
	assert.Equal(t, "1500", cfg.RuntimeParams["statement_timeout"])
}

func TestBuildConnConfig_Defaults(t *testing.T) {
	cfg, err := buildConnConfig("postgres://u:p@localhost:5432/game?application_name=ranker&connect_timeout=9", sqlbridge.Attrs{})
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "ranker", cfg.RuntimeParams["application_name"])
	_, ok := cfg.RuntimeParams["statement_timeout"]
	assert.False(t, ok)
}

func TestBuildConnConfig_Invalid(t *testing.T) {
	_, err := buildConnConfig("postgres://u:p@localhost:notaport/game", sqlbridge.Attrs{})
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	d, ok := sqlbridge.Lookup(database.BackendPostgres)
	require.True(t, ok)
	assert.IsType(t, Dialect{}, d)
}
