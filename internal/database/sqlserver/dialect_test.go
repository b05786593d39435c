package sqlserver

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
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
		{"primary key", mssql.Error{Number: errUniqueConstraint, Class: 14}, database.StateIntegrity},
		{"foreign key", mssql.Error{Number: errForeignKey, Class: 16}, database.StateIntegrity},
		{"deadlock", mssql.Error{Number: errDeadlockVictim, Class: 13}, "40001"},
		{"login", mssql.Error{Number: errLoginFailed, Class: 14}, "28000"},
		{"lock timeout", mssql.Error{Number: errLockTimeout, Class: 16}, database.StateTimeout},
		{"fatal class", mssql.Error{Number: 823, Class: 24}, database.StateLinkFailure},
		{"procedure raised", fmt.Errorf("exec: %w", mssql.Error{Number: 50000, Class: 16}), "42000"},
		{"unknown", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.state, Dialect{}.Diagnose(tt.err).State)
		})
	}
}

func TestWithTimeouts_URL(t *testing.T) {
	dsn, err := withTimeouts("sqlserver://sa:pw@localhost:1433?database=game", sqlbridge.Attrs{LoginTimeout: 1500 * time.Millisecond})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "game", q.Get("database"))
	assert.Equal(t, "2", q.Get("dial timeout"))
	assert.Equal(t, "2", q.Get("connection timeout"))
}

func TestWithTimeouts_KeepsExplicit(t *testing.T) {
	dsn, err := withTimeouts("sqlserver://sa:pw@localhost?dial+timeout=9", sqlbridge.Attrs{})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "9", u.Query().Get("dial timeout"))
	assert.Equal(t, "5", u.Query().Get("connection timeout"))
}

func TestWithTimeouts_ADO(t *testing.T) {
	dsn, err := withTimeouts("server=localhost;user id=sa;Dial Timeout=3;", sqlbridge.Attrs{LoginTimeout: 4 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "server=localhost;user id=sa;Dial Timeout=3;connection timeout=4", dsn)
}
