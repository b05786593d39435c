package sqlbridge_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/sqlbridge"
	"github.com/koustreak/dbpool/internal/errs"
)

// memDialect runs the bridge against an embedded SQLite file and leaves
// every error to the generic mapping.
type memDialect struct {
	mars bool
}

func (memDialect) Open(dsn string, _ sqlbridge.Attrs) (*sql.DB, error) { return sql.Open("sqlite", dsn) }
func (memDialect) Diagnose(error) database.Diagnostic               { return database.Diagnostic{} }
func (memDialect) PrepareStatements() bool                          { return false }
func (d memDialect) SupportsMARS() bool                             { return d.mars }

const testBackend database.Backend = "bridge-test"

func init() {
	sqlbridge.Register(testBackend, memDialect{})
}

func TestRegister(t *testing.T) {
	d, ok := sqlbridge.Lookup(testBackend)
	require.True(t, ok)
	assert.IsType(t, memDialect{}, d)
	assert.Contains(t, sqlbridge.Backends(), testBackend)

	assert.Panics(t, func() { sqlbridge.Register(testBackend, memDialect{}) })
	assert.Panics(t, func() { sqlbridge.Register("nil-dialect", nil) })
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := sqlbridge.Open("oracle")
	assert.True(t, errs.IsInvalidInput(err))
}

func connect(t *testing.T, d sqlbridge.Dialect) database.Connection {
	t.Helper()
	env, err := sqlbridge.New(d).AllocEnv()
	require.NoError(t, err)
	c, err := env.AllocConn()
	require.NoError(t, err)
	require.NoError(t, c.SetAttr(database.AttrLoginTimeout, 2))
	require.NoError(t, c.Connect(context.Background(), filepath.Join(t.TempDir(), "bridge.db")))
	t.Cleanup(func() {
		_ = c.Free()
		_ = env.Free()
	})
	return c
}

func TestConn_Attributes(t *testing.T) {
	env, err := sqlbridge.New(memDialect{}).AllocEnv()
	require.NoError(t, err)
	c, err := env.AllocConn()
	require.NoError(t, err)

	require.NoError(t, c.SetAttr(database.AttrConnectionTimeout, 5))
	require.NoError(t, c.SetAttr(database.AttrAutocommit, 1))

	require.Error(t, c.SetAttr(database.AttrAutocommit, 0))
	assert.Equal(t, database.StateNotImplemented, c.Diagnostic().State)

	require.Error(t, c.SetAttr(database.AttrMultipleActiveResultSets, 1))
	assert.Equal(t, database.StateNotImplemented, c.Diagnostic().State)

	_, err = c.AllocStmt()
	require.Error(t, err, "statement before connect")
	assert.Equal(t, database.StateFunctionSequence, c.Diagnostic().State)

	mars, err := sqlbridge.New(memDialect{mars: true}).AllocEnv()
	require.NoError(t, err)
	mc, err := mars.AllocConn()
	require.NoError(t, err)
	assert.NoError(t, mc.SetAttr(database.AttrMultipleActiveResultSets, 1))
}

func TestConn_ConnectFailure(t *testing.T) {
	env, err := sqlbridge.New(memDialect{}).AllocEnv()
	require.NoError(t, err)
	c, err := env.AllocConn()
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "x.db")
	require.Error(t, c.Connect(context.Background(), "file:"+missing+"?mode=ro"))
	assert.Equal(t, database.StateConnectFailed, c.Diagnostic().State)
}

func TestStmt_Lifecycle(t *testing.T) {
	c := connect(t, memDialect{})
	s, err := c.AllocStmt()
	require.NoError(t, err)
	ctx := context.Background()

	require.Error(t, s.Execute(ctx), "execute before prepare")
	assert.Equal(t, database.StateFunctionSequence, s.Diagnostic().State)

	require.NoError(t, s.Prepare(ctx, "SELECT ?, ?"))
	require.NoError(t, s.BindParam(1, database.NativeType{}, database.Int64(41)))
	require.NoError(t, s.BindParam(2, database.NativeType{}, database.VarChar("hello")))
	require.NoError(t, s.Execute(ctx))

	n, err := s.NumResultCols()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.GetData(1, new(int64))
	require.Error(t, err, "read before fetch")
	assert.Equal(t, database.StateInvalidCursor, s.Diagnostic().State)

	require.NoError(t, s.Fetch())

	var id int64
	_, err = s.GetData(1, &id)
	require.NoError(t, err)
	assert.Equal(t, int64(41), id)

	size, err := s.ColumnSize(2)
	require.NoError(t, err)
	assert.Equal(t, 5, size)
	buf := make([]byte, size)
	got, err := s.GetData(2, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:got]))

	_, err = s.ColumnSize(3)
	require.Error(t, err)
	assert.Equal(t, database.StateInvalidIndex, s.Diagnostic().State)

	assert.True(t, errors.Is(s.Fetch(), database.ErrNoData))
	assert.True(t, errors.Is(s.MoreResults(), database.ErrNoData))

	require.NoError(t, s.CloseCursor())
	require.NoError(t, s.Free())
}
