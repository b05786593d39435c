package sqlbridge

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbpool/internal/database"
)

func TestGenericState(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, database.StateTimeout},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), database.StateTimeout},
		{"bad conn", driver.ErrBadConn, database.StateLinkUnusable},
		{"conn done", sql.ErrConnDone, database.StateLinkUnusable},
		{"eof", io.ErrUnexpectedEOF, database.StateLinkFailure},
		{"net", &net.OpError{Op: "read", Err: errors.New("reset")}, database.StateLinkFailure},
		{"conversion", errors.New("sql: converting argument $1 type: uint64 values with high bit set are not supported"), database.StateRestrictedType},
		{"missing argument", errors.New(`missing named argument "id"`), database.StateSyntaxOrAccess},
		{"other", errors.New("boom"), database.StateSyntaxOrAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, genericState(tt.err))
		})
	}
}

func TestBindArg(t *testing.T) {
	assert.Equal(t, uint64(42), bindArg(database.Uint64(42)))
	assert.Equal(t, uint64(math.MaxInt64), bindArg(database.Uint64(math.MaxInt64)))
	assert.Equal(t, "18446744073709551615", bindArg(database.Uint64(math.MaxUint64)))
	assert.Equal(t, int64(-1), bindArg(database.Int64(-1)))
}

func TestAsBytes(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{[]byte("raw"), "raw"},
		{"text", "text"},
		{int64(-42), "-42"},
		{1.5, "1.5"},
		{true, "true"},
		{ts, "2024-05-01T12:00:00Z"},
	}
	for _, tt := range tests {
		b, ok := asBytes(tt.in)
		require.True(t, ok, "%T", tt.in)
		assert.Equal(t, tt.want, string(b))
	}

	_, ok := asBytes(struct{}{})
	assert.False(t, ok)
}

func stateOf(err error) string {
	var ce *convertError
	if errors.As(err, &ce) {
		return ce.state
	}
	return ""
}

func TestAssign(t *testing.T) {
	var i8 int8
	require.NoError(t, assign(&i8, int64(-128)))
	assert.Equal(t, int8(-128), i8)
	assert.Equal(t, database.StateOutOfRange, stateOf(assign(&i8, int64(200))))

	var i32 int32
	require.NoError(t, assign(&i32, []byte(" 77 ")))
	assert.Equal(t, int32(77), i32)
	assert.Equal(t, database.StateOutOfRange, stateOf(assign(&i32, 2.5)))
	assert.Equal(t, database.StateInvalidCast, stateOf(assign(&i32, "abc")))

	var u16 uint16
	require.NoError(t, assign(&u16, int64(65535)))
	assert.Equal(t, uint16(65535), u16)
	assert.Equal(t, database.StateOutOfRange, stateOf(assign(&u16, int64(-1))))

	var u64 uint64
	require.NoError(t, assign(&u64, "18446744073709551615"))
	assert.Equal(t, uint64(math.MaxUint64), u64)

	var b bool
	require.NoError(t, assign(&b, int64(1)))
	assert.True(t, b)
	require.NoError(t, assign(&b, "false"))
	assert.False(t, b)

	var f32 float32
	require.NoError(t, assign(&f32, int64(3)))
	assert.Equal(t, float32(3), f32)
	assert.Equal(t, database.StateOutOfRange, stateOf(assign(&f32, math.MaxFloat64)))

	var ts time.Time
	require.NoError(t, assign(&ts, "2024-05-01 08:30:00"))
	assert.Equal(t, time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC), ts)
	assert.Equal(t, database.StateInvalidCast, stateOf(assign(&ts, int64(5))))

	var s string
	assert.Equal(t, database.StateInvalidCast, stateOf(assign(&s, "x")), "text goes through the byte path")
}

func TestAssign_NullZeroes(t *testing.T) {
	i := int64(9)
	require.NoError(t, assign(&i, nil))
	assert.Zero(t, i)

	ts := time.Now()
	require.NoError(t, assign(&ts, nil))
	assert.True(t, ts.IsZero())
}
