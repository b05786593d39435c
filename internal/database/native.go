package database

import (
	"context"
	"errors"
)

// The interfaces in this file are the boundary to the native database
// driver. The engine never talks to a wire protocol itself; it drives these
// handles in the order an ODBC-style driver expects: environment, then
// connection, then statement.
//
// None of the handles are safe for concurrent use.

// ErrNoData is returned by Statement.Fetch when the current result set has
// no further rows and by Statement.MoreResults when there are no further
// result sets.
var ErrNoData = errors.New("no data")

// Diagnostic is the last diagnostic record a native handle reported.
type Diagnostic struct {
	State   string // five-character SQLSTATE
	Message string
}

// ConnAttr identifies a connection attribute set before connecting.
type ConnAttr int

const (
	AttrLoginTimeout             ConnAttr = iota // seconds
	AttrConnectionTimeout                        // seconds
	AttrAutocommit                               // 1 = on
	AttrMultipleActiveResultSets                 // 1 = on
)

func (a ConnAttr) String() string {
	switch a {
	case AttrLoginTimeout:
		return "login_timeout"
	case AttrConnectionTimeout:
		return "connection_timeout"
	case AttrAutocommit:
		return "autocommit"
	case AttrMultipleActiveResultSets:
		return "multiple_active_result_sets"
	default:
		return "unknown"
	}
}

// Driver allocates environments.
type Driver interface {
	AllocEnv() (Environment, error)
}

// Environment owns connections.
type Environment interface {
	AllocConn() (Connection, error)
	Free() error
}

// Connection is one native link to the database.
type Connection interface {
	SetAttr(attr ConnAttr, value int) error
	Connect(ctx context.Context, connectionString string) error
	AllocStmt() (Statement, error)
	Disconnect() error
	Free() error
	Diagnostic() Diagnostic
}

// Statement is the reusable execution cursor of a connection.
//
// Column and parameter positions are 1-based.
type Statement interface {
	Prepare(ctx context.Context, script string) error
	BindParam(position int, typ NativeType, v Value) error
	Execute(ctx context.Context) error

	// NumResultCols returns the column count of the current result set.
	NumResultCols() (int, error)
	// Fetch advances to the next row of the current result set.
	Fetch() error
	// MoreResults advances to the next result set.
	MoreResults() error

	// ColumnSize returns the native size in bytes of a column of the
	// current row. Non-positive sizes mean there is nothing to read.
	ColumnSize(column int) (int, error)
	// GetData reads a column of the current row into dst. dst is either a
	// pointer to a fixed-size value (*int8 … *uint64, *bool, *float32,
	// *float64, *time.Time) or a []byte buffer, in which case the number of
	// bytes written is returned.
	GetData(column int, dst any) (int, error)

	// CloseCursor discards pending results and bound parameters.
	CloseCursor() error
	Free() error
	Diagnostic() Diagnostic
}
