package database

import (
	"context"
	"errors"
	"time"

	"github.com/koustreak/dbpool/internal/errs"
)

// FetchState is the position of a cursor within its current result set.
type FetchState int

const (
	FetchIdle FetchState = iota
	FetchOK
	FetchError
	FetchEmpty
	FetchClosed
)

func (s FetchState) String() string {
	switch s {
	case FetchIdle:
		return "idle"
	case FetchOK:
		return "ok"
	case FetchError:
		return "error"
	case FetchEmpty:
		return "empty"
	case FetchClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Cursor is the execution cursor of a Handle. It wraps the native statement
// and tracks the read-column, parameter and recordset positions.
//
// A Cursor is reused across executions; Close resets it.
type Cursor struct {
	stmt       Statement
	state      FetchState
	readIndex  int
	paramIndex int
	recordset  int
	err        error // last fetch failure other than ErrNoData
}

func (c *Cursor) open(stmt Statement) {
	c.stmt = stmt
	c.state = FetchIdle
	c.readIndex, c.paramIndex, c.recordset = 0, 0, 0
	c.err = nil
}

// IsOpen reports whether the cursor has a native statement.
func (c *Cursor) IsOpen() bool {
	return c.stmt != nil
}

// Close resets the cursor for the next query and discards any pending
// results on the native statement.
func (c *Cursor) Close() {
	c.readIndex = 0
	c.paramIndex = 0
	c.recordset = 0
	c.state = FetchClosed
	c.err = nil

	if c.stmt != nil {
		_ = c.stmt.CloseCursor()
	}
}

func (c *Cursor) destroy() {
	if !c.IsOpen() {
		return
	}
	_ = c.stmt.Free()
	c.stmt = nil
	c.state = FetchIdle
}

// State returns the current fetch state.
func (c *Cursor) State() FetchState { return c.state }

// IsEmpty reports whether the current recordset has no row to read.
func (c *Cursor) IsEmpty() bool { return c.state == FetchEmpty }

// RecordsetIndex is the 0-based index of the current result set.
func (c *Cursor) RecordsetIndex() int { return c.recordset }

// Column is the number of columns read from the current row so far.
func (c *Cursor) Column() int { return c.readIndex }

// ParamCount is the number of parameters bound since the last Close.
func (c *Cursor) ParamCount() int { return c.paramIndex }

// Err returns the driver error that stopped the last MoveNext or
// MoveNextRecordset, if any.
func (c *Cursor) Err() *Error {
	if c.err == nil {
		return nil
	}
	return c.lastError()
}

// BindParam binds v to the next parameter position.
func (c *Cursor) BindParam(v Value) error {
	if !c.IsOpen() {
		return errs.New(errs.ErrKindInvalidInput, "cursor is not open")
	}
	typ, ok := v.Kind().NativeType()
	if !ok {
		return errs.New(errs.ErrKindInvalidInput, "cannot bind value of kind "+v.Kind().String())
	}

	c.paramIndex++
	if err := c.stmt.BindParam(c.paramIndex, typ, v); err != nil {
		return c.lastError()
	}
	return nil
}

func (c *Cursor) prepare(ctx context.Context, script string) error {
	return c.stmt.Prepare(ctx, script)
}

func (c *Cursor) execute(ctx context.Context) error {
	return c.stmt.Execute(ctx)
}

// fetch positions the cursor on the first or next row. A result set
// without columns or without further rows leaves the cursor Empty and
// returns ErrNoData.
func (c *Cursor) fetch() error {
	c.state = FetchError

	cols, err := c.stmt.NumResultCols()
	if err != nil {
		c.err = err
		return err
	}
	if cols == 0 {
		c.state = FetchEmpty
		return ErrNoData
	}

	err = c.stmt.Fetch()
	switch {
	case err == nil:
		c.readIndex = 0
		c.state = FetchOK
	case errors.Is(err, ErrNoData):
		c.readIndex = 0
		c.state = FetchEmpty
	default:
		c.err = err
	}
	return err
}

// MoveNext advances to the next row. It returns false at the end of the
// recordset or on a driver error; Err tells the two apart.
func (c *Cursor) MoveNext() bool {
	return c.fetch() == nil
}

// MoveNextRecordset advances to the next result set, positioned on its first
// row. It returns false when no further result sets exist.
func (c *Cursor) MoveNextRecordset() bool {
	if err := c.stmt.MoreResults(); err != nil {
		if !errors.Is(err, ErrNoData) {
			c.err = err
		}
		return false
	}

	if err := c.fetch(); err != nil && !errors.Is(err, ErrNoData) {
		return false
	}
	c.recordset++
	return true
}

// EachRow calls fn for the current row and every following row of the
// recordset. fn reads the columns it needs; EachRow stops at the first error.
func (c *Cursor) EachRow(fn func(*Cursor) error) error {
	if c.state != FetchOK {
		return nil
	}
	for {
		if err := fn(c); err != nil {
			return err
		}
		if !c.MoveNext() {
			return nil
		}
	}
}

func (c *Cursor) lastError() *Error {
	return ParseError(c.stmt.Diagnostic())
}

func (c *Cursor) nextColumn() int {
	c.readIndex++
	return c.readIndex
}

func (c *Cursor) readFixed(dst any) error {
	col := c.nextColumn()
	if _, err := c.stmt.GetData(col, dst); err != nil {
		return &Fault{Column: col, Err: c.lastError()}
	}
	return nil
}

// readVar reads a variable-length column. ok is false when the native size
// is not positive, in which case nothing was read.
func (c *Cursor) readVar() (data []byte, ok bool, err error) {
	col := c.nextColumn()

	size, err := c.stmt.ColumnSize(col)
	if err != nil || size <= 0 {
		return nil, false, nil
	}

	buf := make([]byte, size)
	n, err := c.stmt.GetData(col, buf)
	if err != nil {
		return nil, false, &Fault{Column: col, Err: c.lastError()}
	}
	return buf[:n], true, nil
}

func (c *Cursor) ReadInt8(dst *int8) error           { return c.readFixed(dst) }
func (c *Cursor) ReadInt16(dst *int16) error         { return c.readFixed(dst) }
func (c *Cursor) ReadInt32(dst *int32) error         { return c.readFixed(dst) }
func (c *Cursor) ReadInt64(dst *int64) error         { return c.readFixed(dst) }
func (c *Cursor) ReadUint8(dst *uint8) error         { return c.readFixed(dst) }
func (c *Cursor) ReadUint16(dst *uint16) error       { return c.readFixed(dst) }
func (c *Cursor) ReadUint32(dst *uint32) error       { return c.readFixed(dst) }
func (c *Cursor) ReadUint64(dst *uint64) error       { return c.readFixed(dst) }
func (c *Cursor) ReadBool(dst *bool) error           { return c.readFixed(dst) }
func (c *Cursor) ReadFloat32(dst *float32) error     { return c.readFixed(dst) }
func (c *Cursor) ReadFloat64(dst *float64) error     { return c.readFixed(dst) }
func (c *Cursor) ReadTimestamp(dst *time.Time) error { return c.readFixed(dst) }

// ReadText reads a text column. An empty or NULL column leaves dst as is.
func (c *Cursor) ReadText(dst *string) error {
	data, ok, err := c.readVar()
	if err != nil || !ok {
		return err
	}
	*dst = string(data)
	return nil
}

// ReadBinary reads a binary column into a freshly allocated slice. An empty
// or NULL column leaves dst as is.
func (c *Cursor) ReadBinary(dst *[]byte) error {
	data, ok, err := c.readVar()
	if err != nil || !ok {
		return err
	}
	*dst = data
	return nil
}
