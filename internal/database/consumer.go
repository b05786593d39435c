package database

import "errors"

// Consumer interprets the recordsets of one script. There is one Consumer
// implementation per distinct script and result shape.
//
// By default Execute skips recordsets without rows, so ParseRecordset only
// sees recordsets positioned on a row. A consumer that must see every
// recordset a script produces, empty ones included, implements
// EmptyRecordsetParser (or sets ConsumerFuncs.ParseEmpty).
type Consumer interface {
	// HandleError is told about every driver error raised while the query
	// runs, before Execute returns.
	HandleError(err *Error)

	// ParseRecordset reads the current recordset. The cursor is positioned
	// on its first row; use MoveNext or EachRow to walk the rest.
	// Returning ErrStopParsing ends the recordset loop early.
	ParseRecordset(c *Cursor) error

	// Finalize runs once after the last recordset was parsed.
	Finalize()
}

// EmptyRecordsetParser is implemented by consumers that want ParseRecordset
// called for recordsets without rows as well. Such consumers check
// Cursor.IsEmpty themselves.
type EmptyRecordsetParser interface {
	ParseEmptyRecordsets() bool
}

// ErrStopParsing is returned by ParseRecordset to skip the remaining
// recordsets. Finalize still runs and Execute succeeds.
var ErrStopParsing = errors.New("stop parsing")

// ConsumerFuncs adapts plain functions to a Consumer. Nil fields are no-ops.
type ConsumerFuncs struct {
	OnError     func(*Error)
	OnRecordset func(*Cursor) error
	OnFinalize  func()

	// ParseEmpty delivers empty recordsets to OnRecordset.
	ParseEmpty bool
}

func (f *ConsumerFuncs) HandleError(err *Error) {
	if f.OnError != nil {
		f.OnError(err)
	}
}

func (f *ConsumerFuncs) ParseRecordset(c *Cursor) error {
	if f.OnRecordset != nil {
		return f.OnRecordset(c)
	}
	return nil
}

func (f *ConsumerFuncs) Finalize() {
	if f.OnFinalize != nil {
		f.OnFinalize()
	}
}

func (f *ConsumerFuncs) ParseEmptyRecordsets() bool { return f.ParseEmpty }

func parsesEmpty(c Consumer) bool {
	p, ok := c.(EmptyRecordsetParser)
	return ok && p.ParseEmptyRecordsets()
}
