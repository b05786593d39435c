package sqlbridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/koustreak/dbpool/internal/database"
)

type stmt struct {
	conn     *conn
	script   string
	prepared *sql.Stmt
	args     []any
	rows     *sql.Rows
	cancel   context.CancelFunc
	cols     int
	row      []any // current row, nil when not positioned on one
	diag     database.Diagnostic
}

func (s *stmt) fail(d database.Diagnostic) error {
	s.diag = d
	return errFailed
}

func (s *stmt) failWith(err error) error {
	return s.fail(diagnose(s.conn.dialect, err))
}

func (s *stmt) Prepare(ctx context.Context, script string) error {
	if s.conn.sc == nil {
		return s.fail(diag(database.StateLinkUnusable, "connection is closed"))
	}
	s.closeResults()
	s.script = script

	if !s.conn.dialect.PrepareStatements() {
		return nil
	}
	p, err := s.conn.sc.PrepareContext(ctx, script)
	if err != nil {
		return s.failWith(err)
	}
	s.prepared = p
	return nil
}

func (s *stmt) BindParam(position int, _ database.NativeType, v database.Value) error {
	if position < 1 {
		return s.fail(diag(database.StateInvalidIndex, fmt.Sprintf("invalid parameter number %d", position)))
	}
	for len(s.args) < position {
		s.args = append(s.args, nil)
	}
	s.args[position-1] = bindArg(v)
	return nil
}

// bindArg converts v to a database/sql argument. database/sql refuses
// uint64 values above math.MaxInt64, so those travel as decimal text and
// the server converts them to the column type.
func bindArg(v database.Value) any {
	if v.Kind() == database.KindUint64 {
		if n := v.Any().(uint64); n > math.MaxInt64 {
			return strconv.FormatUint(n, 10)
		}
	}
	return v.Any()
}

func (s *stmt) Execute(ctx context.Context) error {
	if s.script == "" {
		return s.fail(diag(database.StateFunctionSequence, "no script prepared"))
	}
	s.closeRows()

	// database/sql closes the rows when the deadline passes, so the
	// connection timeout also bounds reading the results.
	if d := s.conn.attrs.ConnectionTimeout; d > 0 {
		ctx, s.cancel = context.WithTimeout(ctx, d)
	}

	var (
		rows *sql.Rows
		err  error
	)
	if s.prepared != nil {
		rows, err = s.prepared.QueryContext(ctx, s.args...)
	} else {
		rows, err = s.conn.sc.QueryContext(ctx, s.script, s.args...)
	}
	if err != nil {
		s.closeRows()
		return s.failWith(err)
	}

	s.rows = rows
	return s.loadColumns()
}

func (s *stmt) loadColumns() error {
	s.row = nil
	cols, err := s.rows.Columns()
	if err != nil {
		return s.failWith(err)
	}
	s.cols = len(cols)
	return nil
}

func (s *stmt) NumResultCols() (int, error) {
	if s.rows == nil {
		return 0, nil
	}
	return s.cols, nil
}

func (s *stmt) Fetch() error {
	if s.rows == nil || s.cols == 0 {
		return database.ErrNoData
	}
	if !s.rows.Next() {
		s.row = nil
		if err := s.rows.Err(); err != nil {
			return s.failWith(err)
		}
		return database.ErrNoData
	}

	values := make([]any, s.cols)
	dest := make([]any, s.cols)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		return s.failWith(err)
	}
	s.row = values
	return nil
}

func (s *stmt) MoreResults() error {
	if s.rows == nil {
		return database.ErrNoData
	}
	if !s.rows.NextResultSet() {
		if err := s.rows.Err(); err != nil {
			return s.failWith(err)
		}
		return database.ErrNoData
	}
	return s.loadColumns()
}

func (s *stmt) value(column int) (any, error) {
	if s.row == nil {
		return nil, s.fail(diag(database.StateInvalidCursor, "no current row"))
	}
	if column < 1 || column > len(s.row) {
		return nil, s.fail(diag(database.StateInvalidIndex, fmt.Sprintf("invalid column number %d", column)))
	}
	return s.row[column-1], nil
}

func (s *stmt) ColumnSize(column int) (int, error) {
	v, err := s.value(column)
	if err != nil {
		return 0, err
	}
	b, ok := asBytes(v)
	if !ok {
		return 0, s.fail(diag(database.StateInvalidCast, fmt.Sprintf("column %d has no byte representation", column)))
	}
	return len(b), nil
}

func (s *stmt) GetData(column int, dst any) (int, error) {
	v, err := s.value(column)
	if err != nil {
		return 0, err
	}

	if buf, ok := dst.([]byte); ok {
		b, ok := asBytes(v)
		if !ok {
			return 0, s.fail(diag(database.StateInvalidCast, fmt.Sprintf("column %d has no byte representation", column)))
		}
		return copy(buf, b), nil
	}

	if err := assign(dst, v); err != nil {
		var ce *convertError
		if errors.As(err, &ce) {
			return 0, s.fail(diag(ce.state, fmt.Sprintf("column %d: %s", column, ce.msg)))
		}
		return 0, s.failWith(err)
	}
	return 0, nil
}

func (s *stmt) closeRows() {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.cols = 0
	s.row = nil
}

func (s *stmt) closeResults() {
	s.closeRows()
	if s.prepared != nil {
		_ = s.prepared.Close()
		s.prepared = nil
	}
}

func (s *stmt) CloseCursor() error {
	s.closeResults()
	s.args = nil
	s.script = ""
	return nil
}

func (s *stmt) Free() error {
	return s.CloseCursor()
}

func (s *stmt) Diagnostic() database.Diagnostic { return s.diag }
