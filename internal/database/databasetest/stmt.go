package databasetest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/koustreak/dbpool/internal/database"
)

type stmt struct {
	d      *Driver
	diag   database.Diagnostic
	script *Script
	text   string
	params []database.Value
	set    int // current recordset
	row    int // current row, -1 before the first fetch
	freed  bool
}

func (s *stmt) fail(diag database.Diagnostic) error {
	s.diag = diag
	return fmt.Errorf("%s: %s", diag.State, diag.Message)
}

func (s *stmt) Prepare(_ context.Context, text string) error {
	sc, ok := s.d.script(text)
	if !ok {
		return s.fail(DiagUnknownScript)
	}
	if sc.PrepareErr != nil {
		return s.fail(*sc.PrepareErr)
	}
	s.script = sc
	s.text = text
	return nil
}

func (s *stmt) BindParam(position int, _ database.NativeType, v database.Value) error {
	if position < 1 {
		return s.fail(database.Diagnostic{State: database.StateInvalidIndex, Message: "invalid parameter number"})
	}
	for len(s.params) < position {
		s.params = append(s.params, database.Value{})
	}
	s.params[position-1] = v
	return nil
}

func (s *stmt) Execute(context.Context) error {
	if s.script == nil {
		return s.fail(database.Diagnostic{State: database.StateFunctionSequence, Message: "not prepared"})
	}

	s.d.mu.Lock()
	forced := s.d.executeErr
	s.d.mu.Unlock()
	if forced != nil {
		return s.fail(*forced)
	}
	if s.script.ExecuteErr != nil {
		return s.fail(*s.script.ExecuteErr)
	}

	s.d.mu.Lock()
	s.d.executions = append(s.d.executions, Execution{
		Script: s.text,
		Params: append([]database.Value(nil), s.params...),
	})
	s.d.mu.Unlock()

	s.set, s.row = 0, -1
	return nil
}

func (s *stmt) current() *Recordset {
	if s.script == nil || s.set >= len(s.script.Recordsets) {
		return nil
	}
	return &s.script.Recordsets[s.set]
}

func (s *stmt) NumResultCols() (int, error) {
	rs := s.current()
	if rs == nil {
		return 0, nil
	}
	return rs.Columns, nil
}

func (s *stmt) Fetch() error {
	rs := s.current()
	if rs == nil {
		return database.ErrNoData
	}
	if s.set == 0 && s.row == -1 && s.script.FetchErr != nil {
		return s.fail(*s.script.FetchErr)
	}
	if s.row+1 >= len(rs.Rows) {
		s.row = len(rs.Rows)
		return database.ErrNoData
	}
	s.row++
	return nil
}

func (s *stmt) MoreResults() error {
	if s.script == nil {
		return database.ErrNoData
	}
	if s.set+1 >= len(s.script.Recordsets) {
		if s.script.MoreResultsErr != nil {
			return s.fail(*s.script.MoreResultsErr)
		}
		s.set = len(s.script.Recordsets)
		return database.ErrNoData
	}
	s.set++
	s.row = -1
	return nil
}

func (s *stmt) value(column int) (any, error) {
	rs := s.current()
	if rs == nil || s.row < 0 || s.row >= len(rs.Rows) {
		return nil, s.fail(DiagNoRow)
	}
	row := rs.Rows[s.row]
	if column < 1 || column > len(row) {
		return nil, s.fail(DiagBadColumn)
	}
	return row[column-1], nil
}

func (s *stmt) ColumnSize(column int) (int, error) {
	if s.script != nil {
		if n, ok := s.script.ColumnSize[column]; ok {
			return n, nil
		}
	}
	v, err := s.value(column)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case nil:
		return 0, nil
	case string:
		return len(v), nil
	case []byte:
		return len(v), nil
	default:
		return 8, nil
	}
}

func (s *stmt) GetData(column int, dst any) (int, error) {
	if s.script != nil {
		if diag, ok := s.script.ReadErr[column]; ok {
			return 0, s.fail(diag)
		}
	}
	v, err := s.value(column)
	if err != nil {
		return 0, err
	}

	n, ok := assign(dst, v)
	if !ok {
		return 0, s.fail(DiagBadCast)
	}
	return n, nil
}

func assign(dst, v any) (int, bool) {
	if buf, ok := dst.([]byte); ok {
		switch v := v.(type) {
		case string:
			return copy(buf, v), true
		case []byte:
			return copy(buf, v), true
		case nil:
			return 0, true
		}
		return 0, false
	}

	switch d := dst.(type) {
	case *bool:
		b, ok := v.(bool)
		*d = b
		return 0, ok
	case *float32:
		f, ok := v.(float64)
		*d = float32(f)
		return 0, ok
	case *float64:
		f, ok := v.(float64)
		*d = f
		return 0, ok
	case *time.Time:
		t, ok := v.(time.Time)
		*d = t
		return 0, ok
	}

	i, ok := v.(int64)
	if !ok {
		return 0, false
	}
	switch d := dst.(type) {
	case *int8:
		*d = int8(i)
	case *int16:
		*d = int16(i)
	case *int32:
		*d = int32(i)
	case *int64:
		*d = i
	case *uint8:
		*d = uint8(i)
	case *uint16:
		*d = uint16(i)
	case *uint32:
		*d = uint32(i)
	case *uint64:
		*d = uint64(i)
	default:
		return 0, false
	}
	return 0, true
}

func (s *stmt) CloseCursor() error {
	s.params = nil
	s.set, s.row = 0, -1
	s.d.CursorsShut.Add(1)
	return nil
}

func (s *stmt) Free() error {
	if s.freed {
		return errors.New("statement already freed")
	}
	s.freed = true
	s.d.Stmts.Add(-1)
	return nil
}

func (s *stmt) Diagnostic() database.Diagnostic { return s.diag }
