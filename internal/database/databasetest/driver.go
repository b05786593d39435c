// Package databasetest provides an in-memory native driver whose results
// and failures are scripted by the test.
package databasetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koustreak/dbpool/internal/database"
)

// Diagnostics used by the scripted driver for its own failures.
var (
	DiagUnknownScript = database.Diagnostic{State: database.StateSyntaxOrAccess, Message: "unknown script"}
	DiagBadColumn     = database.Diagnostic{State: database.StateInvalidIndex, Message: "invalid column number"}
	DiagNoRow         = database.Diagnostic{State: database.StateInvalidCursor, Message: "no current row"}
	DiagBadCast       = database.Diagnostic{State: database.StateInvalidCast, Message: "invalid cast"}
	DiagLinkFailure   = database.Diagnostic{State: database.StateLinkFailure, Message: "communication link failure"}
)

// Recordset is one scripted result set. Row values are int64, float64,
// bool, string, []byte, time.Time or nil.
type Recordset struct {
	Columns int
	Rows    [][]any
}

// Script describes what running one script text does.
type Script struct {
	Recordsets []Recordset

	PrepareErr     *database.Diagnostic
	ExecuteErr     *database.Diagnostic
	FetchErr       *database.Diagnostic // first fetch of the first recordset
	MoreResultsErr *database.Diagnostic // advancing past the last recordset

	// ReadErr fails reads of the given 1-based column on every row.
	ReadErr map[int]database.Diagnostic
	// ColumnSize overrides the reported size of the given column.
	ColumnSize map[int]int
}

// Execution records one Execute call.
type Execution struct {
	Script string
	Params []database.Value
}

// Driver is a database.Driver backed by scripts registered with AddScript.
// It is safe for concurrent use; the handles it returns are not.
type Driver struct {
	mu         sync.Mutex
	scripts    map[string]*Script
	executions []Execution
	attrs      map[database.ConnAttr]int

	allocEnvErr  error
	attrErr      map[database.ConnAttr]database.Diagnostic
	connectErr   *database.Diagnostic
	executeErr   *database.Diagnostic
	connectDelay time.Duration

	// Live handle counts and call counters.
	Envs        atomic.Int32
	Conns       atomic.Int32
	Stmts       atomic.Int32
	Connects    atomic.Int32
	Disconnects atomic.Int32
	CursorsShut atomic.Int32
}

// New returns a driver without scripts.
func New() *Driver {
	return &Driver{
		scripts: make(map[string]*Script),
		attrs:   make(map[database.ConnAttr]int),
		attrErr: make(map[database.ConnAttr]database.Diagnostic),
	}
}

// AddScript registers the behavior of script text.
func (d *Driver) AddScript(text string, s *Script) {
	d.mu.Lock()
	d.scripts[text] = s
	d.mu.Unlock()
}

// FailAllocEnv makes AllocEnv return err.
func (d *Driver) FailAllocEnv(err error) {
	d.mu.Lock()
	d.allocEnvErr = err
	d.mu.Unlock()
}

// FailAttr makes setting attr fail with diag.
func (d *Driver) FailAttr(attr database.ConnAttr, diag database.Diagnostic) {
	d.mu.Lock()
	d.attrErr[attr] = diag
	d.mu.Unlock()
}

// FailConnect makes Connect fail with diag. nil restores it.
func (d *Driver) FailConnect(diag *database.Diagnostic) {
	d.mu.Lock()
	d.connectErr = diag
	d.mu.Unlock()
}

// FailExecute makes every Execute fail with diag regardless of the script.
// nil restores it.
func (d *Driver) FailExecute(diag *database.Diagnostic) {
	d.mu.Lock()
	d.executeErr = diag
	d.mu.Unlock()
}

// SlowConnect makes Connect take at least delay.
func (d *Driver) SlowConnect(delay time.Duration) {
	d.mu.Lock()
	d.connectDelay = delay
	d.mu.Unlock()
}

// Attr returns the last value set for attr on any connection.
func (d *Driver) Attr(attr database.ConnAttr) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.attrs[attr]
	return v, ok
}

// Executions returns every successful Execute so far, oldest first.
func (d *Driver) Executions() []Execution {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Execution(nil), d.executions...)
}

func (d *Driver) script(text string) (*Script, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.scripts[text]
	return s, ok
}

func (d *Driver) AllocEnv() (database.Environment, error) {
	d.mu.Lock()
	err := d.allocEnvErr
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	d.Envs.Add(1)
	return &env{d: d}, nil
}

type env struct {
	d     *Driver
	freed bool
}

func (e *env) AllocConn() (database.Connection, error) {
	e.d.Conns.Add(1)
	return &conn{d: e.d}, nil
}

func (e *env) Free() error {
	if e.freed {
		return errors.New("environment already freed")
	}
	e.freed = true
	e.d.Envs.Add(-1)
	return nil
}

type conn struct {
	d         *Driver
	diag      database.Diagnostic
	connected bool
	freed     bool
}

func (c *conn) SetAttr(attr database.ConnAttr, value int) error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()

	if diag, ok := c.d.attrErr[attr]; ok {
		c.diag = diag
		return fmt.Errorf("set %s", attr)
	}
	c.d.attrs[attr] = value
	return nil
}

func (c *conn) Connect(ctx context.Context, _ string) error {
	c.d.mu.Lock()
	diag, delay := c.d.connectErr, c.d.connectDelay
	c.d.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			c.diag = database.Diagnostic{State: database.StateTimeout, Message: ctx.Err().Error()}
			return ctx.Err()
		}
	}
	if diag != nil {
		c.diag = *diag
		return errors.New("connect")
	}
	c.connected = true
	c.d.Connects.Add(1)
	return nil
}

func (c *conn) AllocStmt() (database.Statement, error) {
	if !c.connected {
		c.diag = database.Diagnostic{State: database.StateFunctionSequence, Message: "not connected"}
		return nil, errors.New("alloc statement")
	}
	c.d.Stmts.Add(1)
	return &stmt{d: c.d}, nil
}

func (c *conn) Disconnect() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	c.d.Disconnects.Add(1)
	return nil
}

func (c *conn) Free() error {
	if c.freed {
		return errors.New("connection already freed")
	}
	c.freed = true
	c.d.Conns.Add(-1)
	return nil
}

func (c *conn) Diagnostic() database.Diagnostic { return c.diag }
