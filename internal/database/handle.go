package database

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/koustreak/dbpool/internal/errs"
	"github.com/koustreak/dbpool/internal/logger"
)

// HandleState is the lifecycle state of a Handle.
type HandleState int32

const (
	StateUninitialized HandleState = iota
	StateFree
	StateUsed
)

func (s HandleState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateUsed:
		return "used"
	default:
		return "uninitialized"
	}
}

// Handle owns one native connection and its reusable execution cursor.
//
// A Handle has a single owner at a time; the pool hands it out and takes it
// back. It does no locking of its own.
type Handle struct {
	driver Driver
	env    Environment
	conn   Connection
	cursor Cursor
	state  atomic.Int32
	query  Query
	log    *logger.Logger
}

// NewHandle returns an uninitialized handle. Call Setup before use.
func NewHandle(driver Driver, log *logger.Logger) *Handle {
	return &Handle{
		driver: driver,
		log:    logger.OrNop(log).Component("handle"),
	}
}

// State returns the lifecycle state.
func (h *Handle) State() HandleState {
	return HandleState(h.state.Load())
}

// IsActive reports whether the handle is set up and owned by a pool.
func (h *Handle) IsActive() bool {
	return h.State() != StateUninitialized
}

// Cursor exposes the execution cursor, for callers binding parameters by
// hand instead of through a Query. Do not mix the two on one execution.
func (h *Handle) Cursor() *Cursor {
	return &h.cursor
}

func (h *Handle) markUsed() {
	h.state.Store(int32(StateUsed))
}

// markFree moves the handle from Used to Free. It fails for a handle that
// is not in use, which makes double releases harmless.
func (h *Handle) markFree() bool {
	return h.state.CompareAndSwap(int32(StateUsed), int32(StateFree))
}

func (h *Handle) markDiscarded() bool {
	return h.state.CompareAndSwap(int32(StateUsed), int32(StateUninitialized))
}

// Setup allocates the environment, the connection and the cursor, in that
// order, and connects. On failure everything allocated so far is released.
func (h *Handle) Setup(ctx context.Context, cfg *Config) error {
	env, err := h.driver.AllocEnv()
	if err != nil {
		h.log.ErrorWith("failed to allocate an environment", err, nil)
		return errs.Wrap(errs.ErrKindConnectionFailed, "allocate environment", err)
	}
	h.log.Trace("environment allocated")

	conn, err := env.AllocConn()
	if err != nil {
		_ = env.Free()
		h.log.ErrorWith("failed to allocate a connection", err, nil)
		return errs.Wrap(errs.ErrKindConnectionFailed, "allocate connection", err)
	}
	h.log.Trace("connection allocated")

	if err := configure(conn, cfg); err != nil {
		_ = conn.Free()
		_ = env.Free()
		h.log.ErrorWith("failed to set a connection attribute", err, nil)
		return err
	}

	if err := conn.Connect(ctx, cfg.ConnectionString); err != nil {
		de := ParseError(conn.Diagnostic())
		_ = conn.Free()
		_ = env.Free()
		h.log.ErrorWith("failed to connect", de, nil)
		return errs.Wrap(errs.ErrKindConnectionFailed, "connect", de)
	}

	stmt, err := conn.AllocStmt()
	if err != nil {
		_ = conn.Disconnect()
		_ = conn.Free()
		_ = env.Free()
		h.log.ErrorWith("failed to allocate a statement", err, nil)
		return errs.Wrap(errs.ErrKindConnectionFailed, "allocate statement", err)
	}

	h.env = env
	h.conn = conn
	h.cursor.open(stmt)
	h.log.Info("setup completed")
	return nil
}

type attrSetting struct {
	attr  ConnAttr
	value int
}

func configure(conn Connection, cfg *Config) error {
	attrs := []attrSetting{
		{AttrLoginTimeout, seconds(cfg.LoginTimeout)},
		{AttrConnectionTimeout, seconds(cfg.ConnectionTimeout)},
		{AttrAutocommit, 1},
	}
	if cfg.MultipleActiveResultSets {
		attrs = append(attrs, attrSetting{AttrMultipleActiveResultSets, 1})
	}

	for _, a := range attrs {
		if err := conn.SetAttr(a.attr, a.value); err != nil {
			return errs.Wrap(errs.ErrKindConnectionFailed, "set "+a.attr.String(), ParseError(conn.Diagnostic()))
		}
	}
	return nil
}

// Teardown releases the cursor, the connection and the environment. It is
// safe to call more than once.
func (h *Handle) Teardown() {
	h.state.Store(int32(StateUninitialized))
	h.query = nil

	h.cursor.destroy()

	if h.conn != nil {
		_ = h.conn.Disconnect()
		_ = h.conn.Free()
		h.conn = nil
	}

	if h.env != nil {
		_ = h.env.Free()
		h.env = nil
	}

	h.log.Info("teardown completed")
}

// BindQuery remembers q for the next Execute and binds its parameters.
func (h *Handle) BindQuery(q Query) error {
	if q == nil {
		return errs.New(errs.ErrKindInvalidInput, "nil query")
	}
	if !h.cursor.IsOpen() {
		return errs.New(errs.ErrKindInvalidInput, "handle is not set up")
	}

	h.query = q
	if err := q.Bind(&h.cursor); err != nil {
		h.query = nil
		h.cursor.Close()
		if de, ok := AsDriverError(err); ok {
			q.Consumer().HandleError(de)
			h.log.ErrorWith("bind failed", de, map[string]any{"script": q.Script()})
			return status("bind failed", de)
		}
		return err
	}

	h.log.With().Str("script", q.Script()).Int("params", h.cursor.ParamCount()).Logger().Debug("query bound")
	return nil
}

// Execute runs the bound query: prepare, execute, fetch, then hand every
// recordset to the query's consumer and finalize it.
//
// A nil error means the query ran; data problems the consumer was told
// about do not count as failures. A LinkFailure means the handle must not
// go back to its pool.
func (h *Handle) Execute(ctx context.Context) error {
	q := h.query
	if q == nil {
		return errs.New(errs.ErrKindInvalidInput, "no query bound")
	}
	h.query = nil

	consumer := q.Consumer()
	c := &h.cursor

	if err := c.prepare(ctx, q.Script()); err != nil {
		return h.fail("prepare failed", q)
	}
	if err := c.execute(ctx); err != nil {
		return h.fail("execute failed", q)
	}
	if err := c.fetch(); err != nil && !errors.Is(err, ErrNoData) {
		return h.fail("fetch failed", q)
	}

	parseEmpty := parsesEmpty(consumer)
	for {
		if !c.IsEmpty() || parseEmpty {
			if err := consumer.ParseRecordset(c); err != nil {
				if errors.Is(err, ErrStopParsing) {
					break
				}
				return h.parseFailed(q, err)
			}
		}
		if !c.MoveNextRecordset() {
			break
		}
	}

	if de := c.Err(); de != nil {
		consumer.HandleError(de)
		h.log.ErrorWith("recordset advance failed", de, map[string]any{"script": q.Script()})
		if de.IsCritical() {
			return status("advance recordset", de)
		}
	}

	consumer.Finalize()
	c.Close()

	h.log.Debug("execute completed")
	return nil
}

func (h *Handle) fail(msg string, q Query) error {
	de := h.cursor.lastError()
	q.Consumer().HandleError(de)
	h.cursor.Close()

	h.log.ErrorWith(msg, de, map[string]any{"script": q.Script()})
	return status(msg, de)
}

// parseFailed handles an error returned by ParseRecordset. A critical read
// fault aborts without Finalize. A normal fault is reported to the consumer
// and the execution still counts as done. Anything else is the consumer
// giving up on the query.
func (h *Handle) parseFailed(q Query, err error) error {
	var f *Fault
	if errors.As(err, &f) {
		if f.IsCritical() {
			h.log.ErrorWith("critical read fault", f, map[string]any{"script": q.Script()})
			return errs.Wrap(errs.ErrKindLinkFailure, "parse recordset", f)
		}
		q.Consumer().HandleError(f.Err)
		h.cursor.Close()
		h.log.ErrorWith("read fault", f, map[string]any{"script": q.Script()})
		return nil
	}

	h.cursor.Close()
	h.log.ErrorWith("consumer aborted", err, map[string]any{"script": q.Script()})
	return errs.Wrap(errs.ErrKindQueryFailed, "consumer aborted", err)
}
