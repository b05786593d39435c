package sqlbridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/errs"
)

var errFailed = errors.New("sqlbridge: call failed, see diagnostic")

// Driver is a database.Driver over a database/sql dialect. Every connection
// it hands out owns its own *sql.DB limited to one physical connection, so
// the pool above it stays the only pooling layer.
type Driver struct {
	dialect Dialect
}

// New returns a driver for d.
func New(d Dialect) *Driver {
	return &Driver{dialect: d}
}

// Open returns a driver for a registered backend.
func Open(backend database.Backend) (*Driver, error) {
	d, ok := Lookup(backend)
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("no dialect registered for backend %q (registered: %v)", backend, Backends()))
	}
	return New(d), nil
}

func (d *Driver) AllocEnv() (database.Environment, error) {
	return &env{dialect: d.dialect}, nil
}

type env struct {
	dialect Dialect
	freed   bool
}

func (e *env) AllocConn() (database.Connection, error) {
	if e.freed {
		return nil, errors.New("sqlbridge: environment is freed")
	}
	return &conn{dialect: e.dialect}, nil
}

func (e *env) Free() error {
	e.freed = true
	return nil
}

type conn struct {
	dialect Dialect
	attrs   Attrs
	db      *sql.DB
	sc      *sql.Conn
	diag    database.Diagnostic
}

func (c *conn) fail(d database.Diagnostic) error {
	c.diag = d
	return errFailed
}

func (c *conn) SetAttr(attr database.ConnAttr, value int) error {
	switch attr {
	case database.AttrLoginTimeout:
		c.attrs.LoginTimeout = time.Duration(value) * time.Second
	case database.AttrConnectionTimeout:
		c.attrs.ConnectionTimeout = time.Duration(value) * time.Second
	case database.AttrAutocommit:
		// database/sql runs every statement outside a transaction in
		// autocommit mode; there is nothing else to select.
		if value == 0 {
			return c.fail(diag(database.StateNotImplemented, "manual commit mode is not supported"))
		}
	case database.AttrMultipleActiveResultSets:
		if value != 0 && !c.dialect.SupportsMARS() {
			return c.fail(diag(database.StateNotImplemented, "multiple active result sets are not supported"))
		}
		c.attrs.MultipleActiveResultSets = value != 0
	default:
		return c.fail(diag("HY092", "invalid attribute "+attr.String()))
	}
	return nil
}

func (c *conn) Connect(ctx context.Context, connectionString string) error {
	db, err := c.dialect.Open(connectionString, c.attrs)
	if err != nil {
		return c.fail(c.connectDiag(err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if c.attrs.LoginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attrs.LoginTimeout)
		defer cancel()
	}

	sc, err := db.Conn(ctx)
	if err == nil {
		err = sc.PingContext(ctx)
		if err != nil {
			_ = sc.Close()
		}
	}
	if err != nil {
		_ = db.Close()
		return c.fail(c.connectDiag(err))
	}

	c.db, c.sc = db, sc
	return nil
}

// connectDiag reports connect failures the driver cannot classify as
// 08001 rather than as a general or query error.
func (c *conn) connectDiag(err error) database.Diagnostic {
	d := diagnose(c.dialect, err)
	if d.State == database.StateGeneralError || d.State == database.StateSyntaxOrAccess {
		d.State = database.StateConnectFailed
	}
	return d
}

func (c *conn) AllocStmt() (database.Statement, error) {
	if c.sc == nil {
		return nil, c.fail(diag(database.StateFunctionSequence, "not connected"))
	}
	return &stmt{conn: c}, nil
}

func (c *conn) Disconnect() error {
	var err error
	if c.sc != nil {
		err = c.sc.Close()
		c.sc = nil
	}
	if c.db != nil {
		err = errors.Join(err, c.db.Close())
		c.db = nil
	}
	return err
}

func (c *conn) Free() error {
	return c.Disconnect()
}

func (c *conn) Diagnostic() database.Diagnostic { return c.diag }
