// Package sqlbridge implements the native driver boundary on top of
// database/sql. Each backend plugs in through a Dialect that knows how to
// open the backend's connector and how to turn its errors into SQLSTATE
// diagnostics.
package sqlbridge

import (
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/koustreak/dbpool/internal/database"
)

// Attrs are the connection attributes collected before Connect.
type Attrs struct {
	LoginTimeout             time.Duration
	ConnectionTimeout        time.Duration
	MultipleActiveResultSets bool
}

// Dialect adapts one database/sql driver.
type Dialect interface {
	// Open returns a handle for connectionString with attrs applied.
	// It must not connect yet.
	Open(connectionString string, attrs Attrs) (*sql.DB, error)

	// Diagnose maps a driver error to a diagnostic. A zero State leaves
	// the error to the generic mapping.
	Diagnose(err error) database.Diagnostic

	// PrepareStatements reports whether scripts go through a server-side
	// prepare. Dialects running multi-statement scripts return false.
	PrepareStatements() bool

	// SupportsMARS reports whether several result sets may be pending on
	// one connection.
	SupportsMARS() bool
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[database.Backend]Dialect)
)

// Register makes a dialect available under backend. It panics if called
// twice for the same backend or with a nil dialect.
func Register(backend database.Backend, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()

	if d == nil {
		panic("sqlbridge: Register dialect is nil")
	}
	if _, dup := dialects[backend]; dup {
		panic("sqlbridge: Register called twice for backend " + string(backend))
	}
	dialects[backend] = d
}

// Lookup returns the dialect registered under backend.
func Lookup(backend database.Backend) (Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[backend]
	return d, ok
}

// Backends returns the registered backends in sorted order.
func Backends() []database.Backend {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()

	list := make([]database.Backend, 0, len(dialects))
	for b := range dialects {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}
