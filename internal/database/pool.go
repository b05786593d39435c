package database

import (
	"context"
	"sync/atomic"

	"github.com/koustreak/dbpool/internal/errs"
	"github.com/koustreak/dbpool/internal/logger"
)

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used by the pool and its handles.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pool) {
		p.log = logger.OrNop(l).Component("pool")
		p.handleLog = logger.OrNop(l)
	}
}

// WithIdleContainer replaces the default Stack. newIdle is called once per
// pool, so a Registry never shares a container between pools.
func WithIdleContainer(newIdle func() IdleContainer) Option {
	return func(p *Pool) {
		if newIdle != nil {
			p.idle = newIdle()
		}
	}
}

// Pool keeps idle handles for reuse and caps how many handles are open.
//
// Acquire never waits for capacity: when the cap is reached it fails with a
// PoolExhausted error. With the default Stack container a Pool must be used
// by one caller at a time; use WithIdleContainer(NewSyncStack) to share it.
type Pool struct {
	driver    Driver
	cfg       Config
	idle      IdleContainer
	monitor   Monitor
	running   atomic.Bool
	log       *logger.Logger
	handleLog *logger.Logger
}

// NewPool returns a pool that is not running yet. Call Initialize.
func NewPool(driver Driver, opts ...Option) *Pool {
	p := &Pool{
		driver:    driver,
		idle:      NewStack(),
		log:       logger.Nop(),
		handleLog: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize validates cfg and starts the pool.
func (p *Pool) Initialize(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if p.running.Load() {
		return errs.New(errs.ErrKindInvalidInput, "pool is already initialized")
	}

	p.cfg = cfg
	p.running.Store(true)

	p.log.With().
		Str("backend", string(cfg.Backend)).
		Int("max_handles", int(cfg.MaxHandleCount)).
		Logger().
		Info("pool initialized")
	return nil
}

// Running reports whether the pool accepts acquisitions.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// Config returns the settings the pool was initialized with.
func (p *Pool) Config() Config {
	return p.cfg
}

// Stats returns the pool's handle counters.
func (p *Pool) Stats() Stats {
	return p.monitor.Snapshot()
}

// Finalize stops the pool and tears down every idle handle. Handles in use
// are torn down when they are released.
func (p *Pool) Finalize() {
	if !p.running.Swap(false) {
		return
	}
	n := p.drain()
	p.log.With().Int("closed", n).Str("stats", p.Stats().String()).Logger().Info("pool finalized")
}

func (p *Pool) drain() int {
	n := 0
	for {
		h, ok := p.idle.TryPop()
		if !ok {
			return n
		}
		h.Teardown()
		p.monitor.cleanup()
		n++
	}
}

// Acquire returns an idle handle or sets up a new one.
//
// Errors: PoolClosed when the pool is not running, PoolExhausted when the
// handle cap is reached, ConnectionFailed when a new handle could not be
// set up.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	if !p.running.Load() {
		return nil, errs.New(errs.ErrKindPoolClosed, "pool is not running")
	}

	if h, ok := p.idle.TryPop(); ok {
		h.markUsed()
		p.monitor.allocate()
		return h, nil
	}

	if !p.monitor.reserve(p.cfg.MaxHandleCount) {
		p.log.With().Str("stats", p.Stats().String()).Logger().Warn("handle limit reached")
		return nil, errs.New(errs.ErrKindPoolExhausted, "handle limit reached")
	}

	h := NewHandle(p.driver, p.handleLog)
	if err := h.Setup(ctx, &p.cfg); err != nil {
		p.monitor.unreserve()
		return nil, err
	}

	h.markUsed()
	p.monitor.commit()

	p.log.With().Str("stats", p.Stats().String()).Logger().Debug("handle created")
	return h, nil
}

// Release hands h back. Releasing a handle that is not in use does nothing.
// After Finalize, released handles are torn down instead of kept.
func (p *Pool) Release(h *Handle) {
	if h == nil || !h.markFree() {
		return
	}

	if !p.running.Load() {
		h.Teardown()
		p.monitor.releaseAndCleanup()
		return
	}

	p.idle.Put(h)
	p.monitor.release()

	// Finalize may have drained the container between the check and Put.
	if !p.running.Load() {
		p.drain()
	}
}

// Discard tears down a handle in use instead of releasing it. Use it after
// an Execute that returned a LinkFailure.
func (p *Pool) Discard(h *Handle) {
	if h == nil || !h.markDiscarded() {
		return
	}
	h.Teardown()
	p.monitor.releaseAndCleanup()
	p.log.With().Str("stats", p.Stats().String()).Logger().Warn("handle discarded")
}
