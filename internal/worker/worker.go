package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/errs"
	"github.com/koustreak/dbpool/internal/logger"
)

const DefaultIdleBackoff = 10 * time.Millisecond

// ResultHook is called after every query a worker ran, with the status
// Execute returned.
type ResultHook func(q database.Query, err error)

type Option func(*Worker)

// WithResultHook reports the outcome of every query to fn.
func WithResultHook(fn ResultHook) Option {
	return func(w *Worker) { w.hook = fn }
}

// WithIdleBackoff sets how long an idle worker sleeps between polls.
func WithIdleBackoff(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.backoff = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(w *Worker) { w.log = logger.OrNop(l) }
}

// Worker is one caller: it owns the registry entry for its ID and runs the
// queries it pops one at a time.
type Worker struct {
	id       uuid.UUID
	queue    *Queue
	registry *database.Registry[uuid.UUID]
	backoff  time.Duration
	hook     ResultHook
	log      *logger.Logger
}

// New returns a worker with a fresh random identity.
func New(queue *Queue, registry *database.Registry[uuid.UUID], opts ...Option) *Worker {
	w := &Worker{
		id:       uuid.New(),
		queue:    queue,
		registry: registry,
		backoff:  DefaultIdleBackoff,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.Component("worker").With().Str("worker_id", w.id.String()).Logger()
	return w
}

func (w *Worker) ID() uuid.UUID { return w.id }

// Run polls the queue until it pops the sentinel or ctx is done. The
// worker's pool is created on entry and destroyed on exit.
func (w *Worker) Run(ctx context.Context) error {
	pool, err := w.registry.GetOrCreate(w.id)
	if err != nil {
		w.log.ErrorWith("failed to create pool", err, nil)
		return err
	}
	defer w.registry.Destroy(w.id)
	w.log.Info("worker started")

	idle := time.NewTimer(w.backoff)
	defer idle.Stop()

	for {
		q, ok := w.queue.TryPop()
		if !ok {
			idle.Reset(w.backoff)
			select {
			case <-ctx.Done():
				w.log.Info("worker cancelled")
				return nil
			case <-idle.C:
			}
			continue
		}
		if q == nil {
			w.log.Info("worker stopped")
			return nil
		}

		err := w.run(ctx, pool, q)
		if w.hook != nil {
			w.hook(q, err)
		}
	}
}

// run executes one query on a pooled handle. A handle whose link failed is
// discarded instead of going back to the pool.
func (w *Worker) run(ctx context.Context, pool *database.Pool, q database.Query) error {
	h, err := pool.Acquire(ctx)
	if err != nil {
		w.log.ErrorWith("acquire failed", err, map[string]any{"script": q.Script()})
		return err
	}

	err = h.BindQuery(q)
	if err == nil {
		err = h.Execute(ctx)
	}

	if errs.IsLinkFailure(err) {
		pool.Discard(h)
	} else {
		pool.Release(h)
	}
	return err
}
