package worker

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/koustreak/dbpool/internal/database"
)

// Group is a fixed set of workers draining one queue.
type Group struct {
	queue   *Queue
	workers []*Worker
	eg      *errgroup.Group
}

// Start launches n workers. A worker that cannot create its pool cancels
// the others; Wait reports its error.
func Start(ctx context.Context, n int, queue *Queue, registry *database.Registry[uuid.UUID], opts ...Option) *Group {
	eg, ctx := errgroup.WithContext(ctx)
	g := &Group{queue: queue, eg: eg}

	for i := 0; i < n; i++ {
		w := New(queue, registry, opts...)
		g.workers = append(g.workers, w)
		eg.Go(func() error { return w.Run(ctx) })
	}
	return g
}

func (g *Group) Workers() []*Worker {
	return append([]*Worker(nil), g.workers...)
}

// Stop enqueues one sentinel per worker. Queries already queued run first.
func (g *Group) Stop() {
	for range g.workers {
		g.queue.Put(nil)
	}
}

// Wait blocks until every worker has exited.
func (g *Group) Wait() error {
	return g.eg.Wait()
}
