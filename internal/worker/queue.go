// Package worker runs queued queries on per-worker pools.
//
// Every Worker owns one pool in a shared Registry, keyed by its identity,
// and drains a shared Queue until it pops the shutdown sentinel:
//
//	reg := database.NewRegistry[uuid.UUID](drv, cfg)
//	q := worker.NewQueue()
//	g := worker.Start(ctx, 4, q, reg)
//	q.Put(query)
//	g.Stop()
//	err := g.Wait()
package worker

import (
	"sync"

	"github.com/koustreak/dbpool/internal/database"
)

// Queue is a FIFO of queries safe for concurrent producers and workers.
// A nil query is the shutdown sentinel: the worker that pops it exits.
type Queue struct {
	mu    sync.Mutex
	items []database.Query
}

func NewQueue() *Queue {
	return &Queue{}
}

// Put appends q. Put(nil) asks one worker to stop.
func (q *Queue) Put(query database.Query) {
	q.mu.Lock()
	q.items = append(q.items, query)
	q.mu.Unlock()
}

// TryPop removes the oldest entry without blocking. ok is false when the
// queue is empty; a nil query with ok true is the sentinel.
func (q *Queue) TryPop() (query database.Query, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	query = q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return query, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
