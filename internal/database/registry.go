package database

import "sync"

// Registry gives every caller its own Pool, created on first use from one
// shared Config. K is whatever identifies a caller: a worker ID, a tenant
// name, a goroutine-owned token.
//
// The map is the only state shared between callers. Lookups and traversals
// take a read lock; creation and destruction take the write lock.
type Registry[K comparable] struct {
	mu     sync.RWMutex
	pools  map[K]*Pool
	driver Driver
	cfg    Config
	opts   []Option
}

// NewRegistry returns an empty registry. opts apply to every pool it creates.
func NewRegistry[K comparable](driver Driver, cfg Config, opts ...Option) *Registry[K] {
	return &Registry[K]{
		pools:  make(map[K]*Pool),
		driver: driver,
		cfg:    cfg,
		opts:   opts,
	}
}

// GetOrCreate returns the pool of id, creating and initializing it if id has
// none yet.
func (r *Registry[K]) GetOrCreate(id K) (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[id]; ok {
		return p, nil
	}

	p := NewPool(r.driver, r.opts...)
	if err := p.Initialize(r.cfg); err != nil {
		return nil, err
	}
	r.pools[id] = p
	return p, nil
}

// Lookup returns the pool of id without creating one.
func (r *Registry[K]) Lookup(id K) (*Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[id]
	return p, ok
}

// Destroy finalizes and removes the pool of id. It reports whether id had one.
func (r *Registry[K]) Destroy(id K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[id]
	if !ok {
		return false
	}
	p.Finalize()
	delete(r.pools, id)
	return true
}

// Traverse calls fn for every pool. fn must not call back into r with a
// method that takes the write lock.
func (r *Registry[K]) Traverse(fn func(id K, p *Pool)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, p := range r.pools {
		fn(id, p)
	}
}

// Len returns the number of pools.
func (r *Registry[K]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Close finalizes and removes every pool.
func (r *Registry[K]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.pools {
		p.Finalize()
		delete(r.pools, id)
	}
}
