package database

import "sync"

// IdleContainer holds the free handles of a pool. TryPop returns the handle
// to reuse next.
type IdleContainer interface {
	TryPop() (*Handle, bool)
	Put(h *Handle)
	Len() int
}

// Stack reuses the most recently released handle first, which keeps the
// number of warm connections low under moderate load.
//
// Stack is not safe for concurrent use. It is the default container for a
// pool confined to one caller.
type Stack struct {
	handles []*Handle
}

func (s *Stack) TryPop() (*Handle, bool) {
	n := len(s.handles)
	if n == 0 {
		return nil, false
	}
	h := s.handles[n-1]
	s.handles[n-1] = nil
	s.handles = s.handles[:n-1]
	return h, true
}

func (s *Stack) Put(h *Handle) {
	s.handles = append(s.handles, h)
}

func (s *Stack) Len() int {
	return len(s.handles)
}

// SyncStack is a Stack guarded by a mutex, for pools shared between callers.
type SyncStack struct {
	mu    sync.Mutex
	stack Stack
}

func (s *SyncStack) TryPop() (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.TryPop()
}

func (s *SyncStack) Put(h *Handle) {
	s.mu.Lock()
	s.stack.Put(h)
	s.mu.Unlock()
}

func (s *SyncStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Len()
}

// NewStack and NewSyncStack are IdleContainer factories for WithIdleContainer.
func NewStack() IdleContainer     { return &Stack{} }
func NewSyncStack() IdleContainer { return &SyncStack{} }
