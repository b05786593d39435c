package database

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_LIFO(t *testing.T) {
	for name, newIdle := range map[string]func() IdleContainer{
		"stack":      NewStack,
		"sync stack": NewSyncStack,
	} {
		t.Run(name, func(t *testing.T) {
			s := newIdle()
			a, b, c := &Handle{}, &Handle{}, &Handle{}

			_, ok := s.TryPop()
			assert.False(t, ok)

			s.Put(a)
			s.Put(b)
			s.Put(c)
			assert.Equal(t, 3, s.Len())

			for _, want := range []*Handle{c, b, a} {
				got, ok := s.TryPop()
				assert.True(t, ok)
				assert.Same(t, want, got)
			}
			assert.Zero(t, s.Len())
		})
	}
}

func TestSyncStack_Concurrent(t *testing.T) {
	s := NewSyncStack()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Put(&Handle{})
				s.TryPop()
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, s.Len())
}

func TestMonitor_Reserve(t *testing.T) {
	var m Monitor

	assert.True(t, m.reserve(2))
	m.commit()
	assert.True(t, m.reserve(2))
	assert.False(t, m.reserve(2))

	m.unreserve()
	assert.Equal(t, Stats{Total: 1, Used: 1}, m.Snapshot())

	m.release()
	assert.Equal(t, Stats{Total: 1, Free: 1}, m.Snapshot())
	m.allocate()
	m.releaseAndCleanup()
	assert.Equal(t, Stats{}, m.Snapshot())

	for i := 0; i < 100; i++ {
		assert.True(t, m.reserve(0), "0 means unbounded")
	}
}
