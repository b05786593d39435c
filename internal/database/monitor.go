package database

import (
	"fmt"
	"sync/atomic"
)

// Monitor counts the handles of one pool. total == used + free whenever no
// Acquire, Release or Discard is in progress.
type Monitor struct {
	total atomic.Int32
	used  atomic.Int32
	free  atomic.Int32
}

// Stats is a point-in-time copy of a Monitor.
type Stats struct {
	Total int32 `json:"total"`
	Used  int32 `json:"used"`
	Free  int32 `json:"free"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%d total, %d free, %d used", s.Total, s.Free, s.Used)
}

// reserve counts a handle about to be set up. It fails when limit > 0 and
// total has reached limit. The caller follows up with commit or unreserve.
func (m *Monitor) reserve(limit int32) bool {
	for {
		t := m.total.Load()
		if limit > 0 && t >= limit {
			return false
		}
		if m.total.CompareAndSwap(t, t+1) {
			return true
		}
	}
}

// commit counts a reserved handle as used.
func (m *Monitor) commit() {
	m.used.Add(1)
}

func (m *Monitor) unreserve() {
	m.total.Add(-1)
}

// allocate moves one handle from free to used.
func (m *Monitor) allocate() {
	m.free.Add(-1)
	m.used.Add(1)
}

// release moves one handle from used to free.
func (m *Monitor) release() {
	m.used.Add(-1)
	m.free.Add(1)
}

// cleanup forgets one free handle.
func (m *Monitor) cleanup() {
	m.free.Add(-1)
	m.total.Add(-1)
}

// releaseAndCleanup forgets one used handle.
func (m *Monitor) releaseAndCleanup() {
	m.release()
	m.cleanup()
}

func (m *Monitor) Total() int32 { return m.total.Load() }
func (m *Monitor) Used() int32  { return m.used.Load() }
func (m *Monitor) Free() int32  { return m.free.Load() }

// Snapshot returns the current counters.
func (m *Monitor) Snapshot() Stats {
	return Stats{
		Total: m.total.Load(),
		Used:  m.used.Load(),
		Free:  m.free.Load(),
	}
}
