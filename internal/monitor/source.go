package monitor

import (
	"fmt"
	"sort"

	"github.com/koustreak/dbpool/internal/database"
)

// PoolStats is the state of one caller's pool.
type PoolStats struct {
	ID      string `json:"id"`
	Running bool   `json:"running"`
	database.Stats
}

// Summary adds up the counters of every pool.
type Summary struct {
	Pools int `json:"pools"`
	database.Stats
}

// Source lists the pools to report on.
type Source interface {
	Pools() []PoolStats
}

// SourceFunc adapts a function to a Source.
type SourceFunc func() []PoolStats

func (f SourceFunc) Pools() []PoolStats { return f() }

// FromRegistry reports the pools of r, ordered by caller ID.
func FromRegistry[K comparable](r *database.Registry[K]) Source {
	return SourceFunc(func() []PoolStats {
		var list []PoolStats
		r.Traverse(func(id K, p *database.Pool) {
			list = append(list, PoolStats{
				ID:      fmt.Sprint(id),
				Running: p.Running(),
				Stats:   p.Stats(),
			})
		})
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		return list
	})
}

func summarize(pools []PoolStats) Summary {
	s := Summary{Pools: len(pools)}
	for _, p := range pools {
		s.Total += p.Total
		s.Used += p.Used
		s.Free += p.Free
	}
	return s
}
