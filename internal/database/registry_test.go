package database_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/databasetest"
	"github.com/koustreak/dbpool/internal/errs"
)

func TestRegistry_GetOrCreateIsIdempotent(t *testing.T) {
	r := database.NewRegistry[string](databasetest.New(), testConfig())
	defer r.Close()

	a, err := r.GetOrCreate("worker-1")
	require.NoError(t, err)
	b, err := r.GetOrCreate("worker-1")
	require.NoError(t, err)
	c, err := r.GetOrCreate("worker-2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.True(t, a.Running())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_LookupNeverCreates(t *testing.T) {
	r := database.NewRegistry[int](databasetest.New(), testConfig())

	p, ok := r.Lookup(7)
	assert.False(t, ok)
	assert.Nil(t, p)
	assert.Zero(t, r.Len())

	created, err := r.GetOrCreate(7)
	require.NoError(t, err)
	found, ok := r.Lookup(7)
	assert.True(t, ok)
	assert.Same(t, created, found)
}

func TestRegistry_DestroyThenCreate(t *testing.T) {
	d := databasetest.New()
	r := database.NewRegistry[uuid.UUID](d, testConfig())
	id := uuid.New()

	old, err := r.GetOrCreate(id)
	require.NoError(t, err)
	h, err := old.Acquire(context.Background())
	require.NoError(t, err)
	old.Release(h)
	require.Equal(t, int32(1), old.Stats().Total)

	assert.True(t, r.Destroy(id))
	assert.False(t, r.Destroy(id))
	assert.False(t, old.Running())
	assert.EqualValues(t, 0, d.Conns.Load())

	fresh, err := r.GetOrCreate(id)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, database.Stats{}, fresh.Stats())
}

func TestRegistry_InvalidConfig(t *testing.T) {
	r := database.NewRegistry[string](databasetest.New(), database.Config{})

	p, err := r.GetOrCreate("a")
	assert.Nil(t, p)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Zero(t, r.Len())
}

func TestRegistry_Traverse(t *testing.T) {
	r := database.NewRegistry[string](databasetest.New(), testConfig())
	defer r.Close()

	for _, id := range []string{"a", "b", "c"} {
		p, err := r.GetOrCreate(id)
		require.NoError(t, err)
		_, err = p.Acquire(context.Background())
		require.NoError(t, err)
	}

	seen := map[string]int32{}
	r.Traverse(func(id string, p *database.Pool) {
		seen[id] = p.Stats().Used
	})
	assert.Equal(t, map[string]int32{"a": 1, "b": 1, "c": 1}, seen)
}

func TestRegistry_ConcurrentCallers(t *testing.T) {
	d := databasetest.New()
	d.AddScript("SELECT ?", &databasetest.Script{
		Recordsets: []databasetest.Recordset{{Columns: 2, Rows: [][]any{{int64(1), "x"}}}},
	})
	r := database.NewRegistry[int](d, testConfig())

	var wg sync.WaitGroup
	for id := 0; id < 8; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p, err := r.GetOrCreate(id)
			if !assert.NoError(t, err) {
				return
			}

			for i := 0; i < 20; i++ {
				h, err := p.Acquire(context.Background())
				if !assert.NoError(t, err) {
					return
				}

				q, err := database.NewQuery("SELECT ?", &recorder{}, database.Int32(int32(i)))
				assert.NoError(t, err)
				assert.NoError(t, h.BindQuery(q))
				assert.NoError(t, h.Execute(context.Background()))
				p.Release(h)
			}

			same, _ := r.GetOrCreate(id)
			assert.Same(t, p, same)
			assert.True(t, r.Destroy(id))
		}(id)
	}
	wg.Wait()

	assert.Zero(t, r.Len())
	assert.Len(t, d.Executions(), 8*20)
	assert.EqualValues(t, 0, d.Conns.Load())
}
