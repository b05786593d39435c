package database_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/database/databasetest"
	"github.com/koustreak/dbpool/internal/errs"
)

func newPool(t *testing.T, d *databasetest.Driver, limit int32, opts ...database.Option) *database.Pool {
	t.Helper()
	cfg := testConfig()
	cfg.MaxHandleCount = limit

	p := database.NewPool(d, opts...)
	require.NoError(t, p.Initialize(cfg))
	t.Cleanup(p.Finalize)
	return p
}

func assertBalanced(t *testing.T, p *database.Pool) {
	t.Helper()
	s := p.Stats()
	assert.Equal(t, s.Total, s.Used+s.Free, "counters out of balance: %s", s)
}

func TestPool_InitializeValidates(t *testing.T) {
	p := database.NewPool(databasetest.New())

	err := p.Initialize(database.Config{})
	assert.True(t, errs.IsInvalidInput(err))
	assert.False(t, p.Running())

	require.NoError(t, p.Initialize(testConfig()))
	assert.True(t, errs.IsInvalidInput(p.Initialize(testConfig())), "second initialize")
}

func TestPool_AcquireRelease(t *testing.T) {
	d := databasetest.New()
	p := newPool(t, d, 0)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, database.StateUsed, h.State())
	assert.Equal(t, database.Stats{Total: 1, Used: 1}, p.Stats())

	p.Release(h)
	assert.Equal(t, database.StateFree, h.State())
	assert.Equal(t, database.Stats{Total: 1, Free: 1}, p.Stats())

	again, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, h, again)
	assert.EqualValues(t, 1, d.Connects.Load(), "idle handle was not reused")
}

func TestPool_CounterInvariant(t *testing.T) {
	p := newPool(t, databasetest.New(), 5)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var held []*database.Handle
	for i := 0; i < 500; i++ {
		if len(held) == 0 || rng.Intn(2) == 0 {
			h, err := p.Acquire(ctx)
			if err != nil {
				require.True(t, errs.IsPoolExhausted(err))
			} else {
				held = append(held, h)
			}
		} else {
			n := rng.Intn(len(held))
			p.Release(held[n])
			held = append(held[:n], held[n+1:]...)
		}
		assertBalanced(t, p)
		assert.LessOrEqual(t, p.Stats().Total, int32(5))
	}
}

func TestPool_AdmissionBound(t *testing.T) {
	d := databasetest.New()
	p := newPool(t, d, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := p.Acquire(ctx)
		require.NoError(t, err)
	}

	h, err := p.Acquire(ctx)
	assert.Nil(t, h)
	assert.True(t, errs.IsPoolExhausted(err))
	assert.True(t, errs.IsNoConnection(err))
	assert.Equal(t, database.Stats{Total: 3, Used: 3}, p.Stats())
	assert.EqualValues(t, 3, d.Conns.Load())
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	p := newPool(t, databasetest.New(), 0)

	h, err := p.Acquire(context.Background())
	require.NoError(t, err)

	p.Release(h)
	p.Release(h)
	p.Release(nil)
	p.Release(database.NewHandle(databasetest.New(), nil))

	assert.Equal(t, database.Stats{Total: 1, Free: 1}, p.Stats())
}

func TestPool_LIFOReuse(t *testing.T) {
	p := newPool(t, databasetest.New(), 0)
	ctx := context.Background()

	a, err := p.Acquire(ctx)
	require.NoError(t, err)
	b, err := p.Acquire(ctx)
	require.NoError(t, err)

	p.Release(a)
	p.Release(b)

	first, err := p.Acquire(ctx)
	require.NoError(t, err)
	second, err := p.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, b, first)
	assert.Same(t, a, second)
}

func TestPool_SetupFailure(t *testing.T) {
	d := databasetest.New()
	d.FailConnect(diag(database.StateConnectFailed, "refused"))
	p := newPool(t, d, 1)

	h, err := p.Acquire(context.Background())
	assert.Nil(t, h)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Equal(t, database.Stats{}, p.Stats())

	d.FailConnect(nil)
	h, err = p.Acquire(context.Background())
	require.NoError(t, err, "failed setup must not hold a slot")
	assert.NotNil(t, h)
}

func TestPool_FinalizeDrainsIdleOnly(t *testing.T) {
	d := databasetest.New()
	p := newPool(t, d, 0)
	ctx := context.Background()

	var hs []*database.Handle
	for i := 0; i < 3; i++ {
		h, err := p.Acquire(ctx)
		require.NoError(t, err)
		hs = append(hs, h)
	}
	p.Release(hs[0])
	p.Release(hs[1])
	require.Equal(t, database.Stats{Total: 3, Used: 1, Free: 2}, p.Stats())

	p.Finalize()
	assert.False(t, p.Running())
	assert.Equal(t, database.Stats{Total: 1, Used: 1}, p.Stats())
	assert.EqualValues(t, 1, d.Conns.Load())
	assert.Equal(t, database.StateUninitialized, hs[0].State())
	assert.Equal(t, database.StateUsed, hs[2].State())

	_, err := p.Acquire(ctx)
	assert.True(t, errs.IsPoolClosed(err))

	p.Release(hs[2])
	assert.Equal(t, database.Stats{}, p.Stats())
	assert.EqualValues(t, 0, d.Conns.Load())
	assert.EqualValues(t, 0, d.Envs.Load())

	p.Finalize()
}

func TestPool_Discard(t *testing.T) {
	d := databasetest.New()
	p := newPool(t, d, 1)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)

	p.Discard(h)
	p.Discard(h)
	assert.Equal(t, database.Stats{}, p.Stats())
	assert.EqualValues(t, 0, d.Conns.Load())

	p.Release(h)
	assert.Equal(t, database.Stats{}, p.Stats())

	fresh, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, h, fresh)
}

func TestPool_SharedWithSyncStack(t *testing.T) {
	const limit = 4
	d := databasetest.New()
	p := newPool(t, d, limit, database.WithIdleContainer(database.NewSyncStack))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h, err := p.Acquire(context.Background())
				if err != nil {
					assert.True(t, errs.IsPoolExhausted(err))
					continue
				}
				assert.LessOrEqual(t, p.Stats().Total, int32(limit))
				p.Release(h)
			}
		}()
	}
	wg.Wait()

	s := p.Stats()
	assert.Zero(t, s.Used)
	assert.Equal(t, s.Total, s.Free)
	assert.LessOrEqual(t, s.Total, int32(limit))
	assert.EqualValues(t, s.Total, d.Conns.Load())
}

func TestPool_ExecuteThroughPool(t *testing.T) {
	d := databasetest.New()
	d.AddScript("{ call P_RANK_R(?) }", &databasetest.Script{
		Recordsets: []databasetest.Recordset{{Columns: 2, Rows: [][]any{{int64(1), "ann"}}}},
	})
	p := newPool(t, d, 1)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)

	r := &recorder{}
	q, err := database.NewQuery("{ call P_RANK_R(?) }", r, database.Uint16(10))
	require.NoError(t, err)
	require.NoError(t, h.BindQuery(q))
	require.NoError(t, h.Execute(ctx))
	p.Release(h)

	assert.Equal(t, [][]any{{int64(1), "ann"}}, r.rows)
	assert.Equal(t, "1 total, 1 free, 0 used", p.Stats().String())
}
