package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConn struct {
	id     int
	closed bool
}

func newTestPool(size int, timeout time.Duration) (*Pool[*testConn], *int) {
	created := 0
	factory := func(ctx context.Context) (*testConn, error) {
		created++
		return &testConn{id: created}, nil
	}
	closer := func(c *testConn) error {
		c.closed = true
		return nil
	}
	return NewPool(size, timeout, factory, closer), &created
}

func TestPool_CreatesLazilyUpToSize(t *testing.T) {
	pool, created := newTestPool(3, 50*time.Millisecond)
	ctx := context.Background()

	var conns []*testConn
	for i := 0; i < 3; i++ {
		c, err := pool.Acquire(ctx)
		require.NoError(t, err)
		conns = append(conns, c)
	}

	assert.Equal(t, 3, *created)

	_, err := pool.Acquire(ctx)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	for _, c := range conns {
		pool.Release(c)
	}
}

func TestPool_ReusesReleasedConnections(t *testing.T) {
	pool, created := newTestPool(1, 50*time.Millisecond)
	ctx := context.Background()

	first, err := pool.Acquire(ctx)
	require.NoError(t, err)
	pool.Release(first)

	second, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, *created)
}

func TestPool_AcquireWaitsForRelease(t *testing.T) {
	pool, _ := newTestPool(1, time.Second)
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		pool.Release(held)
	}()

	got, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, held, got)
}

func TestPool_DiscardFreesSlot(t *testing.T) {
	pool, created := newTestPool(1, 50*time.Millisecond)
	ctx := context.Background()

	broken, err := pool.Acquire(ctx)
	require.NoError(t, err)
	pool.Discard(broken)
	assert.True(t, broken.closed)

	replacement, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, broken, replacement)
	assert.Equal(t, 2, *created)
}

func TestPool_FactoryErrorFreesSlot(t *testing.T) {
	calls := 0
	pool := NewPool(1, 50*time.Millisecond, func(ctx context.Context) (*testConn, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("dial failed")
		}
		return &testConn{id: calls}, nil
	}, nil)
	ctx := context.Background()

	_, err := pool.Acquire(ctx)
	require.Error(t, err)

	c, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestPool_ContextCancellation(t *testing.T) {
	pool, _ := newTestPool(1, time.Minute)

	_, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
