package storage

import (
	"context"
	"time"
)

// Pool is a bounded connection pool. At most size connections exist at any
// moment; Acquire blocks up to the configured timeout when all of them are
// checked out. Connections are created lazily.
type Pool[T any] struct {
	factory func(ctx context.Context) (T, error)
	closer  func(T) error
	idle    chan T
	slots   chan struct{}
	timeout time.Duration
}

func NewPool[T any](size int, timeout time.Duration, factory func(ctx context.Context) (T, error), closer func(T) error) *Pool[T] {
	if size < 1 {
		size = 1
	}

	return &Pool[T]{
		factory: factory,
		closer:  closer,
		idle:    make(chan T, size),
		slots:   make(chan struct{}, size),
		timeout: timeout,
	}
}

// Acquire returns an idle connection, creates one when the pool is not yet
// full, or waits for a release. It fails with ErrAcquireTimeout when the
// wait exceeds the pool timeout.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	var zero T

	select {
	case item := <-p.idle:
		return item, nil
	default:
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case item := <-p.idle:
		return item, nil
	case p.slots <- struct{}{}:
		item, err := p.factory(ctx)
		if err != nil {
			<-p.slots
			return zero, err
		}
		return item, nil
	case <-timer.C:
		return zero, ErrAcquireTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Release returns a healthy connection to the pool.
func (p *Pool[T]) Release(item T) {
	select {
	case p.idle <- item:
	default:
		// pool already full; should not happen with slot accounting
		p.Discard(item)
	}
}

// Discard closes a broken connection and frees its slot so a replacement
// can be created.
func (p *Pool[T]) Discard(item T) {
	if p.closer != nil {
		_ = p.closer(item)
	}

	select {
	case <-p.slots:
	default:
	}
}

// Close drains and closes every idle connection.
func (p *Pool[T]) Close() {
	for {
		select {
		case item := <-p.idle:
			p.Discard(item)
		default:
			return
		}
	}
}
