// Package concurrency provides the two primitives the module hands to
// consumers: a counting permit with FIFO wake order, and a bounded parallel
// map that preserves input order.
package concurrency

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Permit is a counting permit. Acquire blocks when no permits are free;
// waiters are woken strictly in arrival order.
type Permit struct {
	mu      sync.Mutex
	free    int
	waiters []chan struct{}
}

// NewPermit creates a permit with n slots. n must be positive.
func NewPermit(n int) *Permit {
	if n <= 0 {
		panic("concurrency: permit size must be positive")
	}
	return &Permit{free: n}
}

// Acquire takes one permit, blocking until one is free or ctx is done.
func (p *Permit) Acquire(ctx context.Context) error {
	p.mu.Lock()
	if p.free > 0 {
		p.free--
		p.mu.Unlock()
		return nil
	}
	ch := make(chan struct{}, 1)
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		for i, w := range p.waiters {
			if w == ch {
				p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
				p.mu.Unlock()
				return ctx.Err()
			}
		}
		p.mu.Unlock()
		// Already woken: the permit was handed to us concurrently with
		// cancellation. Pass it on so it is not lost.
		p.Release()
		return ctx.Err()
	}
}

// TryAcquire takes a permit without blocking.
func (p *Permit) TryAcquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.free > 0 && len(p.waiters) == 0 {
		p.free--
		return true
	}
	return false
}

// Release returns one permit, waking the oldest waiter first.
func (p *Permit) Release() {
	p.mu.Lock()
	if len(p.waiters) > 0 {
		ch := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		ch <- struct{}{}
		return
	}
	p.free++
	p.mu.Unlock()
}

// ParallelMap applies f to every item with at most limit invocations in
// flight, returning results in input order. The first error cancels the
// remaining work and is returned. limit <= 0 means unbounded.
func ParallelMap[T, U any](ctx context.Context, limit int, items []T, f func(context.Context, T) (U, error)) ([]U, error) {
	results := make([]U, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			out, err := f(ctx, item)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
