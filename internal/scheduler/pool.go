package scheduler

import "context"

// Pool is the shared execution-environment resource: a fixed number of
// permits, one per concurrently running job instance. A permit is held for
// an instance's entire step sequence and released afterwards. The pool is
// passed into schedulers explicitly; there is no ambient global pool.
type Pool struct {
	permits chan struct{}
}

// NewPool creates a pool with the given concurrency limit. Sizes below one
// are raised to one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{permits: make(chan struct{}, size)}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int {
	return cap(p.permits)
}

// Acquire blocks until a permit is free or the context is done.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit to the pool. Must be called exactly once per
// successful Acquire.
func (p *Pool) Release() {
	<-p.permits
}

// InUse returns the number of permits currently held.
func (p *Pool) InUse() int {
	return len(p.permits)
}
