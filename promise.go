package rubix

import (
	"context"
	"fmt"
	"sync"
)

// Promise is a handle to a value that is not yet available. It settles
// exactly once, either with a value or with an error; later attempts to
// settle it are ignored.
type Promise[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Go runs fn on its own goroutine and returns a promise for its result.
// A panic inside fn rejects the promise instead of crashing the process.
func Go[T any](fn func() (T, error)) *Promise[T] {
	p := newPromise[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				p.settle(zero, fmt.Errorf("rubix: async call panicked: %v", r))
			}
		}()
		v, err := fn()
		p.settle(v, err)
	}()
	return p
}

// Resolved returns a promise already fulfilled with v.
func Resolved[T any](v T) *Promise[T] {
	p := newPromise[T]()
	p.settle(v, nil)
	return p
}

// Rejected returns a promise already failed with err.
func Rejected[T any](err error) *Promise[T] {
	p := newPromise[T]()
	var zero T
	p.settle(zero, err)
	return p
}

// settle stores the outcome and releases waiters. It reports whether this
// call was the one that settled the promise.
func (p *Promise[T]) settle(v T, err error) bool {
	settled := false
	p.once.Do(func() {
		p.value = v
		p.err = err
		close(p.done)
		settled = true
	})
	return settled
}

// Done is closed once the promise has settled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the promise settles and returns its outcome.
func (p *Promise[T]) Wait() (T, error) {
	<-p.done
	return p.value, p.err
}

// WaitContext blocks until the promise settles or ctx is done. Giving up on
// the wait does not stop the underlying call.
func (p *Promise[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
