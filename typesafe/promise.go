package typesafe

import (
	"context"
	"sync"
)

// Promise is the eventual result of an asynchronous call.
// It settles exactly once; later settle attempts are ignored.
type Promise struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewPromise returns a pending Promise and the function that settles it.
func NewPromise() (*Promise, func(value any, err error)) {
	p := &Promise{done: make(chan struct{})}

	return p, p.settle
}

// Resolved returns a Promise fulfilled with value.
func Resolved(value any) *Promise {
	p, settle := NewPromise()
	settle(value, nil)

	return p
}

// Rejected returns a Promise rejected with err.
func Rejected(err error) *Promise {
	p, settle := NewPromise()
	settle(nil, err)

	return p
}

// Async runs fn in a new goroutine and settles the returned Promise with its result.
// A panic in fn rejects the Promise with a *PanicError.
func Async(fn func() (any, error)) *Promise {
	p, settle := NewPromise()

	go func() {
		settle(protect(fn))
	}()

	return p
}

func (p *Promise) settle(value any, err error) {
	p.once.Do(func() {
		p.value, p.err = value, err
		close(p.done)
	})
}

// Done is closed once the Promise has settled.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the Promise settles or ctx is done.
// Giving up on ctx does not cancel the operation behind the Promise.
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}

	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func protect(fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, &PanicError{Value: r}
		}
	}()

	return fn()
}
