package job

import (
	"context"
	"sync"
)

// A Future holds the result of a job once it finished.
type Future[T any] struct {
	done chan struct{}
	once sync.Once

	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Ready returns a future that already holds v. It is useful for results that
// need no computation.
func Ready[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.complete(v, nil)

	return f
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the result is available.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the result without blocking. ok is false while the job is
// still running.
func (f *Future[T]) Result() (v T, ok bool, err error) {
	if !f.Ready() {
		var zero T
		return zero, false, nil
	}

	return f.value, true, f.err
}

// Wait blocks until the result is available or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
