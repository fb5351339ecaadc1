// Package job runs work off the simulation goroutine.
//
// The simulation never blocks on a job. It submits work, keeps the Future,
// and polls Future.Result from an event effect until the result is ready.
package job

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned for jobs submitted after the manager was closed.
var ErrClosed = errors.New("job: manager is closed")

// Manager runs jobs on at most a fixed number of goroutines at a time.
type Manager struct {
	sem     *semaphore.Weighted
	workers int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewManager creates a manager that runs up to workers jobs concurrently.
// Values below one mean one worker.
func NewManager(workers int) *Manager {
	if workers < 1 {
		workers = 1
	}

	return &Manager{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
	}
}

// Workers returns the concurrency limit.
func (m *Manager) Workers() int {
	return m.workers
}

// Close waits for all submitted jobs to finish. Jobs submitted afterwards
// fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()
}

// Submit runs fn asynchronously and returns a future for its result. The
// job waits for a free worker; if ctx is cancelled first, the future
// completes with the context error and fn never runs.
func Submit[T any](
	ctx context.Context,
	m *Manager,
	fn func(ctx context.Context) (T, error),
) *Future[T] {
	f := newFuture[T]()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()

		var zero T
		f.complete(zero, ErrClosed)

		return f
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		if err := m.sem.Acquire(ctx, 1); err != nil {
			var zero T
			f.complete(zero, err)

			return
		}
		defer m.sem.Release(1)

		if err := ctx.Err(); err != nil {
			var zero T
			f.complete(zero, err)

			return
		}

		f.complete(run(ctx, fn))
	}()

	return f
}

func run[T any](
	ctx context.Context,
	fn func(ctx context.Context) (T, error),
) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job: panic: %v\n%s", r, debug.Stack())
		}
	}()

	return fn(ctx)
}
