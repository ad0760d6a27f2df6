package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// WorkFunc is a unit of work run by a [Queue].
type WorkFunc func(ctx context.Context) error

// Queue runs work concurrently with an optional concurrency bound and
// collects every failure.
type Queue struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	errs     []error
}

// NewQueue creates a Queue running at most maxConcurrent jobs at once.
// If maxConcurrent <= 0, concurrency is unlimited.
func NewQueue(maxConcurrent int) *Queue {
	q := &Queue{}
	if maxConcurrent > 0 {
		q.sem = make(chan struct{}, maxConcurrent)
	}
	return q
}

// Go launches fn in a new goroutine managed by the queue and returns a
// Result for tracking it individually.
func (q *Queue) Go(ctx context.Context, fn WorkFunc) *Result {
	ctx, cancel := context.WithCancel(ctx)
	r := &Result{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	q.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(r.done)
			q.wg.Done()
		}()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() { <-q.sem }()
			case <-ctx.Done():
				r.err = ctx.Err()
				q.recordErr(r.err)
				return
			}
		}

		if q.shutdown.Load() {
			r.err = ErrQueueShutdown
			q.recordErr(r.err)
			return
		}

		if r.err = fn(ctx); r.err != nil {
			q.recordErr(r.err)
		}
	}()

	return r
}

// Wait blocks until all work in the queue completes.
// Returns all errors joined via errors.Join.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown prevents queued work that has not started from running.
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}

// Result tracks one unit of work started by [Queue.Go].
type Result struct {
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

// Done returns a channel that is closed when the work completes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err blocks until the work completes and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Cancel cancels the work's context.
func (r *Result) Cancel() {
	r.cancel()
}
