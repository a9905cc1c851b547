package future

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInterrupted is returned by the await methods when the future was
	// cancelled with interruption.
	ErrInterrupted = errors.New("future: interrupted")

	// ErrCancelled is returned when the future was cancelled without
	// interruption and no late result has landed.
	ErrCancelled = errors.New("future: cancelled")

	// ErrTimeout is returned by AwaitTimeout when the deadline elapses first.
	ErrTimeout = errors.New("future: timed out")
)

// State represents the lifecycle state of a Future
type State int

const (
	// Pending futures have no outcome yet.
	Pending State = iota
	// Done futures hold a value or a failure.
	Done
	// Cancelled futures were cancelled before an outcome was recorded.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Future is a single-assignment result container. One writer resolves it
// with TrySet or Fail; any number of goroutines may wait on it.
type Future[T any] struct {
	id string

	mu          sync.Mutex
	state       State
	value       T
	err         error
	cancelled   bool
	interrupted bool

	done   chan struct{}
	closed bool
}

// New creates a pending future.
func New[T any]() *Future[T] {
	return &Future[T]{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// ID returns the future's unique identifier.
func (f *Future[T]) ID() string {
	return f.id
}

// wake releases every waiter. Must be called with f.mu held.
func (f *Future[T]) wake() {
	if !f.closed {
		f.closed = true
		close(f.done)
	}
}

// TrySet resolves the future with v. It returns false if the future already
// holds an outcome, or if it was cancelled with interruption; in the latter
// case waiters are still woken but v is discarded. A future cancelled without
// interruption still accepts a late value.
func (f *Future[T]) TrySet(v T) bool {
	return f.complete(v, nil)
}

// Fail resolves the future with an error outcome under the same rules as
// TrySet.
func (f *Future[T]) Fail(err error) bool {
	var zero T
	return f.complete(zero, err)
}

func (f *Future[T]) complete(v T, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelled && f.interrupted {
		f.wake()
		return false
	}
	if f.state == Done {
		return false
	}

	f.value = v
	f.err = err
	f.state = Done
	f.wake()
	return true
}

// Cancel moves a pending future to Cancelled and wakes all waiters. It
// returns false if the future is no longer pending. Cancelling never stops an
// invocation that is already running; it only changes what waiters observe.
func (f *Future[T]) Cancel(withInterrupt bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Pending {
		return false
	}
	f.state = Cancelled
	f.cancelled = true
	f.interrupted = withInterrupt
	f.wake()
	return true
}

// Done returns a channel that is closed once the future leaves Pending.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// State returns the current state.
func (f *Future[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsDone reports whether a value or failure has been recorded.
func (f *Future[T]) IsDone() bool {
	return f.State() == Done
}

// IsCancelled reports whether Cancel succeeded on this future, even if a
// late value landed afterwards.
func (f *Future[T]) IsCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// Interrupted reports the withInterrupt flag recorded at cancellation.
func (f *Future[T]) Interrupted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interrupted
}

// Await blocks until the future is resolved or cancelled.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.outcome()
}

// AwaitTimeout is Await bounded by d. It returns ErrTimeout if the future is
// still pending when d elapses.
func (f *Future[T]) AwaitTimeout(d time.Duration) (T, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.outcome()
	case <-timer.C:
		// The future may have completed at the same instant.
		select {
		case <-f.done:
			return f.outcome()
		default:
		}
		var zero T
		return zero, ErrTimeout
	}
}

// AwaitContext is Await bounded by ctx. It returns ctx.Err() if the context
// ends first.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.outcome()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) outcome() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero T
	switch {
	case f.cancelled && f.interrupted:
		return zero, ErrInterrupted
	case f.state == Done:
		return f.value, f.err
	default:
		return zero, ErrCancelled
	}
}
