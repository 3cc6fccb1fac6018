// Package resource provides an asynchronous data-fetching primitive built
// on the ripple reactive graph. A Resource drives a fetch lifecycle
// (loading, refreshing, error) through three reactive signals and
// guarantees at most one in-flight fetch: starting a new fetch cancels the
// previous one, and a superseded completion never mutates state.
package resource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ripple-dev/ripple/pkg/metrics"
	"github.com/ripple-dev/ripple/pkg/ripple"
)

// Status represents the current state of a resource.
type Status int

const (
	Idle       Status = iota // No fetch started or a cold fetch was cancelled
	Loading                  // Fetch in progress, no prior value
	Success                  // Last fetch completed with a value
	Refreshing               // Fetch in progress with a prior value retained
	Error                    // Last fetch failed
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Refreshing:
		return "refreshing"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Loader produces a resource's value. It must honor ctx promptly; a loader
// cancelled by a superseding fetch should return an error wrapping
// context.Canceled, which the resource treats as a control-flow signal
// rather than a failure.
type Loader[T any] func(ctx context.Context) (T, error)

// Resource manages asynchronous data fetching and its reactive state.
// It exclusively owns its three signals; they are disposed together with
// the resource.
type Resource[T any] struct {
	loader Loader[T]

	status *ripple.Signal[Status]
	value  *ripple.Signal[T]
	err    *ripple.Signal[error]

	// mu guards the fetch bookkeeping below.
	mu       sync.Mutex
	cancel   context.CancelFunc
	gen      uint64 // bumped per fetch attempt; stale completions are discarded
	warm     bool   // a successful value exists
	disposed bool

	// extras are disposed with the resource (keyed variant's memo/watcher).
	extras []func()
}

// New creates a Resource and starts the initial fetch immediately.
func New[T any](loader Loader[T]) *Resource[T] {
	r := newResource(loader)
	r.Refetch()
	return r
}

// NewDeferred creates a Resource in the Idle state. No fetch runs until
// Refetch is called.
func NewDeferred[T any](loader Loader[T]) *Resource[T] {
	return newResource(loader)
}

func newResource[T any](loader Loader[T]) *Resource[T] {
	return &Resource[T]{
		loader: loader,
		status: ripple.NewSignal(Idle),
		value:  ripple.NewSignal(*new(T)),
		err:    ripple.NewSignal[error](nil),
	}
}

// Status returns the current status, subscribing the current listener.
func (r *Resource[T]) Status() Status {
	return r.status.Get()
}

// Value returns the last successful value, subscribing the current
// listener. During a refresh or after a failed refresh the previous value
// is retained, so stale-while-revalidate rendering stays possible.
func (r *Resource[T]) Value() T {
	return r.value.Get()
}

// Err returns the last fetch failure, subscribing the current listener.
// nil unless the status is Error.
func (r *Resource[T]) Err() error {
	return r.err.Get()
}

// Loading reports whether a fetch is in flight (cold or warm).
func (r *Resource[T]) Loading() bool {
	s := r.status.Get()
	return s == Loading || s == Refreshing
}

// Ready reports whether the resource holds a settled successful value.
func (r *Resource[T]) Ready() bool {
	return r.status.Get() == Success
}

// Failed reports whether the last fetch failed.
func (r *Resource[T]) Failed() bool {
	return r.status.Get() == Error
}

// Refetch cancels any in-flight fetch and starts a new one.
// Fire-and-forget: the outcome is observable only through the resource's
// signals. The status transition (and error clearing on a cold start)
// happens inside one batch, so subscribers observe a single consistent
// snapshot.
func (r *Resource[T]) Refetch() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}

	// The new attempt supersedes any in-flight one before it becomes
	// observable. Cancellation is cooperative: we do not wait for the old
	// loader to acknowledge, a stale completion is discarded by generation.
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	warm := r.warm
	r.mu.Unlock()

	ripple.Batch(func() {
		if warm {
			r.status.Set(Refreshing)
		} else {
			// Cold start clears stale error state; the warm branch
			// deliberately leaves err untouched.
			r.err.Set(nil)
			r.status.Set(Loading)
		}
	})

	go r.fetch(ctx, gen, warm)
}

// Cancel cancels the in-flight fetch, if any, without starting a new one.
// The cancelled attempt leaves no trace: status reverts to Success when a
// prior value exists, otherwise to Idle.
func (r *Resource[T]) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// fetch runs the loader and applies its outcome unless superseded.
func (r *Resource[T]) fetch(ctx context.Context, gen uint64, warm bool) {
	start := time.Now()
	value, err := r.loader(ctx)

	r.mu.Lock()
	if gen != r.gen || r.disposed {
		// Superseded: the cancelling call owns the state transition.
		r.mu.Unlock()
		metrics.RecordFetch(metrics.FetchSuperseded, time.Since(start))
		return
	}
	if err == nil {
		r.warm = true
	}
	r.mu.Unlock()

	// Resolution updates value, err, and status together in one batch so
	// dependents never observe a partially applied outcome.
	switch {
	case err == nil:
		ripple.Batch(func() {
			r.value.Set(value)
			r.err.Set(nil)
			r.status.Set(Success)
		})
		metrics.RecordFetch(metrics.FetchSuccess, time.Since(start))

	case errors.Is(err, context.Canceled):
		// Cancellation is control flow, not an error: revert without
		// touching value or err.
		ripple.Batch(func() {
			if warm {
				r.status.Set(Success)
			} else {
				r.status.Set(Idle)
			}
		})
		metrics.RecordFetch(metrics.FetchCanceled, time.Since(start))

	default:
		// The prior value is kept so callers can keep rendering stale
		// data alongside the failure.
		ripple.Batch(func() {
			r.err.Set(err)
			r.status.Set(Error)
		})
		metrics.RecordFetch(metrics.FetchError, time.Since(start))
	}
}

// Dispose cancels any in-flight fetch and disposes everything the
// resource owns: its watcher effect and key memo (keyed variant) and its
// three signals. Idempotent.
func (r *Resource[T]) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	r.gen++ // any in-flight completion becomes stale
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	extras := r.extras
	r.extras = nil
	r.mu.Unlock()

	for _, dispose := range extras {
		dispose()
	}

	r.status.Dispose()
	r.value.Dispose()
	r.err.Dispose()
}
