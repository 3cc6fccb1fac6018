package ripple

import (
	"sync"
	"sync/atomic"
)

// Effect represents a reactive side effect that runs when its dependencies
// change. Effects run immediately when created and re-run whenever any
// signal or memo they read during execution changes. The callback may
// return a Cleanup that runs before the next execution and on disposal.
type Effect struct {
	id uint64

	// fn is the effect function.
	fn func() Cleanup

	// cleanup is the cleanup function from the last run.
	cleanup Cleanup

	// sources are the signals/memos this effect currently depends on.
	// Rebuilt from scratch on every run.
	sources   []*signalBase
	sourcesMu sync.Mutex

	// owner is the Owner that owns this effect, if any.
	owner *Owner

	// pending indicates the effect is scheduled for a re-run.
	pending atomic.Bool

	// disposed indicates the effect has been disposed.
	disposed atomic.Bool
}

// MarkDirty schedules the effect to re-run.
// Implements the Listener interface. Idempotent: an effect already
// scheduled within the current flush is not queued twice.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	// CAS ensures we only schedule once per flush.
	if e.pending.CompareAndSwap(false, true) {
		schedule(e)
	}
}

// ID returns the unique identifier for this effect.
// Implements the Listener interface.
func (e *Effect) ID() uint64 {
	return e.id
}

// run executes the effect function.
// Called on creation and whenever a dependency changed.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	e.pending.Store(false)
	e.invalidate()

	// Track new sources during execution; restore the previous listener
	// on all exit paths so a panicking callback doesn't poison tracking.
	old := setCurrentListener(e)
	defer setCurrentListener(old)

	e.cleanup = e.fn()
}

// invalidate unlinks the effect from every current source, clears the
// dependency set, and runs the previous cleanup. Runs before every
// execution and on disposal, so stale links from conditional reads never
// accumulate across runs.
func (e *Effect) invalidate() {
	e.sourcesMu.Lock()
	for _, source := range e.sources {
		source.unsubscribe(e)
	}
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

// addSource records a source dependency.
// Called by sources when they are read during this effect's execution.
// Idempotent: a source read twice in one run links once.
func (e *Effect) addSource(source *signalBase) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

// Dispose runs the final cleanup, unlinks all dependencies, and marks the
// effect disposed. A disposed effect is never scheduled or run again.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	e.invalidate()

	e.sourcesMu.Lock()
	e.sources = nil
	e.sourcesMu.Unlock()
}

// CreateEffect creates and immediately runs a new effect within the
// current owner scope. The first run establishes the initial dependency
// set; later runs are triggered through the scheduler when any dependency
// changes.
//
// Example:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("cleanup") }
//	})
func CreateEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: getCurrentOwner(),
	}

	if e.owner != nil {
		e.owner.registerEffect(e)
	}

	e.run()

	return e
}

// OnUpdate creates an effect that skips the callback on the first run.
// deps establishes the dependency set; callback only runs on subsequent
// executions when those dependencies changed.
//
// Example:
//
//	OnUpdate(
//	    func() { _ = count.Get() },
//	    func() { fmt.Println("updated") },
//	)
func OnUpdate(deps func(), callback func()) *Effect {
	first := true
	return CreateEffect(func() Cleanup {
		deps() // always read, to track dependencies
		if first {
			first = false
			return nil
		}
		callback()
		return nil
	})
}

var _ sourceTracker = (*Effect)(nil)
