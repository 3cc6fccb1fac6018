package ripple

import (
	"sync"

	"github.com/petermattis/goid"
)

// TrackingContext holds the reactive state for a goroutine.
// Each goroutine has its own tracking context, so independent graphs may
// run on independent goroutines without sharing the "current listener" slot.
type TrackingContext struct {
	// currentListener is what is currently tracking dependencies.
	// When a signal is read, it subscribes this listener.
	// nil means no tracking: reads do not create subscriptions.
	currentListener Listener

	// currentOwner is the Owner that will own newly created effects.
	currentOwner *Owner

	// batchDepth tracks nested Batch() calls.
	// When > 0, notifications queue instead of executing immediately.
	batchDepth int

	// pendingUpdates accumulates listeners to notify when the outermost
	// batch completes. Deduplicated by ID before each flush pass.
	pendingUpdates []Listener

	// flushing is true while processPendingUpdates drains the queue.
	// Listeners scheduled during a flush join the queue for the next pass
	// instead of executing immediately.
	flushing bool
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if none exists.
func getTrackingContext() *TrackingContext {
	gid := goid.Get()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}

	ctx := &TrackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// getCurrentListener returns the listener currently tracking dependencies.
// Returns nil if no tracking is active.
func getCurrentListener() Listener {
	return getTrackingContext().currentListener
}

// setCurrentListener sets the current listener for dependency tracking.
// Returns the previous listener so it can be restored.
func setCurrentListener(l Listener) Listener {
	ctx := getTrackingContext()
	old := ctx.currentListener
	ctx.currentListener = l
	return old
}

// getCurrentOwner returns the current owner for the goroutine.
func getCurrentOwner() *Owner {
	return getTrackingContext().currentOwner
}

// setCurrentOwner sets the current owner for effect creation.
// Returns the previous owner so it can be restored.
func setCurrentOwner(o *Owner) *Owner {
	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = o
	return old
}

// schedule enqueues or immediately runs a listener notification.
// Inside a batch or flush the listener joins the pending queue; otherwise
// it executes synchronously. Callers are responsible for idempotence (an
// effect's pending flag guards against double enqueue).
func schedule(l Listener) {
	ctx := getTrackingContext()
	if ctx.batchDepth > 0 || ctx.flushing {
		ctx.pendingUpdates = append(ctx.pendingUpdates, l)
		return
	}
	if e, ok := l.(*Effect); ok {
		e.run()
		return
	}
	l.MarkDirty()
}

// queuePendingUpdate adds a listener to the pending queue unconditionally.
// Used by signal notification, which always runs inside a batch.
func queuePendingUpdate(l Listener) {
	ctx := getTrackingContext()
	ctx.pendingUpdates = append(ctx.pendingUpdates, l)
}

// WithListener runs fn with l as the tracked listener, restoring the
// previous listener on all exit paths.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// WithOwner runs fn with the specified owner as the current owner.
// Use this when spawning goroutines that create effects belonging to a
// particular scope:
//
//	go func() {
//	    WithOwner(parent, func() {
//	        CreateEffect(...)
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// ReleaseContext removes the tracking context for the current goroutine.
// Hosts that spawn many short-lived goroutines touching the graph can call
// it on goroutine exit; otherwise contexts are lightweight and reused.
func ReleaseContext() {
	trackingContexts.Delete(goid.Get())
}
