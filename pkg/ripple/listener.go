package ripple

// Listener is anything that can be notified when a source it read changes.
// Effects implement it; hosts may implement it for their own subscribers.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	// For effects this schedules a re-run through the scheduler.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during flush.
	ID() uint64
}

// Cleanup is a function returned by effects to release resources.
// It runs before the effect re-runs and when the effect is disposed.
type Cleanup func()
