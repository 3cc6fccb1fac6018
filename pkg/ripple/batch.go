package ripple

// Batch groups multiple signal updates into a single notification phase.
// All updates inside fn are collected and deduplicated; affected effects
// run once when the outermost batch completes. Batches nest: nothing
// flushes until the outermost batch exits, and the depth counter is
// restored even if fn panics.
//
// Example:
//
//	Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	    age.Set(30)
//	})
//	// dependent effects run once with all three changes
func Batch(fn func()) {
	ctx := getTrackingContext()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth == 0 {
			processPendingUpdates(ctx)
		}
	}()

	fn()
}

// processPendingUpdates drains the pending queue until no pass produces
// new work. Each pass snapshots the queue, clears it, deduplicates by
// listener ID, and notifies every listener in the snapshot. Effects that
// schedule further effects while running (a memo recomputing and notifying
// its dependents) land in the next pass, so a shared dependent observes
// only fully settled upstream values.
func processPendingUpdates(ctx *TrackingContext) {
	if ctx.flushing {
		// An enclosing flush will pick up the queued work.
		return
	}
	ctx.flushing = true
	defer func() { ctx.flushing = false }()

	for len(ctx.pendingUpdates) > 0 {
		updates := ctx.pendingUpdates
		ctx.pendingUpdates = nil

		seen := make(map[uint64]bool, len(updates))
		for _, listener := range updates {
			id := listener.ID()
			if seen[id] {
				continue
			}
			seen[id] = true

			if e, ok := listener.(*Effect); ok {
				e.run()
			} else {
				listener.MarkDirty()
			}
		}
	}
}

// Untracked runs fn without tracking signal reads as dependencies.
// Reads inside fn do not subscribe the current listener. Nested calls are
// safe; the previous listener is restored on all exit paths.
//
// For a single read, signal.Peek() is the clearer choice.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}

// UntrackedGet reads a signal's value without creating a dependency.
// Equivalent to s.Peek().
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}
