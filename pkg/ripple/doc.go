// Package ripple provides a fine-grained reactive dependency-tracking
// runtime. Dependencies are tracked automatically at runtime: reading a
// signal inside a tracked computation subscribes that computation to the
// signal's changes.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes the current listener)
//	count.Set(5)          // Write (notifies subscribers if changed)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is an eagerly maintained derived value:
//
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Always the settled value; never recomputes here
//
// Effect runs side effects when its dependencies change:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// # Batching
//
// Multiple signal updates can be batched so each affected effect runs once:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	    c.Set(3)
//	})  // single flush after all updates
//
// Outside a batch, Set flushes synchronously before returning.
//
// # Ownership
//
// Owner is the disposal scope for effects created by a host component.
// Disposing an owner disposes every effect, child owner, and cleanup it
// collected, in reverse creation order.
//
// # Thread Safety
//
// The tracking context (current listener, batch depth, pending queue) is
// per-goroutine. Signals and effects carry light internal locking so a
// background goroutine may mutate signals, but graph mutation is expected
// to be cooperatively single-threaded; concurrent mutation of the same
// region of the graph must be serialized by the caller.
package ripple
