package ripple

import "sync"

// Memo is a derived value that automatically tracks its dependencies and
// is recomputed eagerly, through the scheduler, whenever any of them
// changes. The cached value therefore always reflects the last settled
// evaluation: Get never recomputes.
//
// Memos behave as sources themselves, so chains of derived values compose.
// When a recomputation produces a value equal to the cached one, the
// memo's own dependents are not notified; this is what stops propagation
// through a chain whose intermediate value did not actually change.
type Memo[T any] struct {
	base signalBase

	// value is the cached result of the last evaluation.
	value T

	// valueMu protects value access.
	valueMu sync.RWMutex

	// equal is the equality function for change detection.
	equal func(T, T) bool

	// effect is the internal effect that recomputes the value.
	effect *Effect
}

// NewMemo creates a new memo with the given computation function.
// The computation runs once immediately, establishing the initial value
// and dependency set.
func NewMemo[T any](compute func() T) *Memo[T] {
	m := &Memo[T]{
		base: signalBase{
			id: nextID(),
		},
	}

	m.effect = CreateEffect(func() Cleanup {
		newValue := compute()

		m.valueMu.Lock()
		changed := !m.equals(m.value, newValue)
		m.value = newValue
		m.valueMu.Unlock()

		if changed {
			Batch(m.base.notifySubscribers)
		}
		return nil
	})

	return m
}

// Get returns the memo's cached value and subscribes the current listener.
// The value is always the result of the last completed evaluation; the
// scheduler guarantees dependents never observe a stale value because the
// recomputation and its notifications happen inside the same flush as the
// mutation that triggered them.
func (m *Memo[T]) Get() T {
	m.base.link()

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

// Peek returns the cached value without subscribing.
func (m *Memo[T]) Peek() T {
	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

// WithEquals configures the memo with a custom equality function.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// Dispose disposes the internal effect, unlinking the memo from its
// dependencies, and drops the memo's own dependents without notifying.
func (m *Memo[T]) Dispose() {
	m.effect.Dispose()
	m.base.clearSubscribers()
}

// ID returns the unique identifier for this memo.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

// equals checks two values using the configured equality function.
func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}
