package ripple

import (
	"reflect"
	"sync"
)

// signalBase provides type-erased subscriber management.
// It is embedded in Signal[T] and Memo[T] to share subscription logic.
type signalBase struct {
	id uint64

	// subs are the listeners subscribed to this source.
	subs []Listener

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a listener to this source's subscribers.
// Deduplicates by listener ID to prevent double-subscription.
func (s *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// unsubscribe removes a listener from this source's subscribers.
func (s *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			// Remove by swapping with the last element (order doesn't matter)
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

// notifySubscribers notifies every current subscriber that this source
// changed. Uses copy-before-notify so no lock is held during
// notification. Inside a batch or flush, subscribers join the pending
// queue and are deduplicated before the flush pass runs them; callers
// wrap the call in a Batch so a burst of mutations coalesces into one
// run per subscriber.
func (s *signalBase) notifySubscribers() {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	ctx := getTrackingContext()
	if ctx.batchDepth > 0 || ctx.flushing {
		for _, sub := range subs {
			queuePendingUpdate(sub)
		}
	} else {
		for _, sub := range subs {
			sub.MarkDirty()
		}
	}
}

// clearSubscribers drops every subscriber without notifying.
func (s *signalBase) clearSubscribers() {
	s.subMu.Lock()
	s.subs = nil
	s.subMu.Unlock()
}

// link subscribes the current listener, if any, and records this source
// in the listener's dependency set so it can be unlinked on re-run.
func (s *signalBase) link() {
	listener := getCurrentListener()
	if listener == nil {
		return
	}

	s.subscribe(listener)

	if tracker, ok := listener.(sourceTracker); ok {
		tracker.addSource(s)
	}
}

// sourceTracker is implemented by listeners that rebuild their dependency
// set on every run (effects). Sources they read register themselves so the
// listener can unlink before its next execution.
type sourceTracker interface {
	Listener
	addSource(source *signalBase)
}

// Signal is a reactive value container.
// Reading a signal during a tracked computation (memo evaluation or effect
// execution) automatically subscribes the current listener to receive
// notifications when the value changes.
type Signal[T any] struct {
	base signalBase

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal is the equality function used to decide whether the value
	// changed. If nil, defaultEquals is used.
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base: signalBase{
			id: nextID(),
		},
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener.
// A read outside any tracked context performs no linking.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	// Track after releasing the value lock to prevent deadlock.
	s.base.link()

	return value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the signal's value and notifies subscribers if it changed.
// Equal values (per the signal's equality function) are a no-op: no
// notification fires. The notification runs inside one Batch, so outside
// any enclosing batch the affected effects have run by the time Set
// returns, and inside one they are coalesced with the rest of the batch.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		Batch(s.base.notifySubscribers)
	}
}

// Update atomically reads and updates the signal's value.
// The function receives the current value and returns the new one.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		Batch(s.base.notifySubscribers)
	}
}

// WithEquals configures the signal with a custom equality function.
// Useful for types where reflect.DeepEqual is too expensive or has the
// wrong semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// Dispose drops every subscriber without notifying them.
// The signal must not be used afterwards.
func (s *Signal[T]) Dispose() {
	s.base.clearSubscribers()
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// equals checks two values using the configured equality function.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality checking.
// Uses == for the common scalar kinds and reflect.DeepEqual for the rest,
// so containers compare by value when replaced wholesale.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
