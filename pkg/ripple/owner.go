package ripple

import (
	"sync"
	"sync/atomic"
)

// Owner represents a host scope that owns reactive primitives.
// Disposing an Owner disposes every effect, child owner, and cleanup it
// collected. Owners form a hierarchy mirroring the host's component tree:
// a host creates an Owner during initialization, creates its effects under
// it (see WithOwner), and disposes it on teardown.
type Owner struct {
	id uint64

	// parent is the parent Owner, nil for a root.
	parent *Owner

	// children are child Owners.
	children   []*Owner
	childrenMu sync.Mutex

	// effects owned by this scope.
	effects   []*Effect
	effectsMu sync.Mutex

	// cleanups are manual cleanup functions registered via OnCleanup.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// values stores scope-local context values.
	values   map[any]any
	valuesMu sync.RWMutex

	// disposed indicates whether this Owner has been disposed.
	disposed atomic.Bool
}

// NewOwner creates a new Owner with the given parent.
// The new Owner registers itself as a child of the parent.
// A nil parent creates a root Owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}

	if parent != nil {
		parent.addChild(o)
	}

	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// registerEffect adds an effect to this Owner.
// The effect is disposed when this Owner is disposed.
func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}

	o.effectsMu.Lock()
	defer o.effectsMu.Unlock()
	o.effects = append(o.effects, e)
}

// OnCleanup registers a cleanup function to run when this Owner is
// disposed. If the Owner is already disposed, fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// SetValue stores a scope-local value under key.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// Value looks up key in this scope, then in ancestor scopes.
// Returns nil when no scope holds the key.
func (o *Owner) Value(key any) any {
	for scope := o; scope != nil; scope = scope.parent {
		scope.valuesMu.RLock()
		v, ok := scope.values[key]
		scope.valuesMu.RUnlock()
		if ok {
			return v
		}
	}
	return nil
}

// Dispose disposes this Owner and all its children, effects, and cleanups.
// Children and cleanups run in reverse creation order. Idempotent.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.effectsMu.Lock()
	effects := o.effects
	o.effects = nil
	o.effectsMu.Unlock()

	for _, e := range effects {
		e.Dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
