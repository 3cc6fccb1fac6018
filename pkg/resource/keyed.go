package resource

import (
	"context"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

// KeyedLoader produces a value for the given key. The key passed is the
// one current when the fetch started.
type KeyedLoader[K comparable, T any] func(ctx context.Context, key K) (T, error)

// NewKeyed creates a Resource whose fetch argument is derived from the
// reactive graph. The key function runs inside an internal memo, so any
// signal it reads becomes a dependency; whenever the derived key changes,
// the resource refetches, cancelling the superseded attempt.
//
// The first key evaluation is consumed as the initial fetch argument and
// does not re-trigger: the watcher effect is armed against it before the
// initial fetch starts.
//
// Example:
//
//	id := ripple.NewSignal(1)
//	user := resource.NewKeyed(
//	    func() int { return id.Get() },
//	    func(ctx context.Context, id int) (*User, error) {
//	        return api.FetchUser(ctx, id)
//	    },
//	)
//	id.Set(4) // cancels the fetch for 1, starts a fetch for 4
func NewKeyed[K comparable, T any](key func() K, loader KeyedLoader[K, T]) *Resource[T] {
	keys := ripple.NewMemo(key)

	r := newResource[T](nil)
	r.loader = func(ctx context.Context) (T, error) {
		// The key current at fetch start; a later key change supersedes
		// this attempt entirely.
		return loader(ctx, keys.Peek())
	}

	last := keys.Peek()
	watcher := ripple.CreateEffect(func() ripple.Cleanup {
		k := keys.Get()
		if k == last {
			return nil
		}
		last = k
		r.Refetch()
		return nil
	})

	r.extras = append(r.extras, watcher.Dispose, keys.Dispose)

	r.Refetch()
	return r
}
