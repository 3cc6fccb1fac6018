package resource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

// waitFor polls cond until it holds or the deadline passes.
// Resource outcomes arrive from the fetch goroutine, so tests poll the
// signals rather than sleeping fixed amounts.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

// gatedLoader blocks each call until released, honoring cancellation.
type gatedLoader[T any] struct {
	mu      sync.Mutex
	value   T
	err     error
	calls   int
	release chan struct{}
}

func newGatedLoader[T any](value T) *gatedLoader[T] {
	return &gatedLoader[T]{value: value, release: make(chan struct{})}
}

func (g *gatedLoader[T]) load(ctx context.Context) (T, error) {
	g.mu.Lock()
	g.calls++
	release := g.release
	g.mu.Unlock()

	select {
	case <-release:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value, g.err
}

// releaseOne lets exactly the calls waiting on the current gate proceed
// and arms a fresh gate for subsequent calls.
func (g *gatedLoader[T]) releaseOne() {
	g.mu.Lock()
	close(g.release)
	g.release = make(chan struct{})
	g.mu.Unlock()
}

func (g *gatedLoader[T]) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *gatedLoader[T]) set(value T, err error) {
	g.mu.Lock()
	g.value = value
	g.err = err
	g.mu.Unlock()
}

func TestResourceColdFetch(t *testing.T) {
	gate := newGatedLoader("hello")
	r := New(gate.load)
	defer r.Dispose()

	if r.Status() != Loading {
		t.Errorf("expected Loading during cold fetch, got %v", r.Status())
	}
	if !r.Loading() {
		t.Error("expected Loading() true")
	}

	gate.releaseOne()
	waitFor(t, r.Ready, "resource never reached Success")

	if r.Value() != "hello" {
		t.Errorf("expected %q, got %q", "hello", r.Value())
	}
	if r.Err() != nil {
		t.Errorf("expected nil error, got %v", r.Err())
	}
}

func TestResourceDeferredStaysIdle(t *testing.T) {
	gate := newGatedLoader(1)
	r := NewDeferred(gate.load)
	defer r.Dispose()

	time.Sleep(10 * time.Millisecond)
	if r.Status() != Idle {
		t.Errorf("expected Idle before Refetch, got %v", r.Status())
	}
	if gate.callCount() != 0 {
		t.Errorf("expected no loader calls, got %d", gate.callCount())
	}

	r.Refetch()
	gate.releaseOne()
	waitFor(t, r.Ready, "deferred resource never fetched")
	if r.Value() != 1 {
		t.Errorf("expected 1, got %d", r.Value())
	}
}

func TestResourceErrorPath(t *testing.T) {
	fetchErr := errors.New("upstream unavailable")
	r := New(func(ctx context.Context) (int, error) {
		return 0, fetchErr
	})
	defer r.Dispose()

	waitFor(t, r.Failed, "resource never reached Error")

	if !errors.Is(r.Err(), fetchErr) {
		t.Errorf("expected wrapped fetch error, got %v", r.Err())
	}
}

func TestResourceStaleValueOnFailedRefresh(t *testing.T) {
	gate := newGatedLoader("v1")
	r := New(gate.load)
	defer r.Dispose()

	gate.releaseOne()
	waitFor(t, r.Ready, "initial fetch never completed")

	gate.set("", errors.New("refresh failed"))
	r.Refetch()

	if r.Status() != Refreshing {
		t.Errorf("expected Refreshing on warm refetch, got %v", r.Status())
	}
	// The previous value stays readable while refreshing
	if r.Value() != "v1" {
		t.Errorf("expected stale value during refresh, got %q", r.Value())
	}

	gate.releaseOne()
	waitFor(t, r.Failed, "failed refresh never surfaced")

	if r.Value() != "v1" {
		t.Errorf("failed refresh must keep the prior value, got %q", r.Value())
	}
	if r.Err() == nil {
		t.Error("expected error after failed refresh")
	}
}

func TestResourceCancelColdRevertsToIdle(t *testing.T) {
	gate := newGatedLoader(1)
	r := New(gate.load)
	defer r.Dispose()

	r.Cancel()
	waitFor(t, func() bool { return r.Status() == Idle }, "cancelled cold fetch never reverted to Idle")

	if r.Err() != nil {
		t.Errorf("cancellation must not surface as an error, got %v", r.Err())
	}
}

func TestResourceCancelWarmRevertsToSuccess(t *testing.T) {
	gate := newGatedLoader(1)
	r := New(gate.load)
	defer r.Dispose()

	gate.releaseOne()
	waitFor(t, r.Ready, "initial fetch never completed")

	gate.set(2, nil)
	r.Refetch()
	waitFor(t, func() bool { return r.Status() == Refreshing }, "refetch never started")

	r.Cancel()
	waitFor(t, r.Ready, "cancelled refresh never reverted to Success")

	if r.Value() != 1 {
		t.Errorf("expected prior value 1 after cancelled refresh, got %d", r.Value())
	}
}

func TestResourceSupersededFetchDiscarded(t *testing.T) {
	gate := newGatedLoader(1)
	r := New(gate.load)
	defer r.Dispose()

	gate.releaseOne()
	waitFor(t, r.Ready, "initial fetch never completed")

	// Start a refresh but do not let it finish, then supersede it.
	gate.set(2, nil)
	r.Refetch()
	waitFor(t, func() bool { return gate.callCount() == 2 }, "second fetch never started")

	gate.set(3, nil)
	r.Refetch()
	waitFor(t, func() bool { return gate.callCount() == 3 }, "third fetch never started")

	// Release everything. The second attempt was cancelled when the third
	// started; even if it raced to completion its generation is stale.
	gate.releaseOne()
	waitFor(t, func() bool { return r.Ready() && r.Value() == 3 }, "superseding fetch never landed")
}

func TestResourceColdRefetchClearsError(t *testing.T) {
	gate := newGatedLoader(0)
	gate.set(0, errors.New("boom"))
	r := New(gate.load)
	defer r.Dispose()

	gate.releaseOne()
	waitFor(t, r.Failed, "initial fetch never failed")

	// No success yet, so this refetch is cold: err resets immediately.
	r.Refetch()
	if r.Err() != nil {
		t.Errorf("cold refetch must clear the error, got %v", r.Err())
	}
	if r.Status() != Loading {
		t.Errorf("expected Loading, got %v", r.Status())
	}

	gate.set(7, nil)
	gate.releaseOne()
	waitFor(t, r.Ready, "recovery fetch never completed")
	if r.Value() != 7 {
		t.Errorf("expected 7, got %d", r.Value())
	}
}

func TestResourceSignalsAreReactive(t *testing.T) {
	gate := newGatedLoader("data")
	r := New(gate.load)
	defer r.Dispose()

	var mu sync.Mutex
	var statuses []Status
	e := ripple.CreateEffect(func() ripple.Cleanup {
		s := r.Status()
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
		return nil
	})
	defer e.Dispose()

	gate.releaseOne()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) >= 2 && statuses[len(statuses)-1] == Success
	}, "status effect never observed Success")

	mu.Lock()
	defer mu.Unlock()
	if statuses[0] != Loading {
		t.Errorf("expected first observation Loading, got %v", statuses[0])
	}
}

func TestResourceDisposeDiscardsInFlight(t *testing.T) {
	gate := newGatedLoader(42)
	r := New(gate.load)

	r.Dispose()
	gate.releaseOne()

	time.Sleep(20 * time.Millisecond)
	if r.Value() != 0 {
		t.Errorf("disposed resource must not apply a completion, got %d", r.Value())
	}

	// Refetch after dispose is a no-op
	r.Refetch()
	time.Sleep(10 * time.Millisecond)
	if gate.callCount() != 1 {
		t.Errorf("expected no fetch after dispose, got %d calls", gate.callCount())
	}

	// Dispose is idempotent
	r.Dispose()
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		Idle:        "idle",
		Loading:     "loading",
		Success:     "success",
		Refreshing:  "refreshing",
		Error:       "error",
		Status(999): "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
