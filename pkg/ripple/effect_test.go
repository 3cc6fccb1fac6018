package ripple

import (
	"testing"
)

func TestEffectRunsImmediately(t *testing.T) {
	runs := 0
	e := CreateEffect(func() Cleanup {
		runs++
		return nil
	})
	defer e.Dispose()

	if runs != 1 {
		t.Errorf("expected effect to run on creation, got %d runs", runs)
	}
}

func TestEffectRerunsOnChange(t *testing.T) {
	count := NewSignal(0)
	var seen []int

	e := CreateEffect(func() Cleanup {
		seen = append(seen, count.Get())
		return nil
	})
	defer e.Dispose()

	count.Set(1)
	count.Set(2)

	want := []int{0, 1, 2}
	if len(seen) != len(want) {
		t.Fatalf("expected %d runs, got %d (%v)", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestEffectCleanupRunsBeforeRerun(t *testing.T) {
	count := NewSignal(0)
	var order []string

	e := CreateEffect(func() Cleanup {
		n := count.Get()
		order = append(order, "run")
		return func() {
			_ = n
			order = append(order, "cleanup")
		}
	})

	count.Set(1)
	e.Dispose()

	want := []string{"run", "cleanup", "run", "cleanup"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestEffectDynamicDependencies(t *testing.T) {
	useFirst := NewSignal(true)
	first := NewSignal("a")
	second := NewSignal("b")
	runs := 0

	e := CreateEffect(func() Cleanup {
		if useFirst.Get() {
			_ = first.Get()
		} else {
			_ = second.Get()
		}
		runs++
		return nil
	})
	defer e.Dispose()

	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	// second is not a dependency yet
	second.Set("bb")
	if runs != 1 {
		t.Errorf("untracked branch should not trigger, got %d runs", runs)
	}

	// Switch branches; now second is tracked and first is not
	useFirst.Set(false)
	if runs != 2 {
		t.Fatalf("expected re-run on branch switch, got %d runs", runs)
	}

	first.Set("aa")
	if runs != 2 {
		t.Errorf("stale dependency should have been unlinked, got %d runs", runs)
	}

	second.Set("bbb")
	if runs != 3 {
		t.Errorf("expected re-run on new dependency, got %d runs", runs)
	}
}

func TestEffectDispose(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	e := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	e.Dispose()
	count.Set(1)

	if runs != 1 {
		t.Errorf("disposed effect must not re-run, got %d runs", runs)
	}

	// Dispose is idempotent
	e.Dispose()
}

func TestEffectDisposeRunsCleanup(t *testing.T) {
	cleaned := false
	e := CreateEffect(func() Cleanup {
		return func() { cleaned = true }
	})

	e.Dispose()
	if !cleaned {
		t.Error("expected final cleanup on dispose")
	}
}

func TestEffectWritingSignal(t *testing.T) {
	source := NewSignal(1)
	doubled := NewSignal(0)

	e := CreateEffect(func() Cleanup {
		doubled.Set(source.Get() * 2)
		return nil
	})
	defer e.Dispose()

	if doubled.Get() != 2 {
		t.Errorf("expected 2, got %d", doubled.Get())
	}

	source.Set(5)
	if doubled.Get() != 10 {
		t.Errorf("expected 10, got %d", doubled.Get())
	}
}

func TestOnUpdateSkipsFirstRun(t *testing.T) {
	count := NewSignal(0)
	calls := 0

	e := OnUpdate(
		func() { _ = count.Get() },
		func() { calls++ },
	)
	defer e.Dispose()

	if calls != 0 {
		t.Errorf("callback must not run on creation, got %d calls", calls)
	}

	count.Set(1)
	if calls != 1 {
		t.Errorf("expected 1 call after update, got %d", calls)
	}

	count.Set(2)
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestEffectOwnedByCurrentOwner(t *testing.T) {
	owner := NewOwner(nil)
	count := NewSignal(0)
	runs := 0

	WithOwner(owner, func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			runs++
			return nil
		})
	})

	owner.Dispose()
	count.Set(1)

	if runs != 1 {
		t.Errorf("effect owned by disposed owner must not re-run, got %d runs", runs)
	}
}
