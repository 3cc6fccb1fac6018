package ripple

import (
	"testing"
)

func TestBatchCoalescesNotifications(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	Batch(func() {
		count.Set(1)
		count.Set(2)
		count.Set(3)
		count.Set(4)
		count.Set(5)
	})

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification for batched updates, got %d", listener.getDirtyCount())
	}
	if count.Get() != 5 {
		t.Errorf("expected final value 5, got %d", count.Get())
	}
}

func TestBatchMultipleSignals(t *testing.T) {
	first := NewSignal("John")
	last := NewSignal("Smith")

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = first.Get()
		_ = last.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	Batch(func() {
		first.Set("Jane")
		last.Set("Doe")
	})

	if runs != 2 {
		t.Errorf("expected effect to run once for both updates, got %d runs", runs)
	}
}

func TestBatchNesting(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	Batch(func() {
		count.Set(1)
		Batch(func() {
			count.Set(2)
		})
		// Inner batch must not flush while the outer one is open
		if listener.getDirtyCount() != 0 {
			t.Errorf("expected no notifications before outermost batch completes, got %d", listener.getDirtyCount())
		}
		count.Set(3)
	})

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification after outermost batch, got %d", listener.getDirtyCount())
	}
}

func TestBatchPanicRestoresDepth(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	func() {
		defer func() { recover() }()
		Batch(func() {
			count.Set(1)
			panic("boom")
		})
	}()

	// The panicking batch still flushed on unwind
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification from unwound batch, got %d", listener.getDirtyCount())
	}

	// Updates after the panic behave normally
	count.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected notification after panic recovery, got %d", listener.getDirtyCount())
	}
}

func TestBatchEffectRunsAfterAllWrites(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	var observed []int
	e := CreateEffect(func() Cleanup {
		observed = append(observed, a.Get()+b.Get())
		return nil
	})
	defer e.Dispose()

	Batch(func() {
		a.Set(10)
		b.Set(20)
	})

	// Initial run saw 3; the batched run must see both writes at once,
	// never the intermediate 12.
	want := []int{3, 30}
	if len(observed) != len(want) {
		t.Fatalf("expected %d runs, got %d (%v)", len(want), len(observed), observed)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], observed[i])
		}
	}
}

func TestBatchReturnsAfterEffects(t *testing.T) {
	count := NewSignal(0)
	ran := false

	e := OnUpdate(
		func() { _ = count.Get() },
		func() { ran = true },
	)
	defer e.Dispose()

	Batch(func() {
		count.Set(1)
		if ran {
			t.Error("effect ran inside the batch body")
		}
	})

	if !ran {
		t.Error("effect did not run by the time Batch returned")
	}
}

func TestSetOutsideBatchIsSynchronous(t *testing.T) {
	count := NewSignal(0)
	got := -1

	e := CreateEffect(func() Cleanup {
		got = count.Get()
		return nil
	})
	defer e.Dispose()

	count.Set(7)
	if got != 7 {
		t.Errorf("expected effect to have observed 7 when Set returned, got %d", got)
	}
}

func TestUntrackedGet(t *testing.T) {
	count := NewSignal(5)
	runs := 0

	e := CreateEffect(func() Cleanup {
		_ = UntrackedGet(count)
		runs++
		return nil
	})
	defer e.Dispose()

	count.Set(6)
	if runs != 1 {
		t.Errorf("UntrackedGet should not subscribe, got %d runs", runs)
	}
}
