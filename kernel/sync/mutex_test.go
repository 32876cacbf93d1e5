package sync

import "testing"

type testWaker struct{ woken int }

func (w *testWaker) Wake() { w.woken++ }

func TestMutexLockSucceedsWhenFree(t *testing.T) {
	m := NewMutex(0)
	w := &testWaker{}

	guard, ready := m.Lock().Poll(w)
	if !ready {
		t.Fatalf("Poll on a free mutex should succeed immediately")
	}
	*guard.Value() = 7

	guard.Unlock()

	guard2, ready2 := m.Lock().Poll(w)
	if !ready2 {
		t.Fatalf("Poll after Unlock should succeed")
	}
	if got := *guard2.Value(); got != 7 {
		t.Fatalf("value = %d, want 7", got)
	}
	guard2.Unlock()
}

func TestMutexLockRegistersWakerWhenHeldAndWakesOnUnlock(t *testing.T) {
	m := NewMutex(0)
	holder, ready := m.Lock().Poll(&testWaker{})
	if !ready {
		t.Fatalf("first Poll should succeed")
	}

	w := &testWaker{}
	_, ready = m.Lock().Poll(w)
	if ready {
		t.Fatalf("Poll while held should return Pending")
	}
	if m.queue.Len() != 1 {
		t.Fatalf("queue length = %d, want 1 waker registered", m.queue.Len())
	}

	holder.Unlock()

	if w.woken != 1 {
		t.Fatalf("waker.Wake() called %d times, want 1", w.woken)
	}
}

func TestMutexLockPanicsUnderDebugIrqGuard(t *testing.T) {
	defer SetDebugIrqGuard(nil)
	SetDebugIrqGuard(func() bool { return true })

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Poll to panic while the debug IRQ guard reports held")
		}
	}()

	m := NewMutex(0)
	m.Lock().Poll(&testWaker{})
}
