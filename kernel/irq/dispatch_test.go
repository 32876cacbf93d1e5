package irq

import "testing"

func resetSlots() {
	for i := range slots {
		slots[i].Store(nil)
	}
	eoiFn = func() {}
}

func TestRegisterHandlerRejectsDuplicate(t *testing.T) {
	resetSlots()
	defer resetSlots()

	if err := RegisterHandler(40, func(uint8) {}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := RegisterHandler(40, func(uint8) {}); err != ErrAlreadyRegistered {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestUnregisterThenRegisterSucceeds(t *testing.T) {
	resetSlots()
	defer resetSlots()

	if err := RegisterHandler(40, func(uint8) {}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := UnregisterHandler(40); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := RegisterHandler(40, func(uint8) {}); err != nil {
		t.Fatalf("re-register after unregister: %v", err)
	}
}

func TestAllocVectorScansDynamicRangeAndExhausts(t *testing.T) {
	resetSlots()
	defer resetSlots()

	for v := allocStart; v <= allocEnd; v++ {
		if _, err := AllocVector(func(uint8) {}); err != nil {
			t.Fatalf("AllocVector failed before exhausting the range at iteration %d: %v", v-allocStart, err)
		}
	}

	if _, err := AllocVector(func(uint8) {}); err != ErrVectorExhausted {
		t.Fatalf("expected ErrVectorExhausted once the dynamic range is full, got %v", err)
	}
}

func TestAllocVectorSkipsOccupiedSlots(t *testing.T) {
	resetSlots()
	defer resetSlots()

	if err := RegisterHandler(allocStart, func(uint8) {}); err != nil {
		t.Fatalf("pre-register: %v", err)
	}

	got, err := AllocVector(func(uint8) {})
	if err != nil {
		t.Fatalf("AllocVector: %v", err)
	}
	if got != allocStart+1 {
		t.Fatalf("AllocVector returned %d, want first free slot %d", got, allocStart+1)
	}
}

func TestDispatchInvokesRegisteredHandlerAndSendsEOI(t *testing.T) {
	resetSlots()
	defer resetSlots()

	var gotVector uint8
	var eoiCount int
	SetEOIFunc(func() { eoiCount++ })

	if err := RegisterHandler(60, func(v uint8) { gotVector = v }); err != nil {
		t.Fatalf("register: %v", err)
	}

	Dispatch(60)

	if gotVector != 60 {
		t.Fatalf("handler saw vector %d, want 60", gotVector)
	}
	if eoiCount != 1 {
		t.Fatalf("EOI called %d times, want 1", eoiCount)
	}
}

func TestDispatchOnEmptySlotStillSendsEOI(t *testing.T) {
	resetSlots()
	defer resetSlots()

	var eoiCount int
	SetEOIFunc(func() { eoiCount++ })

	Dispatch(61)

	if eoiCount != 1 {
		t.Fatalf("EOI called %d times on empty slot, want 1", eoiCount)
	}
}
