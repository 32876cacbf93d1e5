package percpu

import "testing"

func TestCpuLocalSlotsAreIndependent(t *testing.T) {
	var counters CpuLocal[int]

	*counters.Get(0) = 1
	*counters.Get(1) = 2

	if got := *counters.Get(0); got != 1 {
		t.Errorf("slot 0 = %d, want 1", got)
	}
	if got := *counters.Get(1); got != 2 {
		t.Errorf("slot 1 = %d, want 2", got)
	}
}

func TestPerCpuFieldOffsets(t *testing.T) {
	specs := []struct {
		name   string
		offset uintptr
	}{
		{"KernelRSP", offKernelRSP},
		{"UserRSP", offUserRSP},
		{"CPUID", offCPUID},
		{"APICID", offAPICID},
		{"Initialized", offInitialized},
		{"UserContextPtr", offUserContextPtr},
		{"SavedKernelRSPPtr", offSavedKernelRSPPtr},
		{"TrapReasonPtr", offTrapReasonPtr},
		{"SavedRegsPtr", offSavedRegsPtr},
	}

	want := map[string]uintptr{
		"KernelRSP":         8,
		"UserRSP":           16,
		"CPUID":             24,
		"APICID":            28,
		"Initialized":       29,
		"UserContextPtr":    32,
		"SavedKernelRSPPtr": 40,
		"TrapReasonPtr":     48,
		"SavedRegsPtr":      56,
	}

	for _, spec := range specs {
		if spec.offset != want[spec.name] {
			t.Errorf("%s offset = %d, want %d (assembly stubs hard-code this)", spec.name, spec.offset, want[spec.name])
		}
	}
}
