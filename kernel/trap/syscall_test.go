package trap

import "testing"

func TestInitSyscallMSRsProgramsExpectedValues(t *testing.T) {
	defer func() {
		readMSRFn = func(uint32) uint64 { return 0 }
		writeMSRFn = func(uint32, uint64) {}
	}()

	writes := map[uint32]uint64{}
	readMSRFn = func(msr uint32) uint64 {
		if msr == msrEFER {
			return 0x500 // some pre-existing bits, SCE not yet set
		}
		return 0
	}
	writeMSRFn = func(msr uint32, v uint64) { writes[msr] = v }

	InitSyscallMSRs()

	if got := writes[msrEFER]; got != 0x501 {
		t.Errorf("EFER = %#x, want 0x501 (SCE bit set, other bits preserved)", got)
	}

	wantSTAR := (uint64(userCSBase) << 48) | (uint64(kernelCS) << 32)
	if got := writes[msrSTAR]; got != wantSTAR {
		t.Errorf("STAR = %#x, want %#x", got, wantSTAR)
	}

	if got := writes[msrSFMASK]; got != sfmaskIF|sfmaskDF {
		t.Errorf("SFMASK = %#x, want %#x", got, sfmaskIF|sfmaskDF)
	}

	if _, ok := writes[msrLSTAR]; !ok {
		t.Errorf("LSTAR was never written")
	}
}
