package limine

import (
	"testing"
	"unsafe"
)

func TestHHDMBaseReadsResponseOffset(t *testing.T) {
	reqs := NewRequests()
	reqs.HHDM.response = &hhdmResponse{offset: 0xffff800000000000}

	info := New(reqs)
	if got := info.HHDMBase(); got != 0xffff800000000000 {
		t.Fatalf("HHDMBase() = %#x", got)
	}
}

func TestHHDMBaseZeroWhenResponseMissing(t *testing.T) {
	info := New(NewRequests())
	if got := info.HHDMBase(); got != 0 {
		t.Fatalf("HHDMBase() = %#x, want 0", got)
	}
}

func TestMaxPhysAddrSkipsNonUsableEntries(t *testing.T) {
	entries := []*memmapEntry{
		{base: 0x0, length: 0x1000, kind: memmapEntryUsable},
		{base: 0x100000, length: 0x400000, kind: memmapEntryUsable},
		{base: 0x800000, length: 0x1000, kind: 2},
	}
	ptrs := make([]*memmapEntry, len(entries))
	copy(ptrs, entries)

	reqs := NewRequests()
	reqs.Memmap.response = &memmapResponse{
		count:   uint64(len(ptrs)),
		entries: (*unsafe.Pointer)(unsafe.Pointer(&ptrs[0])),
	}

	info := New(reqs)
	want := uint64(0x100000 + 0x400000)
	if got := info.MaxPhysAddr(); got != want {
		t.Fatalf("MaxPhysAddr() = %#x, want %#x", got, want)
	}
}

func TestFramebufferReturnsFirstEntry(t *testing.T) {
	fb := &fbResponseEntry{address: 0xc0000000, width: 1024, height: 768, pitch: 4096, bpp: 32}
	ptrs := []*fbResponseEntry{fb}

	reqs := NewRequests()
	reqs.Framebuffer.response = &fbResponse{
		count:       1,
		framebuffer: (*unsafe.Pointer)(unsafe.Pointer(&ptrs[0])),
	}

	info := New(reqs)
	got := info.Framebuffer()
	if got == nil {
		t.Fatalf("Framebuffer() = nil")
	}
	if got.Width != 1024 || got.Height != 768 || got.Bpp != 32 {
		t.Fatalf("Framebuffer() = %+v", got)
	}
}

func TestFramebufferNilWhenNoEntries(t *testing.T) {
	info := New(NewRequests())
	if got := info.Framebuffer(); got != nil {
		t.Fatalf("Framebuffer() = %+v, want nil", got)
	}
}

func TestCmdLineReadsNulTerminatedString(t *testing.T) {
	raw := []byte("console=ttyS0\x00")
	reqs := NewRequests()
	reqs.CmdLine.response = &cmdlineResponse{cmdline: &raw[0]}

	info := New(reqs)
	if got := info.CmdLine(); got != "console=ttyS0" {
		t.Fatalf("CmdLine() = %q", got)
	}
}

func TestAPEntriesExcludesBSP(t *testing.T) {
	cpus := []*smpCPU{
		{lapicID: 0},
		{lapicID: 1},
		{lapicID: 2},
	}
	reqs := NewRequests()
	reqs.SMP.response = &smpResponse{
		bspLapicID: 0,
		cpuCount:   uint64(len(cpus)),
		cpus:       (*unsafe.Pointer)(unsafe.Pointer(&cpus[0])),
	}

	info := New(reqs)
	aps := info.APEntries()
	if len(aps) != 2 {
		t.Fatalf("APEntries() returned %d entries, want 2", len(aps))
	}
	if aps[0].LapicID != 1 || aps[1].LapicID != 2 {
		t.Fatalf("APEntries() = %+v", aps)
	}

	aps[0].Start(0x8000, 0x1234)
	if cpus[1].gotoAddress != 0x8000 || cpus[1].extra != 0x1234 {
		t.Fatalf("Start did not write goto_address/extra: %+v", cpus[1])
	}
}
