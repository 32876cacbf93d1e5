package proc

import "testing"

func TestNewAddressSpaceAllocatesZeroedRootFrame(t *testing.T) {
	fa := newHostFrameAllocator(8)

	space, err := NewAddressSpace(fa, fa.p2v, fa.noopFlush)
	if err != nil {
		t.Fatalf("NewAddressSpace failed: %v", err)
	}

	root := space.RootPhysAddr()
	rootBytes := fa.frames[int((root.AsU64()-fa.base)/4096)]
	for i, b := range rootBytes {
		if b != 0 {
			t.Fatalf("root table byte %d = %#x, want 0 (freshly zeroed)", i, b)
		}
	}
}

func TestAddressSpaceCloseReleasesRootFrame(t *testing.T) {
	fa := newHostFrameAllocator(1)

	space, err := NewAddressSpace(fa, fa.p2v, fa.noopFlush)
	if err != nil {
		t.Fatalf("NewAddressSpace failed: %v", err)
	}

	if _, err := fa.AllocFrame(); err == nil {
		t.Fatalf("expected the single frame to already be consumed by the address space's root table")
	}

	space.Close()

	if _, err := fa.AllocFrame(); err != nil {
		t.Fatalf("AllocFrame after Close should succeed once the root frame is reclaimed: %v", err)
	}
}

func TestAddressSpaceCloseIsIdempotent(t *testing.T) {
	fa := newHostFrameAllocator(2)

	space, err := NewAddressSpace(fa, fa.p2v, fa.noopFlush)
	if err != nil {
		t.Fatalf("NewAddressSpace failed: %v", err)
	}

	space.Close()
	space.Close()

	freed := 0
	for _, f := range fa.free {
		if f {
			freed++
		}
	}
	if freed != 2 {
		t.Fatalf("freed frame count = %d, want 2 (double Close must not double-free)", freed)
	}
}
