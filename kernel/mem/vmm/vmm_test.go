package vmm

import (
	"testing"
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/mem"
)

var errHostOOM = &kernel.Error{Module: "vmm_test", Message: "host frame pool exhausted"}

// hostFrameAllocator hands out ordinary Go-allocated "frames" so the mapper
// can be exercised without real paging hardware, swapping the hardware
// collaborator for a host double the way the rest of this package's tests do.
type hostFrameAllocator struct {
	frames [][]byte
	free   []bool
	base   uint64
}

func newHostFrameAllocator(n int) *hostFrameAllocator {
	a := &hostFrameAllocator{base: 0x1000}
	for i := 0; i < n; i++ {
		buf := make([]byte, 4096)
		a.frames = append(a.frames, buf)
		a.free = append(a.free, true)
	}
	return a
}

func (a *hostFrameAllocator) AllocFrame() (addr.PhysFrame[addr.Size4K], *kernel.Error) {
	for i, f := range a.free {
		if f {
			a.free[i] = false
			frame, _ := addr.PhysFrameFromStartAddress[addr.Size4K](addr.NewPhysAddr(a.base + uint64(i)*4096))
			return frame, nil
		}
	}
	return addr.PhysFrame[addr.Size4K]{}, errHostOOM
}

func (a *hostFrameAllocator) FreeFrame(f addr.PhysFrame[addr.Size4K]) {
	idx := int((f.Address().AsU64() - a.base) / 4096)
	if idx >= 0 && idx < len(a.free) {
		a.free[idx] = true
	}
}

func (a *hostFrameAllocator) p2v(pa addr.PhysAddr) unsafe.Pointer {
	idx := int((pa.AsU64() - a.base) / 4096)
	return unsafe.Pointer(&a.frames[idx][0])
}

func newTestVmm(t *testing.T, frameCount int) (*Vmm, *hostFrameAllocator) {
	t.Helper()

	fa := newHostFrameAllocator(frameCount)
	rootFrame, err := fa.AllocFrame()
	if err != nil {
		t.Fatalf("allocating root table frame: %v", err)
	}

	mapper := NewMapper(rootFrame.Address(), fa.p2v, func(addr.VirtAddr) {}, fa)
	layout := testLayout()

	return New(mapper, layout), fa
}

func TestMapInitialHeapThenGrowHeapAreContiguous(t *testing.T) {
	v, fa := newTestVmm(t, 4096)

	base, size, err := v.MapInitialHeap(fa)
	if err != nil {
		t.Fatalf("MapInitialHeap: %v", err)
	}
	if size != initialHeapSize {
		t.Fatalf("initial heap size = %d, want %d", size, initialHeapSize)
	}

	grownBase, grownSize, err := v.GrowHeap(8192, fa)
	if err != nil {
		t.Fatalf("GrowHeap: %v", err)
	}
	if grownBase.AsU64() != base.AsU64()+size {
		t.Fatalf("grown heap base = %#x, want immediately after initial heap at %#x", grownBase.AsU64(), base.AsU64()+size)
	}
	if grownSize != 8192 {
		t.Fatalf("grown size = %d, want 8192 (already page aligned)", grownSize)
	}

	pa, ok := v.Translate(base)
	if !ok {
		t.Fatalf("Translate(heap base) should resolve after MapInitialHeap")
	}
	if pa.AsU64() == 0 {
		t.Fatalf("Translate(heap base) returned the zero frame")
	}
}

func TestAllocKernelStackLeavesGuardPageUnmapped(t *testing.T) {
	v, fa := newTestVmm(t, 4096)

	stack, err := v.AllocKernelStack(fa, nil)
	if err != nil {
		t.Fatalf("AllocKernelStack: %v", err)
	}

	if _, ok := v.Translate(stack.GuardAddress()); ok {
		t.Fatalf("guard page must stay unmapped so an overflow raises a fault")
	}

	usableBase := addr.NewVirtAddr(stack.GuardAddress().AsU64() + guardSize)
	if _, ok := v.Translate(usableBase); !ok {
		t.Fatalf("usable stack range must be mapped")
	}

	if stack.Top().AsU64() != usableBase.AsU64()+kernelStackSize {
		t.Fatalf("Top() = %#x, want usable base + stack size = %#x", stack.Top().AsU64(), usableBase.AsU64()+kernelStackSize)
	}

	stack.Close()

	if _, ok := v.Translate(usableBase); ok {
		t.Fatalf("Close must unmap the usable range")
	}
}

func TestMapMmioTranslateRoundTrip(t *testing.T) {
	v, _ := newTestVmm(t, 4096)

	phys := addr.NewPhysAddr(0xFEE0_0000)
	mapping, err := v.MapMmio(phys, 4096, nil)
	if err != nil {
		t.Fatalf("MapMmio: %v", err)
	}

	pa, ok := v.Translate(mapping.Address())
	if !ok {
		t.Fatalf("Translate(mmio base) should resolve")
	}
	if pa != phys {
		t.Fatalf("Translate(mmio base) = %#x, want %#x", pa.AsU64(), phys.AsU64())
	}

	mapping.Close()

	if _, ok := v.Translate(mapping.Address()); ok {
		t.Fatalf("Close must unmap the mmio range")
	}
}

func TestUnmapPageThenTranslateFails(t *testing.T) {
	v, fa := newTestVmm(t, 4096)

	base, _, err := v.MapInitialHeap(fa)
	if err != nil {
		t.Fatalf("MapInitialHeap: %v", err)
	}

	page := addr.PageContaining[addr.Size4K](base)
	frame, flush, err := UnmapPage(v.mapper, page)
	if err != nil {
		t.Fatalf("UnmapPage: %v", err)
	}
	flush.Flush()
	fa.FreeFrame(frame)

	if _, ok := v.Translate(base); ok {
		t.Fatalf("Translate after UnmapPage should fail")
	}
}

func TestStacksRegionReclaimsRangeAfterClose(t *testing.T) {
	v, fa := newTestVmm(t, 4096)

	before := v.stacks.rangeCount()

	stack, err := v.AllocKernelStack(fa, nil)
	if err != nil {
		t.Fatalf("AllocKernelStack: %v", err)
	}
	stack.Close()

	after := v.stacks.rangeCount()
	if after != before {
		t.Fatalf("stacks free-range count = %d after alloc+close, want unchanged %d", after, before)
	}
}

func TestIsStackGuardFaultDetectsOnlyTheGuardPage(t *testing.T) {
	v, fa := newTestVmm(t, 4096)

	stack, err := v.AllocKernelStack(fa, nil)
	if err != nil {
		t.Fatalf("AllocKernelStack: %v", err)
	}

	if !v.IsStackGuardFault(stack.GuardAddress()) {
		t.Fatalf("a fault at the guard page base should be reported as a stack overflow")
	}

	lastGuardByte := addr.NewVirtAddr(stack.GuardAddress().AsU64() + guardSize - 1)
	if !v.IsStackGuardFault(lastGuardByte) {
		t.Fatalf("a fault at the guard page's last byte should still be reported as a stack overflow")
	}

	usableBase := addr.NewVirtAddr(stack.GuardAddress().AsU64() + guardSize)
	if v.IsStackGuardFault(usableBase) {
		t.Fatalf("a fault just past the guard page (the mapped usable range) must not be reported as a stack overflow")
	}

	beyondWatermark := addr.NewVirtAddr(v.layout.Base(mem.RegionStacks).AsU64() + 10*(guardSize+kernelStackSize))
	if v.IsStackGuardFault(beyondWatermark) {
		t.Fatalf("a fault past every allocation ever made in the region must not be reported as a stack overflow")
	}

	heapBase, _, herr := v.MapInitialHeap(fa)
	if herr != nil {
		t.Fatalf("MapInitialHeap: %v", herr)
	}
	if v.IsStackGuardFault(heapBase) {
		t.Fatalf("a fault outside the stacks region must never be reported as a stack overflow")
	}
}

func testLayout() *mem.Layout {
	return mem.NewLayout(0, 0, 0)
}
