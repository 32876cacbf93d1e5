package vmm

import (
	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/mem"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
)

const (
	guardSize        = uint64(4 * mem.Kb)
	kernelStackSize  = uint64(64 * mem.Kb)
	stacksCapacity   = 256
	mmioCapacity     = 128
	initialHeapSize  = uint64(4 * mem.Mb)
)

// Vmm owns the kernel's root page table together with the heap, stacks and
// MMIO sub-allocators. There is exactly one writer (whoever holds *Vmm);
// readers go through Translate, which only needs the Mapper.
type Vmm struct {
	mapper *Mapper
	layout *mem.Layout

	heap   *bumpAllocator
	stacks *freeRegionAllocator
	mmio   *freeRegionAllocator
}

// New builds a Vmm over an existing root table and layout. The heap, stacks
// and MMIO allocators are seeded from the layout's fixed region bases/max
// sizes.
func New(mapper *Mapper, layout *mem.Layout) *Vmm {
	return &Vmm{
		mapper: mapper,
		layout: layout,
		heap:   newBumpAllocator(layout.Base(mem.RegionHeap).AsU64(), layout.MaxSize(mem.RegionHeap)),
		stacks: newFreeRegionAllocator(layout.Base(mem.RegionStacks).AsU64(), layout.MaxSize(mem.RegionStacks), stacksCapacity),
		mmio:   newFreeRegionAllocator(layout.Base(mem.RegionMMIO).AsU64(), layout.MaxSize(mem.RegionMMIO), mmioCapacity),
	}
}

// Mapper exposes the underlying Mapper for callers that need the generic
// MapPage/UnmapPage API directly (e.g. the VFS page cache, out of scope
// here, or AddressSpace when building a fresh process root table).
func (v *Vmm) Mapper() *Mapper {
	return v.mapper
}

// MapInitialHeap maps a contiguous 4 MiB heap starting at the heap region's
// base with WRITABLE|GLOBAL, zero-filling every page, and returns its base
// and size. It must be called exactly once, before GrowHeap.
func (v *Vmm) MapInitialHeap(alloc pmm.FrameAllocator) (addr.VirtAddr, uint64, *kernel.Error) {
	base, err := v.heap.allocate(initialHeapSize)
	if err != nil {
		return 0, 0, err
	}

	if err := v.mapAndZero(base, initialHeapSize, alloc, FlagWritable|FlagGlobal); err != nil {
		return 0, 0, err
	}

	return addr.NewVirtAddr(base), initialHeapSize, nil
}

// GrowHeap rounds bytes up to a page multiple, bump-allocates within the
// heap region, maps and zero-fills the freshly allocated frames, and
// returns the new allocation's base and actual size.
func (v *Vmm) GrowHeap(bytes uint64, alloc pmm.FrameAllocator) (addr.VirtAddr, uint64, *kernel.Error) {
	size := roundUpPage(bytes)

	base, err := v.heap.allocate(size)
	if err != nil {
		return 0, 0, err
	}

	if err := v.mapAndZero(base, size, alloc, FlagWritable|FlagGlobal); err != nil {
		return 0, 0, err
	}

	return addr.NewVirtAddr(base), size, nil
}

// mapAndZero maps [base, base+size) 4 KiB at a time, rolling back every
// page it already installed if any single page fails, so a partially
// mapped range is never left behind.
func (v *Vmm) mapAndZero(base, size uint64, alloc pmm.FrameAllocator, flags Flag) *kernel.Error {
	pageCount := int(size / addr.Size4K{}.Bytes())
	mapped := make([]addr.Page[addr.Size4K], 0, pageCount)

	for i := 0; i < pageCount; i++ {
		page := addr.PageContaining[addr.Size4K](addr.NewVirtAddr(base + uint64(i)*addr.Size4K{}.Bytes()))

		frame, ferr := alloc.AllocFrame()
		if ferr != nil {
			v.rollbackPages(mapped, alloc)
			return pmm.ErrOutOfMemory
		}

		flush, merr := MapPage(v.mapper, page, frame, flags)
		if merr != nil {
			alloc.FreeFrame(frame)
			v.rollbackPages(mapped, alloc)
			return merr
		}
		flush.Ignore()

		kernel.Memset(uintptr(v.translateForZeroing(page.Address())), 0, uintptr(addr.Size4K{}.Bytes()))
		mapped = append(mapped, page)
	}

	return nil
}

// translateForZeroing resolves a freshly-mapped page's backing store so it
// can be zeroed. This goes through the same PhysToVirt translator the
// mapper uses rather than the page's own virtual address, since the kernel
// may not yet be running with that mapping "hot" in every context (e.g.
// zeroing a different address space's page before a context switch).
func (v *Vmm) translateForZeroing(va addr.VirtAddr) uintptr {
	pa, ok := v.mapper.Translate(va)
	if !ok {
		return 0
	}
	return uintptr(v.mapper.p2v(pa))
}

// rollbackPages unmaps a partially-installed run of pages and returns
// their backing frames to alloc, used when a multi-page mapping
// operation (heap/stack growth) fails partway through.
func (v *Vmm) rollbackPages(pages []addr.Page[addr.Size4K], alloc pmm.FrameAllocator) {
	for _, p := range pages {
		frame, flush, err := UnmapPage(v.mapper, p)
		if err != nil {
			continue
		}
		flush.Flush()
		alloc.FreeFrame(frame)
	}
}

// rollbackMmioPages unmaps a partially-installed run of MMIO pages
// without freeing anything to a frame allocator: the physical range
// backing an MMIO mapping is a device register window the caller passed
// in directly, never a pool allocation, so there is nothing to return.
func (v *Vmm) rollbackMmioPages(pages []addr.Page[addr.Size4K]) {
	for _, p := range pages {
		if _, flush, err := UnmapPage(v.mapper, p); err == nil {
			flush.Flush()
		}
	}
}

func roundUpPage(bytes uint64) uint64 {
	const ps = uint64(4096)
	return (bytes + ps - 1) &^ (ps - 1)
}

// KernelStack is an RAII handle over a guarded kernel stack allocation.
// Go has no destructors, so unlike the Rust original the caller MUST call
// Close (directly, or via defer) when the stack is no longer needed;
// forgetting to do so leaks the virtual range rather than corrupting
// memory, since the guard page discipline lives entirely in the mapping,
// not in the handle.
type KernelStack struct {
	guardBase, top uint64
	vmm            *Vmm
	alloc          pmm.FrameAllocator
	cleanup        func()
	closed         bool
}

// Top returns the initial stack pointer value (top of the usable region).
func (s *KernelStack) Top() addr.VirtAddr {
	return addr.NewVirtAddr(s.top)
}

// GuardAddress returns the base of the unmapped guard page.
func (s *KernelStack) GuardAddress() addr.VirtAddr {
	return addr.NewVirtAddr(s.guardBase)
}

// Close unmaps the stack's pages, returns their backing frames to the
// allocator AllocKernelStack was given, returns the virtual range to the
// stacks allocator, and invokes the cleanup callback supplied at
// construction, if any.
func (s *KernelStack) Close() {
	if s.closed {
		return
	}
	s.closed = true

	usableBase := s.guardBase + guardSize
	pageCount := int(kernelStackSize / addr.Size4K{}.Bytes())
	for i := 0; i < pageCount; i++ {
		page := addr.PageContaining[addr.Size4K](addr.NewVirtAddr(usableBase + uint64(i)*addr.Size4K{}.Bytes()))
		if frame, flush, err := UnmapPage(s.vmm.mapper, page); err == nil {
			flush.Flush()
			s.alloc.FreeFrame(frame)
		}
	}

	s.vmm.deallocRegion(s.vmm.stacks, s.guardBase, guardSize+kernelStackSize)

	if s.cleanup != nil {
		s.cleanup()
	}
}

// AllocKernelStack reserves guard(4 KiB)+usable(64 KiB) from the stacks
// region, leaves the guard page unmapped (so a stack overflow raises #PF
// instead of silently corrupting an adjacent allocation), and maps+zeroes
// the usable pages with WRITABLE|GLOBAL.
func (v *Vmm) AllocKernelStack(alloc pmm.FrameAllocator, cleanup func()) (*KernelStack, *kernel.Error) {
	total := guardSize + kernelStackSize

	base, ok := v.stacks.allocate(total)
	if !ok {
		return nil, ErrRegionExhausted
	}

	usableBase := base + guardSize
	if err := v.mapAndZero(usableBase, kernelStackSize, alloc, FlagWritable|FlagGlobal); err != nil {
		v.stacks.deallocate(base, total)
		return nil, err
	}

	return &KernelStack{
		guardBase: base,
		top:       usableBase + kernelStackSize,
		vmm:       v,
		alloc:     alloc,
		cleanup:   cleanup,
	}, nil
}

// MmioMapping is an RAII handle over an uncached device register mapping.
type MmioMapping struct {
	base, size uint64
	vmm        *Vmm
	cleanup    func()
	closed     bool
}

// Address returns the mapping's virtual base address.
func (m *MmioMapping) Address() addr.VirtAddr {
	return addr.NewVirtAddr(m.base)
}

// Size returns the mapping's size in bytes (rounded up to a page multiple).
func (m *MmioMapping) Size() uint64 {
	return m.size
}

// Close unmaps every page in the mapping, returns the virtual range to
// the MMIO allocator, and invokes the cleanup callback, if any. The
// frame UnmapPage returns is discarded here on purpose: an MMIO mapping's
// physical range is a device register window the caller supplied
// directly (see MapMmio's phys argument), never a pmm.FrameAllocator
// allocation, so there is no pool to return it to.
func (m *MmioMapping) Close() {
	if m.closed {
		return
	}
	m.closed = true

	pageCount := int(m.size / addr.Size4K{}.Bytes())
	for i := 0; i < pageCount; i++ {
		page := addr.PageContaining[addr.Size4K](addr.NewVirtAddr(m.base + uint64(i)*addr.Size4K{}.Bytes()))
		if _, flush, err := UnmapPage(m.vmm.mapper, page); err == nil {
			flush.Flush()
		}
	}

	m.vmm.deallocRegion(m.vmm.mmio, m.base, m.size)

	if m.cleanup != nil {
		m.cleanup()
	}
}

// MapMmio rounds size up to a page multiple, takes the first free range
// that fits from the MMIO region's free-region allocator, and maps each page to consecutive physical frames starting at
// phys with WRITABLE|GLOBAL|CACHE_DISABLE.
func (v *Vmm) MapMmio(phys addr.PhysAddr, size uint64, cleanup func()) (*MmioMapping, *kernel.Error) {
	size = roundUpPage(size)

	base, ok := v.mmio.allocate(size)
	if !ok {
		return nil, ErrRegionExhausted
	}

	pageCount := int(size / addr.Size4K{}.Bytes())
	mapped := make([]addr.Page[addr.Size4K], 0, pageCount)

	for i := 0; i < pageCount; i++ {
		page := addr.PageContaining[addr.Size4K](addr.NewVirtAddr(base + uint64(i)*addr.Size4K{}.Bytes()))
		frame, ferr := addr.PhysFrameFromStartAddress[addr.Size4K](addr.NewPhysAddr(phys.AsU64() + uint64(i)*addr.Size4K{}.Bytes()))
		if ferr != nil {
			v.rollbackMmioPages(mapped)
			v.mmio.deallocate(base, size)
			return nil, ferr.(*kernel.Error)
		}

		flush, merr := MapPage(v.mapper, page, frame, FlagWritable|FlagGlobal|FlagCacheDisable)
		if merr != nil {
			v.rollbackMmioPages(mapped)
			v.mmio.deallocate(base, size)
			return nil, merr
		}
		flush.Ignore()
		mapped = append(mapped, page)
	}

	return &MmioMapping{base: base, size: size, vmm: v, cleanup: cleanup}, nil
}

// Translate performs a page-size-agnostic walk for va.
func (v *Vmm) Translate(va addr.VirtAddr) (addr.PhysAddr, bool) {
	return v.mapper.Translate(va)
}

// deallocRegion returns [lo, lo+size) to the given free-region allocator.
func (v *Vmm) deallocRegion(a *freeRegionAllocator, lo, size uint64) {
	a.deallocate(lo, lo+size)
}

// DeallocStackRegion returns a previously allocated stack's full
// guard+usable range to the stacks allocator. Prefer KernelStack.Close,
// which also unmaps the pages; this is exposed for callers that unmapped
// the range themselves already.
func (v *Vmm) DeallocStackRegion(guardBase addr.VirtAddr) {
	v.deallocRegion(v.stacks, guardBase.AsU64(), guardSize+kernelStackSize)
}

// DeallocMmioRegion returns [base, base+size) to the MMIO allocator.
func (v *Vmm) DeallocMmioRegion(base addr.VirtAddr, size uint64) {
	v.deallocRegion(v.mmio, base.AsU64(), roundUpPage(size))
}

// IsStackGuardFault reports whether va lands in the unmapped guard portion
// of some already-carved-out stack slot: inside the stacks region, below
// the allocator's high-water mark (so it falls within a slot some
// AllocKernelStack call actually reserved, not unused space beyond every
// allocation so far), with an offset into its guard+usable slot less than
// the 4 KiB guard size. HandleFault uses this to report a ring-0 #PF as a
// stack overflow instead of a generic fault.
func (v *Vmm) IsStackGuardFault(va addr.VirtAddr) bool {
	if v.layout.IdentifyRegion(va) != mem.RegionStacks {
		return false
	}

	a := va.AsU64()
	if a >= v.stacks.watermark {
		return false
	}

	base := v.layout.Base(mem.RegionStacks).AsU64()
	slotOffset := (a - base) % (guardSize + kernelStackSize)
	return slotOffset < guardSize
}
