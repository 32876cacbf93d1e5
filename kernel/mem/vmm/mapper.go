package vmm

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
)

const entriesPerTable = 512

type table [entriesPerTable]pageTableEntry

// PhysToVirtFn resolves a physical address to a directly-accessible Go
// pointer. In production this adds the bootloader's HHDM base; tests
// register a closure pointing into ordinary Go-allocated "frames" so the
// walker can run without real paging hardware.
type PhysToVirtFn func(addr.PhysAddr) unsafe.Pointer

// FlushFn invalidates a single TLB entry for a virtual address. Registered
// once at boot (cpu.FlushTLBEntry); tests register a no-op and observe no
// effect.
type FlushFn func(va addr.VirtAddr)

var (
	// errNoHugePageSupport is returned when a page-table walk meets a huge
	// page it did not expect at the requested level.
	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported at this level"}

	// ErrInvalidMapping is returned by UnmapPage for an address with no
	// mapping installed; Translate reports the same case with ok=false.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "not mapped"}

	// ErrSizeMismatch describes an operation whose page size does not
	// match the size of the mapping actually installed at that address.
	// No function in this package returns it; a walk that meets an
	// unexpected huge page returns errNoHugePageSupport.
	ErrSizeMismatch = &kernel.Error{Module: "vmm", Message: "page size mismatch"}
)

// MapFlush is returned by every mapping mutation. Fresh mappings (no entry
// could have been cached since none existed before) call Ignore; updates
// and unmaps must call Flush so the local TLB is invalidated. Dropping the
// handle without calling either invalidates nothing: Go has no
// destructors, so callers MUST call one of
// Flush/Ignore explicitly -- unlike the Rust original, a forgotten MapFlush
// is a latent bug here, not a compile error.
type MapFlush struct {
	va       addr.VirtAddr
	flush    FlushFn
	resolved bool
}

// Flush invalidates the local TLB entry for the address this handle
// covers.
func (f *MapFlush) Flush() {
	if f.resolved {
		return
	}
	f.resolved = true
	if f.flush != nil {
		f.flush(f.va)
	}
}

// Ignore discards the handle without flushing, for mappings where no stale
// TLB entry could possibly exist (e.g. a page that was never mapped
// before).
func (f *MapFlush) Ignore() {
	f.resolved = true
}

// Mapper owns one page table hierarchy (the kernel's root table, or a
// process's PML4) and provides the single generic mapping API every region
// allocator in this package builds on.
type Mapper struct {
	root      unsafe.Pointer // *table for the PML4
	rootPhys  addr.PhysAddr
	p2v       PhysToVirtFn
	flush     FlushFn
	allocator pmm.FrameAllocator
}

// NewMapper builds a Mapper over an existing root table.
func NewMapper(rootPhys addr.PhysAddr, p2v PhysToVirtFn, flush FlushFn, allocator pmm.FrameAllocator) *Mapper {
	return &Mapper{
		root:      p2v(rootPhys),
		rootPhys:  rootPhys,
		p2v:       p2v,
		flush:     flush,
		allocator: allocator,
	}
}

// RootPhysAddr returns the physical address of the PML4, e.g. for loading
// into CR3.
func (m *Mapper) RootPhysAddr() addr.PhysAddr {
	return m.rootPhys
}

// levelForSize returns how many levels to descend before installing the
// leaf entry: 4 for a 4 KiB page (descend through PML4/PDPT/PD/PT), 3 for
// a 2 MiB page (stop at the PD, set FlagHugePage), 2 for a 1 GiB page
// (stop at the PDPT, set FlagHugePage).
func levelForSize(size uint64) int {
	switch size {
	case addr.Size1G{}.Bytes():
		return 2
	case addr.Size2M{}.Bytes():
		return 3
	default:
		return 4
	}
}

// walk descends the table hierarchy for va, creating intermediate tables
// via the frame allocator as needed, stopping after `levels` steps. visit
// is invoked with the entry at the stopping level; its pointer is only
// valid for the duration of the call.
func (m *Mapper) walk(va addr.VirtAddr, levels int, visit func(level int, pte *pageTableEntry) *kernel.Error) *kernel.Error {
	indices := [4]uint16{va.P4Index(), va.P3Index(), va.P2Index(), va.P1Index()}

	cur := (*table)(m.root)
	for level := 1; level <= 4; level++ {
		pte := &cur[indices[level-1]]

		if level == levels {
			return visit(level, pte)
		}

		if pte.HasFlags(FlagHugePage) {
			return errNoHugePageSupport
		}

		if !pte.HasFlags(FlagPresent) {
			frame, err := m.allocator.AllocFrame()
			if err != nil {
				return pmm.ErrOutOfMemory
			}

			*pte = 0
			pte.SetFrame(frame.Address().AsU64())
			pte.SetFlags(FlagPresent | FlagWritable)
			kernel.Memset(uintptr(m.p2v(frame.Address())), 0, 4096)
		}

		cur = (*table)(m.p2v(addr.NewPhysAddr(pte.FrameAddr())))
	}

	return nil
}

// MapPage installs a mapping from va to pa for a page of the given size,
// returning a MapFlush the caller must resolve.
func MapPage[S addr.PageSize](m *Mapper, page addr.Page[S], frame addr.PhysFrame[S], flags Flag) (*MapFlush, *kernel.Error) {
	var s S
	levels := levelForSize(s.Bytes())

	hwFlags := flags &^ FlagExecutable
	if flags&FlagExecutable == 0 {
		hwFlags |= flagNoExecute
	}

	var outErr *kernel.Error
	err := m.walk(page.Address(), levels, func(level int, pte *pageTableEntry) *kernel.Error {
		*pte = 0
		pte.SetFrame(frame.Address().AsU64())
		pte.SetFlags(hwFlags | FlagPresent)
		if levels < 4 {
			pte.SetFlags(FlagHugePage)
		}
		return nil
	})
	if err != nil {
		outErr = err
		return nil, outErr
	}

	return &MapFlush{va: page.Address(), flush: m.flush}, nil
}

// UnmapPage clears the mapping for page and returns the physical frame
// that was mapped there (so the caller can return it to a frame
// allocator) together with a MapFlush the caller must resolve with Flush
// (an unmap always invalidates a previously live TLB entry).
func UnmapPage[S addr.PageSize](m *Mapper, page addr.Page[S]) (addr.PhysFrame[S], *MapFlush, *kernel.Error) {
	var s S
	levels := levelForSize(s.Bytes())

	var frame addr.PhysFrame[S]
	err := m.walk(page.Address(), levels, func(level int, pte *pageTableEntry) *kernel.Error {
		if !pte.HasFlags(FlagPresent) {
			return ErrInvalidMapping
		}

		f, ferr := addr.PhysFrameFromStartAddress[S](addr.NewPhysAddr(pte.FrameAddr()))
		if ferr != nil {
			return ferr.(*kernel.Error)
		}
		frame = f

		pte.ClearFlags(FlagPresent)
		return nil
	})
	if err != nil {
		return addr.PhysFrame[S]{}, nil, err
	}

	return frame, &MapFlush{va: page.Address(), flush: m.flush}, nil
}

// Translate walks the table hierarchy for va and returns the physical
// address it currently maps to, or ok=false if no mapping exists at any
// supported page size.
func (m *Mapper) Translate(va addr.VirtAddr) (pa addr.PhysAddr, ok bool) {
	indices := [4]uint16{va.P4Index(), va.P3Index(), va.P2Index(), va.P1Index()}
	cur := (*table)(m.root)

	for level := 1; level <= 4; level++ {
		pte := &cur[indices[level-1]]
		if !pte.HasFlags(FlagPresent) {
			return 0, false
		}

		if pte.HasFlags(FlagHugePage) || level == 4 {
			frameBase := pte.FrameAddr()
			offsetMask := pageSizeForLevel(level) - 1
			return addr.NewPhysAddr(frameBase | (va.AsU64() & offsetMask)), true
		}

		cur = (*table)(m.p2v(addr.NewPhysAddr(pte.FrameAddr())))
	}

	return 0, false
}

func pageSizeForLevel(level int) uint64 {
	switch level {
	case 2:
		return addr.Size1G{}.Bytes()
	case 3:
		return addr.Size2M{}.Bytes()
	default:
		return addr.Size4K{}.Bytes()
	}
}
