// Package proc implements the process task: an AddressSpace (RAII over a
// process's root page table frame), a Process wrapping it with a PID and
// an FD table, a minimal ELF loader, and spawn_init.
package proc

import (
	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/vmm"
)

// AddressSpace owns a process's root page table frame. Go has no
// destructors, so unlike the Rust original's Drop impl, Close MUST be
// called explicitly (directly, or via the Process wrapper's own Close)
// once the process exits; forgetting to do so leaks the PML4 frame
// rather than corrupting memory, the same trade-off KernelStack and
// MmioMapping already make in the VMM.
type AddressSpace struct {
	mapper  *vmm.Mapper
	alloc   pmm.FrameAllocator
	closed  bool
}

// NewAddressSpace allocates a fresh root frame, zeroes it, and wraps it
// in a Mapper using p2v/flush exactly as the kernel's own Vmm does.
func NewAddressSpace(alloc pmm.FrameAllocator, p2v vmm.PhysToVirtFn, flush vmm.FlushFn) (*AddressSpace, *kernel.Error) {
	frame, err := alloc.AllocFrame()
	if err != nil {
		return nil, err
	}

	rootPtr := p2v(frame.Address())
	kernel.Memset(uintptr(rootPtr), 0, uintptr(addr.Size4K{}.Bytes()))

	mapper := vmm.NewMapper(frame.Address(), p2v, flush, alloc)
	return &AddressSpace{mapper: mapper, alloc: alloc}, nil
}

// RootPhysAddr returns the physical address to load into CR3 to activate
// this address space.
func (a *AddressSpace) RootPhysAddr() addr.PhysAddr {
	return a.mapper.RootPhysAddr()
}

// Mapper exposes the underlying Mapper so the ELF loader can install
// user-accessible mappings into this specific address space rather than
// the kernel's own root table.
func (a *AddressSpace) Mapper() *vmm.Mapper {
	return a.mapper
}

// Close releases the root page table frame back to the allocator. It is
// idempotent so a Process's own Close can call it unconditionally.
func (a *AddressSpace) Close() {
	if a.closed {
		return
	}
	a.closed = true

	frame := addr.PhysFrameContaining[addr.Size4K](a.RootPhysAddr())
	a.alloc.FreeFrame(frame)
}
