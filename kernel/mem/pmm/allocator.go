// Package pmm describes the physical frame allocator contract the VMM
// builds on, and ships BitmapAllocator, the bitmap-backed implementation
// kmain uses as the boot frame allocator. The VMM and proc unit tests use
// their own in-package host allocators instead.
package pmm

import (
	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
)

// FrameAllocator hands out and reclaims 4 KiB physical frames. Intermediate
// page-table frames always come from this interface, never from the heap
// or stacks regions.
type FrameAllocator interface {
	AllocFrame() (addr.PhysFrame[addr.Size4K], *kernel.Error)
	FreeFrame(addr.PhysFrame[addr.Size4K])
}

// ErrOutOfMemory is returned by FrameAllocator implementations once no
// frame is available.
var ErrOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}
