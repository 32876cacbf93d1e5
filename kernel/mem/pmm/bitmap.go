package pmm

import (
	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
)

// BitmapAllocator is a first-fit bitmap allocator over one contiguous
// range of frames, built from a base address and a frame count instead
// of scanning a multiboot memory map directly; ReserveRange excludes
// unusable byte ranges. Frames can be freed: FreeFrame clears the
// corresponding bit.
type BitmapAllocator struct {
	base  addr.PhysAddr
	bits  []bool
	cur   int
}

// NewBitmapAllocator builds an allocator covering [base, base+frameCount*4K),
// with every frame initially marked free.
func NewBitmapAllocator(base addr.PhysAddr, frameCount int) *BitmapAllocator {
	return &BitmapAllocator{
		base: base,
		bits: make([]bool, frameCount),
	}
}

// ReserveRange marks the frames covering [from, to) as already allocated,
// e.g. to exclude the kernel image or a bootloader-reserved region.
func (a *BitmapAllocator) ReserveRange(from, to addr.PhysAddr) {
	fromIdx := a.frameIndex(from)
	toIdx := a.frameIndex(to)
	for i := fromIdx; i < toIdx && i < len(a.bits); i++ {
		if i >= 0 {
			a.bits[i] = true
		}
	}
}

func (a *BitmapAllocator) frameIndex(p addr.PhysAddr) int {
	return int((p.AsU64() - a.base.AsU64()) / addr.Size4K{}.Bytes())
}

// AllocFrame returns the lowest free 4 KiB frame, scanning from a cursor
// below which every frame is in use, so repeated allocations don't
// re-scan already-full prefixes.
func (a *BitmapAllocator) AllocFrame() (addr.PhysFrame[addr.Size4K], *kernel.Error) {
	n := len(a.bits)
	for i := 0; i < n; i++ {
		idx := (a.cur + i) % n
		if !a.bits[idx] {
			a.bits[idx] = true
			a.cur = idx + 1
			frameAddr := addr.NewPhysAddr(a.base.AsU64() + uint64(idx)*addr.Size4K{}.Bytes())
			f, _ := addr.PhysFrameFromStartAddress[addr.Size4K](frameAddr)
			return f, nil
		}
	}
	return addr.PhysFrame[addr.Size4K]{}, ErrOutOfMemory
}

// FreeFrame clears the bit for f, making it available for reuse, and
// moves the scan cursor back to it when it lies below the cursor.
func (a *BitmapAllocator) FreeFrame(f addr.PhysFrame[addr.Size4K]) {
	idx := a.frameIndex(f.Address())
	if idx >= 0 && idx < len(a.bits) {
		a.bits[idx] = false
		if idx < a.cur {
			a.cur = idx
		}
	}
}
