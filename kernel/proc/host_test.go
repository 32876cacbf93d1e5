package proc

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
)

var errHostOOM = &kernel.Error{Module: "proc_test", Message: "host frame pool exhausted"}

// hostFrameAllocator mirrors the vmm package's own test double: ordinary
// Go byte slices standing in for physical frames, so page tables and
// loaded segments can be exercised without real paging hardware.
type hostFrameAllocator struct {
	frames [][]byte
	free   []bool
	base   uint64
}

func newHostFrameAllocator(n int) *hostFrameAllocator {
	a := &hostFrameAllocator{base: 0x1000}
	for i := 0; i < n; i++ {
		a.frames = append(a.frames, make([]byte, 4096))
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

func (a *hostFrameAllocator) noopFlush(addr.VirtAddr) {}
