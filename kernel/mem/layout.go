package mem

import "github.com/asterism-labs/hadron-sub002/kernel/addr"

// defaultRegionsBase is the default KASLR-capable base for every region
// except the fixed kernel image and the bootloader-provided HHDM.
const defaultRegionsBase uint64 = 0xFFFF_C000_0000_0000

// kernelImageBase never moves under KASLR in this design: the bootloader
// maps the kernel image here unconditionally.
const kernelImageBase uint64 = 0xFFFF_FFFF_8000_0000

// Region identifies one of the named virtual memory regions.
type Region uint8

const (
	RegionHeap Region = iota
	RegionStacks
	RegionMMIO
	RegionPerCpu
	RegionVDSO
	RegionKernelImage
	RegionHHDM
	RegionUnknown
)

func (r Region) String() string {
	switch r {
	case RegionHeap:
		return "Heap"
	case RegionStacks:
		return "Stacks"
	case RegionMMIO:
		return "Mmio"
	case RegionPerCpu:
		return "PerCpu"
	case RegionVDSO:
		return "VDSO"
	case RegionKernelImage:
		return "KernelImage"
	case RegionHHDM:
		return "Hhdm"
	default:
		return "Unknown"
	}
}

// regionSpan describes a region's offset from the layout's regions base and
// its maximum size.
type regionSpan struct {
	offset, maxSize uint64
}

// Layout fixes the offsets and maximum sizes of every named virtual memory
// region relative to a (possibly KASLR-shifted) regions base. The kernel
// image is never shifted; the HHDM base is supplied by the bootloader and
// is independent of regions base entirely.
type Layout struct {
	RegionsBase uint64
	HHDMBase    uint64
	HHDMSize    uint64

	spans map[Region]regionSpan
}

// NewLayout builds the default layout: regionsBase defaults to
// defaultRegionsBase when zero, which is also what a non-KASLR boot uses.
func NewLayout(regionsBase, hhdmBase, hhdmSize uint64) *Layout {
	if regionsBase == 0 {
		regionsBase = defaultRegionsBase
	}

	return &Layout{
		RegionsBase: regionsBase,
		HHDMBase:    hhdmBase,
		HHDMSize:    hhdmSize,
		spans: map[Region]regionSpan{
			RegionHeap:   {offset: 0, maxSize: uint64(2 * Tb)},
			RegionStacks: {offset: uint64(8 * Tb), maxSize: uint64(512 * Gb)},
			RegionMMIO:   {offset: uint64(16 * Tb), maxSize: uint64(1 * Tb)},
			RegionPerCpu: {offset: uint64(32 * Tb), maxSize: uint64(1 * Tb)},
			RegionVDSO:   {offset: uint64(48 * Tb), maxSize: uint64(2 * Mb)},
		},
	}
}

// Base returns the start address of a region.
func (l *Layout) Base(r Region) addr.VirtAddr {
	switch r {
	case RegionKernelImage:
		return addr.NewVirtAddr(kernelImageBase)
	case RegionHHDM:
		return addr.NewVirtAddr(l.HHDMBase)
	default:
		span := l.spans[r]
		return addr.NewVirtAddr(l.RegionsBase + span.offset)
	}
}

// MaxSize returns the maximum size of a region, or 0 for the two regions
// (kernel image, HHDM) whose size is externally determined.
func (l *Layout) MaxSize(r Region) uint64 {
	return l.spans[r].maxSize
}

// IdentifyRegion classifies a virtual address into one of the named
// regions. The kernel image and HHDM ranges are checked first since they
// can legally overlap the KASLR-relative address space if regionsBase is
// misconfigured; a correctly configured layout never overlaps them.
func (l *Layout) IdentifyRegion(va addr.VirtAddr) Region {
	a := va.AsU64()

	if imgBase := kernelImageBase; a >= imgBase {
		// The kernel image is small relative to the 0xFFFF_FFFF_8000_0000
		// ceiling; anything at or above its base and below the top of the
		// canonical higher half is treated as image space unless it also
		// falls within a region span below.
		if span, ok := l.spanContaining(a); ok {
			return span
		}
		return RegionKernelImage
	}

	if l.HHDMSize > 0 && a >= l.HHDMBase && a < l.HHDMBase+l.HHDMSize {
		return RegionHHDM
	}

	if span, ok := l.spanContaining(a); ok {
		return span
	}

	return RegionUnknown
}

func (l *Layout) spanContaining(a uint64) (Region, bool) {
	for _, r := range []Region{RegionHeap, RegionStacks, RegionMMIO, RegionPerCpu, RegionVDSO} {
		span := l.spans[r]
		base := l.RegionsBase + span.offset
		if a >= base && a < base+span.maxSize {
			return r, true
		}
	}
	return RegionUnknown, false
}
