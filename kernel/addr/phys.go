package addr

// physAddrMask keeps only the architecturally-defined 52 low bits of a
// physical address; x86_64 implementations never expose more than that.
const physAddrMask = (uint64(1) << 52) - 1

// PhysAddr is a 64-bit physical address masked to the low 52 bits.
type PhysAddr uint64

// NewPhysAddr masks a to 52 bits and returns the result. There is no
// fallible constructor: any u64 can be turned into a valid PhysAddr by
// masking, the same way VirtAddr sign-extends instead of rejecting input.
func NewPhysAddr(a uint64) PhysAddr {
	return PhysAddr(a & physAddrMask)
}

// AsU64 returns the raw 64-bit value (already masked to 52 bits).
func (p PhysAddr) AsU64() uint64 {
	return uint64(p)
}

// AddSaturating returns p+delta, saturating at the 52-bit physical address
// ceiling instead of wrapping.
func (p PhysAddr) AddSaturating(delta uint64) PhysAddr {
	sum := p.AsU64() + delta
	if sum < p.AsU64() || sum > physAddrMask {
		return PhysAddr(physAddrMask)
	}
	return PhysAddr(sum)
}

// SubSaturating returns p-delta, saturating at zero instead of wrapping.
func (p PhysAddr) SubSaturating(delta uint64) PhysAddr {
	if delta > p.AsU64() {
		return PhysAddr(0)
	}
	return PhysAddr(p.AsU64() - delta)
}

// AlignDown rounds p down to the nearest multiple of size, a power of two.
func (p PhysAddr) AlignDown(size uint64) PhysAddr {
	return NewPhysAddr(alignDown(p.AsU64(), size))
}

// AlignUp rounds p up to the nearest multiple of size, a power of two.
func (p PhysAddr) AlignUp(size uint64) PhysAddr {
	return NewPhysAddr(alignUp(p.AsU64(), size))
}
