// Package addr provides the leaf address and page/frame types the rest of
// the kernel builds on: canonical 64-bit virtual addresses, 52-bit physical
// addresses, and page-size-parameterized Page/PhysFrame wrappers. Nothing in
// this package allocates or touches hardware state; it is pure arithmetic.
package addr

import "github.com/asterism-labs/hadron-sub002/kernel"

// signExtendBit is the highest bit (47) of the 48-bit canonical virtual
// address range used by 4-level paging.
const signExtendBit = 47

// VirtAddr is a canonical 64-bit virtual address: bits 48-63 always equal
// bit 47, as required by the x86_64 MMU before the address is used in any
// paging structure.
type VirtAddr uint64

// ErrAddressNotAligned is returned whenever a Page or PhysFrame is
// constructed from an address that is not aligned to the requested size.
var ErrAddressNotAligned = &kernel.Error{Module: "addr", Message: "address is not aligned"}

// NewVirtAddr sign-extends a from bit 47 and returns the resulting
// canonical address. This is the only constructor; there is no fallible
// variant because sign-extension always succeeds.
func NewVirtAddr(a uint64) VirtAddr {
	const mask = uint64(1) << signExtendBit
	if a&mask != 0 {
		a |= ^((uint64(1) << (signExtendBit + 1)) - 1)
	} else {
		a &= (uint64(1) << (signExtendBit + 1)) - 1
	}
	return VirtAddr(a)
}

// AsU64 returns the raw 64-bit value.
func (v VirtAddr) AsU64() uint64 {
	return uint64(v)
}

// IsCanonical reports whether v already equals its own sign-extension, i.e.
// NewVirtAddr(v.AsU64()) == v.
func (v VirtAddr) IsCanonical() bool {
	return NewVirtAddr(v.AsU64()) == v
}

// AlignDown rounds v down to the nearest multiple of p, which must be a
// power of two.
func (v VirtAddr) AlignDown(p uint64) VirtAddr {
	return NewVirtAddr(alignDown(v.AsU64(), p))
}

// AlignUp rounds v up to the nearest multiple of p, which must be a power
// of two. The result never exceeds v + p - 1.
func (v VirtAddr) AlignUp(p uint64) VirtAddr {
	return NewVirtAddr(alignUp(v.AsU64(), p))
}

// PageOffset returns the low bits of v below the 4 KiB page boundary.
func (v VirtAddr) PageOffset() uint64 {
	return v.AsU64() & (pageSize4K - 1)
}

// P4Index returns the PML4 index (bits 39-47) for this address.
func (v VirtAddr) P4Index() uint16 {
	return uint16((v.AsU64() >> 39) & 0x1ff)
}

// P3Index returns the page-directory-pointer index (bits 30-38).
func (v VirtAddr) P3Index() uint16 {
	return uint16((v.AsU64() >> 30) & 0x1ff)
}

// P2Index returns the page-directory index (bits 21-29).
func (v VirtAddr) P2Index() uint16 {
	return uint16((v.AsU64() >> 21) & 0x1ff)
}

// P1Index returns the page-table index (bits 12-20).
func (v VirtAddr) P1Index() uint16 {
	return uint16((v.AsU64() >> 12) & 0x1ff)
}

func alignDown(a, p uint64) uint64 {
	return a &^ (p - 1)
}

func alignUp(a, p uint64) uint64 {
	return alignDown(a+p-1, p)
}
