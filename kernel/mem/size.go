// Package mem holds the kernel's virtual memory layout: the fixed region
// offsets from regions_base, the kernel image's fixed load address, and the
// identify_region classifier every fault handler and VMM region allocator
// relies on.
package mem

// Size represents a memory block size in bytes, so constants like mem.Mb
// read the same way throughout the tree.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
	Tb        = 1024 * Gb
)
