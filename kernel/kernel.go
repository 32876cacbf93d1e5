// Package kernel holds types shared by every layer of the core: the
// allocation-free error value and the handful of memcpy/memset helpers
// that assembly stubs and the VMM need before a real allocator exists.
package kernel

import "unsafe"

// Error describes a kernel-internal failure. All kernel errors are defined
// as global variables that are pointers to Error. This requirement stems
// from the fact that the Go allocator is not available during the earliest
// boot stages, so errors.New (which allocates) cannot be used there.
type Error struct {
	// Module is the subsystem where the error originated.
	Module string

	// Message is a short, human readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "[" + e.Module + "] " + e.Message
}

// Memset sets size bytes starting at addr to value. It overlays a slice
// header on top of the raw address instead of looping byte-by-byte so
// that page-sized clears run in O(log2(size)) copies.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
	target[0] = value
	for index := uintptr(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Memcopy copies size bytes from src to dst. Overlapping regions are not
// supported; callers must guarantee disjoint ranges (the VMM never copies
// overlapping pages).
func Memcopy(dst, src uintptr, size uintptr) {
	if size == 0 {
		return
	}

	dstSlice := unsafe.Slice((*byte)(unsafe.Pointer(dst)), int(size))
	srcSlice := unsafe.Slice((*byte)(unsafe.Pointer(src)), int(size))
	copy(dstSlice, srcSlice)
}
