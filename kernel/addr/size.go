package addr

const (
	pageSize4K = uint64(4) * 1024
	pageSize2M = uint64(2) * 1024 * 1024
	pageSize1G = uint64(1) * 1024 * 1024 * 1024
)

// PageSize is implemented by the three marker types Size4K, Size2M and
// Size1G. Page and PhysFrame are parameterized over it the way the x86_64
// paging crate this design is modeled on parameterizes over a PageSize
// trait: a zero-size marker type carries the size as a compile-time
// constant instead of a runtime field.
type PageSize interface {
	Bytes() uint64
	name() string
}

// Size4K marks a standard 4 KiB page/frame.
type Size4K struct{}

// Bytes returns 4096.
func (Size4K) Bytes() uint64 { return pageSize4K }
func (Size4K) name() string  { return "4KiB" }

// Size2M marks a 2 MiB huge page/frame.
type Size2M struct{}

// Bytes returns 2*1024*1024.
func (Size2M) Bytes() uint64 { return pageSize2M }
func (Size2M) name() string  { return "2MiB" }

// Size1G marks a 1 GiB huge page/frame.
type Size1G struct{}

// Bytes returns 1024*1024*1024.
func (Size1G) Bytes() uint64 { return pageSize1G }
func (Size1G) name() string  { return "1GiB" }
