package addr

// Page is a virtual page whose address is guaranteed aligned to S's size.
type Page[S PageSize] struct {
	addr VirtAddr
}

// PageFromStartAddress builds a Page from an address that must already be
// aligned to S's size; unaligned input fails with ErrAddressNotAligned
// instead of silently rounding, mirroring PhysFrame's constructor.
func PageFromStartAddress[S PageSize](a VirtAddr) (Page[S], error) {
	var s S
	if a.AsU64()%s.Bytes() != 0 {
		return Page[S]{}, ErrAddressNotAligned
	}
	return Page[S]{addr: a}, nil
}

// PageContaining returns the page of size S that contains a, rounding down.
func PageContaining[S PageSize](a VirtAddr) Page[S] {
	var s S
	return Page[S]{addr: a.AlignDown(s.Bytes())}
}

// Address returns the page's start address.
func (p Page[S]) Address() VirtAddr {
	return p.addr
}

// Size returns the number of bytes covered by this page.
func (p Page[S]) Size() uint64 {
	var s S
	return s.Bytes()
}

// PageRange is a half-open [Start, End) sequence of pages of size S.
// Start and End must both already be page-aligned.
type PageRange[S PageSize] struct {
	Start, End Page[S]
}

// NewPageRange builds a PageRange from two aligned addresses.
func NewPageRange[S PageSize](start, end VirtAddr) (PageRange[S], error) {
	s, err := PageFromStartAddress[S](start)
	if err != nil {
		return PageRange[S]{}, err
	}
	e, err := PageFromStartAddress[S](end)
	if err != nil {
		return PageRange[S]{}, err
	}
	return PageRange[S]{Start: s, End: e}, nil
}

// Len returns the number of pages in the range.
func (r PageRange[S]) Len() int {
	var s S
	if r.End.addr <= r.Start.addr {
		return 0
	}
	return int((uint64(r.End.addr) - uint64(r.Start.addr)) / s.Bytes())
}

// At returns the i'th page in the range ([0, Len())).
func (r PageRange[S]) At(i int) Page[S] {
	var s S
	return Page[S]{addr: VirtAddr(uint64(r.Start.addr) + uint64(i)*s.Bytes())}
}

// ForEach calls fn once per page in the range, in ascending order.
func (r PageRange[S]) ForEach(fn func(Page[S])) {
	for i := 0; i < r.Len(); i++ {
		fn(r.At(i))
	}
}
