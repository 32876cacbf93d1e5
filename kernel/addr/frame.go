package addr

// PhysFrame is a physical frame whose address is guaranteed aligned to S's
// size.
type PhysFrame[S PageSize] struct {
	addr PhysAddr
}

// PhysFrameFromStartAddress builds a PhysFrame from an address that must
// already be aligned to S's size.
func PhysFrameFromStartAddress[S PageSize](a PhysAddr) (PhysFrame[S], error) {
	var s S
	if a.AsU64()%s.Bytes() != 0 {
		return PhysFrame[S]{}, ErrAddressNotAligned
	}
	return PhysFrame[S]{addr: a}, nil
}

// PhysFrameContaining returns the frame of size S that contains a.
func PhysFrameContaining[S PageSize](a PhysAddr) PhysFrame[S] {
	var s S
	return PhysFrame[S]{addr: a.AlignDown(s.Bytes())}
}

// Address returns the frame's start address.
func (f PhysFrame[S]) Address() PhysAddr {
	return f.addr
}

// Size returns the number of bytes covered by this frame.
func (f PhysFrame[S]) Size() uint64 {
	var s S
	return s.Bytes()
}

// FrameRange is a half-open [Start, End) sequence of frames of size S.
type FrameRange[S PageSize] struct {
	Start, End PhysFrame[S]
}

// NewFrameRange builds a FrameRange from two aligned addresses.
func NewFrameRange[S PageSize](start, end PhysAddr) (FrameRange[S], error) {
	s, err := PhysFrameFromStartAddress[S](start)
	if err != nil {
		return FrameRange[S]{}, err
	}
	e, err := PhysFrameFromStartAddress[S](end)
	if err != nil {
		return FrameRange[S]{}, err
	}
	return FrameRange[S]{Start: s, End: e}, nil
}

// Len returns the number of frames in the range.
func (r FrameRange[S]) Len() int {
	var s S
	if r.End.addr <= r.Start.addr {
		return 0
	}
	return int((uint64(r.End.addr) - uint64(r.Start.addr)) / s.Bytes())
}

// At returns the i'th frame in the range.
func (r FrameRange[S]) At(i int) PhysFrame[S] {
	var s S
	return PhysFrame[S]{addr: PhysAddr(uint64(r.Start.addr) + uint64(i)*s.Bytes())}
}
