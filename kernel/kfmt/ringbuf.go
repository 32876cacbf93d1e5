package kfmt

// ringBufferSize defines the size of the ring buffer that buffers early
// Printf output before a console/TTY sink is attached. Its default size is
// selected so it can buffer the contents of a standard 80x25 text-mode
// console. Must always be a power of 2.
const ringBufferSize = 2048

// ringBuffer is a fixed-size circular byte buffer used to capture Printf
// output before the tty and console systems are initialized.
type ringBuffer struct {
	buffer         [ringBufferSize]byte
	rIndex, wIndex int
}

// Write writes len(p) bytes from p to the ringBuffer. When the buffer is
// full, the oldest bytes are silently dropped.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (ringBufferSize - 1)
		if rb.rIndex == rb.wIndex {
			rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read reads up to len(p) bytes into p.
func (rb *ringBuffer) Read(p []byte) (n int, err error) {
	switch {
	case rb.rIndex < rb.wIndex:
		n = rb.wIndex - rb.rIndex
		if pLen := len(p); pLen < n {
			n = pLen
		}
		copy(p, rb.buffer[rb.rIndex:rb.rIndex+n])
		rb.rIndex += n
		return n, nil
	case rb.rIndex > rb.wIndex:
		n = len(rb.buffer) - rb.rIndex
		if pLen := len(p); pLen < n {
			n = pLen
		}
		copy(p, rb.buffer[rb.rIndex:rb.rIndex+n])
		rb.rIndex = (rb.rIndex + n) & (ringBufferSize - 1)
		return n, nil
	default:
		return 0, nil
	}
}
