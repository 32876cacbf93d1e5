package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize bounds the scratch buffer used when rendering an integer; large
// enough for a 64-bit value in base 8 plus sign and padding.
const numBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	boolTrue        = []byte("true")
	boolFalse       = []byte("false")

	numScratch = make([]byte, numBufSize)

	// oneByte is a reusable single-byte buffer so that writing one
	// character at a time never needs to slice a string (which the
	// compiler would otherwise turn into an allocating conversion).
	oneByte = []byte{0}

	earlyBuf  ringBuffer
	outputSink io.Writer
)

// SetOutputSink redirects future Printf calls to w, first draining anything
// buffered in earlyBuf so no pre-console output is lost.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuf)
	}
}

// GetOutputSink returns the currently active sink, or nil if output is still
// being buffered in the ring buffer.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf is a minimal, allocation-free Printf safe to call before the Go
// runtime's allocator is initialized. It supports a deliberately small verb
// set: %d/%o/%x for integers, %s for strings and byte slices, %t for bools
// and %c for a single byte rune. An optional decimal width may precede the
// verb (e.g. "%16x"); strings and base-10 integers pad with spaces, base-8/16
// integers pad with zeroes. There is no %p: printing a pointer through the
// standard formatter would route through reflect and trigger the exact
// allocations this function exists to avoid.
//
// Output goes to the active sink set via SetOutputSink, or is buffered in a
// ring buffer until one is attached.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf is Printf but writes to an explicit io.Writer instead of the
// package-level sink.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		ch                  byte
		argIdx              int
		litStart, pos, width int
		n                   = len(format)
	)

	for pos < n {
		ch = format[pos]
		if ch != '%' {
			pos++
			continue
		}

		emitLiteral(w, format, litStart, pos)

		width = 0
		pos++
	verb:
		for ; pos < n; pos++ {
			ch = format[pos]
			switch {
			case ch == '%':
				oneByte[0] = '%'
				doWrite(w, oneByte)
				break verb
			case ch >= '0' && ch <= '9':
				width = width*10 + int(ch-'0')
				continue
			case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 't' || ch == 'c':
				if argIdx >= len(args) {
					doWrite(w, errMissingArg)
					break verb
				}

				switch ch {
				case 'o':
					fmtInt(w, args[argIdx], 8, width)
				case 'd':
					fmtInt(w, args[argIdx], 10, width)
				case 'x':
					fmtInt(w, args[argIdx], 16, width)
				case 's':
					fmtString(w, args[argIdx], width)
				case 't':
					fmtBool(w, args[argIdx])
				case 'c':
					fmtChar(w, args[argIdx])
				}

				argIdx++
				break verb
			default:
				doWrite(w, errNoVerb)
				break verb
			}
		}

		litStart, pos = pos+1, pos+1
	}

	emitLiteral(w, format, litStart, pos)

	for ; argIdx < len(args); argIdx++ {
		doWrite(w, errExtraArg)
	}
}

// emitLiteral writes format[from:to] one byte at a time; slicing a string
// and handing the result to Write would allocate, which is not safe during
// early boot.
func emitLiteral(w io.Writer, format string, from, to int) {
	for i := from; i < to; i++ {
		oneByte[0] = format[i]
		doWrite(w, oneByte)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}
	if b {
		doWrite(w, boolTrue)
	} else {
		doWrite(w, boolFalse)
	}
}

func fmtChar(w io.Writer, v interface{}) {
	switch c := v.(type) {
	case byte:
		oneByte[0] = c
		doWrite(w, oneByte)
	case rune:
		oneByte[0] = byte(c)
		doWrite(w, oneByte)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		padWith(w, ' ', width-len(s))
		for i := 0; i < len(s); i++ {
			oneByte[0] = s[i]
			doWrite(w, oneByte)
		}
	case []byte:
		padWith(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

func padWith(w io.Writer, ch byte, count int) {
	oneByte[0] = ch
	for i := 0; i < count; i++ {
		doWrite(w, oneByte)
	}
}

// fmtInt renders v (any built-in integer type) in the given base, left
// padded to width.
func fmtInt(w io.Writer, v interface{}, base, width int) {
	var (
		signed            int64
		unsigned, divisor uint64
		padCh             byte
		left, right, end  int
	)

	if width >= numBufSize {
		width = numBufSize - 1
	}

	switch base {
	case 8:
		divisor, padCh = 8, '0'
	case 10:
		divisor, padCh = 10, ' '
	case 16:
		divisor, padCh = 16, '0'
	}

	switch n := v.(type) {
	case uint8:
		unsigned = uint64(n)
	case uint16:
		unsigned = uint64(n)
	case uint32:
		unsigned = uint64(n)
	case uint64:
		unsigned = n
	case uintptr:
		unsigned = uint64(n)
	case int8:
		signed = int64(n)
	case int16:
		signed = int64(n)
	case int32:
		signed = int64(n)
	case int64:
		signed = n
	case int:
		signed = int64(n)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if signed < 0 {
		unsigned = uint64(-signed)
	} else if signed > 0 {
		unsigned = uint64(signed)
	}

	for right < numBufSize {
		rem := unsigned % divisor
		if rem < 10 {
			numScratch[right] = byte(rem) + '0'
		} else {
			numScratch[right] = byte(rem-10) + 'a'
		}
		right++

		unsigned /= divisor
		if unsigned == 0 {
			break
		}
	}

	for ; right-left < width; right++ {
		numScratch[right] = padCh
	}

	if signed < 0 {
		for end = right - 1; numScratch[end] == ' '; end-- {
		}
		if end == right-1 {
			right++
		}
		numScratch[end+1] = '-'
	}

	end = right
	for right = right - 1; left < right; left, right = left+1, right-1 {
		numScratch[left], numScratch[right] = numScratch[right], numScratch[left]
	}

	doWrite(w, numScratch[0:end])
}

// doWrite hides p from escape analysis via noEscape; without this the
// compiler cannot prove p does not escape through the not-yet-resolved
// io.Writer interface call and will route it through runtime.convT2E,
// allocating before the kernel's allocator exists.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
		return
	}
	earlyBuf.Write(p)
}

//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
