package vfs

import "github.com/asterism-labs/hadron-sub002/kernel/sync"

const pipeBufferSize = 4096

// pipeInner is the shared circular buffer and handle-count bookkeeping
// behind a pipe's two Inode ends. Both ends share one *pipeInner so a
// write through the writer end is immediately visible to a read through
// the reader end.
type pipeInner struct {
	buf        [pipeBufferSize]byte
	start, len int

	readers, writers int

	readWaiters  sync.WaitQueue
	writeWaiters sync.WaitQueue
}

func (p *pipeInner) readAvailable(dst []byte) int {
	n := p.len
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = p.buf[(p.start+i)%pipeBufferSize]
	}
	p.start = (p.start + n) % pipeBufferSize
	p.len -= n
	return n
}

func (p *pipeInner) writeAvailable(src []byte) int {
	free := pipeBufferSize - p.len
	n := len(src)
	if n > free {
		n = free
	}
	writeAt := (p.start + p.len) % pipeBufferSize
	for i := 0; i < n; i++ {
		p.buf[(writeAt+i)%pipeBufferSize] = src[i]
	}
	p.len += n
	return n
}

// PipeReader is the reading end of a pipe.
type PipeReader struct {
	inner *pipeInner
	open  bool
}

// PipeWriter is the writing end of a pipe.
type PipeWriter struct {
	inner *pipeInner
	open  bool
}

// NewPipe builds a connected reader/writer pair sharing one buffer.
func NewPipe() (*PipeReader, *PipeWriter) {
	inner := &pipeInner{readers: 1, writers: 1}
	return &PipeReader{inner: inner, open: true}, &PipeWriter{inner: inner, open: true}
}

// Close drops this reader's handle. Handle counts update on drop; since
// Go has no destructors, callers MUST call Close explicitly.
func (r *PipeReader) Close() {
	if !r.open {
		return
	}
	r.open = false
	r.inner.readers--
	if r.inner.readers == 0 {
		r.inner.writeWaiters.WakeAll()
	}
}

// Close drops this writer's handle, waking any reader blocked on EOF.
func (w *PipeWriter) Close() {
	if !w.open {
		return
	}
	w.open = false
	w.inner.writers--
	if w.inner.writers == 0 {
		w.inner.readWaiters.WakeAll()
	}
}

func (r *PipeReader) Type() InodeType          { return CharDevice }
func (r *PipeReader) Size() uint64             { return uint64(r.inner.len) }
func (r *PipeReader) Permissions() Permissions { return Permissions{Read: true} }

// Read drains up to len(buf) bytes and wakes one writer if any bytes
// were freed. An empty buffer with no writers left reports EOF (0, nil);
// an empty buffer with writers still open also returns (0, nil), without
// blocking and without registering any waker. ReadPoll is the variant
// that registers a waker and reports Pending.
func (r *PipeReader) Read(offset uint64, buf []byte) (int, *FsError) {
	if r.inner.len > 0 {
		n := r.inner.readAvailable(buf)
		r.inner.writeWaiters.WakeOne()
		return n, nil
	}
	if r.inner.writers == 0 {
		return 0, nil
	}
	return 0, nil
}

// ReadPoll is the future-facing counterpart to Read: it reports whether
// data (or EOF) was available, registering w to be woken on the next
// write or writer-close if not.
func (r *PipeReader) ReadPoll(buf []byte, w sync.Waker) (n int, ready bool) {
	if r.inner.len > 0 {
		n := r.inner.readAvailable(buf)
		r.inner.writeWaiters.WakeOne()
		return n, true
	}
	if r.inner.writers == 0 {
		return 0, true
	}
	r.inner.readWaiters.RegisterWaker(w)
	return 0, false
}

func (r *PipeReader) Write(offset uint64, buf []byte) (int, *FsError) {
	return 0, errPtr(NotSupported)
}
func (r *PipeReader) Lookup(string) (Inode, *FsError) { return nil, errPtr(NotADirectory) }
func (r *PipeReader) Readdir() ([]DirEntry, *FsError) { return nil, errPtr(NotADirectory) }
func (r *PipeReader) Create(string, InodeType, Permissions) (Inode, *FsError) {
	return nil, errPtr(NotADirectory)
}
func (r *PipeReader) Unlink(string) *FsError { return errPtr(NotADirectory) }

func (w *PipeWriter) Type() InodeType          { return CharDevice }
func (w *PipeWriter) Size() uint64             { return uint64(w.inner.len) }
func (w *PipeWriter) Permissions() Permissions { return Permissions{Write: true} }

func (w *PipeWriter) Read(offset uint64, buf []byte) (int, *FsError) {
	return 0, errPtr(NotSupported)
}

// Write appends up to len(buf) bytes and wakes one reader. An empty read
// side (no readers left) is EPIPE, surfaced as IoError.
func (w *PipeWriter) Write(offset uint64, buf []byte) (int, *FsError) {
	if w.inner.readers == 0 {
		return 0, errPtr(IoError)
	}
	n := w.inner.writeAvailable(buf)
	w.inner.readWaiters.WakeOne()
	return n, nil
}

// WritePoll is the future-facing counterpart to Write: a full buffer
// with readers still present yields Pending, registering w.
func (w *PipeWriter) WritePoll(buf []byte, waker sync.Waker) (n int, ready bool) {
	if w.inner.readers == 0 {
		return 0, true
	}
	if w.inner.len == pipeBufferSize {
		w.inner.writeWaiters.RegisterWaker(waker)
		return 0, false
	}
	n = w.inner.writeAvailable(buf)
	w.inner.readWaiters.WakeOne()
	return n, true
}

func (w *PipeWriter) Lookup(string) (Inode, *FsError) { return nil, errPtr(NotADirectory) }
func (w *PipeWriter) Readdir() ([]DirEntry, *FsError) { return nil, errPtr(NotADirectory) }
func (w *PipeWriter) Create(string, InodeType, Permissions) (Inode, *FsError) {
	return nil, errPtr(NotADirectory)
}
func (w *PipeWriter) Unlink(string) *FsError { return errPtr(NotADirectory) }
