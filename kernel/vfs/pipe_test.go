package vfs

import "testing"

type pipeTestWaker struct{ woken int }

func (w *pipeTestWaker) Wake() { w.woken++ }

func TestPipeFIFOOrderOfWrittenBytes(t *testing.T) {
	r, w := NewPipe()
	defer r.Close()
	defer w.Close()

	if _, err := w.Write(0, []byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := w.Write(0, []byte("def")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	buf := make([]byte, 6)
	n, err := r.Read(0, buf)
	if err != nil || n != 6 || string(buf) != "abcdef" {
		t.Fatalf("Read = (%d, %q, %v), want (6, %q, nil)", n, buf, err, "abcdef")
	}
}

func TestPipeReadReturnsEOFAfterWriterClose(t *testing.T) {
	r, w := NewPipe()
	defer r.Close()

	w.Close()

	n, err := r.Read(0, make([]byte, 4))
	if err != nil || n != 0 {
		t.Fatalf("Read after writer close = (%d, %v), want (0, nil) EOF", n, err)
	}
}

func TestPipeWriteReturnsEPIPEAfterReaderClose(t *testing.T) {
	r, w := NewPipe()
	defer w.Close()

	r.Close()

	_, err := w.Write(0, []byte("x"))
	if err == nil || *err != IoError {
		t.Fatalf("Write after reader close = %v, want IoError (EPIPE)", err)
	}
}

func TestPipeReadPollYieldsPendingOnEmptyBufferWithWriterOpen(t *testing.T) {
	r, w := NewPipe()
	defer r.Close()
	defer w.Close()

	waker := &pipeTestWaker{}
	n, ready := r.ReadPoll(make([]byte, 4), waker)
	if ready {
		t.Fatalf("ReadPoll on empty pipe with writer open should yield Pending, got ready with n=%d", n)
	}

	w.Write(0, []byte("hi"))
	if waker.woken != 1 {
		t.Fatalf("waker.woken = %d, want 1 after the write that satisfies the pending read", waker.woken)
	}
}

func TestPipeWritePollYieldsPendingWhenBufferFull(t *testing.T) {
	r, w := NewPipe()
	defer r.Close()
	defer w.Close()

	full := make([]byte, pipeBufferSize)
	if _, ok := w.WritePoll(full, &pipeTestWaker{}); !ok {
		t.Fatalf("first WritePoll filling the buffer exactly should not block")
	}

	waker := &pipeTestWaker{}
	n, ready := w.WritePoll([]byte("overflow"), waker)
	if ready || n != 0 {
		t.Fatalf("WritePoll on a full buffer should yield Pending, got ready=%v n=%d", ready, n)
	}

	r.Read(0, make([]byte, pipeBufferSize))
	if waker.woken != 1 {
		t.Fatalf("waker.woken = %d, want 1 after the read frees buffer space", waker.woken)
	}
}
