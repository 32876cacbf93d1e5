package vfs

import (
	"bytes"
	"testing"
)

func TestDevfsNullDiscardsWritesAndReadsZeroBytes(t *testing.T) {
	d := NewDevfs()
	null, err := d.Root().Lookup("null")
	if err != nil {
		t.Fatalf("Lookup(null) failed: %v", err)
	}

	n, werr := null.Write(0, []byte("discarded"))
	if werr != nil || n != len("discarded") {
		t.Fatalf("Write to null = (%d, %v), want (%d, nil)", n, werr, len("discarded"))
	}

	n, rerr := null.Read(0, make([]byte, 16))
	if rerr != nil || n != 0 {
		t.Fatalf("Read from null = (%d, %v), want (0, nil)", n, rerr)
	}
}

func TestDevfsZeroFillsReadsAndDiscardsWrites(t *testing.T) {
	d := NewDevfs()
	zero, err := d.Root().Lookup("zero")
	if err != nil {
		t.Fatalf("Lookup(zero) failed: %v", err)
	}

	buf := bytes.Repeat([]byte{0xFF}, 8)
	n, rerr := zero.Read(0, buf)
	if rerr != nil || n != 8 {
		t.Fatalf("Read from zero = (%d, %v), want (8, nil)", n, rerr)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("buf[%d] = %#x, want 0", i, b)
		}
	}
}

func TestDevfsConsoleForwardsWrites(t *testing.T) {
	var sink bytes.Buffer
	d := NewDevfs()
	d.RegisterDevice("console", NewConsoleInode(&sink))

	console, err := d.Root().Lookup("console")
	if err != nil {
		t.Fatalf("Lookup(console) failed: %v", err)
	}

	if _, werr := console.Write(0, []byte("boot ok")); werr != nil {
		t.Fatalf("Write to console failed: %v", werr)
	}
	if sink.String() != "boot ok" {
		t.Fatalf("sink = %q, want %q", sink.String(), "boot ok")
	}

	n, rerr := console.Read(0, make([]byte, 4))
	if rerr != nil || n != 0 {
		t.Fatalf("Read from console = (%d, %v), want (0, nil) -- no line discipline", n, rerr)
	}
}
