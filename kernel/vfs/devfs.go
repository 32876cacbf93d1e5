package vfs

import "io"

// ConsoleWriter is what the console device forwards writes to; production
// wires kfmt's active output sink, tests a bytes.Buffer.
type ConsoleWriter interface {
	Write(p []byte) (int, error)
}

// nullDevice: reads return 0, writes silently accept the full length.
type nullDevice struct{}

func (nullDevice) Type() InodeType          { return CharDevice }
func (nullDevice) Size() uint64             { return 0 }
func (nullDevice) Permissions() Permissions { return Permissions{Read: true, Write: true} }

func (nullDevice) Read(offset uint64, buf []byte) (int, *FsError)  { return 0, nil }
func (nullDevice) Write(offset uint64, buf []byte) (int, *FsError) { return len(buf), nil }
func (nullDevice) Lookup(string) (Inode, *FsError)                 { return nil, errPtr(NotADirectory) }
func (nullDevice) Readdir() ([]DirEntry, *FsError)                 { return nil, errPtr(NotADirectory) }
func (nullDevice) Create(string, InodeType, Permissions) (Inode, *FsError) {
	return nil, errPtr(NotADirectory)
}
func (nullDevice) Unlink(string) *FsError { return errPtr(NotADirectory) }

// zeroDevice: reads fill buf with zeros, writes silently accept.
type zeroDevice struct{}

func (zeroDevice) Type() InodeType          { return CharDevice }
func (zeroDevice) Size() uint64             { return 0 }
func (zeroDevice) Permissions() Permissions { return Permissions{Read: true, Write: true} }

func (zeroDevice) Read(offset uint64, buf []byte) (int, *FsError) {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}
func (zeroDevice) Write(offset uint64, buf []byte) (int, *FsError) { return len(buf), nil }
func (zeroDevice) Lookup(string) (Inode, *FsError)                 { return nil, errPtr(NotADirectory) }
func (zeroDevice) Readdir() ([]DirEntry, *FsError)                 { return nil, errPtr(NotADirectory) }
func (zeroDevice) Create(string, InodeType, Permissions) (Inode, *FsError) {
	return nil, errPtr(NotADirectory)
}
func (zeroDevice) Unlink(string) *FsError { return errPtr(NotADirectory) }

// ConsoleInode forwards writes to the active console sink; reads always
// return 0 since the core excludes a TTY line discipline (no keyboard
// input is modeled).
type ConsoleInode struct {
	sink ConsoleWriter
}

// NewConsoleInode wraps sink (nil is legal and discards every write,
// same as writing to io.Discard).
func NewConsoleInode(sink ConsoleWriter) *ConsoleInode {
	if sink == nil {
		sink = io.Discard
	}
	return &ConsoleInode{sink: sink}
}

func (c *ConsoleInode) Type() InodeType          { return CharDevice }
func (c *ConsoleInode) Size() uint64             { return 0 }
func (c *ConsoleInode) Permissions() Permissions { return Permissions{Read: true, Write: true} }

func (c *ConsoleInode) Read(offset uint64, buf []byte) (int, *FsError) { return 0, nil }

func (c *ConsoleInode) Write(offset uint64, buf []byte) (int, *FsError) {
	n, err := c.sink.Write(buf)
	if err != nil {
		return n, errPtr(IoError)
	}
	return n, nil
}

func (c *ConsoleInode) Lookup(string) (Inode, *FsError) { return nil, errPtr(NotADirectory) }
func (c *ConsoleInode) Readdir() ([]DirEntry, *FsError) { return nil, errPtr(NotADirectory) }
func (c *ConsoleInode) Create(string, InodeType, Permissions) (Inode, *FsError) {
	return nil, errPtr(NotADirectory)
}
func (c *ConsoleInode) Unlink(string) *FsError { return errPtr(NotADirectory) }

// Devfs is a root directory pre-populated with null and zero; RegisterDevice
// adds further entries (e.g. console) at construction time.
type Devfs struct {
	root *ramDir
}

// NewDevfs builds a Devfs with null and zero already mounted.
func NewDevfs() *Devfs {
	d := &Devfs{root: newRamDir(Permissions{Read: true, Execute: true})}
	d.root.children["null"] = nullDevice{}
	d.root.children["zero"] = zeroDevice{}
	return d
}

// RegisterDevice adds a named entry (e.g. "console") to the devfs root.
func (d *Devfs) RegisterDevice(name string, inode Inode) {
	d.root.children[name] = inode
}

func (d *Devfs) Name() string { return "devfs" }
func (d *Devfs) Root() Inode  { return d.root }
