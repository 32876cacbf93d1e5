// Package fd implements the per-process file descriptor table: small
// non-negative integers mapped to an open Inode plus its open flags.
package fd

import "github.com/asterism-labs/hadron-sub002/kernel/vfs"

// OpenFlags are the flags recorded alongside an open Inode. Only the
// handful the core's syscall surface actually distinguishes are kept;
// a richer set (O_APPEND, O_TRUNC, ...) belongs to the outer kernel
// layer that owns the real open() syscall semantics.
type OpenFlags struct {
	Read, Write bool
}

type entry struct {
	inode vfs.Inode
	flags OpenFlags
}

// Table maps small integers to (Inode, OpenFlags). Three descriptors
// (0, 1, 2) are conventionally reserved for stdio by spawn_init, but
// this type itself has no opinion about numbering beyond "lowest free
// slot first".
type Table struct {
	slots []*entry
}

// New builds an empty descriptor table.
func New() *Table {
	return &Table{}
}

// Open allocates the lowest free slot for inode/flags and returns its
// number.
func (t *Table) Open(inode vfs.Inode, flags OpenFlags) int {
	for i, s := range t.slots {
		if s == nil {
			t.slots[i] = &entry{inode: inode, flags: flags}
			return i
		}
	}
	t.slots = append(t.slots, &entry{inode: inode, flags: flags})
	return len(t.slots) - 1
}

// InsertAt places inode/flags at exactly slot fd, overwriting whatever
// was there; closing it first is the caller's responsibility.
func (t *Table) InsertAt(fd int, inode vfs.Inode, flags OpenFlags) {
	for len(t.slots) <= fd {
		t.slots = append(t.slots, nil)
	}
	t.slots[fd] = &entry{inode: inode, flags: flags}
}

// Lookup returns the inode and flags open at fd, or vfs.BadFd if the
// slot is empty or out of range.
func (t *Table) Lookup(fd int) (vfs.Inode, OpenFlags, *vfs.FsError) {
	if fd < 0 || fd >= len(t.slots) || t.slots[fd] == nil {
		err := vfs.BadFd
		return nil, OpenFlags{}, &err
	}
	e := t.slots[fd]
	return e.inode, e.flags, nil
}

// Close releases fd. Closing an already-empty or out-of-range slot
// reports vfs.BadFd rather than panicking, since a double-close is a
// common-enough caller bug that a syscall handler needs to report it as
// -EBADF instead of crashing the kernel.
func (t *Table) Close(fd int) *vfs.FsError {
	if fd < 0 || fd >= len(t.slots) || t.slots[fd] == nil {
		err := vfs.BadFd
		return &err
	}
	t.slots[fd] = nil
	return nil
}
