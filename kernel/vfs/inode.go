// Package vfs specifies the core's filesystem surface: the Inode and
// FileSystem capability sets every in-memory filesystem implements, the
// fixed FsError-to-errno mapping, and the Ramfs/Devfs/Pipe inode
// variants. Block-device-backed filesystems live outside this package
// and bridge to it through the same interfaces.
package vfs

// InodeType classifies what an Inode represents.
type InodeType int

const (
	File InodeType = iota
	Directory
	CharDevice
)

// Permissions is the minimal rwx triple the core tracks; ownership and
// setuid bits are out of scope.
type Permissions struct {
	Read, Write, Execute bool
}

// DirEntry is one row of a directory listing.
type DirEntry struct {
	Name string
	Type InodeType
}

// FsError enumerates every failure an Inode or FileSystem operation can
// report. Each maps to a fixed POSIX errno via Errno, consumed by the
// syscall dispatch layer when bridging a VFS failure into a negative
// return value.
type FsError int

const (
	NotFound FsError = iota
	NotADirectory
	IsADirectory
	AlreadyExists
	BadFd
	PermissionDenied
	IoError
	InvalidArgument
	NotSupported
)

// errnoTable mirrors trap's fixed constants without importing trap (vfs
// sits below trap in the dependency order); the syscall bridge looks up
// this table when translating a *FsError into -errno.
var errnoTable = [...]int{
	NotFound:         2,  // ENOENT
	NotADirectory:    20, // ENOTDIR
	IsADirectory:     21, // EISDIR
	AlreadyExists:    17, // EEXIST
	BadFd:            9,  // EBADF
	PermissionDenied: 13, // EACCES
	IoError:          5,  // EIO
	InvalidArgument:  22, // EINVAL
	NotSupported:     38, // ENOSYS
}

// Errno returns the fixed POSIX errno this FsError maps to.
func (e FsError) Errno() int {
	return errnoTable[e]
}

func (e FsError) Error() string {
	switch e {
	case NotFound:
		return "not found"
	case NotADirectory:
		return "not a directory"
	case IsADirectory:
		return "is a directory"
	case AlreadyExists:
		return "already exists"
	case BadFd:
		return "bad file descriptor"
	case PermissionDenied:
		return "permission denied"
	case IoError:
		return "i/o error"
	case InvalidArgument:
		return "invalid argument"
	case NotSupported:
		return "not supported"
	default:
		return "unknown vfs error"
	}
}

// Inode is the capability set every filesystem node implements. Read and
// Write are synchronous in this core: none of the three specified
// variants (Ramfs, Devfs, Pipe) ever actually suspends mid-operation, so
// an async signature would only add boilerplate polling that never
// returns Pending on its first poll. A future block-device-backed
// filesystem bridges its real asynchrony at its own FileSystem boundary.
type Inode interface {
	Type() InodeType
	Size() uint64
	Permissions() Permissions

	Read(offset uint64, buf []byte) (int, *FsError)
	Write(offset uint64, buf []byte) (int, *FsError)

	Lookup(name string) (Inode, *FsError)
	Readdir() ([]DirEntry, *FsError)
	Create(name string, typ InodeType, perms Permissions) (Inode, *FsError)
	Unlink(name string) *FsError
}

// FileSystem names itself and exposes its root inode.
type FileSystem interface {
	Name() string
	Root() Inode
}

// errPtr is a small helper so call sites can write errPtr(NotFound)
// instead of repeating the address-of-a-local dance every Inode method
// needs to return a *FsError.
func errPtr(e FsError) *FsError {
	return &e
}
