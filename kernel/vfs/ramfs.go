package vfs

// ramDir is a directory inode backed by a name-to-child map. Ordering
// between entries is not guaranteed, so Readdir returns Go's unspecified
// map iteration order; callers must not depend on alphabetical order.
type ramDir struct {
	perms    Permissions
	children map[string]Inode
}

func newRamDir(perms Permissions) *ramDir {
	return &ramDir{perms: perms, children: make(map[string]Inode)}
}

func (d *ramDir) Type() InodeType        { return Directory }
func (d *ramDir) Size() uint64           { return uint64(len(d.children)) }
func (d *ramDir) Permissions() Permissions { return d.perms }

func (d *ramDir) Read(offset uint64, buf []byte) (int, *FsError) {
	return 0, errPtr(IsADirectory)
}

func (d *ramDir) Write(offset uint64, buf []byte) (int, *FsError) {
	return 0, errPtr(IsADirectory)
}

func (d *ramDir) Lookup(name string) (Inode, *FsError) {
	child, ok := d.children[name]
	if !ok {
		return nil, errPtr(NotFound)
	}
	return child, nil
}

func (d *ramDir) Readdir() ([]DirEntry, *FsError) {
	entries := make([]DirEntry, 0, len(d.children))
	for name, child := range d.children {
		entries = append(entries, DirEntry{Name: name, Type: child.Type()})
	}
	return entries, nil
}

func (d *ramDir) Create(name string, typ InodeType, perms Permissions) (Inode, *FsError) {
	if _, exists := d.children[name]; exists {
		return nil, errPtr(AlreadyExists)
	}

	var child Inode
	switch typ {
	case Directory:
		child = newRamDir(perms)
	default:
		child = newRamFile(perms)
	}

	d.children[name] = child
	return child, nil
}

func (d *ramDir) Unlink(name string) *FsError {
	if _, exists := d.children[name]; !exists {
		return errPtr(NotFound)
	}
	delete(d.children, name)
	return nil
}

// ramFile is a growable in-memory byte buffer.
type ramFile struct {
	perms Permissions
	data  []byte
}

func newRamFile(perms Permissions) *ramFile {
	return &ramFile{perms: perms}
}

func (f *ramFile) Type() InodeType          { return File }
func (f *ramFile) Size() uint64             { return uint64(len(f.data)) }
func (f *ramFile) Permissions() Permissions { return f.perms }

func (f *ramFile) Read(offset uint64, buf []byte) (int, *FsError) {
	if offset >= uint64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[offset:])
	return n, nil
}

func (f *ramFile) Write(offset uint64, buf []byte) (int, *FsError) {
	end := offset + uint64(len(buf))
	if end > uint64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	n := copy(f.data[offset:end], buf)
	return n, nil
}

func (f *ramFile) Lookup(name string) (Inode, *FsError) {
	return nil, errPtr(NotADirectory)
}

func (f *ramFile) Readdir() ([]DirEntry, *FsError) {
	return nil, errPtr(NotADirectory)
}

func (f *ramFile) Create(name string, typ InodeType, perms Permissions) (Inode, *FsError) {
	return nil, errPtr(NotADirectory)
}

func (f *ramFile) Unlink(name string) *FsError {
	return errPtr(NotADirectory)
}

// Ramfs is a filesystem whose every node lives in Go-heap memory,
// starting from a single root directory.
type Ramfs struct {
	root *ramDir
}

// NewRamfs builds an empty Ramfs with a world-read/write/execute root
// directory.
func NewRamfs() *Ramfs {
	return &Ramfs{root: newRamDir(Permissions{Read: true, Write: true, Execute: true})}
}

func (r *Ramfs) Name() string { return "ramfs" }
func (r *Ramfs) Root() Inode  { return r.root }
