package vfs

import "strings"

// Mounts is the minimal namespace composition §4.8 needs: a name-to-
// FileSystem registry plus a Resolve that walks a slash-separated path
// across mount points, starting from root. It adds no new Inode
// capability -- every step is an existing Lookup call.
type Mounts struct {
	root  FileSystem
	mount map[string]FileSystem
}

// NewMounts builds a namespace rooted at root, with no sub-mounts yet.
func NewMounts(root FileSystem) *Mounts {
	return &Mounts{root: root, mount: make(map[string]FileSystem)}
}

// Mount attaches fs at the single-component name under root (e.g. "dev"
// for /dev). Nested mount points are not needed by any scenario this
// core specifies.
func (m *Mounts) Mount(name string, fs FileSystem) {
	m.mount[name] = fs
}

// Resolve walks path (e.g. "/init", "/dev/null") from the namespace
// root, crossing into a mounted filesystem's root inode whenever the
// next component names one.
func (m *Mounts) Resolve(path string) (Inode, *FsError) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return m.root.Root(), nil
	}

	components := strings.Split(path, "/")

	if fs, ok := m.mount[components[0]]; ok {
		return resolveFrom(fs.Root(), components[1:])
	}
	return resolveFrom(m.root.Root(), components)
}

func resolveFrom(node Inode, components []string) (Inode, *FsError) {
	cur := node
	for _, name := range components {
		if name == "" {
			continue
		}
		next, err := cur.Lookup(name)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
