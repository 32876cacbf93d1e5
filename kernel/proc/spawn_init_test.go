package proc

import (
	"testing"

	"github.com/asterism-labs/hadron-sub002/kernel/executor"
	"github.com/asterism-labs/hadron-sub002/kernel/vfs"
)

func TestSpawnInitLoadsEntryAndAttachesConsoleFds(t *testing.T) {
	fa := newHostFrameAllocator(64)

	root := vfs.NewRamfs()
	code := []byte{0x90, 0xC3}
	image := buildMinimalELF(0x400000, code, 0x1000)

	initFile, cerr := root.Root().Create("init", vfs.File, vfs.Permissions{Read: true, Execute: true})
	if cerr != nil {
		t.Fatalf("creating /init failed: %v", cerr)
	}
	if _, werr := initFile.Write(0, image); werr != nil {
		t.Fatalf("writing /init image failed: %v", werr)
	}

	dev := vfs.NewDevfs()
	dev.RegisterDevice("console", vfs.NewConsoleInode(nil))

	mounts := vfs.NewMounts(root)
	mounts.Mount("dev", dev)

	exec := executor.New(0)

	var sawEntry uintptr
	var sawStackTop uintptr
	enter := func(p *Process, entry, stackTop uintptr, savedRSPOut *uintptr) {
		sawEntry = entry
		sawStackTop = stackTop
	}

	process, serr := SpawnInit(mounts, fa, fa.p2v, fa.noopFlush, exec, enter)
	if serr != nil {
		t.Fatalf("SpawnInit failed: %v", serr)
	}

	if inode, flags, err := process.Fds().Lookup(0); err != nil || !flags.Read || inode == nil {
		t.Fatalf("fd 0 not attached to console: (%v, %v, %v)", inode, flags, err)
	}
	if inode, flags, err := process.Fds().Lookup(1); err != nil || !flags.Write || inode == nil {
		t.Fatalf("fd 1 not attached to console: (%v, %v, %v)", inode, flags, err)
	}

	if !exec.RunOnce() {
		t.Fatalf("RunOnce should have polled the spawned process_task")
	}

	if sawEntry != 0x400000 {
		t.Fatalf("enterUserspace saw entry %#x, want 0x400000", sawEntry)
	}
	if sawStackTop != userStackTop {
		t.Fatalf("enterUserspace saw stackTop %#x, want %#x", sawStackTop, uintptr(userStackTop))
	}
	if CurrentProcess() != nil {
		t.Fatalf("CurrentProcess should be cleared once process_task's Poll returns")
	}
}

func TestSpawnInitFailsWhenInitMissing(t *testing.T) {
	fa := newHostFrameAllocator(8)
	root := vfs.NewRamfs()
	mounts := vfs.NewMounts(root)
	exec := executor.New(0)

	_, err := SpawnInit(mounts, fa, fa.p2v, fa.noopFlush, exec, func(*Process, uintptr, uintptr, *uintptr) {})
	if err == nil {
		t.Fatalf("expected SpawnInit to fail when /init does not exist")
	}
}
