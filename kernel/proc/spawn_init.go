package proc

import (
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/executor"
	"github.com/asterism-labs/hadron-sub002/kernel/fd"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/vmm"
	"github.com/asterism-labs/hadron-sub002/kernel/vfs"
)

// EnterUserspaceFn matches kernel/trap's enterUserspace -- injected here
// rather than imported directly, since trap already imports proc and a
// reverse import would cycle.
type EnterUserspaceFn func(p *Process, entry, stackTop uintptr, savedRSPOut *uintptr)

// currentProcess is the per-CPU "current process" slot (§5's shared-
// resource table: IRQ-safe spinlock owner is per-CPU). A bare pointer
// plus the caller's own IRQ discipline stands in for the IrqSpinLock
// here since process_task is the only writer on its own CPU.
var currentProcess *Process

// CurrentProcess returns the process currently executing on this CPU,
// or nil if none (idle or still in kernel-only boot code).
func CurrentProcess() *Process {
	return currentProcess
}

// userStackTop is where spawn_init places /init's initial stack, a fixed
// canonical userspace address. LoadELF does not check PT_LOAD segments
// against the stack range.
const userStackTop = 0x0000_7fff_ffff_f000
const userStackSize = 64 * 1024

// SpawnInit loads /init from mounts into a fresh address space, wires up
// fds 0/1/2 to console, and spawns process_task on the given executor.
// alloc/p2v/flush are the same frame allocator and translation callbacks
// the kernel VMM itself uses; enter is the trap package's enterUserspace,
// injected to avoid an import cycle.
func SpawnInit(mounts *vfs.Mounts, alloc pmm.FrameAllocator, p2v vmm.PhysToVirtFn, flush vmm.FlushFn, exec *executor.Executor, enter EnterUserspaceFn) (*Process, error) {
	initNode, ferr := mounts.Resolve("/init")
	if ferr != nil {
		return nil, ferr
	}

	size := initNode.Size()
	image := make([]byte, size)
	if _, rerr := initNode.Read(0, image); rerr != nil {
		return nil, rerr
	}

	space, aerr := NewAddressSpace(alloc, p2v, flush)
	if aerr != nil {
		return nil, aerr
	}

	entry, lerr := LoadELF(image, space, alloc, p2v)
	if lerr != nil {
		space.Close()
		return nil, lerr
	}

	if serr := mapUserStack(space, alloc); serr != nil {
		space.Close()
		return nil, serr
	}

	process := NewProcess(space)
	attachConsole(process, mounts)

	exec.Spawn(&processTask{
		process:  process,
		entry:    uintptr(entry),
		stackTop: uintptr(userStackTop),
		enter:    enter,
	})

	return process, nil
}

func mapUserStack(space *AddressSpace, alloc pmm.FrameAllocator) error {
	const pageSize = 4096
	base := uint64(userStackTop - userStackSize)

	for off := uint64(0); off < userStackSize; off += pageSize {
		va := base + off
		page := addr.PageContaining[addr.Size4K](addr.NewVirtAddr(va))

		frame, ferr := alloc.AllocFrame()
		if ferr != nil {
			return ferr
		}

		flushHandle, merr := vmm.MapPage(space.Mapper(), page, frame, vmm.FlagUser|vmm.FlagWritable)
		if merr != nil {
			alloc.FreeFrame(frame)
			return merr
		}
		flushHandle.Ignore()
	}

	return nil
}

func attachConsole(process *Process, mounts *vfs.Mounts) {
	consoleNode, err := mounts.Resolve("/dev/console")
	if err != nil {
		return
	}
	process.Fds().InsertAt(0, consoleNode, fd.OpenFlags{Read: true})
	process.Fds().InsertAt(1, consoleNode, fd.OpenFlags{Write: true})
	process.Fds().InsertAt(2, consoleNode, fd.OpenFlags{Write: true})
}

// processTask is the executor.Future process_task drives: on its first
// poll it stores process into the current-process slot and calls
// enter_userspace, which only returns once the process exits or faults.
// Because enter blocks the whole call (it is a setjmp/longjmp pair, not
// a suspend point the executor understands), this future always
// completes on its first poll -- it is "async" only in the sense that
// the executor, not a raw function call, owns invoking it.
type processTask struct {
	process  *Process
	entry    uintptr
	stackTop uintptr
	enter    EnterUserspaceFn

	savedRSP uintptr
}

func (t *processTask) Poll(w executor.Waker) executor.PollState {
	currentProcess = t.process
	t.enter(t.process, t.entry, t.stackTop, &t.savedRSP)
	currentProcess = nil
	t.process.Close()
	return executor.Ready
}
