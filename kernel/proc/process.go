package proc

import (
	"sync/atomic"

	"github.com/asterism-labs/hadron-sub002/kernel/fd"
)

// Pid is a process identifier, allocated monotonically.
type Pid uint64

var nextPid atomic.Uint64

func allocPid() Pid {
	return Pid(nextPid.Add(1))
}

// Process wraps an AddressSpace, a PID, and a per-process FD table. It
// is the unit process_task drives through enter_userspace.
type Process struct {
	Pid     Pid
	space   *AddressSpace
	fds     *fd.Table
	closed  bool

	// ExitStatus holds the process's exit status. Nothing in this tree
	// writes it (there is no exit syscall handler and no fault
	// termination path), so it stays 0. All-ones is the value reserved
	// for a fault-induced termination.
	ExitStatus int64
}

// ExitStatusFaultSentinel marks a process that never reached a real
// exit() call because a ring-3 fault killed it instead.
const ExitStatusFaultSentinel = int64(-1)

// NewProcess wraps a freshly built AddressSpace with a new PID and an
// empty FD table.
func NewProcess(space *AddressSpace) *Process {
	return &Process{
		Pid:   allocPid(),
		space: space,
		fds:   fd.New(),
	}
}

// RootCR3 returns the physical address to load into CR3 to run this
// process, the value enter_userspace's SwitchPDT call consumes.
func (p *Process) RootCR3() uintptr {
	return uintptr(p.space.RootPhysAddr())
}

// Fds exposes the process's file descriptor table.
func (p *Process) Fds() *fd.Table {
	return p.fds
}

// Close releases the process's address space. Go has no destructors, so
// the process task calls this explicitly once enter_userspace returns
// and the exit status has been read, mirroring the Rust original's Arc
// drop cascading into AddressSpace::Drop.
func (p *Process) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.space.Close()
}
