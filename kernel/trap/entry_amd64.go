package trap

import (
	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
	"github.com/asterism-labs/hadron-sub002/kernel/proc"
)

// UserContext is the full general-purpose register set saved by a
// preemption, as opposed to the narrower SyscallSavedRegs a voluntary
// syscall leaves behind. enter_userspace_resume restores every field
// before the IRETQ transition.
type UserContext struct {
	RAX, RBX, RCX, RDX    uint64
	RSI, RDI, RBP         uint64
	R8, R9, R10, R11      uint64
	R12, R13, R14, R15    uint64
	RIP, RFlags, RSP      uint64
	CS, SS                uint64
}

// EnterUserspaceSave is the setjmp side of the bridge: it saves the six
// kernel callee-saved registers, records the resulting RSP into
// *savedRSPOut, builds an IRETQ frame targeting entry/userRSP with
// RFLAGS=IF and the user code/data selectors, zeros the GPRs, and iretqs.
// Control returns to the instruction after this call only when a later
// RestoreKernelContext(*savedRSPOut) runs on some other path (a syscall
// return, a fault, or an explicit exit).
func EnterUserspaceSave(entry, userRSP uintptr, savedRSPOut *uintptr)

// RestoreKernelContext is the longjmp side: load RSP from savedRSP, pop
// the six callee-saved registers EnterUserspaceSave pushed, and ret.
// Control resumes immediately after the matching EnterUserspaceSave call.
func RestoreKernelContext(savedRSP uintptr)

// EnterUserspaceResume re-enters a process whose full register set was
// previously captured in ctx (e.g. by a preemption mid-instruction): it
// builds the IRETQ frame from ctx, restores every GPR, and transitions.
func EnterUserspaceResume(ctx *UserContext, savedRSPOut *uintptr)

// EnterUserspace is the process-task-facing wrapper: disable interrupts,
// zero GS_BASE (KERNEL_GS_BASE already points at the per-CPU block from
// boot, so the next swapgs on a trap restores it), switch CR3 to the
// process's address space, and call EnterUserspaceSave with the caller's
// savedRSPOut cell. It returns once the process exits or faults and some
// handler calls RestoreKernelContext. Its signature matches
// proc.EnterUserspaceFn so kmain can pass it directly to proc.SpawnInit
// without proc importing trap.
func EnterUserspace(p *proc.Process, entry, stackTop uintptr, savedRSPOut *uintptr) {
	cpu.DisableInterrupts()
	cpu.WriteMSR(msrGSBase, 0)
	cpu.SwitchPDT(p.RootCR3())
	EnterUserspaceSave(entry, stackTop, savedRSPOut)
}

const msrGSBase = 0xC0000101
