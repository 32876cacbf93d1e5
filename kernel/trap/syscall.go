// Package trap implements the SYSCALL entry path's MSR setup and the
// setjmp/longjmp-style primitives that bridge kernel-task code into ring-3
// userspace and back. The naked asm bodies live in syscall_amd64.s and
// entry_amd64.s; this file holds the pure-Go configuration and the saved
// register layout the SYSCALL stub and the longjmp primitives agree on.
package trap

import (
	"reflect"

	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
)

// SyscallEntry is the naked asm entry point syscall_amd64.s installs at
// LSTAR; InitSyscallMSRs resolves its address via reflection since Go has
// no address-of-function-symbol operator that survives across packages.
func SyscallEntry()

func syscallEntryAddr() uintptr {
	return reflect.ValueOf(SyscallEntry).Pointer()
}

var (
	readMSRFn  = cpu.ReadMSR
	writeMSRFn = cpu.WriteMSR
)

const (
	msrEFER  = 0xC0000080
	msrSTAR  = 0xC0000081
	msrLSTAR = 0xC0000082
	msrSFMASK = 0xC0000084

	efer_SCE = 1 << 0

	// kernelCS/userCSBase pack STAR: SYSCALL loads CS from
	// bits 32-47 (and SS = CS+8); SYSRETQ loads SS from bits 48-63 plus 8
	// and CS from bits 48-63 plus 16, so the user code/data selectors must be laid out with
	// the expected +8/+16 spacing in the GDT (CS=0x23/SS=0x1B after the
	// RPL=3 OR-in, i.e. base selector 0x10 before RPL bits).
	kernelCS     = 0x08
	userCSBase   = 0x10

	// sfmaskIF/sfmaskDF are cleared from RFLAGS on SYSCALL entry so the
	// kernel runs with interrupts masked and a known direction flag until
	// the handler explicitly re-enables them.
	sfmaskIF = 1 << 9
	sfmaskDF = 1 << 10
)

// SyscallSavedRegs mirrors the user callee-saved snapshot the SYSCALL
// entry stub writes to GS:[56] (percpu.offSavedRegsPtr) before dispatch,
// so a blocking syscall can be resumed via restore_kernel_context even
// after a longjmp off the syscall stack.
type SyscallSavedRegs struct {
	RIP, RFlags    uint64
	RBX, RBP       uint64
	R12, R13, R14, R15 uint64
}

// InitSyscallMSRs programs the four MSRs the SYSCALL instruction reads:
// EFER.SCE, STAR's selector packing, LSTAR's entry point, and SFMASK's
// interrupt/direction-flag mask. It resolves the entry stub's
// address itself, via syscallEntryAddr.
func InitSyscallMSRs() {
	efer := readMSRFn(msrEFER)
	writeMSRFn(msrEFER, efer|efer_SCE)

	star := (uint64(userCSBase) << 48) | (uint64(kernelCS) << 32)
	writeMSRFn(msrSTAR, star)

	writeMSRFn(msrLSTAR, uint64(syscallEntryAddr()))

	writeMSRFn(msrSFMASK, sfmaskIF|sfmaskDF)
}
