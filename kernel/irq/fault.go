package irq

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/asterism-labs/hadron-sub002/kernel/kfmt"
)

// ExceptionFrame mirrors the hardware-pushed exception stack frame plus
// the error code and, for #PF, the CR2 fault address: what a
// #DE/#UD/#GP/#PF/etc handler needs to log and, for ring-3 faults, to
// decide whether the faulting process must be terminated.
type ExceptionFrame struct {
	RIP, CS, RFlags, RSP, SS uint64
	ErrorCode                uint64
	CR2                      uint64
}

// RPL returns the saved CS's requested privilege level.
func (f *ExceptionFrame) RPL() int {
	return int(f.CS & 3)
}

// readInstructionFn reads up to len(buf) bytes starting at a virtual
// address through the HHDM; registered at boot, stubbed in tests with a
// fixed byte sequence.
var readInstructionFn = func(rip uint64, buf []byte) int { return 0 }

// SetInstructionReader installs the function fault dumps use to fetch the
// bytes at RIP for disassembly.
func SetInstructionReader(fn func(rip uint64, buf []byte) int) {
	readInstructionFn = fn
}

// terminateFn is called for a ring-3 fault instead of panicking. It is a
// no-op until SetTerminateFunc installs a handler; kmain installs none, so
// a ring-3 fault is logged and HandleFault returns without ending the
// process.
var terminateFn = func(reason string) {}

// SetTerminateFunc installs the function a ring-3 fault invokes to end the
// faulting process instead of halting the kernel.
func SetTerminateFunc(fn func(reason string)) {
	terminateFn = fn
}

// stackOverflowFn reports whether a faulting address is the guard-page
// portion of an already-allocated kernel stack slot; wired at boot to
// vmm.Vmm.IsStackGuardFault, which has the region layout and the stacks
// allocator's high-water mark this package has no access to on its own.
var stackOverflowFn = func(cr2 uint64) bool { return false }

// SetStackOverflowChecker installs the function the #PF path uses to tell
// a stack-overflow guard-page hit apart from any other ring-0 page fault.
func SetStackOverflowChecker(fn func(cr2 uint64) bool) {
	stackOverflowFn = fn
}

// vectorPageFault is the CPU exception vector for #PF.
const vectorPageFault = 14

var faultOut = &kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte("[fault] ")}

// faultNames maps vectors 0-31 to their architectural mnemonic, used only
// for the log line; anything outside this table logs as "exception".
var faultNames = map[uint8]string{
	0: "#DE", 6: "#UD", 8: "#DF", 13: "#GP", 14: "#PF",
}

// HandleFault is the shared entry point every CPU-exception IDT gate
// installs. Ring-3 faults are logged and passed to terminateFn; ring-0
// faults print a register dump plus a best-effort disassembly of the
// faulting instruction and panic, since a ring-0 fault is always an
// invariant violation the core cannot safely continue past.
func HandleFault(vector uint8, f *ExceptionFrame) {
	name := faultNames[vector]
	if name == "" {
		name = "exception"
	}

	if f.RPL() == 3 {
		kfmt.Fprintf(faultOut, "%s in userspace at rip=%x cr2=%x, terminating process\n", name, f.RIP, f.CR2)
		terminateFn(name)
		return
	}

	if vector == vectorPageFault && stackOverflowFn(f.CR2) {
		dumpRing0Fault(name, vector, f)
		panic("STACK OVERFLOW")
	}

	dumpRing0Fault(name, vector, f)
	panic(name + " in ring 0")
}

// dumpRing0Fault prints the register state and, when an instruction reader
// is registered, the disassembled mnemonic at the faulting RIP -- the way
// a hosted debugger annotates a crash.
func dumpRing0Fault(name string, vector uint8, f *ExceptionFrame) {
	kfmt.Fprintf(faultOut, "%s (vector %d) at ring 0: rip=%x cr2=%x err=%x\n", name, vector, f.RIP, f.CR2, f.ErrorCode)

	var buf [16]byte
	if n := readInstructionFn(f.RIP, buf[:]); n > 0 {
		inst, err := x86asm.Decode(buf[:n], 64)
		if err != nil {
			kfmt.Fprintf(faultOut, "  <could not decode instruction at rip>\n")
			return
		}
		kfmt.Fprintf(faultOut, "  %s\n", x86asm.GNUSyntax(inst, f.RIP, nil))
	}
}
