// Package cpu exposes the handful of privileged x86_64 instructions the rest
// of the kernel needs as thin asm-backed functions, generalized from the
// teacher's cpu package with the addition of the MSR and CR3-switch
// primitives the SYSCALL path and address-space switch require.
package cpu

var cpuidFn = ID

// EnableInterrupts sets the interrupt flag (STI).
func EnableInterrupts()

// DisableInterrupts clears the interrupt flag (CLI).
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt (HLT).
func Halt()

// FlushTLBEntry invalidates a single TLB entry for virtAddr (INVLPG).
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT loads pdtPhysAddr into CR3, flushing the entire TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address currently loaded in CR3.
func ActivePDT() uintptr

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uint64

// ReadRFlags returns the current RFLAGS register, used by IrqSpinLock to
// record whether interrupts were enabled before it disables them.
func ReadRFlags() uint64

// LoadIDT installs the interrupt descriptor table pointed to by
// descriptorPtr (a 10-byte limit+base LIDT operand) on the calling CPU.
func LoadIDT(descriptorPtr uintptr)

// ID executes CPUID with EAX=leaf, ECX=subleaf and returns EAX, EBX, ECX, EDX.
func ID(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)

// ReadMSR returns the 64-bit value of the model-specific register msr.
func ReadMSR(msr uint32) uint64

// WriteMSR writes value to the model-specific register msr.
func WriteMSR(msr uint32, value uint64)

// ReadGS64 returns the 64-bit value at GS:[offset], used to reach per-CPU
// state without first loading a pointer through another register.
func ReadGS64(offset uint32) uint64

// WriteGS64 stores value at GS:[offset].
func WriteGS64(offset uint32, value uint64)

// OutL writes a 32-bit value to an I/O port (OUT).
func OutL(port uint16, value uint32)

// InL reads a 32-bit value from an I/O port (IN).
func InL(port uint16) uint32

// IsIntel reports whether the running CPU identifies as a GenuineIntel part.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0, 0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// IsAMD reports whether the running CPU identifies as an AuthenticAMD part.
func IsAMD() bool {
	_, ebx, ecx, edx := cpuidFn(0, 0)
	return ebx == 0x68747541 && // "Auth"
		edx == 0x69746e65 && // "enti"
		ecx == 0x444d4163 // "cAMD"
}
