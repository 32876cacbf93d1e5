// Package percpu defines the fixed-layout per-CPU state block every
// interrupt stub and the SYSCALL entry stub address directly, plus the
// CpuLocal slot type used to keep one value per logical CPU.
package percpu

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
)

// MaxCPUs bounds every CpuLocal array. Neither this package nor the SMP
// bootstrap checks the number of CPUs or their LAPIC IDs against it.
const MaxCPUs = 256

// PerCpu is laid out exactly as documented below, because the interrupt
// stubs and the SYSCALL entry stub read these fields through GS with
// hard-coded byte offsets, not through field names. Reordering, resizing,
// or inserting a field shifts every offset and breaks the assembly.
//
//	offset  field                 size
//	0       selfPtr               8
//	8       KernelRSP             8
//	16      UserRSP               8
//	24      CPUID                 4
//	28      APICID                1
//	29      Initialized           1
//	32      UserContextPtr        8
//	40      SavedKernelRSPPtr     8
//	48      TrapReasonPtr         8
//	56      SavedRegsPtr          8
type PerCpu struct {
	selfPtr           uintptr
	KernelRSP         uint64
	UserRSP           uint64
	CPUID             uint32
	APICID            uint8
	Initialized       uint8
	_                 uint16 // padding to keep UserContextPtr 8-byte aligned
	UserContextPtr    uintptr
	SavedKernelRSPPtr uintptr
	TrapReasonPtr     uintptr
	SavedRegsPtr      uintptr
}

const (
	offSelfPtr           = 0
	offKernelRSP         = 8
	offUserRSP           = 16
	offCPUID             = 24
	offAPICID            = 28
	offInitialized       = 29
	offUserContextPtr    = 32
	offSavedKernelRSPPtr = 40
	offTrapReasonPtr     = 48
	offSavedRegsPtr      = 56
)

// Init stamps p's self-pointer and writes both the GS_BASE and
// KERNEL_GS_BASE MSRs to point at it. This is the common BSP/AP
// initialization sequence; the caller is responsible for ordering this
// after any GDT/TSS load that would otherwise clear GS base.
func Init(p *PerCpu, cpuID uint32, apicID uint8) {
	p.selfPtr = uintptr(unsafe.Pointer(p))
	p.CPUID = cpuID
	p.APICID = apicID
	p.Initialized = 1

	addr := uint64(p.selfPtr)
	cpu.WriteMSR(msrGSBase, addr)
	cpu.WriteMSR(msrKernelGSBase, addr)
}

const (
	msrGSBase       = 0xC0000101
	msrKernelGSBase = 0xC0000102
)

// Current returns the PerCpu block for the executing CPU by dereferencing
// GS:[0]. It must only be called after Init has run on this CPU.
func Current() *PerCpu {
	return (*PerCpu)(unsafe.Pointer(uintptr(cpu.ReadGS64(offSelfPtr))))
}

// assertOffsets panics at package init if the Go compiler's layout ever
// diverges from the documented assembly-visible offsets; this can only
// happen if the struct definition above is edited without updating the
// constants, since Go's layout for this field sequence on amd64 is
// deterministic.
func init() {
	var p PerCpu
	base := uintptr(unsafe.Pointer(&p))

	check := func(name string, got uintptr, want uintptr) {
		if got-base != want {
			panic((&kernel.Error{Module: "percpu", Message: name + " offset mismatch"}).Error())
		}
	}

	check("selfPtr", uintptr(unsafe.Pointer(&p.selfPtr)), offSelfPtr)
	check("KernelRSP", uintptr(unsafe.Pointer(&p.KernelRSP)), offKernelRSP)
	check("UserRSP", uintptr(unsafe.Pointer(&p.UserRSP)), offUserRSP)
	check("CPUID", uintptr(unsafe.Pointer(&p.CPUID)), offCPUID)
	check("APICID", uintptr(unsafe.Pointer(&p.APICID)), offAPICID)
	check("Initialized", uintptr(unsafe.Pointer(&p.Initialized)), offInitialized)
	check("UserContextPtr", uintptr(unsafe.Pointer(&p.UserContextPtr)), offUserContextPtr)
	check("SavedKernelRSPPtr", uintptr(unsafe.Pointer(&p.SavedKernelRSPPtr)), offSavedKernelRSPPtr)
	check("TrapReasonPtr", uintptr(unsafe.Pointer(&p.TrapReasonPtr)), offTrapReasonPtr)
	check("SavedRegsPtr", uintptr(unsafe.Pointer(&p.SavedRegsPtr)), offSavedRegsPtr)
}
