package irq

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
)

// Exception0..Exception31 are the naked asm entry points exceptions_amd64.s
// defines for the 32 CPU-exception vectors: normalize the hardware frame
// (synthesizing a zero error code for the vectors that don't get one) and
// fall into exceptionCommon, which calls exceptionTrampoline below.
func Exception0()
func Exception1()
func Exception2()
func Exception3()
func Exception4()
func Exception5()
func Exception6()
func Exception7()
func Exception8()
func Exception9()
func Exception10()
func Exception11()
func Exception12()
func Exception13()
func Exception14()
func Exception15()
func Exception16()
func Exception17()
func Exception18()
func Exception19()
func Exception20()
func Exception21()
func Exception22()
func Exception23()
func Exception24()
func Exception25()
func Exception26()
func Exception27()
func Exception28()
func Exception29()
func Exception30()
func Exception31()

// exceptionStubs lists Exception0..Exception31 in vector order so BuildIDT
// can resolve each one's address the same way it resolves the vectorStubs
// table's.
var exceptionStubs = [32]func(){
	Exception0, Exception1, Exception2, Exception3,
	Exception4, Exception5, Exception6, Exception7,
	Exception8, Exception9, Exception10, Exception11,
	Exception12, Exception13, Exception14, Exception15,
	Exception16, Exception17, Exception18, Exception19,
	Exception20, Exception21, Exception22, Exception23,
	Exception24, Exception25, Exception26, Exception27,
	Exception28, Exception29, Exception30, Exception31,
}

// hwExceptionFrame mirrors the five hardware-pushed qwords (RIP, CS,
// RFLAGS, RSP, SS) exceptionCommon points framePtr at; it never crosses a
// Go/asm boundary as a struct, so its layout only needs to agree with the
// asm side's push order, not with ExceptionFrame's field order.
type hwExceptionFrame struct {
	RIP, CS, RFlags, RSP, SS uint64
}

// exceptionTrampoline is called by exceptionCommon with the faulting
// vector, the (real or synthesized) error code, and a pointer to the raw
// hardware frame; it assembles an ExceptionFrame and hands off to
// HandleFault, reading CR2 only for #PF since every other vector leaves
// it architecturally undefined.
func exceptionTrampoline(vector uint8, errorCode uint64, framePtr unsafe.Pointer) {
	hw := (*hwExceptionFrame)(framePtr)

	f := &ExceptionFrame{
		RIP:       hw.RIP,
		CS:        hw.CS,
		RFlags:    hw.RFlags,
		RSP:       hw.RSP,
		SS:        hw.SS,
		ErrorCode: errorCode,
	}
	if vector == vectorPageFault {
		f.CR2 = cpu.ReadCR2()
	}

	HandleFault(vector, f)
}
