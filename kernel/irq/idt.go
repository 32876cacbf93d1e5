package irq

import (
	"reflect"
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
)

// idtCodeSelector is the kernel code segment every gate runs the handler
// on, matching trap.kernelCS.
const idtCodeSelector = 0x08

// idtInterruptGate marks a present, ring-0, 64-bit interrupt gate (type
// 0xE) with IST=0, i.e. "present | DPL=0 | type=1110b".
const idtInterruptGate = 0x8E

// idtEntry is one x86_64 IDT gate descriptor: 16 bytes, the handler
// address split across three fields the hardware reassembles, plus the
// selector/type/IST byte and a reserved dword.
type idtEntry struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

func newIdtEntry(handler uintptr) idtEntry {
	return idtEntry{
		offsetLow:  uint16(handler),
		selector:   idtCodeSelector,
		ist:        0,
		typeAttr:   idtInterruptGate,
		offsetMid:  uint16(handler >> 16),
		offsetHigh: uint32(handler >> 32),
	}
}

// idtPseudoDescriptor holds the LIDT operand: a 16-bit limit (table size
// in bytes, minus one) followed by the table's 64-bit linear base address.
// The leading pad places limit at offset 6, so the ten bytes starting at
// &limit are the limit and the 8-byte-aligned base with no gap between.
type idtPseudoDescriptor struct {
	_     [6]byte
	limit uint16
	base  uint64
}

// idt is the single static IDT this core installs on every CPU: 256
// gates, vectors 0-31 pointing at the exception stubs and 32-255 at the
// generated vector stubs. Shared across CPUs since every entry is
// identical regardless of which CPU faults -- only GDT/TSS state (the
// IST stack, GS base) is genuinely per-CPU here.
var idt [256]idtEntry

var idtDescriptor idtPseudoDescriptor

func funcAddr(fn func()) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// BuildIDT fills every gate descriptor and loads the table with LIDT.
// Must run once per CPU (the BSP during boot, then once per AP after it
// reaches its own GDT/TSS setup), after a valid kernel code selector is
// already loaded -- the gates reference it, but LIDT itself doesn't
// dereference that selector until the first interrupt actually fires.
func BuildIDT() {
	for v, fn := range exceptionStubs {
		idt[v] = newIdtEntry(funcAddr(fn))
	}
	for v, fn := range vectorStubs {
		idt[FirstVector+v] = newIdtEntry(funcAddr(fn))
	}

	idtDescriptor = idtPseudoDescriptor{
		limit: uint16(unsafe.Sizeof(idt)) - 1,
		base:  uint64(uintptr(unsafe.Pointer(&idt))),
	}
	cpu.LoadIDT(uintptr(unsafe.Pointer(&idtDescriptor.limit)))
}
