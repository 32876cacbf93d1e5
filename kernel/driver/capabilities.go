// Package driver defines the capability tokens a driver receives instead
// of being handed direct access to hardware: MMIO mapping, DMA frame
// allocation, IRQ vector registration, PCI configuration space access,
// LAPIC timer programming, and spawning a task onto the executor. Every
// token here is consumed-not-implemented from a driver's point of view;
// the core supplies one concrete adapter per token, delegating to the
// subsystem that already does the real work (the VMM, the frame
// allocator, irq, the executor).
package driver

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
	"github.com/asterism-labs/hadron-sub002/kernel/executor"
	"github.com/asterism-labs/hadron-sub002/kernel/irq"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/vmm"
)

func ptrAt(base uintptr, offset uintptr) unsafe.Pointer {
	return unsafe.Pointer(base + offset)
}

// MmioCapability maps a physical MMIO range into the kernel's address
// space for the lifetime of the returned mapping.
type MmioCapability interface {
	MapMmio(phys addr.PhysAddr, size uint64) (*vmm.MmioMapping, *kernel.Error)
}

// DmaCapability allocates/frees physical frames suitable for DMA
// (identity-translatable through the HHDM, no caching surprises beyond
// what the VMM's flags already control).
type DmaCapability interface {
	AllocFrame() (addr.PhysFrame[addr.Size4K], *kernel.Error)
	FreeFrame(addr.PhysFrame[addr.Size4K])
}

// IrqCapability lets a driver claim an interrupt vector and register the
// handler invoked for it.
type IrqCapability interface {
	AllocVector(fn irq.HandlerFunc) (uint8, *kernel.Error)
	UnregisterHandler(vector uint8) *kernel.Error
}

// PciConfigCapability reads/writes 32-bit PCI configuration space
// registers via the legacy 0xCF8/0xCFC port pair.
type PciConfigCapability interface {
	ReadConfig32(bus, device, function uint8, offset uint8) uint32
	WriteConfig32(bus, device, function uint8, offset uint8, value uint32)
}

// TimerCapability programs the calling CPU's LAPIC timer to fire after
// the given tick count.
type TimerCapability interface {
	ProgramOneShot(ticks uint32)
}

// TaskSpawner lets a driver hand work back to the executor (e.g. a
// bottom-half completion) without being handed the executor itself.
type TaskSpawner interface {
	Spawn(f executor.Future) executor.TaskId
}

// mmioToken adapts vmm.Vmm's MapMmio method, which in production also
// needs a cleanup callback for when the mapping's virtual range is
// released; drivers never unmap a long-lived MMIO window so this token
// always passes a no-op.
type mmioToken struct{ vm *vmm.Vmm }

// NewMmioCapability wraps vm as an MmioCapability.
func NewMmioCapability(vm *vmm.Vmm) MmioCapability { return &mmioToken{vm: vm} }

func (t *mmioToken) MapMmio(phys addr.PhysAddr, size uint64) (*vmm.MmioMapping, *kernel.Error) {
	return t.vm.MapMmio(phys, size, func() {})
}

// dmaToken adapts a pmm.FrameAllocator.
type dmaToken struct{ alloc pmm.FrameAllocator }

// NewDmaCapability wraps alloc as a DmaCapability.
func NewDmaCapability(alloc pmm.FrameAllocator) DmaCapability { return &dmaToken{alloc: alloc} }

func (t *dmaToken) AllocFrame() (addr.PhysFrame[addr.Size4K], *kernel.Error) {
	return t.alloc.AllocFrame()
}

func (t *dmaToken) FreeFrame(f addr.PhysFrame[addr.Size4K]) {
	t.alloc.FreeFrame(f)
}

// irqToken adapts the package-level irq dispatch functions.
type irqToken struct{}

// NewIrqCapability returns an IrqCapability backed by the irq package.
func NewIrqCapability() IrqCapability { return irqToken{} }

func (irqToken) AllocVector(fn irq.HandlerFunc) (uint8, *kernel.Error) {
	return irq.AllocVector(fn)
}

func (irqToken) UnregisterHandler(vector uint8) *kernel.Error {
	return irq.UnregisterHandler(vector)
}

// pciConfigToken implements the legacy I/O-port PCI configuration
// mechanism (mechanism #1): writing a composed address to 0xCF8 then
// reading/writing the data window at 0xCFC.
type pciConfigToken struct{}

// NewPciConfigCapability returns a PciConfigCapability using the legacy
// 0xCF8/0xCFC port pair.
func NewPciConfigCapability() PciConfigCapability { return pciConfigToken{} }

const (
	pciConfigAddressPort = 0xCF8
	pciConfigDataPort    = 0xCFC
	pciConfigEnableBit   = 1 << 31
)

func pciConfigAddress(bus, device, function, offset uint8) uint32 {
	return pciConfigEnableBit |
		uint32(bus)<<16 |
		uint32(device&0x1f)<<11 |
		uint32(function&0x7)<<8 |
		uint32(offset&0xfc)
}

func (pciConfigToken) ReadConfig32(bus, device, function uint8, offset uint8) uint32 {
	cpu.OutL(pciConfigAddressPort, pciConfigAddress(bus, device, function, offset))
	return cpu.InL(pciConfigDataPort)
}

func (pciConfigToken) WriteConfig32(bus, device, function uint8, offset uint8, value uint32) {
	cpu.OutL(pciConfigAddressPort, pciConfigAddress(bus, device, function, offset))
	cpu.OutL(pciConfigDataPort, value)
}

// lapicTimerToken programs the LAPIC's timer register through its MMIO
// window, which the caller of NewTimerCapability has already mapped at
// lapicMmioBase.
type lapicTimerToken struct {
	initialCount *uint32
}

const lapicTimerInitialCountOffset = 0x380

// NewTimerCapability returns a TimerCapability that writes the LAPIC's
// initial-count register at lapicMmioBase + 0x380, the offset the
// architecture fixes for every local APIC.
func NewTimerCapability(lapicMmioBase uintptr) TimerCapability {
	return &lapicTimerToken{
		initialCount: (*uint32)(ptrAt(lapicMmioBase, lapicTimerInitialCountOffset)),
	}
}

func (t *lapicTimerToken) ProgramOneShot(ticks uint32) {
	*t.initialCount = ticks
}

// taskSpawnerToken adapts an *executor.Executor.
type taskSpawnerToken struct{ exec *executor.Executor }

// NewTaskSpawner wraps exec as a TaskSpawner.
func NewTaskSpawner(exec *executor.Executor) TaskSpawner { return &taskSpawnerToken{exec: exec} }

func (t *taskSpawnerToken) Spawn(f executor.Future) executor.TaskId {
	return t.exec.Spawn(f)
}
