package sync

import (
	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
	"github.com/asterism-labs/hadron-sub002/kernel/percpu"
)

// rflagsIF is the interrupt-enable bit in RFLAGS.
const rflagsIF = 1 << 9

// irqDepth counts nested IrqSpinLock acquisitions per logical CPU, so
// interrupts are only re-enabled once the outermost guard on that CPU
// releases. Backed by percpu.CpuLocal rather than a single shared
// counter: two CPUs can each be mid-acquisition at the same time, and a
// plain global here would let one CPU's Unlock re-enable interrupts
// another CPU is still relying on staying masked.
var irqDepth percpu.CpuLocal[uint32]

// currentCPUIDFn resolves the calling CPU's ID. A function variable so
// host tests can drive the locking logic for a fixed CPU without a live
// GS base.
var currentCPUIDFn = func() uint32 {
	return percpu.Current().CPUID
}

// saveAndDisableFn reads RFLAGS, disables interrupts, and returns whether
// interrupts were enabled beforehand; restoreFn re-enables them if they
// were. Both are function variables so host tests can run the locking
// logic without real CLI/STI.
var (
	saveAndDisableFn = func() bool {
		wasEnabled := cpu.ReadRFlags()&rflagsIF != 0
		cpu.DisableInterrupts()
		return wasEnabled
	}
	restoreFn = func(wasEnabled bool) {
		if wasEnabled {
			cpu.EnableInterrupts()
		}
	}
)

// IrqSpinLock is a SpinLock that also disables interrupts for the
// duration it is held, since a handler running on the same CPU while the
// lock is held would deadlock against itself. The returned guard is not
// safe to hand to another goroutine/task -- interrupt state is per-CPU,
// so committing to unlock from a different logical CPU than the one that
// locked it is a bug the real kernel has no way to catch at compile time.
type IrqSpinLock[T any] struct {
	inner SpinLock[T]
}

// NewIrqSpinLock builds an IrqSpinLock already holding v, unlocked.
func NewIrqSpinLock[T any](v T) *IrqSpinLock[T] {
	return &IrqSpinLock[T]{inner: SpinLock[T]{value: v}}
}

// IrqSpinLockGuard releases both the spin bit and, once every nested
// acquisition has released, the interrupt-disabled state.
type IrqSpinLockGuard[T any] struct {
	inner       *SpinLockGuard[T]
	wasEnabled  bool
}

// Lock disables interrupts (if this is the outermost acquisition on this
// CPU), increments the depth counter, and spins for the underlying lock.
func (l *IrqSpinLock[T]) Lock() *IrqSpinLockGuard[T] {
	depth := irqDepth.Get(currentCPUIDFn())

	wasEnabled := false
	if *depth == 0 {
		wasEnabled = saveAndDisableFn()
	}
	*depth++

	return &IrqSpinLockGuard[T]{inner: l.inner.Lock(), wasEnabled: wasEnabled}
}

// Value returns a pointer to the protected value.
func (g *IrqSpinLockGuard[T]) Value() *T {
	return g.inner.Value()
}

// Unlock releases the spin bit, decrements the depth counter, and
// restores interrupts once the outermost acquisition unwinds.
func (g *IrqSpinLockGuard[T]) Unlock() {
	g.inner.Unlock()

	depth := irqDepth.Get(currentCPUIDFn())
	*depth--
	if *depth == 0 {
		restoreFn(g.wasEnabled)
	}
}
