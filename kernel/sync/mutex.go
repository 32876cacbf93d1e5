package sync

import "sync/atomic"

// debugIrqGuard, when non-nil, is consulted by Mutex.Lock to panic if the
// caller holds any IrqSpinLock -- holding a spinlock across an await point
// would deadlock the first time the executor parks this task. It is nil
// (no check) unless SetDebugIrqGuard installs a function; nothing in the
// kernel installs one, in any build.
var debugIrqGuard func() bool

// SetDebugIrqGuard installs the function Lock uses to detect that the
// caller is holding an IrqSpinLock; pass nil to disable the check.
func SetDebugIrqGuard(fn func() bool) {
	debugIrqGuard = fn
}

// Mutex is the only lock permitted to be held across an await point: a
// single-bit atomic state plus an internal wait queue, async because
// unlike SpinLock/IrqSpinLock it lets the waiting task yield instead of
// busy-spinning.
type Mutex[T any] struct {
	state uint32
	value T
	queue WaitQueue
}

// NewMutex builds a Mutex already holding v, unlocked.
func NewMutex[T any](v T) *Mutex[T] {
	return &Mutex[T]{value: v}
}

// MutexGuard grants access to the value a Mutex protects while held.
type MutexGuard[T any] struct {
	m *Mutex[T]
}

// Value returns a pointer to the protected value.
func (g *MutexGuard[T]) Value() *T {
	return &g.m.value
}

// Unlock clears the lock bit and wakes one waiter, if any.
func (g *MutexGuard[T]) Unlock() {
	atomic.StoreUint32(&g.m.state, 0)
	g.m.queue.WakeOne()
}

// LockFuture is the future Lock returns: Poll attempts the acquire and,
// on failure, registers w in the wait queue before reporting Pending.
type LockFuture[T any] struct {
	m *Mutex[T]
}

// Poll attempts to acquire the mutex. On success it returns a guard and
// ready=true; on failure it registers w to be woken on release and
// returns ready=false.
func (f *LockFuture[T]) Poll(w Waker) (guard *MutexGuard[T], ready bool) {
	if debugIrqGuard != nil && debugIrqGuard() {
		panic("sync: Mutex.Lock polled while holding an IrqSpinLock")
	}

	if atomic.SwapUint32(&f.m.state, 1) == 0 {
		return &MutexGuard[T]{m: f.m}, true
	}

	f.m.queue.RegisterWaker(w)

	// The registration above can race a concurrent Unlock that already
	// passed the atomic check but hadn't reached WakeOne yet; re-attempt
	// the acquire once after registering so a missed wakeup cannot leave
	// this poller parked forever.
	if atomic.SwapUint32(&f.m.state, 1) == 0 {
		return &MutexGuard[T]{m: f.m}, true
	}

	return nil, false
}

// Lock returns a future whose Poll method drives the acquire.
func (m *Mutex[T]) Lock() *LockFuture[T] {
	return &LockFuture[T]{m: m}
}
