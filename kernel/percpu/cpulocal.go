package percpu

// CpuLocal holds one T per logical CPU, indexed by the calling CPU's ID.
// Safe for concurrent use across CPUs because each CPU only ever touches
// its own slot; it is the caller's responsibility not to pass a CpuLocal
// value itself across CPUs by reference without external synchronization.
type CpuLocal[T any] struct {
	slots [MaxCPUs]T
}

// Get returns a pointer to the slot for cpuID, bypassing Current() for
// callers (tests, early boot before GS is live) that already know which
// CPU they mean to address.
func (c *CpuLocal[T]) Get(cpuID uint32) *T {
	return &c.slots[cpuID]
}

// Local returns the slot for the currently executing CPU.
func (c *CpuLocal[T]) Local() *T {
	return c.Get(Current().CPUID)
}
