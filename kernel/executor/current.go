package executor

import "github.com/asterism-labs/hadron-sub002/kernel/percpu"

// perCPUExecutors holds the one Executor instance each CPU owns, indexed
// by CPU ID the same way percpu.CpuLocal is.
var perCPUExecutors percpu.CpuLocal[*Executor]

// InstallForCPU registers exec as the Executor the given CPU's RunLoop
// and Current() calls resolve to. Called once per CPU during boot.
func InstallForCPU(cpuID uint32, exec *Executor) {
	*perCPUExecutors.Get(cpuID) = exec
}

// Current returns the calling CPU's Executor, or nil if InstallForCPU has
// not run for it yet.
func Current() *Executor {
	return *perCPUExecutors.Local()
}

// ForCPU returns the Executor installed for a specific CPU ID, used by
// work stealing to reach a victim other than the caller's own.
func ForCPU(cpuID uint32) *Executor {
	return *perCPUExecutors.Get(cpuID)
}
