// Package smp implements the two-phase application-processor bootstrap: a
// parking phase that runs immediately after the BSP switches to its own
// page tables, and an initialization phase the BSP runs later in kernel
// init once the heap and per-CPU infrastructure are ready.
package smp

import (
	"sync/atomic"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/kfmt"
	"github.com/asterism-labs/hadron-sub002/kernel/percpu"
)

// MaxAPs bounds the LAPIC-ID-indexed tables below.
const MaxAPs = percpu.MaxCPUs

// ApEntry describes one bootloader-reported application processor: its
// LAPIC ID and a write-once slot the BSP uses to hand it a start address.
type ApEntry struct {
	LapicID uint32
	Start   func(startAddr uintptr, extra uintptr)
}

// spinTimeoutIters bounds how long park/boot waits for a counter to reach
// its target before giving up and logging a warning; chosen generously
// since this never fires on correctly wired hardware.
const spinTimeoutIters = 200_000_000

var (
	kernelCR3        uint64
	releaseFlag      uint32
	parkedCount      uint32
	readyCount       uint32
	percpuByLapicID  [MaxAPs]*percpu.PerCpu
	nextCPUID        uint32 = 1 // 0 is reserved for the BSP

	out = &kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte("[smp] ")}
)

// ErrBootTimeout names an AP boot timeout. Nothing returns or logs it: a
// timeout in ParkAps or BootAps logs a warning through spinUntil, and the
// boot proceeds with the CPUs that did come up.
var ErrBootTimeout = &kernel.Error{Module: "smp", Message: "AP boot timed out"}

// ParkAps stores kernelCR3 for ap_early_park to pick up, hands every AP
// entry the address of apEarlyPark, and waits (bounded) for all of them
// to acknowledge by incrementing parkedCount.
func ParkAps(entries []ApEntry, cr3 uint64) {
	kernelCR3 = cr3

	for _, e := range entries {
		e.Start(apEarlyParkAddr(), 0)
	}

	spinUntil(&parkedCount, uint32(len(entries)), "not all APs reached the parking spinloop")
}

// apEarlyParkAddr resolves the address AP entry code should jump to. It is
// a function (not a bare symbol reference) so a host test can substitute a
// value without a real linked stub existing.
var apEarlyParkAddr = func() uintptr { return 0 }

// BootAps runs the second phase: assign each AP a PerCpu block and a CPU
// ID, publish the association, release the parked APs, and wait (bounded)
// for each to acknowledge readiness.
func BootAps(lapicIDs []uint32, allocPerCpu func() *percpu.PerCpu) []*percpu.PerCpu {
	assigned := make([]*percpu.PerCpu, 0, len(lapicIDs))

	for _, lapicID := range lapicIDs {
		p := allocPerCpu()
		cpuID := nextCPUID
		nextCPUID++

		percpu.Init(p, cpuID, uint8(lapicID))
		percpuByLapicID[lapicID] = p
		assigned = append(assigned, p)
	}

	atomic.StoreUint32(&releaseFlag, 1)

	spinUntil(&readyCount, uint32(len(lapicIDs)), "not all APs reported ready")

	return assigned
}

// PerCpuForLapicID returns the PerCpu block assigned to a LAPIC ID by
// BootAps, or nil before that AP has been assigned one. ap_entry reads its
// own slot through this table using the LAPIC ID it read from the
// bootloader's MP info block during parking.
func PerCpuForLapicID(lapicID uint32) *percpu.PerCpu {
	if lapicID >= MaxAPs {
		return nil
	}
	return percpuByLapicID[lapicID]
}

// ApEarlyPark is the first kernel code an AP runs: load CR3 from the value
// ParkAps stored, increment parkedCount, then spin until releaseFlag is
// set. It accepts the AP's own LAPIC ID (read by the caller from the
// bootloader info block) but does not use it; the caller keeps that ID
// to index PerCpuForLapicID once released.
func ApEarlyPark(switchCR3 func(uint64), lapicID uint32) {
	switchCR3(kernelCR3)

	atomicIncrement(&parkedCount)

	for atomicLoad(&releaseFlag) == 0 {
		// spin
	}
}

func spinUntil(counter *uint32, target uint32, warning string) {
	for i := 0; i < spinTimeoutIters; i++ {
		if atomicLoad(counter) >= target {
			return
		}
	}
	kfmt.Fprintf(out, "warning: %s (got %d/%d)\n", warning, atomicLoad(counter), target)
}

func atomicIncrement(p *uint32) {
	atomic.AddUint32(p, 1)
}

func atomicLoad(p *uint32) uint32 {
	return atomic.LoadUint32(p)
}
