// Package kmain wires every subsystem together in dependency order:
// addressing and paging primitives come up first, then the frame
// allocator and mapper, then the VMM, then per-CPU state, then interrupt
// dispatch/SYSCALL/SMP, then the executor, then the VFS and the first
// process. Kmain is the only symbol the boot trampoline calls into.
package kmain

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/cpu"
	"github.com/asterism-labs/hadron-sub002/kernel/executor"
	"github.com/asterism-labs/hadron-sub002/kernel/hal"
	"github.com/asterism-labs/hadron-sub002/kernel/irq"
	"github.com/asterism-labs/hadron-sub002/kernel/kfmt"
	"github.com/asterism-labs/hadron-sub002/kernel/mem"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/vmm"
	"github.com/asterism-labs/hadron-sub002/kernel/percpu"
	"github.com/asterism-labs/hadron-sub002/kernel/proc"
	"github.com/asterism-labs/hadron-sub002/kernel/smp"
	"github.com/asterism-labs/hadron-sub002/kernel/trap"
	"github.com/asterism-labs/hadron-sub002/kernel/vfs"
)

// lowMemoryReserve excludes the real-mode IVT, BDA and legacy BIOS regions
// from the frame allocator; nothing this core runs ever needs memory below
// 1 MiB.
const lowMemoryReserve = 1 << 20

// kernelImageReserve is a generous over-estimate of the kernel image's own
// footprint; precise end-of-image symbols are a linker-script concern this
// core does not yet have, so the reservation is rounded well past any
// plausible image size instead.
const kernelImageReserve = 16 << 20

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
var errInitSpawnFailed = &kernel.Error{Module: "kmain", Message: "failed to spawn init"}

var out = &kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte("[kmain] ")}

// Kmain is the sole exported entry point the boot trampoline calls after
// the GDT, a minimal stack and GS base for CPU 0 are already in place.
// bi describes whatever bootloader handed control here (multiboot2 or
// limine); Kmain never returns -- if every subsystem initializes cleanly
// it falls into the BSP's own executor run loop, which halts on an empty
// ready queue and never returns either.
//
//go:noinline
func Kmain(bi hal.BootInfo) {
	kfmt.SetHaltFunc(cpu.Halt)
	kfmt.Printf("booting, cmdline=%s hhdm=%x maxphys=%x\n", bi.CmdLine(), bi.HHDMBase(), bi.MaxPhysAddr())

	alloc := initMemory(bi)
	p2v := physToVirt(bi.HHDMBase())

	rootMapper, err := buildKernelMapper(alloc, p2v)
	if err != nil {
		kfmt.Panic(err)
	}

	layout := mem.NewLayout(0, bi.HHDMBase(), bi.MaxPhysAddr())
	kernelVmm := vmm.New(rootMapper, layout)
	heapBase, heapSize, err := kernelVmm.MapInitialHeap(alloc)
	if err != nil {
		kfmt.Panic(err)
	}
	kfmt.Fprintf(out, "heap mapped at %x, size %d\n", heapBase.AsU64(), heapSize)

	initPerCPU(0)
	initTraps(kernelVmm)
	aps := startAPs(bi, rootMapper.RootPhysAddr().AsU64())
	kfmt.Fprintf(out, "%d application processor(s) started\n", len(aps))

	exec := executor.New(0)
	executor.InstallForCPU(0, exec)
	executor.SetHaltFunc(cpu.Halt)

	mounts := buildInitialMounts(bi, p2v)
	if _, serr := proc.SpawnInit(mounts, alloc, p2v, rootFlush, exec, trap.EnterUserspace); serr != nil {
		kfmt.Fprintf(out, "spawn /init failed: %s\n", serr.Error())
		kfmt.Panic(errInitSpawnFailed)
	}

	cpu.EnableInterrupts()
	exec.RunLoop()

	kfmt.Panic(errKmainReturned)
}

// physToVirt builds the PhysToVirtFn every mapper/loader in this boot
// path shares: a direct offset into the bootloader's higher-half direct
// map, parameterized on whatever HHDM base this boot's bootloader
// actually reported instead of a compile-time constant.
func physToVirt(hhdmBase uint64) vmm.PhysToVirtFn {
	return func(pa addr.PhysAddr) unsafe.Pointer {
		return unsafe.Pointer(uintptr(hhdmBase + pa.AsU64()))
	}
}

func rootFlush(va addr.VirtAddr) {
	cpu.FlushTLBEntry(uintptr(va.AsU64()))
}

func initMemory(bi hal.BootInfo) pmm.FrameAllocator {
	var pageSize addr.Size4K
	frameCount := int(bi.MaxPhysAddr() / pageSize.Bytes())

	allocator := pmm.NewBitmapAllocator(addr.NewPhysAddr(0), frameCount)
	allocator.ReserveRange(addr.NewPhysAddr(0), addr.NewPhysAddr(lowMemoryReserve))
	allocator.ReserveRange(
		addr.NewPhysAddr(bi.KernelImageBase()),
		addr.NewPhysAddr(bi.KernelImageBase()+kernelImageReserve),
	)
	return allocator
}

func buildKernelMapper(alloc pmm.FrameAllocator, p2v vmm.PhysToVirtFn) (*vmm.Mapper, *kernel.Error) {
	var pageSize addr.Size4K
	rootFrame, err := alloc.AllocFrame()
	if err != nil {
		return nil, err
	}
	kernel.Memset(uintptr(p2v(rootFrame.Address())), 0, uintptr(pageSize.Bytes()))
	return vmm.NewMapper(rootFrame.Address(), p2v, rootFlush, alloc), nil
}

func initPerCPU(cpuID uint32) {
	p := &percpu.PerCpu{}
	percpu.Init(p, cpuID, uint8(cpuID))
}

func initTraps(kernelVmm *vmm.Vmm) {
	irq.BuildIDT()
	trap.InitSyscallMSRs()
	irq.SetEOIFunc(func() {})
	irq.SetStackOverflowChecker(func(cr2 uint64) bool {
		return kernelVmm.IsStackGuardFault(addr.NewVirtAddr(cr2))
	})
}

// startAPs hands every bootloader-reported AP its parking address and
// waits for each to acknowledge, translating the boot-protocol-neutral
// hal.APEntry slice into the smp package's own ApEntry shape.
func startAPs(bi hal.BootInfo, kernelCR3 uint64) []*percpu.PerCpu {
	halEntries := bi.APEntries()
	if len(halEntries) == 0 {
		return nil
	}

	entries := make([]smp.ApEntry, len(halEntries))
	lapicIDs := make([]uint32, len(halEntries))
	for i, e := range halEntries {
		entries[i] = smp.ApEntry{LapicID: e.LapicID, Start: e.Start}
		lapicIDs[i] = e.LapicID
	}

	smp.ParkAps(entries, kernelCR3)
	return smp.BootAps(lapicIDs, func() *percpu.PerCpu { return &percpu.PerCpu{} })
}

// buildInitialMounts assembles the root namespace SpawnInit resolves
// /init and /dev/console against: a ramfs root with the bootloader's
// initrd blob (if any) copied in as /init, and /dev mounted to a devfs
// whose console device forwards writes to the active kfmt output sink.
func buildInitialMounts(bi hal.BootInfo, p2v vmm.PhysToVirtFn) *vfs.Mounts {
	root := vfs.NewRamfs()
	if rd := bi.Initrd(); rd != nil {
		loadInitrd(root, rd, p2v)
	}

	dev := vfs.NewDevfs()
	dev.RegisterDevice("console", vfs.NewConsoleInode(kfmt.GetOutputSink()))

	mounts := vfs.NewMounts(root)
	mounts.Mount("dev", dev)
	return mounts
}

// loadInitrd copies the bootloader-supplied initrd blob into root as
// /init. The blob is treated as the init program's raw ELF image
// directly, not an archive: this core has no initramfs unpacker, so
// whatever the bootloader loaded becomes /init's entire content.
func loadInitrd(root *vfs.Ramfs, rd *hal.InitrdInfo, p2v vmm.PhysToVirtFn) {
	image := unsafe.Slice((*byte)(p2v(addr.NewPhysAddr(rd.PhysAddr))), rd.Size)

	initFile, err := root.Root().Create("init", vfs.File, vfs.Permissions{Read: true, Execute: true})
	if err != nil {
		kfmt.Fprintf(out, "creating /init failed: %s\n", err.Error())
		return
	}
	if _, err := initFile.Write(0, image); err != nil {
		kfmt.Fprintf(out, "writing /init image failed: %s\n", err.Error())
	}
}
