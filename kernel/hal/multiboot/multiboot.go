// Package multiboot adapts a multiboot2 info section into hal.BootInfo.
// The tag-stream walk (findTag, the memory-map header/entry layout, the
// framebuffer tag shape) follows the standard multiboot2 parsing approach,
// built as methods on an Info value rather than functions closing over one
// global pointer so several info sections (e.g. in tests) can coexist.
package multiboot

import (
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel/hal"
)

type tagType uint32

const (
	tagMbSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
	tagVbeInfo
	tagFramebufferInfo
	tagElfSymbols
	tagApmTable
	tagAcpiOldRSDP
	tagAcpiNewRSDP
)

type tagHeader struct {
	tagType tagType
	size    uint32
}

type mmapHeader struct {
	entrySize    uint32
	entryVersion uint32
}

type mmapEntry struct {
	physAddr uint64
	length   uint64
	kind     uint32
	reserved uint32
}

const memAvailable = 1

type fbTag struct {
	physAddr uint64
	pitch    uint32
	width    uint32
	height   uint32
	bpp      uint8
	kind     uint8
	reserved uint16
}

type moduleTag struct {
	modStart uint32
	modEnd   uint32
	// cmdline follows as a NUL-terminated string, unused here
}

// Info wraps one multiboot2 info section, located at ptr (a physical
// address already mapped into the HHDM by the time it is handed to
// New, mirroring the bootloader handoff convention).
type Info struct {
	ptr        uintptr
	hhdmBase   uint64
	kernelBase uint64
	apEntries  []hal.APEntry
}

// New builds an Info adapter over a multiboot2 info section already
// mapped at ptr. hhdmBase and kernelImageBase are supplied by the early
// boot trampoline, which computes them before any tag is parsed (the
// multiboot2 tag stream itself carries neither).
func New(ptr uintptr, hhdmBase, kernelImageBase uint64, apEntries []hal.APEntry) *Info {
	return &Info{ptr: ptr, hhdmBase: hhdmBase, kernelBase: kernelImageBase, apEntries: apEntries}
}

func (i *Info) HHDMBase() uint64        { return i.hhdmBase }
func (i *Info) KernelImageBase() uint64 { return i.kernelBase }
func (i *Info) APEntries() []hal.APEntry {
	return i.apEntries
}

// MaxPhysAddr scans the memory map tag for the highest (base+length) of
// any available region.
func (i *Info) MaxPhysAddr() uint64 {
	var max uint64
	i.visitMemRegions(func(e *mmapEntry) bool {
		if e.kind == memAvailable {
			if end := e.physAddr + e.length; end > max {
				max = end
			}
		}
		return true
	})
	return max
}

// ACPIRSDP returns the physical address of the ACPI RSDP tag's payload,
// preferring the new (ACPI 2.0+) RSDP over the old one, or 0 if neither
// tag is present.
func (i *Info) ACPIRSDP() uint64 {
	if p, size := i.findTag(tagAcpiNewRSDP); size != 0 {
		return uint64(p)
	}
	if p, size := i.findTag(tagAcpiOldRSDP); size != 0 {
		return uint64(p)
	}
	return 0
}

// Framebuffer returns the bootloader-initialized framebuffer, or nil if
// the tag is absent.
func (i *Info) Framebuffer() *hal.FramebufferInfo {
	p, size := i.findTag(tagFramebufferInfo)
	if size == 0 {
		return nil
	}
	raw := (*fbTag)(unsafe.Pointer(p))
	return &hal.FramebufferInfo{
		PhysAddr: raw.physAddr,
		Pitch:    raw.pitch,
		Width:    raw.width,
		Height:   raw.height,
		Bpp:      raw.bpp,
	}
}

// Initrd returns the first module tag's location, since this loader only
// ever passes a single initrd module.
func (i *Info) Initrd() *hal.InitrdInfo {
	p, size := i.findTag(tagModules)
	if size == 0 {
		return nil
	}
	raw := (*moduleTag)(unsafe.Pointer(p))
	return &hal.InitrdInfo{
		PhysAddr: uint64(raw.modStart),
		Size:     uint64(raw.modEnd - raw.modStart),
	}
}

// CmdLine returns the raw NUL-terminated command line tag contents.
func (i *Info) CmdLine() string {
	p, size := i.findTag(tagBootCmdLine)
	if size == 0 {
		return ""
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(p)), int(size))
	for n, b := range buf {
		if b == 0 {
			return string(buf[:n])
		}
	}
	return string(buf)
}

func (i *Info) visitMemRegions(visitor func(*mmapEntry) bool) {
	p, size := i.findTag(tagMemoryMap)
	if size == 0 {
		return
	}

	header := (*mmapHeader)(unsafe.Pointer(p))
	endPtr := p + uintptr(size)
	curPtr := p + 8

	for curPtr != endPtr {
		entry := (*mmapEntry)(unsafe.Pointer(curPtr))
		if !visitor(entry) {
			return
		}
		curPtr += uintptr(header.entrySize)
	}
}

// findTag scans the tag stream for the first tag of the given type,
// returning a pointer to its contents (past the 8-byte header) and the
// content length. Tags are 8-byte aligned; a zero size return means the
// tag is absent.
func (i *Info) findTag(t tagType) (uintptr, uint32) {
	curPtr := i.ptr + 8
	for {
		header := (*tagHeader)(unsafe.Pointer(curPtr))
		if header.tagType == tagMbSectionEnd {
			return 0, 0
		}
		if header.tagType == t {
			return curPtr + 8, header.size - 8
		}
		curPtr += uintptr((header.size + 7) &^ 7)
	}
}
