package proc

import (
	"encoding/binary"
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/vmm"
)

// ELF64 constants this loader actually needs. The format is parsed by
// hand at fixed byte offsets rather than through the standard library's
// debug/elf: that package is built around an io.ReaderAt plus defer-
// heavy error paths meant for a hosted process with a growable goroutine
// stack, which is exactly the assumption a boot-time loader running
// before userspace exists cannot make.
const (
	elfMagic0, elfMagic1, elfMagic2, elfMagic3 = 0x7F, 'E', 'L', 'F'
	elfClass64                                 = 2
	elfDataLittleEndian                        = 1

	ptLoad = 1

	ehPhoffOffset  = 0x20
	ehEntryOffset  = 0x18
	ehPhentsizeOff = 0x36
	ehPhnumOffset  = 0x38
	ehHeaderSize   = 0x40

	phTypeOffset   = 0x00
	phFlagsOffset  = 0x04
	phOffsetOffset = 0x08
	phVaddrOffset  = 0x10
	phFilesOffset  = 0x20
	phMemszOffset  = 0x28

	pfExecute = 1 << 0
	pfWrite   = 1 << 1
)

// ErrNotELF64, ErrTruncated are returned by LoadELF for malformed input.
var (
	ErrNotELF64  = &loadError{"not a little-endian ELF64 image"}
	ErrTruncated = &loadError{"program header out of bounds"}
)

type loadError struct{ msg string }

func (e *loadError) Error() string { return e.msg }

// segment is one PT_LOAD program header, decoded from the raw bytes.
type segment struct {
	vaddr         uint64
	fileOff       uint64
	fileSize      uint64
	memSize       uint64
	writable      bool
	executable    bool
}

// parseELF validates the header and returns the entry point plus every
// PT_LOAD segment, in program-header order.
func parseELF(image []byte) (entry uint64, segments []segment, err error) {
	if len(image) < ehHeaderSize ||
		image[0] != elfMagic0 || image[1] != elfMagic1 || image[2] != elfMagic2 || image[3] != elfMagic3 {
		return 0, nil, ErrNotELF64
	}
	if image[4] != elfClass64 || image[5] != elfDataLittleEndian {
		return 0, nil, ErrNotELF64
	}

	entry = binary.LittleEndian.Uint64(image[ehEntryOffset:])
	phoff := binary.LittleEndian.Uint64(image[ehPhoffOffset:])
	phentsize := uint64(binary.LittleEndian.Uint16(image[ehPhentsizeOff:]))
	phnum := uint64(binary.LittleEndian.Uint16(image[ehPhnumOffset:]))

	for i := uint64(0); i < phnum; i++ {
		base := phoff + i*phentsize
		if base+phMemszOffset+8 > uint64(len(image)) {
			return 0, nil, ErrTruncated
		}

		ptype := binary.LittleEndian.Uint32(image[base+phTypeOffset:])
		if ptype != ptLoad {
			continue
		}

		flags := binary.LittleEndian.Uint32(image[base+phFlagsOffset:])
		seg := segment{
			vaddr:      binary.LittleEndian.Uint64(image[base+phVaddrOffset:]),
			fileOff:    binary.LittleEndian.Uint64(image[base+phOffsetOffset:]),
			fileSize:   binary.LittleEndian.Uint64(image[base+phFilesOffset:]),
			memSize:    binary.LittleEndian.Uint64(image[base+phMemszOffset:]),
			writable:   flags&pfWrite != 0,
			executable: flags&pfExecute != 0,
		}
		segments = append(segments, seg)
	}

	return entry, segments, nil
}

// LoadELF maps every PT_LOAD segment of image into space at its
// specified virtual address (identity within the process's own address
// space: no relocation/PIE support, matching a freestanding loader with
// no dynamic linker), zero-filling the BSS tail where
// memSize exceeds fileSize, and returns the image's entry point.
func LoadELF(image []byte, space *AddressSpace, alloc pmm.FrameAllocator, p2v vmm.PhysToVirtFn) (uint64, error) {
	entry, segments, err := parseELF(image)
	if err != nil {
		return 0, err
	}

	for _, seg := range segments {
		if lerr := loadSegment(image, seg, space, alloc, p2v); lerr != nil {
			return 0, lerr
		}
	}

	return entry, nil
}

func loadSegment(image []byte, seg segment, space *AddressSpace, alloc pmm.FrameAllocator, p2v vmm.PhysToVirtFn) error {
	flags := vmm.FlagUser
	if seg.writable {
		flags |= vmm.FlagWritable
	}
	if seg.executable {
		flags |= vmm.FlagExecutable
	}

	pageSize := addr.Size4K{}.Bytes()
	firstPage := seg.vaddr &^ (pageSize - 1)
	lastByte := seg.vaddr + seg.memSize
	pageCount := (lastByte - firstPage + pageSize - 1) / pageSize

	for i := uint64(0); i < pageCount; i++ {
		pageVA := addr.NewVirtAddr(firstPage + i*pageSize)
		page := addr.PageContaining[addr.Size4K](pageVA)

		frame, ferr := alloc.AllocFrame()
		if ferr != nil {
			return ferr
		}

		flush, merr := vmm.MapPage(space.Mapper(), page, frame, flags)
		if merr != nil {
			alloc.FreeFrame(frame)
			return merr
		}
		flush.Ignore()

		dst := p2v(frame.Address())
		zeroPage(dst, pageSize)
		copyFileBytesIntoPage(image, seg, firstPage+i*pageSize, pageSize, dst)
	}

	return nil
}

func zeroPage(dst unsafe.Pointer, size uint64) {
	kernel.Memset(uintptr(dst), 0, uintptr(size))
}

// copyFileBytesIntoPage copies whatever part of seg's file-backed range
// overlaps [pageVA, pageVA+pageSize) into dst, leaving the rest of the
// (already zeroed) page alone -- this is how the BSS tail beyond
// fileSize ends up zero-filled without a separate pass.
func copyFileBytesIntoPage(image []byte, seg segment, pageVA, pageSize uint64, dst unsafe.Pointer) {
	fileStart := seg.vaddr
	fileEnd := seg.vaddr + seg.fileSize

	rangeStart := pageVA
	if rangeStart < fileStart {
		rangeStart = fileStart
	}
	rangeEnd := pageVA + pageSize
	if rangeEnd > fileEnd {
		rangeEnd = fileEnd
	}
	if rangeStart >= rangeEnd {
		return
	}

	srcOff := seg.fileOff + (rangeStart - seg.vaddr)
	n := rangeEnd - rangeStart
	dstOff := rangeStart - pageVA

	dstSlice := unsafe.Slice((*byte)(dst), int(pageSize))
	copy(dstSlice[dstOff:dstOff+n], image[srcOff:srcOff+n])
}
