package vmm

import (
	"testing"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
)

func TestMapPageSetsNXWhenNotExecutable(t *testing.T) {
	fa := newHostFrameAllocator(64)
	rootFrame, err := fa.AllocFrame()
	if err != nil {
		t.Fatalf("allocating root frame: %v", err)
	}
	mapper := NewMapper(rootFrame.Address(), fa.p2v, func(addr.VirtAddr) {}, fa)

	frame, err := fa.AllocFrame()
	if err != nil {
		t.Fatalf("allocating data frame: %v", err)
	}
	page := addr.PageContaining[addr.Size4K](addr.NewVirtAddr(0x400000))

	flush, merr := MapPage(mapper, page, frame, FlagWritable)
	if merr != nil {
		t.Fatalf("MapPage failed: %v", merr)
	}
	flush.Ignore()

	pte := entryFor(t, mapper, page.Address())
	if !pte.HasFlags(flagNoExecute) {
		t.Fatalf("page mapped without FlagExecutable should have NX set")
	}
}

func TestMapPageClearsNXWhenExecutable(t *testing.T) {
	fa := newHostFrameAllocator(64)
	rootFrame, err := fa.AllocFrame()
	if err != nil {
		t.Fatalf("allocating root frame: %v", err)
	}
	mapper := NewMapper(rootFrame.Address(), fa.p2v, func(addr.VirtAddr) {}, fa)

	frame, err := fa.AllocFrame()
	if err != nil {
		t.Fatalf("allocating data frame: %v", err)
	}
	page := addr.PageContaining[addr.Size4K](addr.NewVirtAddr(0x400000))

	flush, merr := MapPage(mapper, page, frame, FlagExecutable)
	if merr != nil {
		t.Fatalf("MapPage failed: %v", merr)
	}
	flush.Ignore()

	pte := entryFor(t, mapper, page.Address())
	if pte.HasFlags(flagNoExecute) {
		t.Fatalf("page mapped with FlagExecutable should not have NX set")
	}
}

func entryFor(t *testing.T, m *Mapper, va addr.VirtAddr) *pageTableEntry {
	t.Helper()
	var found *pageTableEntry
	err := m.walk(va, levelForSize(addr.Size4K{}.Bytes()), func(level int, pte *pageTableEntry) *kernel.Error {
		found = pte
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	return found
}
