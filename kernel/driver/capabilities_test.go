package driver

import (
	"testing"
	"unsafe"

	"github.com/asterism-labs/hadron-sub002/kernel"
	"github.com/asterism-labs/hadron-sub002/kernel/addr"
	"github.com/asterism-labs/hadron-sub002/kernel/executor"
	"github.com/asterism-labs/hadron-sub002/kernel/mem/pmm"
)

func TestPciConfigAddressEncodesBusDeviceFunctionOffset(t *testing.T) {
	got := pciConfigAddress(1, 2, 3, 0x10)
	want := uint32(pciConfigEnableBit) | 1<<16 | 2<<11 | 3<<8 | 0x10
	if got != want {
		t.Fatalf("pciConfigAddress() = %#x, want %#x", got, want)
	}
}

func TestPciConfigAddressMasksOffsetToDwordAligned(t *testing.T) {
	got := pciConfigAddress(0, 0, 0, 0x13)
	if got&0xff != 0x10 {
		t.Fatalf("pciConfigAddress() offset bits = %#x, want 0x10 (masked to dword)", got&0xff)
	}
}

// fakeFrameAllocator is a minimal pmm.FrameAllocator double, enough to
// prove dmaToken delegates rather than reimplementing allocation.
type fakeFrameAllocator struct {
	allocCalls int
	freeCalls  int
}

func (f *fakeFrameAllocator) AllocFrame() (addr.PhysFrame[addr.Size4K], *kernel.Error) {
	f.allocCalls++
	return addr.PhysFrameContaining[addr.Size4K](addr.NewPhysAddr(uint64(f.allocCalls) * 4096)), nil
}

func (f *fakeFrameAllocator) FreeFrame(frame addr.PhysFrame[addr.Size4K]) {
	f.freeCalls++
}

var _ pmm.FrameAllocator = (*fakeFrameAllocator)(nil)

func TestDmaCapabilityDelegatesToFrameAllocator(t *testing.T) {
	fa := &fakeFrameAllocator{}
	token := NewDmaCapability(fa)

	frame, err := token.AllocFrame()
	if err != nil {
		t.Fatalf("AllocFrame() error: %v", err)
	}
	if fa.allocCalls != 1 {
		t.Fatalf("AllocFrame() did not delegate, allocCalls=%d", fa.allocCalls)
	}

	token.FreeFrame(frame)
	if fa.freeCalls != 1 {
		t.Fatalf("FreeFrame() did not delegate, freeCalls=%d", fa.freeCalls)
	}
}

type fakeSpawnFuture struct{ polled int }

func (f *fakeSpawnFuture) Poll(w executor.Waker) executor.PollState {
	f.polled++
	return executor.Ready
}

func TestTaskSpawnerDelegatesToExecutor(t *testing.T) {
	exec := executor.New(0)
	spawner := NewTaskSpawner(exec)

	future := &fakeSpawnFuture{}
	id := spawner.Spawn(future)
	if id == 0 {
		t.Fatalf("Spawn() returned zero TaskId")
	}

	if !exec.RunOnce() {
		t.Fatalf("RunOnce() = false, want true after spawning a ready task")
	}
	if future.polled != 1 {
		t.Fatalf("spawned future polled %d times, want 1", future.polled)
	}
}

func TestLapicTimerProgramOneShotWritesInitialCount(t *testing.T) {
	var window [0x400]byte
	base := uintptr(unsafe.Pointer(&window[0]))

	timer := NewTimerCapability(base)
	timer.ProgramOneShot(12345)

	got := *(*uint32)(ptrAt(base, lapicTimerInitialCountOffset))
	if got != 12345 {
		t.Fatalf("initial count register = %d, want 12345", got)
	}
}
