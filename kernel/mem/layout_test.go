package mem

import (
	"testing"

	"github.com/asterism-labs/hadron-sub002/kernel/addr"
)

func TestIdentifyRegion(t *testing.T) {
	l := NewLayout(0, 0xFFFF_8000_0000_0000, uint64(64*Gb))

	specs := []struct {
		name string
		addr uint64
		want Region
	}{
		{"heap base", l.Base(RegionHeap).AsU64(), RegionHeap},
		{"stacks base", l.Base(RegionStacks).AsU64(), RegionStacks},
		{"mmio base", l.Base(RegionMMIO).AsU64(), RegionMMIO},
		{"percpu base", l.Base(RegionPerCpu).AsU64(), RegionPerCpu},
		{"vdso base", l.Base(RegionVDSO).AsU64(), RegionVDSO},
		{"hhdm base", 0xFFFF_8000_0000_0000, RegionHHDM},
		{"kernel image base", 0xFFFF_FFFF_8000_0000, RegionKernelImage},
		{"unmapped gap", 0xFFFF_0000_0000_0000, RegionUnknown},
	}

	for _, s := range specs {
		got := l.IdentifyRegion(addr.NewVirtAddr(s.addr))
		if got != s.want {
			t.Errorf("%s: IdentifyRegion(%#x) = %s, want %s", s.name, s.addr, got, s.want)
		}
	}
}

func TestDefaultRegionsBase(t *testing.T) {
	l := NewLayout(0, 0, 0)
	if l.RegionsBase != defaultRegionsBase {
		t.Fatalf("RegionsBase = %#x, want %#x", l.RegionsBase, defaultRegionsBase)
	}
}
