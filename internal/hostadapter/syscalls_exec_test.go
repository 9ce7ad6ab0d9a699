package hostadapter

import "testing"

func TestSysBrkQueryThenGrow(t *testing.T) {
	h := &Host{}

	base := h.sysBrk(0)
	if base != HeapBase {
		t.Fatalf("brk(0) = 0x%x, want heap base 0x%x", base, HeapBase)
	}

	grown := h.sysBrk(uint64(base) + 4096)
	if grown != base+4096 {
		t.Fatalf("brk(base+4096) = 0x%x, want 0x%x", grown, base+4096)
	}

	// Querying again returns the new break, not the base.
	if h.sysBrk(0) != grown {
		t.Fatalf("brk(0) after growth should report current break")
	}
}

func TestSysBrkOutOfRangeLeavesBreakUnchanged(t *testing.T) {
	h := &Host{}
	h.sysBrk(0) // initialize

	before := h.brkCurrent
	after := h.sysBrk(HeapBase + HeapSize + 1)
	if uint64(after) != before {
		t.Errorf("brk past the arena should leave current break unchanged, got 0x%x want 0x%x", after, before)
	}
}

func TestSysMmapAllocatesSequentiallyAndAligns(t *testing.T) {
	h := &Host{mmapNext: MmapBase}

	r1 := h.sysMmap(100)
	r2 := h.sysMmap(200)

	if r1 != MmapBase {
		t.Errorf("first mmap should start at arena base, got 0x%x", r1)
	}
	if uint64(r2) != MmapBase+0x1000 {
		t.Errorf("second mmap should start after the first's page-aligned span, got 0x%x", r2)
	}
}

func TestSysMmapRefusesPastArena(t *testing.T) {
	h := &Host{mmapNext: MmapBase + MmapSize - 0x1000}
	if h.sysMmap(0x2000) >= 0 {
		t.Errorf("mmap past the arena boundary should fail with ENOMEM")
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ v, align, want uint64 }{
		{0, 0x1000, 0},
		{1, 0x1000, 0x1000},
		{0x1000, 0x1000, 0x1000},
		{0x1001, 0x1000, 0x2000},
	}
	for _, c := range cases {
		if got := alignUp(c.v, c.align); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.v, c.align, got, c.want)
		}
	}
}

func TestExecSyscallUnmodeledReturnsENOSYS(t *testing.T) {
	h := &Host{}
	if ret := h.execSyscall(9999, 0, 0, 0, 0, 0, 0); ret != -38 {
		t.Errorf("unmodeled syscall should return -ENOSYS, got %d", ret)
	}
}
