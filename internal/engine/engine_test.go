package engine

import (
	"strings"
	"testing"
)

func newTestEngine(opts Options) (*Engine, *fakeHost) {
	host := &fakeHost{}
	e := New(host, opts)
	return e, host
}

func TestArmGateNonPIE(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.image = BinaryImage{EntryOffset: 0x1000, MainOffset: 0x1234, IsPIE: false}
	e.runtime = RuntimeState{}
	e.armGate()

	if e.runtime.Counting {
		t.Fatalf("non-PIE binary should not start counting immediately")
	}
	if e.runtime.NeedBase {
		t.Fatalf("non-PIE binary should not need a runtime base")
	}
	if e.runtime.StartAddr != 0x1234 {
		t.Errorf("start_addr = 0x%x, want 0x1234", e.runtime.StartAddr)
	}
}

func TestArmGatePIENeedsBase(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.image = BinaryImage{EntryOffset: 0x1000, MainOffset: 0x1234, IsPIE: true}
	e.runtime = RuntimeState{}
	e.armGate()

	if e.runtime.Counting {
		t.Fatalf("PIE binary should not count before rebase")
	}
	if !e.runtime.NeedBase {
		t.Fatalf("PIE binary should arm need_base")
	}
}

func TestArmGateFromStart(t *testing.T) {
	e, _ := newTestEngine(Options{FromStart: true})
	e.image = BinaryImage{EntryOffset: 0x1000, MainOffset: 0x1234, IsPIE: true}
	e.runtime = RuntimeState{}
	e.armGate()

	if !e.runtime.Counting {
		t.Fatalf("from_start should set counting true immediately regardless of PIE")
	}
}

func TestArmGateNoMain(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.image = BinaryImage{EntryOffset: 0x1000, MainOffset: 0, IsPIE: true}
	e.runtime = RuntimeState{}
	e.armGate()

	if !e.runtime.Counting {
		t.Fatalf("zero main_offset should count everything")
	}
}

func TestOnTranslateRebaseAndGateOpen(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.image = BinaryImage{EntryOffset: 0x1000, MainOffset: 0x1100, IsPIE: true}
	e.runtime = RuntimeState{NeedBase: true}

	// First TB translated at runtime address 0x555500001000: slide is
	// 0x555500000000, so start_addr becomes slide + main_offset.
	first := &fakeTB{vaddr: 0x555500001000, insnCount: 4}
	e.OnTranslate(first)

	wantBase := uint64(0x555500001000 - 0x1000)
	if e.runtime.RuntimeBase != wantBase {
		t.Fatalf("runtime_base = 0x%x, want 0x%x", e.runtime.RuntimeBase, wantBase)
	}
	if e.runtime.NeedBase {
		t.Fatalf("need_base should clear after first translation")
	}
	if e.runtime.Counting {
		t.Fatalf("gate should stay closed until start_addr is actually seen")
	}

	// Second TB contains the resolved start_addr as its second instruction.
	second := &fakeTB{vaddr: e.runtime.StartAddr - 1, insnCount: 3}
	e.OnTranslate(second)

	if !e.runtime.Counting {
		t.Fatalf("gate should open once a block contains start_addr")
	}
	if second.execCB == nil {
		t.Fatalf("an exec callback should be armed on the block that opened the gate")
	}

	second.exec()
	if e.meter.InsnCount != 3 {
		t.Errorf("insn_count = %d, want 3", e.meter.InsnCount)
	}

	// A later block executes repeatedly; each traversal adds its count.
	third := &fakeTB{vaddr: 0x9999, insnCount: 5}
	e.OnTranslate(third)
	third.exec()
	third.exec()
	if e.meter.InsnCount != 13 {
		t.Errorf("insn_count = %d, want 13 after two traversals of a 5-insn block", e.meter.InsnCount)
	}
}

func TestOnExecuteLimitReached(t *testing.T) {
	e, host := newTestEngine(Options{})
	e.runtime.Counting = true
	e.meter.InsnLimit = 100

	tb := &fakeTB{vaddr: 0x1000, insnCount: 60}
	e.OnTranslate(tb)

	tb.exec()
	if host.exited {
		t.Fatalf("exit fired too early: insn_count=%d limit=%d", e.meter.InsnCount, e.meter.InsnLimit)
	}
	tb.exec()
	if !host.exited || host.exitCode != 137 {
		t.Fatalf("expected exit(137) once insn_count >= limit, got exited=%v code=%d", host.exited, host.exitCode)
	}
	if !e.meter.LimitReached {
		t.Errorf("limit_reached should be sticky true")
	}
}

func TestOnSyscallEnterMmapMunmapPeak(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.runtime.Counting = true

	e.OnSyscallEnter(9 /* mmap */, 0, 1<<20, 0, 0, 0, 0)
	e.OnSyscallEnter(9, 0, 2<<20, 0, 0, 0, 0)
	e.OnSyscallEnter(11 /* munmap */, 0, 1<<20, 0, 0, 0, 0)

	if e.syscall.GuestMmapBytes != 2<<20 {
		t.Errorf("guest_mmap_bytes = %d, want %d", e.syscall.GuestMmapBytes, 2<<20)
	}
	if e.syscall.GuestMmapPeak != 3<<20 {
		t.Errorf("guest_mmap_peak = %d, want %d", e.syscall.GuestMmapPeak, 3<<20)
	}
}

func TestOnSyscallEnterMunmapSaturatesAtZero(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.runtime.Counting = true

	e.OnSyscallEnter(11, 0, 4096, 0, 0, 0, 0)
	if e.syscall.GuestMmapBytes != 0 {
		t.Errorf("guest_mmap_bytes underflowed to %d, want saturated 0", e.syscall.GuestMmapBytes)
	}
}

func TestOnSyscallExitBrkHeapGrowth(t *testing.T) {
	e, _ := newTestEngine(Options{})
	e.runtime.Counting = true

	e.OnSyscallExit(12 /* brk */, 0x600000)
	e.OnSyscallExit(12, 0x601000)

	if e.syscall.GuestBrkBase != 0x600000 {
		t.Errorf("guest_brk_base = 0x%x, want 0x600000", e.syscall.GuestBrkBase)
	}
	if e.syscall.GuestBrkCurrent != 0x601000 {
		t.Errorf("guest_brk_current = 0x%x, want 0x601000", e.syscall.GuestBrkCurrent)
	}

	report := e.buildReport()
	if report.GuestHeapBytes != 0x1000 {
		t.Errorf("guest_heap_bytes = %d, want 4096", report.GuestHeapBytes)
	}
}

func TestOnSyscallEnterIgnoredBeforeCountingOpens(t *testing.T) {
	e, _ := newTestEngine(Options{})
	// counting is false, from_start is false.
	e.OnSyscallEnter(39 /* getpid */, 0, 0, 0, 0, 0, 0)

	if e.syscall.SyscallCount != 0 {
		t.Errorf("syscall should not be tallied before the gate opens")
	}
}

func TestOnSyscallEnterCountedFromStart(t *testing.T) {
	e, _ := newTestEngine(Options{FromStart: true})
	e.OnSyscallEnter(39, 0, 0, 0, 0, 0, 0)

	if e.syscall.SyscallCount != 1 {
		t.Errorf("from_start should count syscalls even before any TB fires")
	}
}

func TestSyscallCostEnforcesLimit(t *testing.T) {
	e, host := newTestEngine(Options{FromStart: true, SyscallCost: 50})
	e.meter.InsnLimit = 100

	for i := 0; i < 3; i++ {
		e.OnSyscallEnter(39, 0, 0, 0, 0, 0, 0)
	}

	if !host.exited || host.exitCode != 137 {
		t.Fatalf("expected syscall cost to trip the limit, exited=%v code=%d", host.exited, host.exitCode)
	}
}

func TestBuildReportBreakdownNamesAndFallback(t *testing.T) {
	e, _ := newTestEngine(Options{FromStart: true})
	e.OnSyscallEnter(39 /* getpid */, 0, 0, 0, 0, 0, 0)
	e.OnSyscallEnter(500 /* unnamed in table */, 0, 0, 0, 0, 0, 0)

	report := e.buildReport()
	if report.SyscallBreakdown["getpid"] != 1 {
		t.Errorf("expected getpid: 1 in breakdown, got %v", report.SyscallBreakdown)
	}
	if report.SyscallBreakdown["sys_500"] != 1 {
		t.Errorf("expected sys_500: 1 fallback in breakdown, got %v", report.SyscallBreakdown)
	}
}

func TestOnExitReportsExactlyOnce(t *testing.T) {
	e, host := newTestEngine(Options{FromStart: true})
	e.OnSyscallEnter(39, 0, 0, 0, 0, 0, 0)

	var sb strings.Builder
	e.onExit(&sb)
	e.onExit(&sb) // second call must be a no-op

	count := strings.Count(sb.String(), "\"instructions\"")
	if count != 1 {
		t.Fatalf("expected exactly one report, got %d (host exited=%v)", count, host.exited)
	}
}

func TestReportFieldOrder(t *testing.T) {
	e, _ := newTestEngine(Options{})

	var sb strings.Builder
	e.onExit(&sb)

	body := sb.String()
	keys := []string{
		"\"instructions\"", "\"memory_peak_kb\"", "\"memory_rss_kb\"",
		"\"memory_hwm_kb\"", "\"memory_data_kb\"", "\"memory_stack_kb\"",
		"\"io_read_bytes\"", "\"io_write_bytes\"", "\"guest_mmap_bytes\"",
		"\"guest_mmap_peak\"", "\"guest_heap_bytes\"", "\"limit_reached\"",
		"\"syscalls\"", "\"syscall_cost\"", "\"syscall_breakdown\"",
	}
	last := -1
	for _, k := range keys {
		idx := strings.Index(body, k)
		if idx < 0 {
			t.Fatalf("report missing key %s: %s", k, body)
		}
		if idx < last {
			t.Fatalf("key %s out of order in %s", k, body)
		}
		last = idx
	}
	if !strings.HasPrefix(body, "\n") {
		t.Errorf("report must be newline-prefixed")
	}
}

func TestParseInstallArgs(t *testing.T) {
	opts := ParseInstallArgs([]string{
		"limit=1000000",
		"binary=/path/to/guest",
		"syscall_cost=50",
		"from_start",
	})

	if opts.InsnLimit != 1000000 {
		t.Errorf("limit = %d, want 1000000", opts.InsnLimit)
	}
	if opts.Binary != "/path/to/guest" {
		t.Errorf("binary = %q", opts.Binary)
	}
	if opts.SyscallCost != 50 {
		t.Errorf("syscall_cost = %d, want 50", opts.SyscallCost)
	}
	if !opts.FromStart {
		t.Errorf("from_start should be true")
	}
}

func TestParseInstallArgsFromStartVariants(t *testing.T) {
	for _, variant := range []string{"from_start", "from_start=true", "from_start=on"} {
		opts := ParseInstallArgs([]string{variant})
		if !opts.FromStart {
			t.Errorf("variant %q should set from_start", variant)
		}
	}
}

func TestParseInstallArgsMalformedNumberBecomesZero(t *testing.T) {
	opts := ParseInstallArgs([]string{"limit=not-a-number"})
	if opts.InsnLimit != 0 {
		t.Errorf("malformed limit should become 0, got %d", opts.InsnLimit)
	}
}

func TestLoadBinaryImageMissingFileFallsBackToZero(t *testing.T) {
	img := LoadBinaryImage("/nonexistent/path/to/binary")
	if img.MainOffset != 0 || img.EntryOffset != 0 {
		t.Errorf("missing file should yield a zero-value image, got %+v", img)
	}
}
