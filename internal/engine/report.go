package engine

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Report is the single JSON object emitted at guest termination (spec §6).
// Field order here is the wire order: Go's encoding/json preserves struct
// field declaration order, so this struct's shape is the JSON shape. RunID
// is a supplemental field, appended after the original key set rather than
// interleaved into it.
type Report struct {
	Instructions      uint64            `json:"instructions"`
	MemoryPeakKB      uint64            `json:"memory_peak_kb"`
	MemoryRSSKB       uint64            `json:"memory_rss_kb"`
	MemoryHWMKB       uint64            `json:"memory_hwm_kb"`
	MemoryDataKB      uint64            `json:"memory_data_kb"`
	MemoryStackKB     uint64            `json:"memory_stack_kb"`
	IOReadBytes       uint64            `json:"io_read_bytes"`
	IOWriteBytes      uint64            `json:"io_write_bytes"`
	GuestMmapBytes    uint64            `json:"guest_mmap_bytes"`
	GuestMmapPeak     uint64            `json:"guest_mmap_peak"`
	GuestHeapBytes    uint64            `json:"guest_heap_bytes"`
	LimitReached      bool              `json:"limit_reached"`
	Syscalls          uint64            `json:"syscalls"`
	SyscallCost       uint64            `json:"syscall_cost"`
	SyscallBreakdown  map[string]uint64 `json:"syscall_breakdown"`
	RunID             string            `json:"run_id"`
}

// buildReport assembles the report from engine state and host process
// stats. Must be called with e.mu held.
func (e *Engine) buildReport() Report {
	stat := readProcStatus()
	io := readProcIO()

	breakdown := make(map[string]uint64)
	for i, count := range e.syscall.SyscallCounts {
		if count == 0 {
			continue
		}
		name := syscallName(int64(i))
		if name == "" {
			name = fmt.Sprintf("sys_%d", i)
		}
		breakdown[name] = count
	}

	var heapBytes uint64
	if e.syscall.GuestBrkInitialized && e.syscall.GuestBrkCurrent > e.syscall.GuestBrkBase {
		heapBytes = e.syscall.GuestBrkCurrent - e.syscall.GuestBrkBase
	}

	return Report{
		Instructions:     e.meter.InsnCount,
		MemoryPeakKB:     stat.peakKB,
		MemoryRSSKB:      stat.rssKB,
		MemoryHWMKB:      stat.hwmKB,
		MemoryDataKB:     stat.dataKB,
		MemoryStackKB:    stat.stackKB,
		IOReadBytes:      io.readBytes,
		IOWriteBytes:     io.writeBytes,
		GuestMmapBytes:   e.syscall.GuestMmapBytes,
		GuestMmapPeak:    e.syscall.GuestMmapPeak,
		GuestHeapBytes:   heapBytes,
		LimitReached:     e.meter.LimitReached,
		Syscalls:         e.syscall.SyscallCount,
		SyscallCost:      e.syscall.SyscallCost,
		SyscallBreakdown: breakdown,
		RunID:            uuid.NewString(),
	}
}

// onExit implements C4's atexit hook: build and emit the report exactly
// once (spec invariant 6), as a single newline-prefixed JSON object written
// to w.
func (e *Engine) onExit(w io.Writer) {
	e.mu.Lock()
	if e.reported {
		e.mu.Unlock()
		return
	}
	e.reported = true
	report := e.buildReport()
	e.mu.Unlock()

	body, err := json.Marshal(report)
	if err != nil {
		// Marshaling a struct of scalars and a map[string]uint64 cannot
		// fail; guard anyway rather than panic on the atexit path.
		return
	}
	fmt.Fprintf(w, "\n%s\n", body)

	if e.opts.DiagnosticLog != nil {
		e.opts.DiagnosticLog.ReportEmit(report.RunID, report.Instructions)
	}
}
