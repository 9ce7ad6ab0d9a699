package engine

import (
	"golang.org/x/sys/unix"

	"github.com/duskforge/tbmeter/internal/log"
)

// OnSyscallEnter implements C4's syscall-entry handling. Wire it to the
// host via Host.RegisterSyscallEnterCallback in New.
func (e *Engine) OnSyscallEnter(num int64, a1, a2, a3, a4, a5, a6 uint64) {
	e.mu.Lock()

	if !e.runtime.Counting && !e.opts.FromStart {
		e.mu.Unlock()
		return
	}

	e.syscall.SyscallCount++
	var numCount uint64
	if num >= 0 && num < maxTrackedSyscalls {
		e.syscall.SyscallCounts[num]++
		numCount = e.syscall.SyscallCounts[num]
	}

	switch num {
	case unix.SYS_MMAP:
		length := a2
		e.syscall.GuestMmapBytes += length
		if e.syscall.GuestMmapBytes > e.syscall.GuestMmapPeak {
			e.syscall.GuestMmapPeak = e.syscall.GuestMmapBytes
		}
		if e.opts.DiagnosticLog != nil {
			e.opts.DiagnosticLog.Debug("mmap", log.Fn(syscallName(num)), log.Addr(a1), log.Size(length))
		}
	case unix.SYS_MUNMAP:
		length := a2
		if length <= e.syscall.GuestMmapBytes {
			e.syscall.GuestMmapBytes -= length
		} else {
			e.syscall.GuestMmapBytes = 0
		}
		if e.opts.DiagnosticLog != nil {
			e.opts.DiagnosticLog.Debug("munmap", log.Fn(syscallName(num)), log.Addr(a1), log.Size(length))
		}
	}

	cost := e.costForSyscall(num)
	var hit bool
	var insnCount, insnLimit uint64
	if cost > 0 {
		e.meter.InsnCount += cost
		insnCount, insnLimit = e.meter.InsnCount, e.meter.InsnLimit
		if e.meter.InsnLimit > 0 && e.meter.InsnCount >= e.meter.InsnLimit && !e.meter.LimitReached {
			e.meter.LimitReached = true
			hit = true
		}
	}

	if e.opts.DiagnosticLog != nil {
		e.opts.DiagnosticLog.Syscall(num, syscallName(num), numCount)
	}
	e.mu.Unlock()

	if hit {
		if e.opts.DiagnosticLog != nil {
			e.opts.DiagnosticLog.LimitHit(insnCount, insnLimit)
		}
		e.host.Exit(137)
	}
}

// costForSyscall returns the virtual instruction surcharge for a syscall,
// preferring a loaded cost script over the static syscall_cost. A script
// that throws or returns a non-number degrades to the static syscall_cost
// rather than silently charging zero. Must be called with e.mu held.
func (e *Engine) costForSyscall(num int64) uint64 {
	if e.costFn != nil {
		var count uint64
		if num >= 0 && num < maxTrackedSyscalls {
			count = e.syscall.SyscallCounts[num]
		}
		if cost, ok := e.costFn(num, count); ok {
			return cost
		}
	}
	return e.syscall.SyscallCost
}

// OnSyscallExit implements C4's syscall-return handling. Wire it to the
// host via Host.RegisterSyscallExitCallback in New.
func (e *Engine) OnSyscallExit(num int64, ret int64) {
	if num != unix.SYS_BRK || ret <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	newBrk := uint64(ret)
	if !e.syscall.GuestBrkInitialized {
		e.syscall.GuestBrkBase = newBrk
		e.syscall.GuestBrkCurrent = newBrk
		e.syscall.GuestBrkInitialized = true
	} else {
		e.syscall.GuestBrkCurrent = newBrk
	}
}
