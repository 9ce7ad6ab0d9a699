package hostadapter

import (
	"golang.org/x/sys/unix"
)

const sysExitGroup = unix.SYS_EXIT_GROUP

// execSyscall is the minimal Linux-user syscall backend SPEC_FULL adds so a
// guest can actually run to completion under this host: read/write pass
// through to the host's own stdio, mmap/munmap/brk service the guest's
// synthetic heap and anonymous-mapping arena, arch_prctl and
// set_tid_address are no-ops returning success, and exit/exit_group
// terminate the process. Anything else returns -ENOSYS (-38), the same
// "observation, not emulation of everything" posture the engine itself
// takes toward unmodeled syscalls.
//
// Grounded on the syscall-dispatch-table pattern used for minimal
// Linux-user syscall backends in the retrieved pack's MIPS/gVisor
// reference material: a flat switch on syscall number, each case touching
// only the registers/memory it needs.
func (h *Host) execSyscall(num int64, a1, a2, a3, a4, a5, a6 uint64) int64 {
	switch num {
	case unix.SYS_READ:
		return h.sysRead(a1, a2, a3)
	case unix.SYS_WRITE:
		return h.sysWrite(a1, a2, a3)
	case unix.SYS_MMAP:
		return h.sysMmap(a2)
	case unix.SYS_MUNMAP:
		return h.sysMunmap(a1, a2)
	case unix.SYS_BRK:
		return h.sysBrk(a1)
	case unix.SYS_ARCH_PRCTL:
		return 0
	case unix.SYS_SET_TID_ADDRESS:
		return 1
	case unix.SYS_EXIT, sysExitGroup:
		h.Exit(int(int32(a1)))
		return 0
	default:
		return -38 // ENOSYS
	}
}

func (h *Host) sysRead(fd, buf, count uint64) int64 {
	if fd != 0 {
		return -9 // EBADF: this host has no open files besides stdio
	}
	data := make([]byte, count)
	n, err := h.stdin.Read(data)
	if n == 0 && err != nil {
		return 0
	}
	if werr := h.mu.MemWrite(buf, data[:n]); werr != nil {
		return -14 // EFAULT
	}
	return int64(n)
}

func (h *Host) sysWrite(fd, buf, count uint64) int64 {
	if fd != 1 && fd != 2 {
		return -9
	}
	data, err := h.mu.MemRead(buf, count)
	if err != nil {
		return -14
	}
	var n int
	if fd == 1 {
		n, _ = h.stdout.Write(data)
	} else {
		n, _ = h.stderr.Write(data)
	}
	return int64(n)
}

// sysMmap serves every mmap as an anonymous allocation out of the host's
// fixed mmap arena: guests that exercise the memory-tracking syscalls
// (spec §4.4's scenario 3) care about length accounting, not file-backed
// mappings, which this host does not otherwise support.
func (h *Host) sysMmap(length uint64) int64 {
	length = alignUp(length, 0x1000)
	addr := h.mmapNext
	if addr+length > MmapBase+MmapSize {
		return -12 // ENOMEM
	}
	h.mmapNext += length
	return int64(addr)
}

func (h *Host) sysMunmap(addr, length uint64) int64 {
	return 0
}

// sysBrk mimics Linux's brk(2): arg 0 queries the current break, a nonzero
// arg requests growth (or shrink) and returns the resulting break. A request
// outside the heap arena is refused: the break stays where it was and that
// unchanged break is returned.
func (h *Host) sysBrk(requested uint64) int64 {
	if h.brkCurrent == 0 {
		h.brkCurrent = HeapBase
	}
	if requested == 0 {
		return int64(h.brkCurrent)
	}
	if requested < HeapBase || requested > HeapBase+HeapSize {
		return int64(h.brkCurrent)
	}
	h.brkCurrent = requested
	return int64(h.brkCurrent)
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
