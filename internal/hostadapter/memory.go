// Package hostadapter supplies a concrete engine.Host: a small, real
// x86-64 Linux-user interpreter built on Unicorn Engine. It stands in for
// the external emulator spec.md treats as an out-of-scope collaborator,
// letting `tbmeter run` actually execute a guest binary end to end.
package hostadapter

import (
	"fmt"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

// Memory layout for the guest address space. Chosen to stay well clear of
// typical PIE load addresses a Linux kernel would hand out, and to leave
// headroom for a 64MB code image, a 16MB stack, and a 256MB synthetic heap
// region that the mmap/brk syscall backend grows into.
const (
	CodeBase  = 0x0000555500000000
	CodeSize  = 0x04000000 // 64MB
	StackBase = 0x00007ffff0000000
	StackSize = 0x01000000 // 16MB
	HeapBase  = 0x0000560000000000
	HeapSize  = 0x10000000 // 256MB
	MmapBase  = 0x0000570000000000
	MmapSize  = 0x10000000 // 256MB, for the anonymous-mapping syscall backend
)

// mapMemory lays out the guest address space and initializes the stack
// pointer. Grounded on the teacher's mapMemory: a fixed table of
// (base, size, name) regions mapped with mu.MemMap, generalized from
// ARM64's Cocos2d-x mock-object regions down to the regions an x86-64
// Linux-user guest actually needs.
func (h *Host) mapMemory() error {
	regions := []struct {
		base, size uint64
		name       string
	}{
		{CodeBase, CodeSize, "code"},
		{StackBase, StackSize, "stack"},
		{HeapBase, HeapSize, "heap"},
		{MmapBase, MmapSize, "mmap-arena"},
	}

	for _, r := range regions {
		if err := h.mu.MemMap(r.base, r.size); err != nil {
			return fmt.Errorf("map %s (0x%x): %w", r.name, r.base, err)
		}
	}

	sp := uint64(StackBase + StackSize - 0x1000)
	if err := h.mu.RegWrite(uc.X86_REG_RSP, sp); err != nil {
		return fmt.Errorf("set rsp: %w", err)
	}

	h.heapNext = HeapBase
	h.mmapNext = MmapBase
	return nil
}
