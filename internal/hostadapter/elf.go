package hostadapter

import (
	"debug/elf"
	"fmt"
)

// loadGuestSegments maps a 64-bit x86-64 ELF's PT_LOAD segments into the
// host's memory, returning the runtime entry address. For PIE binaries
// (file vaddr base 0) it relocates them into the code region at CodeBase;
// for position-dependent binaries it uses the file's vaddrs unchanged and
// maps their page-aligned span itself.
//
// This is distinct from engine.LoadBinaryImage (C1): that function only
// extracts entry_offset/main_offset/is_pie for the metering gate. This one
// actually places the guest's bytes in emulator memory so it can run.
// Grounded on the teacher's emulator.LoadELFAt, generalized from ARM64 to
// x86-64 and stripped of the C++/Android relocation-application machinery
// (dynamic symbol resolution, PLT stub synthesis) this engine has no use
// for: a judge guest is expected to be statically linked or to resolve its
// own imports via its own loader stub, not one this adapter fabricates.
func (h *Host) loadGuestSegments(path string) (runtimeEntry uint64, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open ELF: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS64 {
		return 0, fmt.Errorf("unsupported ELF class %v, want ELFCLASS64", f.Class)
	}
	if f.Machine != elf.EM_X86_64 {
		return 0, fmt.Errorf("unsupported machine %v, want EM_X86_64", f.Machine)
	}

	fileBase := ^uint64(0)
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Vaddr < fileBase {
			fileBase = prog.Vaddr
		}
	}
	if fileBase == ^uint64(0) {
		return 0, fmt.Errorf("no PT_LOAD segments found")
	}

	var relocOffset uint64
	if f.Type == elf.ET_DYN {
		relocOffset = CodeBase - fileBase
	} else {
		var fileEnd uint64
		for _, prog := range f.Progs {
			if prog.Type == elf.PT_LOAD && prog.Vaddr+prog.Memsz > fileEnd {
				fileEnd = prog.Vaddr + prog.Memsz
			}
		}
		start := fileBase &^ 0xfff
		if err := h.mu.MemMap(start, alignUp(fileEnd, 0x1000)-start); err != nil {
			return 0, fmt.Errorf("map segments at 0x%x: %w", start, err)
		}
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Memsz)
		n, err := prog.ReadAt(data[:prog.Filesz], 0)
		if err != nil && uint64(n) != prog.Filesz {
			return 0, fmt.Errorf("read segment at vaddr 0x%x: %w", prog.Vaddr, err)
		}
		addr := prog.Vaddr + relocOffset
		if err := h.mu.MemWrite(addr, data); err != nil {
			return 0, fmt.Errorf("write segment at 0x%x: %w", addr, err)
		}
	}

	return f.Entry + relocOffset, nil
}
