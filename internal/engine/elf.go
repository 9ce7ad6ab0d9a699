package engine

import (
	"debug/elf"
	"os"
)

// mainSymbolNames are checked in file order; the first nonzero-valued match
// wins. "main.main" covers Go binaries; "main" covers C/C++.
var mainSymbolNames = []string{"main", "main.main"}

// LoadBinaryImage implements C1: parse a 64-bit ELF file and extract the
// entry point, PIE flag, and file-relative address of main.
//
// It never fails loudly. Any I/O or format error yields a BinaryImage whose
// MainOffset equals EntryOffset (which itself is zero if the header could
// not even be read) — callers treat a zero MainOffset as "count
// everything", exactly per spec §4.1's contract.
func LoadBinaryImage(path string) BinaryImage {
	f, err := elf.Open(path)
	if err != nil {
		return BinaryImage{}
	}
	defer f.Close()

	img := BinaryImage{
		EntryOffset: f.Entry,
		IsPIE:       f.Type == elf.ET_DYN,
	}

	img.MainOffset = findMainOffset(f)
	if img.MainOffset == 0 {
		img.MainOffset = img.EntryOffset
	}
	return img
}

// findMainOffset locates the first nonzero-valued symbol named "main" or
// "main.main" in the ELF symbol table. Returns 0 if none is found or the
// symbol table cannot be read (stripped binary, malformed sections) — the
// caller falls back to the entry point, matching sandbox.c's use_entry path.
func findMainOffset(f *elf.File) uint64 {
	syms, err := f.Symbols()
	if err != nil {
		// No .symtab/.strtab, or a read error partway through: treated
		// as end of useful data, same as the original plugin's
		// fseek/fread failure paths.
		return 0
	}

	for _, sym := range syms {
		if sym.Value == 0 {
			continue
		}
		for _, want := range mainSymbolNames {
			if sym.Name == want {
				return sym.Value
			}
		}
	}
	return 0
}

// binaryExists reports whether path names a regular file, used by callers
// that want to distinguish "no binary configured" from "binary configured
// but unreadable" before logging.
func binaryExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
