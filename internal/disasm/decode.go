package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Instruction is one decoded x86-64 instruction within a block.
type Instruction struct {
	VAddr  uint64
	Bytes  []byte
	Text   string // GNU-syntax mnemonic, uncolored
	Length int
}

// DecodeBlock walks code starting at vaddr, decoding instructions until
// maxInsns is reached or a decode error/zero-length instruction is hit.
// This mirrors C3's block-scan loop (spec §4.3): it is how
// internal/hostadapter recovers each instruction's virtual address for the
// translation callback's InsnVAddr query, and how `tbmeter inspect --asm`
// renders a block.
func DecodeBlock(code []byte, vaddr uint64, maxInsns int) []Instruction {
	var out []Instruction
	offset := 0
	for len(out) < maxInsns && offset < len(code) {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil || inst.Len == 0 {
			break
		}
		out = append(out, Instruction{
			VAddr:  vaddr + uint64(offset),
			Bytes:  code[offset : offset+inst.Len],
			Text:   x86asm.GNUSyntax(inst, vaddr+uint64(offset), nil),
			Length: inst.Len,
		})
		offset += inst.Len
	}
	return out
}

// IsSyscall reports whether code at offset 0 is the SYSCALL instruction,
// used by internal/hostadapter to check the opcode at RIP when servicing a
// syscall hook, and by FormatLine to tag SYSCALL lines.
func IsSyscall(code []byte) bool {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return false
	}
	return inst.Op == x86asm.SYSCALL
}

// FormatLine renders one decoded instruction as a colorized disassembly
// line: address, raw bytes, mnemonic. A SYSCALL instruction gets an error-
// colored tag, since it is the one instruction the metering engine hooks
// directly.
func FormatLine(insn Instruction) string {
	addr := Address(insn.VAddr)
	hexBytes := HexBytes(fmt.Sprintf("%-24x", insn.Bytes))
	text := Instruction(insn.Text)
	line := fmt.Sprintf("%s  %s  %s", addr, hexBytes, text)
	if IsSyscall(insn.Bytes) {
		line += "  " + Error("<syscall hook>")
	}
	return line
}
