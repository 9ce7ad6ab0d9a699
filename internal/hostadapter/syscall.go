package hostadapter

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/duskforge/tbmeter/internal/disasm"
)

// syscallInsnLen is the byte length of the x86-64 SYSCALL instruction
// (0F 05).
const syscallInsnLen = 2

// syscallAdvance reports how far RIP must move past the SYSCALL at pc. It
// reads the bytes at pc and checks them with disasm.IsSyscall; whether or
// not they read back and decode as SYSCALL, the advance is the 2-byte
// SYSCALL length. Unicorn's
// HOOK_INSN for X86_INS_SYSCALL replaces execution of the instruction
// rather than running it and then trapping, so the host must advance RIP
// past it by hand once the syscall is serviced.
func syscallAdvance(mu uc.Unicorn, pc uint64) uint64 {
	code, err := mu.MemRead(pc, syscallInsnLen)
	if err != nil || !disasm.IsSyscall(code) {
		return syscallInsnLen
	}
	return uint64(len(code))
}

// onSyscall is Unicorn's HOOK_INSN callback for the SYSCALL opcode. It
// reads the Linux x86-64 syscall ABI registers (RAX = number, RDI/RSI/RDX/
// R10/R8/R9 = args 1-6), reports enter/exit to the engine, dispatches to
// the minimal syscall backend, and writes the result back to RAX before
// resuming at the next instruction.
func (h *Host) onSyscall(mu uc.Unicorn) {
	num, _ := mu.RegRead(uc.X86_REG_RAX)
	a1, _ := mu.RegRead(uc.X86_REG_RDI)
	a2, _ := mu.RegRead(uc.X86_REG_RSI)
	a3, _ := mu.RegRead(uc.X86_REG_RDX)
	a4, _ := mu.RegRead(uc.X86_REG_R10)
	a5, _ := mu.RegRead(uc.X86_REG_R8)
	a6, _ := mu.RegRead(uc.X86_REG_R9)

	signedNum := int64(num)

	if h.sysEnterCB != nil {
		h.sysEnterCB(signedNum, a1, a2, a3, a4, a5, a6)
	}

	ret := h.execSyscall(signedNum, a1, a2, a3, a4, a5, a6)

	if h.sysExitCB != nil {
		h.sysExitCB(signedNum, ret)
	}

	if h.exited {
		// The backend called h.Exit directly (exit/exit_group, or the
		// engine's own hard-limit enforcement raced in from another
		// callback); nothing left to resume.
		return
	}

	mu.RegWrite(uc.X86_REG_RAX, uint64(ret))
	pc, _ := mu.RegRead(uc.X86_REG_RIP)
	mu.RegWrite(uc.X86_REG_RIP, pc+syscallAdvance(mu, pc))
}
