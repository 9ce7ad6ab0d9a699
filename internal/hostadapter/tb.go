package hostadapter

import (
	"github.com/duskforge/tbmeter/internal/disasm"
	"github.com/duskforge/tbmeter/internal/engine"
)

// tbHandle implements engine.TranslationBlock against a decoded run of
// instructions. One is created the first time the host sees a given block
// address; it is cached and reused on every subsequent traversal.
type tbHandle struct {
	vaddr  uint64
	insns  []disasm.Instruction
	execCB func(n uint64)
}

func (tb *tbHandle) VAddr() uint64 { return tb.vaddr }
func (tb *tbHandle) NumInsns() int { return len(tb.insns) }

func (tb *tbHandle) InsnVAddr(i int) uint64 {
	return tb.insns[i].VAddr
}

func (tb *tbHandle) RegisterExecCallback(fn func(n uint64)) {
	tb.execCB = fn
}

// onBlock is Unicorn's HOOK_BLOCK callback. Unicorn fires it once per
// traversal of a block, whether or not the block has been seen before —
// unlike a real TCG plugin's separate translate/exec events, there is no
// persistent block cache here. The host supplies the distinction itself:
// the first traversal of an address is treated as C3's translation event
// (engine.OnTranslate may arm an execution callback on it); every
// traversal, including this first one, then runs whatever callback ended
// up armed.
func (h *Host) onBlock(addr uint64, size uint32) {
	tb, seen := h.blocks[addr]
	if !seen {
		code, err := h.mu.MemRead(addr, uint64(size))
		if err != nil {
			return
		}
		tb = &tbHandle{
			vaddr: addr,
			insns: disasm.DecodeBlock(code, addr, len(code)),
		}
		h.blocks[addr] = tb
		if h.translateCB != nil {
			h.translateCB(tb)
		}
	}
	if tb.execCB != nil {
		tb.execCB(uint64(len(tb.insns)))
	}
}

var _ engine.TranslationBlock = (*tbHandle)(nil)
