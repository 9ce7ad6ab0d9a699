package hostadapter

import (
	"fmt"
	"io"
	"os"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
	"go.uber.org/multierr"

	"github.com/duskforge/tbmeter/internal/engine"
)

// Host is a real x86-64 Linux-user engine.Host backed by Unicorn Engine.
// It is the concrete plugin-ABI provider SPEC_FULL adds so the metering
// engine can drive an actual guest instead of only a test fake.
type Host struct {
	mu uc.Unicorn

	blocks map[uint64]*tbHandle

	translateCB func(tb engine.TranslationBlock)
	sysEnterCB  func(num int64, a1, a2, a3, a4, a5, a6 uint64)
	sysExitCB   func(num int64, ret int64)
	atExitCB    func()

	entry                          uint64
	heapNext, mmapNext, brkCurrent uint64

	stdin          io.Reader
	stdout, stderr io.Writer

	exitCode int
	exited   bool
}

// New creates a Unicorn-backed x86-64 host, maps guest memory, and loads
// the ELF at path. Wire the result into engine.New to arm the metering
// callbacks, then call Run to start the guest at its entry point.
func New(path string) (*Host, error) {
	mu, err := uc.NewUnicorn(uc.ARCH_X86, uc.MODE_64)
	if err != nil {
		return nil, fmt.Errorf("create unicorn: %w", err)
	}

	h := &Host{
		mu:     mu,
		blocks: make(map[uint64]*tbHandle),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	if err := h.mapMemory(); err != nil {
		mu.Close()
		return nil, err
	}

	entry, err := h.loadGuestSegments(path)
	if err != nil {
		mu.Close()
		return nil, err
	}

	if _, err := mu.HookAdd(uc.HOOK_BLOCK, func(_ uc.Unicorn, addr uint64, size uint32) {
		h.onBlock(addr, size)
	}, 1, 0); err != nil {
		mu.Close()
		return nil, fmt.Errorf("hook block: %w", err)
	}

	if _, err := mu.HookAdd(uc.HOOK_INSN, func(mu uc.Unicorn) {
		h.onSyscall(mu)
	}, 1, 0, uc.X86_INS_SYSCALL); err != nil {
		mu.Close()
		return nil, fmt.Errorf("hook syscall: %w", err)
	}

	mu.RegWrite(uc.X86_REG_RIP, entry)
	h.entry = entry

	return h, nil
}

// entry is the guest's runtime entry point, set by New.
func (h *Host) Entry() uint64 { return h.entry }

// Run starts the guest at its entry point and blocks until it exits (via
// exit/exit_group, which calls h.Exit) or Unicorn returns control for
// another reason.
func (h *Host) Run() error {
	err := h.mu.Start(h.entry, 0)
	if h.atExitCB != nil {
		h.atExitCB()
	}
	if err != nil && !h.exited {
		return fmt.Errorf("run guest: %w", err)
	}
	return nil
}

// Close tears down the Unicorn instance, aggregating any teardown errors
// with multierr the way the teacher's emulator composes HIPAA-component
// close errors.
func (h *Host) Close() error {
	var err error
	if cerr := h.mu.Close(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	return err
}

// RegisterTBTranslationCallback implements engine.Host.
func (h *Host) RegisterTBTranslationCallback(fn func(tb engine.TranslationBlock)) {
	h.translateCB = fn
}

// RegisterSyscallEnterCallback implements engine.Host.
func (h *Host) RegisterSyscallEnterCallback(fn func(num int64, a1, a2, a3, a4, a5, a6 uint64)) {
	h.sysEnterCB = fn
}

// RegisterSyscallExitCallback implements engine.Host.
func (h *Host) RegisterSyscallExitCallback(fn func(num int64, ret int64)) {
	h.sysExitCB = fn
}

// RegisterAtExitCallback implements engine.Host.
func (h *Host) RegisterAtExitCallback(fn func()) {
	h.atExitCB = fn
}

// Exit implements engine.Host: it stops the Unicorn loop and remembers the
// exit code for Run's caller (os.Exit is the CLI driver's job, not the
// host's, so tests can observe the code without the process actually
// dying).
func (h *Host) Exit(code int) {
	h.exitCode = code
	h.exited = true
	h.mu.Stop()
}

// ExitCode returns the code passed to the most recent Exit call, or the
// guest's own requested exit_group/exit status.
func (h *Host) ExitCode() int { return h.exitCode }

var _ engine.Host = (*Host)(nil)
