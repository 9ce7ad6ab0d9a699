package engine

// fakeHost is a minimal Host used to drive the engine in tests without any
// real emulator. It records the exit code instead of calling os.Exit, and
// lets tests fire translation/syscall/exit events by hand.
type fakeHost struct {
	translateCB func(tb TranslationBlock)
	sysEnterCB  func(num int64, a1, a2, a3, a4, a5, a6 uint64)
	sysExitCB   func(num int64, ret int64)
	atExitCB    func()

	exited   bool
	exitCode int
}

func (h *fakeHost) RegisterTBTranslationCallback(fn func(tb TranslationBlock)) {
	h.translateCB = fn
}

func (h *fakeHost) RegisterSyscallEnterCallback(fn func(num int64, a1, a2, a3, a4, a5, a6 uint64)) {
	h.sysEnterCB = fn
}

func (h *fakeHost) RegisterSyscallExitCallback(fn func(num int64, ret int64)) {
	h.sysExitCB = fn
}

func (h *fakeHost) RegisterAtExitCallback(fn func()) {
	h.atExitCB = fn
}

func (h *fakeHost) Exit(code int) {
	h.exited = true
	h.exitCode = code
}

// fakeTB is a fixed-shape TranslationBlock: a linear run of insnCount
// one-byte instructions starting at vaddr, addresses vaddr, vaddr+1, ....
type fakeTB struct {
	vaddr     uint64
	insnCount int
	execCB    func(n uint64)
}

func (tb *fakeTB) VAddr() uint64      { return tb.vaddr }
func (tb *fakeTB) NumInsns() int      { return tb.insnCount }
func (tb *fakeTB) InsnVAddr(i int) uint64 { return tb.vaddr + uint64(i) }
func (tb *fakeTB) RegisterExecCallback(fn func(n uint64)) {
	tb.execCB = fn
}

// exec simulates the host traversing this block once.
func (tb *fakeTB) exec() {
	if tb.execCB != nil {
		tb.execCB(uint64(tb.insnCount))
	}
}
