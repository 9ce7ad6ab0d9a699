package engine

// armGate implements C2's contract: decide, immediately after C1, how the
// counting gate starts. Exactly one of the four branches below applies and
// it runs once, from New.
func (e *Engine) armGate() {
	switch {
	case e.opts.FromStart:
		// count_from_start: capture every user-space instruction.
		e.runtime.Counting = true
	case e.image.MainOffset == 0:
		// No binary, or parse/symbol lookup came up empty: nothing
		// better than "count everything" is available.
		e.runtime.Counting = true
	case e.image.IsPIE:
		// Resolution defers to the first translation event.
		e.runtime.NeedBase = true
	default:
		e.runtime.StartAddr = e.image.MainOffset
	}
}

// resolveRuntimeBase implements C2's first-translation-event rebase: the
// first translated block is assumed to be the guest's real entry, so its
// runtime address minus the file-declared entry point is the relocation
// slide. Must be called with e.mu held, and only while e.runtime.NeedBase
// is true.
func (e *Engine) resolveRuntimeBase(tbVAddr uint64) {
	e.runtime.RuntimeBase = tbVAddr - e.image.EntryOffset
	e.runtime.StartAddr = e.runtime.RuntimeBase + e.image.MainOffset
	e.runtime.NeedBase = false

	if e.opts.DiagnosticLog != nil {
		e.opts.DiagnosticLog.Meter("rebase", e.runtime.StartAddr, e.runtime.RuntimeBase)
	}
}
