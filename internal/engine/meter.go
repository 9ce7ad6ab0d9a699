package engine

// OnTranslate implements C3's translation callback. Wire it to the host via
// Host.RegisterTBTranslationCallback in New.
//
// For each translated block: resolve the runtime base if still pending,
// then — unless counting is already open — scan the block's instructions
// for one whose address equals start_addr, arming the gate on a match.
// Once counting is open (possibly from this very call), register an
// execution callback that adds the block's static instruction count on
// every traversal.
func (e *Engine) OnTranslate(tb TranslationBlock) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.runtime.NeedBase {
		e.resolveRuntimeBase(tb.VAddr())
	}

	if !e.runtime.Counting {
		n := tb.NumInsns()
		armed := false
		for i := 0; i < n; i++ {
			if tb.InsnVAddr(i) == e.runtime.StartAddr {
				armed = true
				break
			}
		}
		if !armed {
			return
		}
		e.runtime.Counting = true
		if e.opts.DiagnosticLog != nil {
			e.opts.DiagnosticLog.Meter("gate-open", e.runtime.StartAddr, e.runtime.RuntimeBase)
		}
	}

	n := uint64(tb.NumInsns())
	tb.RegisterExecCallback(func(_ uint64) {
		e.onExecute(n)
	})
}

// onExecute implements C3's execution callback: add the block's precomputed
// instruction count and enforce the hard limit. Called once per traversal
// of an armed block.
func (e *Engine) onExecute(n uint64) {
	e.mu.Lock()
	e.meter.InsnCount += n
	hit := e.meter.InsnLimit > 0 && e.meter.InsnCount >= e.meter.InsnLimit && !e.meter.LimitReached
	if hit {
		e.meter.LimitReached = true
	}
	insnCount, insnLimit := e.meter.InsnCount, e.meter.InsnLimit
	e.mu.Unlock()

	if hit {
		if e.opts.DiagnosticLog != nil {
			e.opts.DiagnosticLog.LimitHit(insnCount, insnLimit)
		}
		e.host.Exit(137)
	}
}
