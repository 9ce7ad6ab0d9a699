package engine

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseInstallArgs parses the `key=value` (or bare key) install-argument
// grammar of spec §6 into Options. Unrecognized keys are ignored; malformed
// numeric values become zero (spec §7, "option unparseable").
func ParseInstallArgs(args []string) Options {
	var opts Options
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "limit="):
			opts.InsnLimit = parseUint(strings.TrimPrefix(arg, "limit="))
		case strings.HasPrefix(arg, "binary="):
			opts.Binary = strings.TrimPrefix(arg, "binary=")
		case strings.HasPrefix(arg, "syscall_cost="):
			opts.SyscallCost = parseUint(strings.TrimPrefix(arg, "syscall_cost="))
		case strings.HasPrefix(arg, "cost_script="):
			opts.CostScript = strings.TrimPrefix(arg, "cost_script=")
		case arg == "from_start", arg == "from_start=true", arg == "from_start=on":
			opts.FromStart = true
		}
	}
	return opts
}

func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// New constructs an Engine bound to host, applies C1's ELF resolution and
// C2's gate decision, then registers every callback the host exposes. This
// is the install entry point's Go-native equivalent: by the time New
// returns, the engine is fully armed and the only thing left is for the
// host to start delivering translation/syscall/exit events.
//
// Tests construct an Engine against a fake Host; internal/hostadapter
// supplies the real one, satisfying spec §9's call for "a constructor
// taking a mock host".
func New(host Host, opts Options) *Engine {
	e := &Engine{
		host: host,
		opts: opts,
	}

	if opts.Binary != "" {
		if !binaryExists(opts.Binary) && opts.DiagnosticLog != nil {
			opts.DiagnosticLog.Warn("configured binary not found, falling back to count-everything: " + opts.Binary)
		}
		e.image = LoadBinaryImage(opts.Binary)
	}
	e.syscall.SyscallCost = opts.SyscallCost
	e.meter.InsnLimit = opts.InsnLimit

	if opts.CostScript != "" {
		if fn, err := loadCostScript(opts.CostScript); err == nil {
			e.costFn = fn
		} else if opts.DiagnosticLog != nil {
			opts.DiagnosticLog.Warn("cost script degraded to static syscall_cost: " + err.Error())
		}
	}

	e.armGate()

	host.RegisterTBTranslationCallback(e.OnTranslate)
	host.RegisterSyscallEnterCallback(e.OnSyscallEnter)
	host.RegisterSyscallExitCallback(e.OnSyscallExit)
	host.RegisterAtExitCallback(func() { e.onExit(defaultDiagnosticStream()) })

	return e
}

// defaultDiagnosticStream is stderr, matching the reference plugin's
// fprintf(stderr, ...) report sink.
func defaultDiagnosticStream() io.Writer {
	return os.Stderr
}

// Snapshot returns a point-in-time copy of the counters a live dashboard
// cares about, safe to call concurrently with running callbacks.
type Snapshot struct {
	InsnCount      uint64
	InsnLimit      uint64
	LimitReached   bool
	SyscallCount   uint64
	GuestMmapBytes uint64
	GuestMmapPeak  uint64
	GuestHeapBytes uint64
}

// Snapshot returns the engine's current counters.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var heapBytes uint64
	if e.syscall.GuestBrkInitialized && e.syscall.GuestBrkCurrent > e.syscall.GuestBrkBase {
		heapBytes = e.syscall.GuestBrkCurrent - e.syscall.GuestBrkBase
	}

	return Snapshot{
		InsnCount:      e.meter.InsnCount,
		InsnLimit:      e.meter.InsnLimit,
		LimitReached:   e.meter.LimitReached,
		SyscallCount:   e.syscall.SyscallCount,
		GuestMmapBytes: e.syscall.GuestMmapBytes,
		GuestMmapPeak:  e.syscall.GuestMmapPeak,
		GuestHeapBytes: heapBytes,
	}
}
