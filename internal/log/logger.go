// Package log provides structured logging for tbmeter using zap.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with tbmeter-specific helpers.
type Logger struct {
	*zap.Logger
}

var (
	// L is the global logger instance.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger with the given configuration.
// Safe to call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a new Logger instance.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	// Shorter ISO8601 timestamps in both modes
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fallback to no-op if config fails
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Meter logs a metering-gate transition (counting armed, rebase resolved).
func (l *Logger) Meter(event string, startAddr, runtimeBase uint64) {
	l.Debug("meter",
		zap.String("event", event),
		zap.String("start_addr", Hex(startAddr)),
		zap.String("runtime_base", Hex(runtimeBase)),
	)
}

// Syscall logs a single observed syscall at debug level.
func (l *Logger) Syscall(num int64, name string, count uint64) {
	l.Debug("syscall",
		zap.Int64("num", num),
		zap.String("name", name),
		zap.Uint64("count", count),
	)
}

// LimitHit logs that the instruction ceiling was reached.
func (l *Logger) LimitHit(insnCount, limit uint64) {
	l.Warn("limit reached",
		zap.Uint64("insn_count", insnCount),
		zap.Uint64("insn_limit", limit),
	)
}

// ReportEmit logs that the final report was written.
func (l *Logger) ReportEmit(runID string, insnCount uint64) {
	l.Info("report emitted",
		zap.String("run_id", runID),
		zap.Uint64("instructions", insnCount),
	)
}

// WithCategory returns a logger with the category field preset.
func (l *Logger) WithCategory(category string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("cat", category))}
}

// Hex formats a uint64 as hex string for logging.
func Hex(addr uint64) string {
	return "0x" + hexString(addr)
}

func hexString(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 16)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// Field helpers for common patterns.

// Addr creates an address field.
func Addr(addr uint64) zap.Field {
	return zap.String("addr", Hex(addr))
}

// Size creates a size field.
func Size(size uint64) zap.Field {
	return zap.Uint64("size", size)
}

// Fn creates a function name field.
func Fn(name string) zap.Field {
	return zap.String("fn", name)
}
