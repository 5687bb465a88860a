// internal/diag/diag.go
package diag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger emits the node's fixed diagnostic line formats.
// Every line carries uptime_ms, a monotonic milliseconds-since-boot counter.
// External log tooling matches on the message text; the formats in this
// package are a wire contract and MUST NOT drift.
type Logger struct {
	z     *zap.Logger
	start time.Time
}

// New builds a Logger on top of zap.
// level: "debug", "info", "warn", "error" (default "info")
// format: "json" or "console" (default "console")
func New(level, format string) (*Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("diag: unknown log level %q", level)
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{z: z, start: time.Now()}, nil
}

// NewNop returns a Logger that discards everything. Test use only.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop(), start: time.Now()}
}

// UptimeMS is the monotonic millisecond counter, seeded at boot.
// It never depends on wall-clock sync state.
func (l *Logger) UptimeMS() int64 {
	return time.Since(l.start).Milliseconds()
}

// Infof emits one diagnostic line at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.z.Info(fmt.Sprintf(format, args...), zap.Int64("uptime_ms", l.UptimeMS()))
}

// Warnf emits one diagnostic line at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.z.Warn(fmt.Sprintf(format, args...), zap.Int64("uptime_ms", l.UptimeMS()))
}

// Errorf emits one diagnostic line at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.z.Error(fmt.Sprintf(format, args...), zap.Int64("uptime_ms", l.UptimeMS()))
}

// Zap exposes the underlying logger for structured fields.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Sync flushes buffered output.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

// ---- serial line format ----

// The device's serial console prefixes every line with the uptime counter:
//
//	<uptime_ms>: <message>
//
// FormatLine and ParseLine are the two sides of that contract.

// FormatLine renders a serial-style diagnostic line.
func FormatLine(uptimeMS int64, msg string) string {
	return strconv.FormatInt(uptimeMS, 10) + ": " + msg
}

// ParseLine splits a serial-style line into uptime and message.
func ParseLine(line string) (uptimeMS int64, msg string, err error) {
	i := strings.Index(line, ": ")
	if i < 0 {
		return 0, "", errors.New("diag: line has no uptime prefix")
	}
	ms, err := strconv.ParseInt(line[:i], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("diag: bad uptime prefix: %w", err)
	}
	return ms, line[i+2:], nil
}
