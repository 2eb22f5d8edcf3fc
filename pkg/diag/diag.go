// Package diag provides levelled diagnostics for the generator stack.
//
// Messages are emitted through zap only when their level is at or below the
// configured threshold. LevelNone silences everything.
package diag

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Level is a diagnostic threshold, ordered from quiet to chatty.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelVerbose
	LevelDebug
)

var levelNames = []string{"none", "error", "warning", "verbose", "debug"}

func (l Level) String() string {
	if l >= LevelNone && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel parses a level name. "errors only" and "warn" are accepted as
// aliases.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "":
		return LevelNone, nil
	case "error", "errors", "errors only":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "verbose", "info":
		return LevelVerbose, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelNone, fmt.Errorf("diag: unknown level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Logger gates zap output behind a Level threshold.
type Logger struct {
	z     *zap.Logger
	level Level
}

// New wraps z. A nil z yields a logger that never writes.
func New(z *zap.Logger, level Level) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z, level: level}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(nil, LevelNone)
}

// WithLevel returns a copy of the logger with a different threshold.
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{z: l.z, level: level}
}

// With returns a copy of the logger carrying extra fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...), level: l.level}
}

// Level reports the current threshold.
func (l *Logger) Level() Level {
	return l.level
}

// Zap exposes the underlying sink.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.level != LevelNone && level != LevelNone && level <= l.level
}

// Log writes msg at level if the threshold allows it.
func (l *Logger) Log(level Level, msg string, fields ...zap.Field) {
	if !l.Enabled(level) {
		return
	}
	switch level {
	case LevelError:
		l.z.Error(msg, fields...)
	case LevelWarning:
		l.z.Warn(msg, fields...)
	case LevelVerbose:
		l.z.Info(msg, fields...)
	default:
		l.z.Debug(msg, fields...)
	}
}

func (l *Logger) Error(msg string, fields ...zap.Field) { l.Log(LevelError, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.Log(LevelWarning, msg, fields...) }
func (l *Logger) Verbose(msg string, fields ...zap.Field) {
	l.Log(LevelVerbose, msg, fields...)
}
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.Log(LevelDebug, msg, fields...) }

// Fail logs err at error level and returns it unchanged, so structural
// failures can be reported and returned in one statement.
func (l *Logger) Fail(err error, fields ...zap.Field) error {
	if err != nil {
		l.Error(err.Error(), fields...)
	}
	return err
}

// =============================================================================
// Process-wide default
// =============================================================================

var (
	defaultMu     sync.RWMutex
	defaultLogger = Nop().WithLevel(LevelError)
)

// Default returns the logger used by packages that have no engine of their
// own to report through (value parsing, library containers).
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. A nil l restores the silent
// default.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if l == nil {
		l = Nop().WithLevel(LevelError)
	}
	defaultLogger = l
}
