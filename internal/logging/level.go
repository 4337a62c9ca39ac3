package logging

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// Level gates verbose output. The standard logger always prints; Level
// only decides which of our own calls reach it.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

var current atomic.Int32

func init() {
	current.Store(int32(LevelInfo))
}

// ParseLevel accepts debug, info, warn, error and silent (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace", "verbose":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "silent"
	}
}

// SetLevel changes the process-wide level.
func SetLevel(l Level) {
	current.Store(int32(l))
}

// CurrentLevel returns the process-wide level.
func CurrentLevel() Level {
	return Level(current.Load())
}

// Enabled reports whether messages at l should be written.
func Enabled(l Level) bool {
	return l >= CurrentLevel() && CurrentLevel() != LevelSilent
}

// Debugf logs only when the level is debug.
func Debugf(ctx context.Context, format string, args ...any) {
	if Enabled(LevelDebug) {
		Printf(ctx, format, args...)
	}
}

// Infof logs at info level.
func Infof(ctx context.Context, format string, args ...any) {
	if Enabled(LevelInfo) {
		Printf(ctx, format, args...)
	}
}

// Warnf logs at warn level.
func Warnf(ctx context.Context, format string, args ...any) {
	if Enabled(LevelWarn) {
		Printf(ctx, format, args...)
	}
}

// Errorf logs at error level.
func Errorf(ctx context.Context, format string, args ...any) {
	if Enabled(LevelError) {
		Printf(ctx, format, args...)
	}
}
