package contract

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// LogLevel orders log messages by severity.
type LogLevel int

// Supported log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var levelColors = map[LogLevel]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

// String returns the lowercase name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLogLevel parses debug, info, warn or error (case-insensitive).
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level %q (expected debug/info/warn/error)", s)
	}
}

// Logger writes leveled, optionally colored messages. It is passed explicitly to
// the components that need it; a nil *Logger discards everything.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	level  LogLevel
	colors bool
}

// NewLogger returns a logger writing messages at or above level to w.
func NewLogger(w io.Writer, level LogLevel, useColors bool) *Logger {
	return &Logger{w: w, level: level, colors: useColors}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	return NewLogger(io.Discard, LevelError+1, false)
}

// Level returns the minimum level written by the logger.
func (l *Logger) Level() LogLevel {
	if l == nil {
		return LevelError + 1
	}
	return l.level
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.logf(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.colors {
		msg = levelColors[level].Sprint(msg)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.w, msg)
}
