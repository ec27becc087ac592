package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Log levels
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	levelNames = map[int]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
	}

	slogLevels = map[int]slog.Level{
		LevelDebug: slog.LevelDebug,
		LevelInfo:  slog.LevelInfo,
		LevelWarn:  slog.LevelWarn,
		LevelError: slog.LevelError,
	}

	// Default to INFO in production, DEBUG in development
	minLevel atomic.Int32
	base     atomic.Pointer[slog.Logger]
)

// Logger is a component-scoped leveled logger
type Logger struct {
	component string
}

func init() {
	minLevel.Store(LevelInfo)
	if IsDevelopment() {
		minLevel.Store(LevelDebug)
	}
	if level, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		minLevel.Store(int32(level))
	}

	SetOutput(os.Stdout)
}

// New creates a new logger for a specific component
func New(component string) *Logger {
	return &Logger{component: component}
}

// SetOutput redirects all loggers to w. Production writes JSON lines,
// every other environment writes logfmt-style text.
func SetOutput(w io.Writer) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var h slog.Handler
	if GetAppEnv() == "production" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	base.Store(slog.New(h))
}

// SetMinLevel allows changing the minimum log level at runtime
func SetMinLevel(level int) {
	minLevel.Store(int32(level))
}

// ParseLevel maps a level name such as "debug" or "WARN" to its constant
func ParseLevel(name string) (int, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for level, levelName := range levelNames {
		if levelName == name {
			return level, true
		}
	}
	return 0, false
}

// logf logs a message at the specified level
func (l *Logger) logf(level int, format string, args ...interface{}) {
	if int32(level) < minLevel.Load() {
		return
	}

	base.Load().Log(context.Background(), slogLevels[level], fmt.Sprintf(format, args...),
		slog.String("component", l.component))
}

// Debug logs debug information
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

// Info logs information messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "development" // Default to development
	}
	return env
}

// IsDevelopment returns true if the current environment is development
func IsDevelopment() bool {
	return GetAppEnv() == "development"
}
