// Package applog is the process-wide structured logger. It is disabled until
// Init or SetOutput is called so library code can log unconditionally.
package applog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Logger wraps a slog text handler behind key/value helpers.
type Logger struct {
	mu     sync.RWMutex
	file   *os.File
	out    io.Writer
	slog   *slog.Logger
	level  slog.LevelVar
	closed bool
}

var (
	// Log is the global logger instance.
	Log     = &Logger{}
	logOnce sync.Once
)

// Init opens path for appending and directs the global logger at it.
// An empty path leaves logging disabled.
func Init(path string) error {
	if path == "" {
		return nil
	}

	var initErr error
	logOnce.Do(func() {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			initErr = fmt.Errorf("open log file: %w", err)
			return
		}
		Log.mu.Lock()
		Log.file = f
		Log.mu.Unlock()
		Log.SetOutput(f)
		Log.Info("Logger initialized", "path", path)
	})
	return initErr
}

// SetOutput directs the logger at w. A nil writer disables logging.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	if w == nil {
		l.slog = nil
		return
	}
	l.slog = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &l.level}))
}

// SetDebug toggles debug-level output.
func (l *Logger) SetDebug(on bool) {
	if on {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(slog.LevelInfo)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slog = nil
	l.out = nil
	if l.file != nil && !l.closed {
		l.closed = true
		return l.file.Close()
	}
	return nil
}

// Enabled returns whether logging is active.
func (l *Logger) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.slog != nil
}

// Writer returns the underlying io.Writer for use with other logging libraries.
func (l *Logger) Writer() io.Writer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.out == nil {
		return io.Discard
	}
	return l.out
}

func (l *Logger) log(level slog.Level, msg string, keyvals ...any) {
	l.mu.RLock()
	s := l.slog
	l.mu.RUnlock()
	if s == nil {
		return
	}
	s.Log(context.Background(), level, msg, keyvals...)
}

// Debug logs a debug message with optional key-value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log(slog.LevelDebug, msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.log(slog.LevelInfo, msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log(slog.LevelWarn, msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log(slog.LevelError, msg, keyvals...)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...any) {
	l.log(slog.LevelWarn, fmt.Sprintf(format, args...))
}

// Timed logs the duration of an operation. Usage:
//
//	defer applog.Log.Timed("operation name")()
func (l *Logger) Timed(operation string) func() {
	if !l.Enabled() {
		return func() {}
	}
	start := time.Now()
	l.Debug(operation, "status", "started")
	return func() {
		l.Debug(operation, "status", "completed", "duration", time.Since(start))
	}
}
