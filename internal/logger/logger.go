// Package logger is the process-wide log/slog logger for scopegate.
// Output goes to stderr; stdout is reserved for hook verdicts.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Log formats accepted by Options.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	log     *slog.Logger
	once    sync.Once
	verbose bool
)

// Options configures the logger.
type Options struct {
	// Verbose enables debug-level logging
	Verbose bool
	// Output is the writer for log output (defaults to os.Stderr)
	Output io.Writer
	// Format is "text" (default) or "json"
	Format string
}

// Init initializes the global logger with the given options.
// Only the first call takes effect.
func Init(opts Options) {
	once.Do(func() {
		verbose = opts.Verbose

		output := opts.Output
		if output == nil {
			output = os.Stderr
		}

		level := slog.LevelError
		if opts.Verbose {
			level = slog.LevelDebug
		}
		handlerOpts := &slog.HandlerOptions{Level: level}

		var handler slog.Handler
		if strings.EqualFold(opts.Format, FormatJSON) {
			handler = slog.NewJSONHandler(output, handlerOpts)
		} else {
			handler = slog.NewTextHandler(output, handlerOpts)
		}
		log = slog.New(handler)
	})
}

// Reset resets the logger for testing purposes.
func Reset() {
	once = sync.Once{}
	log = nil
	verbose = false
}

// IsVerbose returns true if verbose logging is enabled.
func IsVerbose() bool {
	return verbose
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	if log != nil {
		log.Debug(msg, args...)
	}
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if log != nil {
		log.Info(msg, args...)
	}
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	if log != nil {
		log.Warn(msg, args...)
	}
}

// Error logs at error level.
func Error(msg string, args ...any) {
	if log != nil {
		log.Error(msg, args...)
	}
}

// Elapsed logs msg at debug level with the milliseconds since start.
func Elapsed(msg string, start time.Time, args ...any) {
	if log == nil {
		return
	}
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	log.Debug(msg, append(args, "duration_ms", ms)...)
}

// With returns a logger with additional context attributes. Before Init it
// returns a logger that discards everything.
func With(args ...any) *slog.Logger {
	if log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log.With(args...)
}
