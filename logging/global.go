// Package logging wires log/slog for the comparator: a text handler on the
// console and a JSON handler on a weekly rotating file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Options configures InitLogger
type Options struct {
	Dir            string // empty disables the file handler
	Level          slog.Level
	RetentionWeeks int
	MaxFileSize    int64
	Console        io.Writer // defaults to os.Stdout
}

var (
	current atomic.Pointer[slog.Logger]
	level   = new(slog.LevelVar)
)

// ParseLevel maps debug, info, warn and error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// InitLogger installs the global logger. The returned closer releases the log
// file and must be called on shutdown.
func InitLogger(opts Options) (io.Closer, error) {
	level.Set(opts.Level)

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		file, err := OpenRotatingFile(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
		closer = file
	}

	logger := slog.New(&multiHandler{handlers: handlers})
	current.Store(logger)
	slog.SetDefault(logger)
	return closer, nil
}

// SetOutput replaces the global logger with a single text handler on w, used
// by the CLI and the terminal UI where stdout is taken.
func SetOutput(w io.Writer, lvl slog.Level) {
	level.Set(lvl)
	current.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// Logger returns the global logger, falling back to stderr before InitLogger
func Logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
