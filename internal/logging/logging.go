// Package logging builds the application's slog.Logger: an in-memory
// BufferHandler for recent records, optionally fanned out to a rotating JSON
// log file and a text handler on a terminal stream.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Defaults used when Options fields are zero.
const (
	DefaultBufferSize = 1000
	DefaultMaxSizeMB  = 10
	DefaultMaxFiles   = 5
)

// ParseLevel maps debug, info, warn and error (any case) to slog levels.
// The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// Options configure New.
type Options struct {
	Level slog.Level
	// BufferSize bounds the in-memory buffer.
	BufferSize int
	// File, when set, receives JSON records with size-based rotation.
	File      string
	MaxSizeMB int
	// MaxFiles is the number of rotated backups to keep. Negative selects
	// DefaultMaxFiles; zero keeps none.
	MaxFiles int
	// Console, when set, receives human-readable records.
	Console io.Writer
}

// Logger is an slog.Logger plus the resources behind it.
type Logger struct {
	*slog.Logger
	buffer *BufferHandler
	file   *RotatingFileWriter
}

// New builds a Logger from opts. Close must be called to release the log
// file.
func New(opts Options) (*Logger, error) {
	l := &Logger{buffer: NewBufferHandler(opts.BufferSize, opts.Level)}
	handlers := []slog.Handler{l.buffer}

	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = DefaultMaxSizeMB
		}
		maxFiles := opts.MaxFiles
		if maxFiles < 0 {
			maxFiles = DefaultMaxFiles
		}
		w, err := NewRotatingFileWriter(opts.File, maxSize, maxFiles)
		if err != nil {
			return nil, err
		}
		l.file = w
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level}))
	}

	if opts.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Console, &slog.HandlerOptions{Level: opts.Level}))
	}

	l.Logger = slog.New(fanout(handlers))
	return l, nil
}

// Buffer returns the in-memory handler.
func (l *Logger) Buffer() *BufferHandler { return l.buffer }

// FilePath returns the log file path, or "".
func (l *Logger) FilePath() string {
	if l.file == nil {
		return ""
	}
	return l.file.Path()
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// fanout dispatches each record to every handler that enables its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
