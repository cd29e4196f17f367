// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides the structured logger used by pathbench commands.
//
// Records go to stderr as text by default. With LogDir set, every record is
// also appended as a JSON line to "{service}_{YYYY-MM-DD}.log" in that
// directory, so a long benchmark run leaves a machine-readable trail next to
// its stored results:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.pathbench/logs",
//	    Service: "pathbench",
//	})
//	defer logger.Close()
//
// Logger embeds *slog.Logger; the bench packages take the *slog.Logger
// returned by Slog.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrUnknownLevel indicates a level name ParseLevel does not recognise.
var ErrUnknownLevel = errors.New("unknown log level")

// Levels accepted in Config. They are the slog levels under shorter names.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel converts a configuration name into a level.
//
// Inputs:
//   - s: "debug", "info", "warn"/"warning" or "error", case-insensitive.
//     Empty selects LevelInfo.
//
// Outputs:
//   - slog.Level: The parsed level.
//   - error: ErrUnknownLevel for any other value.
func ParseLevel(s string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	switch name {
	case "":
		return LevelInfo, nil
	case "debug", "info", "warn", "error":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(name)); err != nil {
			return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
		}
		return lvl, nil
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Config configures a Logger. The zero value logs Info and above to stderr
// as text.
type Config struct {
	Level slog.Level

	// LogDir adds a JSON log file in this directory. A leading ~ is
	// expanded and the directory is created if missing.
	LogDir string

	// Service tags every record and prefixes the log file name.
	Service string

	// JSON selects JSON console output.
	JSON bool

	// Quiet drops console output. The log file, if any, is still written.
	Quiet bool

	// Output replaces stderr as the console destination.
	Output io.Writer
}

func (c Config) console() io.Writer {
	if c.Output == nil {
		return os.Stderr
	}
	return c.Output
}

func (c Config) fileName(day time.Time) string {
	service := c.Service
	if service == "" {
		service = "pathbench"
	}
	return fmt.Sprintf("%s_%s.log", service, day.Format(time.DateOnly))
}

// Logger is a slog.Logger that may own a log file.
//
// Thread Safety: Safe for concurrent use. Close the root Logger, not
// children returned by With.
type Logger struct {
	*slog.Logger

	closeMu sync.Mutex
	file    *os.File
	path    string
}

// New builds a Logger from cfg.
//
// Description:
//
//	File logging is best effort: if the directory or file cannot be opened,
//	New logs "file logging disabled" on the console and carries on without
//	it. New never fails.
//
// Outputs:
//   - *Logger: The configured logger. Never nil.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	l := &Logger{}

	var sinks fanout
	if !cfg.Quiet {
		if cfg.JSON {
			sinks = append(sinks, slog.NewJSONHandler(cfg.console(), opts))
		} else {
			sinks = append(sinks, slog.NewTextHandler(cfg.console(), opts))
		}
	}

	var fileErr error
	if cfg.LogDir != "" {
		if fileErr = l.openFile(cfg); fileErr == nil {
			sinks = append(sinks, slog.NewJSONHandler(l.file, opts))
		}
	}

	handler := sinks.handler()
	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}
	l.Logger = slog.New(handler)

	if fileErr != nil {
		l.Warn("file logging disabled", slog.String("error", fileErr.Error()))
	}
	return l
}

func (l *Logger) openFile(cfg Config) error {
	dir := expandPath(cfg.LogDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, cfg.fileName(time.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	l.file, l.path = f, path
	return nil
}

// Default returns an Info-level stderr logger for service "pathbench".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "pathbench"})
}

// With returns a child Logger carrying args on every record. The child
// writes to the parent's file but does not own it.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Slog returns the embedded *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// FilePath returns the log file path, or "" when no file is open.
func (l *Logger) FilePath() string {
	return l.path
}

// Close syncs and closes the log file. Closing twice is a no-op.
func (l *Logger) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()

	f := l.file
	if f == nil {
		return nil
	}
	l.file = nil
	if err := errors.Join(f.Sync(), f.Close()); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// fanout sends each record to every sink whose level admits it.
type fanout []slog.Handler

func (f fanout) handler() slog.Handler {
	switch len(f) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return f[0]
	}
	return f
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// expandPath replaces a leading ~ with the home directory.
func expandPath(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
