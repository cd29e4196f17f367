// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger stores benchmark run snapshots in an embedded BadgerDB.
//
// Each run is one key, "run:<run id>", holding the JSON encoding of its
// results.Snapshot. The CLI keeps the database under ~/.pathbench/runs.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// ErrPathRequired indicates a persistent Config without a Path.
var ErrPathRequired = errors.New("path is required for persistent database")

// Config describes where and how the run database is opened.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	InMemory   bool
	SyncWrites bool

	// Logger receives BadgerDB's internal messages, tagged component=badger.
	// Nil silences them.
	Logger *slog.Logger

	// GCDiscardRatio triggers a value log rewrite on Close when at least
	// this fraction of a log file is stale. Zero skips the rewrite.
	GCDiscardRatio float64
}

// DefaultConfig returns the durable on-disk configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true, GCDiscardRatio: 0.5}
}

// InMemoryConfig returns a configuration that never touches disk.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

func (c Config) options() (badger.Options, error) {
	if c.InMemory {
		return badger.DefaultOptions("").WithInMemory(true), nil
	}
	if c.Path == "" {
		return badger.Options{}, ErrPathRequired
	}
	if err := os.MkdirAll(c.Path, 0o750); err != nil {
		return badger.Options{}, fmt.Errorf("create database directory %s: %w", c.Path, err)
	}
	return badger.DefaultOptions(c.Path), nil
}

// slogAdapter forwards BadgerDB log lines to slog. Badger's Info output is
// startup and compaction chatter, so it is demoted to Debug.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) log(level slog.Level, format string, args []any) {
	a.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (a slogAdapter) Errorf(format string, args ...any)   { a.log(slog.LevelError, format, args) }
func (a slogAdapter) Warningf(format string, args ...any) { a.log(slog.LevelWarn, format, args) }
func (a slogAdapter) Infof(format string, args ...any)    { a.log(slog.LevelDebug, format, args) }
func (a slogAdapter) Debugf(format string, args ...any)   { a.log(slog.LevelDebug, format, args) }

// DB is an open run database.
//
// Thread Safety: Safe for concurrent use.
type DB struct {
	db       *badger.DB
	cfg      Config
	warnings *slog.Logger
}

// Open opens the database described by cfg, creating its directory when
// needed. Only the latest version of each key is retained.
//
// Outputs:
//   - *DB: The open database. The caller must Close it.
//   - error: ErrPathRequired or a BadgerDB open error.
func Open(cfg Config) (*DB, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	warnings := slog.Default()
	if cfg.Logger != nil {
		warnings = cfg.Logger.With(slog.String("component", "badger"))
		opts = opts.WithLogger(slogAdapter{logger: warnings})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &DB{db: db, cfg: cfg, warnings: warnings}, nil
}

// Close compacts the value log when GCDiscardRatio allows it, then closes
// the database. A failed compaction is logged and does not fail Close.
func (d *DB) Close() error {
	if !d.cfg.InMemory && d.cfg.GCDiscardRatio > 0 {
		if err := d.db.RunValueLogGC(d.cfg.GCDiscardRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			d.warnings.Warn("run database value log GC failed", slog.String("error", err.Error()))
		}
	}
	return d.db.Close()
}

// Update runs fn in a read-write transaction, committing when fn returns
// nil.
func (d *DB) Update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return d.txn(ctx, true, fn)
}

// View runs fn in a read-only transaction.
func (d *DB) View(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return d.txn(ctx, false, fn)
}

func (d *DB) txn(ctx context.Context, update bool, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	txn := d.db.NewTransaction(update)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	if !update {
		return nil
	}
	return txn.Commit()
}
