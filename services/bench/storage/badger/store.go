// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/pathbench/services/bench/results"
)

const runKeyPrefix = "run:"

// ErrRunNotFound indicates a run ID with no stored snapshot.
var ErrRunNotFound = errors.New("run not found")

// RunInfo summarises a stored run.
type RunInfo struct {
	ID         string `json:"id" yaml:"id"`
	StartedAt  int64  `json:"started_at" yaml:"started_at"`
	FinishedAt int64  `json:"finished_at" yaml:"finished_at"`
	CorpusDir  string `json:"corpus_dir" yaml:"corpus_dir"`
	Variants   int    `json:"variants" yaml:"variants"`
	Trials     int    `json:"trials" yaml:"trials"`
}

// Store persists run snapshots.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *DB
	logger *slog.Logger
}

// OpenStore opens the database described by cfg as a run store.
func OpenStore(cfg Config) (*Store, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(db, cfg.Logger), nil
}

// NewStore wraps an open database.
func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID returns a fresh run ID.
func NewRunID() string {
	return uuid.NewString()
}

func runKey(id string) []byte {
	return []byte(runKeyPrefix + id)
}

// Save stores snap under its RunID.
//
// Description:
//
//	A snapshot without a RunID is given a new one. Saving an existing ID
//	replaces the stored snapshot.
//
// Outputs:
//   - string: The run ID the snapshot was stored under.
//   - error: Encoding or database errors.
func (s *Store) Save(ctx context.Context, snap results.Snapshot) (string, error) {
	if snap.RunID == "" {
		snap.RunID = NewRunID()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode run %s: %w", snap.RunID, err)
	}
	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Set(runKey(snap.RunID), data)
	})
	if err != nil {
		return "", fmt.Errorf("write run %s: %w", snap.RunID, err)
	}
	s.logger.Debug("run saved", slog.String("run_id", snap.RunID), slog.Int("bytes", len(data)))
	return snap.RunID, nil
}

// Get loads the snapshot stored under id.
//
// Outputs:
//   - results.Snapshot: The stored snapshot.
//   - error: ErrRunNotFound if id is unknown.
func (s *Store) Get(ctx context.Context, id string) (results.Snapshot, error) {
	var snap results.Snapshot
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return results.Snapshot{}, err
	}
	return snap, nil
}

// Resolve expands a unique run ID prefix into the full ID.
//
// Outputs:
//   - string: The full ID.
//   - error: ErrRunNotFound if no ID, or more than one, starts with prefix.
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	var matches []string
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := runKey(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			matches = append(matches, strings.TrimPrefix(string(it.Item().Key()), runKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: %q matches %d runs", ErrRunNotFound, prefix, len(matches))
	}
	return matches[0], nil
}

// List returns every stored run, newest first.
func (s *Store) List(ctx context.Context) ([]RunInfo, error) {
	var runs []RunInfo
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(runKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var snap results.Snapshot
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snap)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			runs = append(runs, RunInfo{
				ID:         snap.RunID,
				StartedAt:  snap.StartedAt,
				FinishedAt: snap.FinishedAt,
				CorpusDir:  snap.CorpusDir,
				Variants:   len(snap.Variants),
				Trials:     snap.TrialCount(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt > runs[j].StartedAt })
	return runs, nil
}

// Delete removes the run stored under id.
//
// Outputs:
//   - error: ErrRunNotFound if id is unknown.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrRunNotFound, id)
			}
			return err
		}
		return txn.Delete(runKey(id))
	})
}
