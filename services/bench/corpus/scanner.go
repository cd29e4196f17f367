// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package corpus

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNotDirectory indicates a corpus root that exists but is not a directory.
var ErrNotDirectory = errors.New("corpus root is not a directory")

// Entry is one graph instance discovered by the Scanner.
type Entry struct {
	Coordinate

	// Path is the full path of the repeat file.
	Path string
}

// Open opens the repeat file for reading. The caller closes it.
func (e Entry) Open() (*os.File, error) {
	f, err := os.Open(e.Path)
	if err != nil {
		return nil, fmt.Errorf("opening graph %s: %w", e.Path, err)
	}
	return f, nil
}

// Scanner walks a corpus root.
//
// Thread Safety: Safe for concurrent use. Each Scan and Count reads the
// file system afresh.
type Scanner struct {
	root   string
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for skipped entries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates a Scanner rooted at root.
func NewScanner(root string, opts ...Option) *Scanner {
	s := &Scanner{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the corpus root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns a lazy sequence of every graph instance in the corpus.
//
// Description:
//
//	Directories are read only as the sequence advances. Parameter
//	directories come in listing order, size directories sorted ascending by
//	numeric value, repeat files in listing order. Regular files at the
//	parameter and size levels are skipped, as are subdirectories and
//	dot-files inside a size directory.
//
//	The first I/O error, or the context's error once it is done, is
//	yielded with a zero Entry and ends the sequence.
//
// Inputs:
//   - ctx: Checked before each entry is yielded.
//
// Outputs:
//   - iter.Seq2[Entry, error]: The instances in scan order.
//
// Example:
//
//	for entry, err := range scanner.Scan(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    f, err := entry.Open()
//	    ...
//	}
func (s *Scanner) Scan(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		params, err := s.paramDirs()
		if err != nil {
			yield(Entry{}, err)
			return
		}
		for _, param := range params {
			sizes, err := sizeDirs(filepath.Join(s.root, param))
			if err != nil {
				yield(Entry{}, err)
				return
			}
			for _, size := range sizes {
				dir := filepath.Join(s.root, param, size)
				files, err := repeatFiles(dir)
				if err != nil {
					yield(Entry{}, err)
					return
				}
				for _, file := range files {
					if err := ctx.Err(); err != nil {
						yield(Entry{}, err)
						return
					}
					entry := Entry{
						Coordinate: ParseCoordinate(param, size, file),
						Path:       filepath.Join(dir, file),
					}
					s.logger.Debug("corpus entry",
						slog.String("path", entry.Path),
						slog.Float64("param", entry.StructuralParameter),
						slog.Int("size", entry.Size),
						slog.Int("repeat", entry.Repeat),
					)
					if !yield(entry, nil) {
						return
					}
				}
			}
		}
	}
}

// Count returns the number of graph instances in the corpus.
//
// Description:
//
//	Walks the corpus with the same filters as Scan without building
//	entries, so the result is the length of a complete Scan.
//
// Outputs:
//   - int: Number of repeat files.
//   - error: The first I/O error encountered.
func (s *Scanner) Count() (int, error) {
	params, err := s.paramDirs()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, param := range params {
		sizes, err := sizeDirs(filepath.Join(s.root, param))
		if err != nil {
			return 0, err
		}
		for _, size := range sizes {
			files, err := repeatFiles(filepath.Join(s.root, param, size))
			if err != nil {
				return 0, err
			}
			total += len(files)
		}
	}
	return total, nil
}

func (s *Scanner) paramDirs() ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, s.root)
	}
	return subdirs(s.root)
}

// sizeDirs lists the size directories of a parameter directory in ascending
// numeric order. Names that do not parse sort as zero and keep listing order.
func sizeDirs(dir string) ([]string, error) {
	names, err := subdirs(dir)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(names, func(a, b string) int {
		return cmp.Compare(parseInt(a), parseInt(b))
	})
	return names, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if isDir(dir, e) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func repeatFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || isDir(dir, e) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// isDir reports whether e is a directory, following symlinks.
func isDir(parent string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}
