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
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCorpus creates files under root. Paths ending in "/" become directories.
func writeCorpus(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if p[len(p)-1] == '/' {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("node 0 0 0\n"), 0o644))
	}
}

func collect(t *testing.T, s *Scanner) []Entry {
	t.Helper()
	var out []Entry
	for e, err := range s.Scan(context.Background()) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name                string
		param, size, repeat string
		want                Coordinate
	}{
		{"plain", "0.5", "10", "3", Coordinate{0.5, 10, 3}},
		{"extension stripped", "0.25", "100", "7.graph", Coordinate{0.25, 100, 7}},
		{"double extension stripped", "1", "20", "3.graph.gz", Coordinate{1, 20, 3}},
		{"cut at first dot", "1", "20", "1.2.graph", Coordinate{1, 20, 1}},
		{"bad parameter", "dense", "10", "1", Coordinate{0, 10, 1}},
		{"nan parameter", "NaN", "10", "1", Coordinate{0, 10, 1}},
		{"inf parameter", "+Inf", "10", "1", Coordinate{0, 10, 1}},
		{"bad size", "0.5", "big", "1", Coordinate{0.5, 0, 1}},
		{"bad repeat", "0.5", "10", "first.graph", Coordinate{0.5, 10, 0}},
		{"all bad", "x", "y", "z", Coordinate{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCoordinate(tt.param, tt.size, tt.repeat))
		})
	}
}

func TestScan_SizesInNumericOrder(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "0.5/2/0", "0.5/10/0", "0.5/1/0")

	var sizes []int
	for _, e := range collect(t, NewScanner(root)) {
		sizes = append(sizes, e.Size)
	}
	assert.Equal(t, []int{1, 2, 10}, sizes)
}

func TestScan_EndToEndLayout(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "0.5/10/0", "0.5/10/1")

	entries := collect(t, NewScanner(root))
	require.Len(t, entries, 2)
	for i, e := range entries {
		assert.Equal(t, 0.5, e.StructuralParameter)
		assert.Equal(t, 10, e.Size)
		assert.Equal(t, i, e.Repeat)
		assert.Equal(t, filepath.Join(root, "0.5", "10", strconv.Itoa(i)), e.Path)
	}
}

func TestScan_SkipsStrayEntries(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root,
		"README.md",
		"0.5/notes.txt",
		"0.5/10/0.graph",
		"0.5/10/.DS_Store",
		"0.5/10/nested/",
		"0.5/10/1.graph",
	)

	entries := collect(t, NewScanner(root))
	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Repeat)
	assert.Equal(t, 1, entries[1].Repeat)

	n, err := NewScanner(root).Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestScan_UnparsableNamesBecomeZero(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "open/big/first", "open/5/0")

	entries := collect(t, NewScanner(root))
	require.Len(t, entries, 2)
	assert.Equal(t, Coordinate{0, 0, 0}, entries[0].Coordinate, "unparsable size sorts as zero")
	assert.Equal(t, Coordinate{0, 5, 0}, entries[1].Coordinate)
}

func TestCount_MatchesScan(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root,
		"0.1/10/0", "0.1/10/1", "0.1/20/0",
		"0.9/10/0", "0.9/30/0.graph.zst", "0.9/30/1",
		"0.9/40/",
	)

	n, err := NewScanner(root).Count()
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Len(t, collect(t, NewScanner(root)), n)
}

func TestScan_MissingRoot(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "missing"))

	var errs []error
	for _, err := range s.Scan(context.Background()) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)

	_, err := s.Count()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "file")

	_, err := NewScanner(filepath.Join(root, "file")).Count()
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestScan_StopsOnCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "0.5/10/0", "0.5/10/1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []error
	for _, err := range NewScanner(root).Scan(ctx) {
		got = append(got, err)
	}
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], context.Canceled)
}

func TestScan_EarlyBreak(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "0.5/10/0", "0.5/10/1", "0.5/10/2")

	seen := 0
	for _, err := range NewScanner(root).Scan(context.Background()) {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestEntry_Open(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, "0.5/10/0")

	entries := collect(t, NewScanner(root))
	require.Len(t, entries, 1)
	f, err := entries[0].Open()
	require.NoError(t, err)
	defer f.Close()

	_, err = Entry{Path: filepath.Join(root, "nope")}.Open()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
