// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrSyntax indicates a malformed line in a graph file.
var ErrSyntax = errors.New("graph syntax error")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Compression selects the encoding used by Write.
type Compression int

const (
	// CompressionNone writes plain text.
	CompressionNone Compression = iota

	// CompressionGzip writes gzip.
	CompressionGzip

	// CompressionZstd writes zstd.
	CompressionZstd
)

// Load reads a graph in the text format from r.
//
// Description:
//
//	The format is line oriented:
//
//	    # comment
//	    node <id> <x> <y>
//	    edge <a> <b> [weight]
//
//	An edge without a weight is weighted by the Euclidean distance of its
//	endpoints. Nodes must be declared before edges that use them. Input
//	compressed with gzip or zstd is detected by its magic bytes and
//	decompressed transparently.
//
// Inputs:
//   - r: The graph file. Not closed by Load.
//
// Outputs:
//   - *Graph: The loaded graph.
//   - error: ErrSyntax with the offending line number, a graph construction
//     error, or ErrEmptyGraph when no node was declared.
func Load(r io.Reader) (*Graph, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var src io.Reader = br
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		src = zr
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	g, err := parse(src)
	if err != nil {
		return nil, err
	}
	if g.NodeCount() == 0 {
		return nil, ErrEmptyGraph
	}
	return g, nil
}

func parse(r io.Reader) (*Graph, error) {
	g := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := parseLine(g, fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}
	return g, nil
}

func parseLine(g *Graph, fields []string) error {
	switch fields[0] {
	case "node":
		if len(fields) != 4 {
			return fmt.Errorf("%w: node wants 3 fields, got %d", ErrSyntax, len(fields)-1)
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: node id %q", ErrSyntax, fields[1])
		}
		x, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("%w: x %q", ErrSyntax, fields[2])
		}
		y, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return fmt.Errorf("%w: y %q", ErrSyntax, fields[3])
		}
		return g.AddNode(id, x, y)

	case "edge":
		if len(fields) != 3 && len(fields) != 4 {
			return fmt.Errorf("%w: edge wants 2 or 3 fields, got %d", ErrSyntax, len(fields)-1)
		}
		a, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: edge endpoint %q", ErrSyntax, fields[1])
		}
		b, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: edge endpoint %q", ErrSyntax, fields[2])
		}
		if len(fields) == 4 {
			w, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return fmt.Errorf("%w: weight %q", ErrSyntax, fields[3])
			}
			return g.AddEdge(a, b, w)
		}
		na, okA := g.Node(a)
		nb, okB := g.Node(b)
		if !okA || !okB {
			return g.AddEdge(a, b, 0)
		}
		return g.AddEdge(a, b, na.Distance(nb))

	default:
		return fmt.Errorf("%w: unknown directive %q", ErrSyntax, fields[0])
	}
}

// Write encodes g in the text format accepted by Load.
//
// Nodes are written in insertion order, so a written graph loads with the
// same endpoints.
func Write(w io.Writer, g *Graph, c Compression) (err error) {
	var dst io.WriteCloser
	switch c {
	case CompressionGzip:
		dst = gzip.NewWriter(w)
	case CompressionZstd:
		zw, zerr := zstd.NewWriter(w)
		if zerr != nil {
			return fmt.Errorf("opening zstd writer: %w", zerr)
		}
		dst = zw
	default:
		dst = nopCloser{w}
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(dst)
	nodes := g.Nodes()
	for _, n := range nodes {
		if _, err := fmt.Fprintf(bw, "node %d %s %s\n", n.ID(),
			strconv.FormatFloat(n.X, 'g', -1, 64),
			strconv.FormatFloat(n.Y, 'g', -1, 64)); err != nil {
			return err
		}
	}
	written := make(map[[2]int64]bool)
	for _, n := range nodes {
		for _, m := range g.Neighbors(n.ID()) {
			key := [2]int64{min(n.ID(), m.ID()), max(n.ID(), m.ID())}
			if written[key] {
				continue
			}
			written[key] = true
			weight, _ := g.Weight(n.ID(), m.ID())
			if _, err := fmt.Fprintf(bw, "edge %d %d %s\n", key[0], key[1],
				strconv.FormatFloat(weight, 'g', -1, 64)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
