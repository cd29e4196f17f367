// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestProgressLog_Steps(t *testing.T) {
	var buf bytes.Buffer
	l := NewProgressLog(&buf, "instances", 25)

	for _, f := range []float64{0.1, 0.25, 0.3, 0.74, 0.75, 1, 1} {
		l.Update(f)
	}
	l.Done()

	want := "instances: 25%\ninstances: 50%\ninstances: 75%\ninstances: 100%\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestProgressLog_SkipsToLatest(t *testing.T) {
	var buf bytes.Buffer
	l := NewProgressLog(&buf, "p", 0)

	l.Update(0.55)
	if buf.String() != "p: 50%\n" {
		t.Errorf("output = %q, want a single 50%% line", buf.String())
	}
}

func TestProgressLog_Clamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewProgressLog(&buf, "p", 10)

	l.Update(math.NaN())
	l.Update(-1)
	l.Update(7)
	if buf.String() != "p: 100%\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestProgressBar_RedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	b := NewProgressBar(&buf, "bench", 20)

	b.Update(0.5)
	b.Update(0.5)
	b.Update(1)
	b.Done()

	out := buf.String()
	if got := strings.Count(out, "\r"); got != 2 {
		t.Errorf("redraws = %d, want 2 (duplicate skipped)", got)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Done did not terminate the line")
	}
	if !strings.Contains(out, "100%") {
		t.Errorf("final bar missing percentage: %q", out)
	}
}

func TestProgressBar_DoneWithoutUpdate(t *testing.T) {
	var buf bytes.Buffer
	NewProgressBar(&buf, "bench", 20).Done()
	if buf.Len() != 0 {
		t.Errorf("Done wrote %q without any update", buf.String())
	}
}

func TestProgressBar_Concurrent(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	b := NewProgressBar(lockedWriter{mu: &mu, buf: &buf}, "bench", 10)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Update(float64(i) / 100)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if strings.Count(buf.String(), "\r") > 100 {
		t.Error("more redraws than updates")
	}
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func TestNewProgress_ByMode(t *testing.T) {
	var buf bytes.Buffer
	if _, ok := NewProgress(&buf, ModeRich, "x").(*ProgressBar); !ok {
		t.Error("ModeRich did not select ProgressBar")
	}
	if _, ok := NewProgress(&buf, ModePlain, "x").(*ProgressLog); !ok {
		t.Error("ModePlain did not select ProgressLog")
	}
}
