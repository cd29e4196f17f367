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
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// ProgressBar draws a single-line progress bar that redraws in place.
//
// Description:
//
//	Update renders the bar with bubbles/progress and rewrites the current
//	line with a carriage return. Done terminates the line. Updates that
//	would not change the drawn percentage are skipped.
//
// Thread Safety: Safe for concurrent use.
type ProgressBar struct {
	mu    sync.Mutex
	w     io.Writer
	bar   progress.Model
	label string
	last  int
}

// NewProgressBar creates a bar of the given width, prefixed by label.
func NewProgressBar(w io.Writer, label string, width int) *ProgressBar {
	return &ProgressBar{
		w:     w,
		bar:   progress.New(progress.WithGradient(string(ColorTealDeep), string(ColorTealBright)), progress.WithWidth(width)),
		label: label,
		last:  -1,
	}
}

// Update redraws the bar at fraction, clamped to [0, 1].
func (b *ProgressBar) Update(fraction float64) {
	fraction = clamp(fraction)
	b.mu.Lock()
	defer b.mu.Unlock()

	pct := int(math.Round(fraction * 100))
	if pct == b.last {
		return
	}
	b.last = pct
	fmt.Fprintf(b.w, "\r%s %s", Styles.Muted.Render(b.label), b.bar.ViewAs(fraction))
}

// Done ends the progress line.
func (b *ProgressBar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last >= 0 {
		fmt.Fprintln(b.w)
	}
}

// ProgressLog writes one line per completed step of the given size.
//
// Description:
//
//	With step 10 a full run prints "label: 10%" through "label: 100%".
//	Fractions that skip several steps print only the latest.
//
// Thread Safety: Safe for concurrent use.
type ProgressLog struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	step  int
	last  int
}

// NewProgressLog creates a line-based reporter. step is in percent and
// defaults to 10 when not positive.
func NewProgressLog(w io.Writer, label string, step int) *ProgressLog {
	if step <= 0 {
		step = 10
	}
	return &ProgressLog{w: w, label: label, step: step}
}

// Update prints a line when fraction crosses the next step.
func (l *ProgressLog) Update(fraction float64) {
	pct := int(math.Floor(clamp(fraction) * 100))
	l.mu.Lock()
	defer l.mu.Unlock()

	reached := pct / l.step * l.step
	if reached <= l.last {
		return
	}
	l.last = reached
	fmt.Fprintf(l.w, "%s: %d%%\n", l.label, reached)
}

// Done is a no-op; every line is already terminated.
func (l *ProgressLog) Done() {}

// Progress is the reporter returned by NewProgress.
type Progress interface {
	Update(fraction float64)
	Done()
}

// NewProgress returns a ProgressBar in ModeRich and a ProgressLog otherwise.
func NewProgress(w io.Writer, mode Mode, label string) Progress {
	if mode == ModeRich {
		return NewProgressBar(w, label, 40)
	}
	return NewProgressLog(w, label, 10)
}

func clamp(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return min(f, 1)
}
