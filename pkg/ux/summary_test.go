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
	"strings"
	"testing"

	"github.com/AleutianAI/pathbench/services/bench/results"
)

func summarySnapshot(t *testing.T) results.Snapshot {
	t.Helper()
	axes := results.Axes{StructuralParameter: "openness", Preprocessing: "pruning"}
	tree := results.NewTestResult([]string{"none"}, []string{"astar", "bfs"}, results.FailuresIncluded, axes)
	for _, search := range []string{"astar", "bfs"} {
		key := results.VariantKey{Preprocessing: "none", Search: search}
		for _, size := range []int{10, 20} {
			rep := tree.GetOrCreate(key, 0.25, size, 0)
			err := rep.SizeNode().Record(rep, []results.RawTrial{
				{SearchTime: 0.002, ExploredNodes: size / 2, ExploredRatio: 0.5},
			}, results.PreprocessingTiming{})
			if err != nil {
				t.Fatal(err)
			}
		}
	}
	return tree.Snapshot()
}

func TestSummaryRows_TreeOrder(t *testing.T) {
	rows := SummaryRows(summarySnapshot(t))
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	want := [][2]string{{"astar", "10"}, {"astar", "20"}, {"bfs", "10"}, {"bfs", "20"}}
	for i, w := range want {
		if rows[i][1] != w[0] || rows[i][3] != w[1] {
			t.Errorf("row %d = %v, want search %s size %s", i, rows[i], w[0], w[1])
		}
	}
	first := rows[0]
	if first[2] != "0.25" || first[4] != "1" || first[5] != "0.002000" || first[7] != "5" || first[9] != "0.500" {
		t.Errorf("row 0 values = %v", first)
	}
}

func TestSummaryHeaders_UseAxes(t *testing.T) {
	h := SummaryHeaders(results.Axes{StructuralParameter: "complexity", Preprocessing: "optimization"})
	if h[0] != "optimization" || h[2] != "complexity" || h[len(h)-1] != "mean optimization (s)" {
		t.Errorf("headers = %v", h)
	}
}

func TestSummary_PlainTable(t *testing.T) {
	out := Summary(ModePlain, summarySnapshot(t))
	for _, want := range []string{"pruning", "openness", "astar", "bfs", "0.002000", "+"} {
		if !strings.Contains(out, want) {
			t.Errorf("plain summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummary_RichTable(t *testing.T) {
	out := Summary(ModeRich, summarySnapshot(t))
	if !strings.Contains(out, "╭") || !strings.Contains(out, "astar") {
		t.Errorf("rich summary missing rounded border or data:\n%s", out)
	}
}

func TestSummary_DefaultAxes(t *testing.T) {
	out := Summary(ModePlain, results.Snapshot{})
	if !strings.Contains(out, "structural parameter") {
		t.Errorf("empty snapshot did not fall back to default axes:\n%s", out)
	}
}

func TestFormatSeconds_NegativeZero(t *testing.T) {
	if got := formatSeconds(-0.0000001); got != "0.000000" {
		t.Errorf("formatSeconds = %q", got)
	}
	if got := formatSeconds(-1); got != "-1.000000" {
		t.Errorf("formatSeconds(-1) = %q", got)
	}
}
