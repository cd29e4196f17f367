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
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/AleutianAI/pathbench/services/bench/results"
)

// Table renders headers and rows as a table in the given mode.
//
// Description:
//
//	ModeRich draws a rounded, colored border. ModePlain draws an ASCII
//	border with no styling so the output survives copy and paste.
func Table(mode Mode, headers []string, rows [][]string) string {
	t := table.New().Headers(headers...).Rows(rows...)
	if mode == ModePlain {
		return t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				return lipgloss.NewStyle().Padding(0, 1)
			}).
			String()
	}
	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(Styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Header
			}
			return Styles.Cell
		}).
		String()
}

// SummaryHeaders returns the column titles of SummaryRows for axes.
func SummaryHeaders(axes results.Axes) []string {
	return []string{
		axes.Preprocessing,
		"search",
		axes.StructuralParameter,
		"size",
		"trials",
		"mean time (s)",
		"median time (s)",
		"mean explored",
		"median explored",
		"mean ratio",
		"mean " + axes.Preprocessing + " (s)",
	}
}

// SummaryRows flattens a snapshot into one row per size, in tree order.
func SummaryRows(snap results.Snapshot) [][]string {
	var rows [][]string
	for _, v := range snap.Variants {
		for _, p := range v.Params {
			for _, s := range p.Sizes {
				avg := s.AverageSearch
				rows = append(rows, []string{
					v.Preprocessing,
					v.Search,
					formatFloat(p.Value),
					strconv.Itoa(s.Size),
					strconv.Itoa(avg.Count),
					formatSeconds(avg.Mean.SearchTime),
					formatSeconds(avg.Median.SearchTime),
					strconv.Itoa(avg.Mean.ExploredNodes),
					strconv.Itoa(avg.Median.ExploredNodes),
					strconv.FormatFloat(avg.Mean.ExploredRatio, 'f', 3, 64),
					formatSeconds(s.AveragePreprocessing.Mean),
				})
			}
		}
	}
	return rows
}

// Summary renders the per-size aggregates of a snapshot as a table.
func Summary(mode Mode, snap results.Snapshot) string {
	axes := snap.Axes
	if axes == (results.Axes{}) {
		axes = results.DefaultAxes()
	}
	return Table(mode, SummaryHeaders(axes), SummaryRows(snap))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatSeconds(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	if strings.HasPrefix(s, "-0.000000") {
		return "0.000000"
	}
	return s
}
