// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathbench/cmd/pathbench/config"
	"github.com/AleutianAI/pathbench/pkg/ux"
	"github.com/AleutianAI/pathbench/services/bench/corpus"
)

func newCountCmd(a *app) *cobra.Command {
	var (
		dir  string
		list bool
	)
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the graph instances in a corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("corpus") {
				a.cfg.Corpus = dir
			}
			if a.cfg.Corpus == "" {
				return fmt.Errorf("%w: Corpus is required", config.ErrInvalid)
			}
			scanner := corpus.NewScanner(a.cfg.Corpus, corpus.WithLogger(a.logger.Slog()))
			if list {
				return a.listCorpus(cmd, scanner)
			}
			n, err := scanner.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "corpus", "", "corpus root directory")
	cmd.Flags().BoolVar(&list, "list", false, "list every instance in benchmark order")
	return cmd
}

// listCorpus prints every instance with its parsed coordinate.
func (a *app) listCorpus(cmd *cobra.Command, scanner *corpus.Scanner) error {
	axes := a.cfg.Axes
	var rows [][]string
	for entry, err := range scanner.Scan(cmd.Context()) {
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			strconv.FormatFloat(entry.StructuralParameter, 'g', -1, 64),
			strconv.Itoa(entry.Size),
			strconv.Itoa(entry.Repeat),
			entry.Path,
		})
	}
	headers := []string{axes.StructuralParameter, "size", "repeat", "path"}
	fmt.Fprintln(a.stdout, ux.Table(a.mode(a.stdout), headers, rows))
	return nil
}
