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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathbench/pkg/ux"
	"github.com/AleutianAI/pathbench/services/bench/variants"
)

func newVariantsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the available preprocessing and search variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := variants.Default()
			var rows [][]string
			for _, p := range reg.Preprocessors() {
				rows = append(rows, []string{a.cfg.Axes.Preprocessing, p.Name(), p.Description()})
			}
			for _, s := range reg.Searchers() {
				rows = append(rows, []string{"search", s.Name(), s.Description()})
			}
			fmt.Fprintln(a.stdout, ux.Table(a.mode(a.stdout), []string{"kind", "name", "description"}, rows))
			return nil
		},
	}
}
