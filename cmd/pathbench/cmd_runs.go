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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathbench/pkg/ux"
	"github.com/AleutianAI/pathbench/services/bench/storage/badger"
)

var errStoreDisabled = errors.New("run store is disabled in the configuration")

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored benchmark runs",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a), newRunsDeleteCmd(a))
	return cmd
}

// withStore opens the run store for the duration of fn.
func (a *app) withStore(fn func(*badger.Store) error) error {
	if !a.cfg.StoreEnabled() {
		return errStoreDisabled
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newRunsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(store *badger.Store) error {
				runs, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					a.printer().Warning("no stored runs")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.ID,
						formatMillis(r.StartedAt),
						(time.Duration(r.FinishedAt-r.StartedAt) * time.Millisecond).String(),
						r.CorpusDir,
						strconv.Itoa(r.Variants),
						strconv.Itoa(r.Trials),
					})
				}
				headers := []string{"id", "started", "elapsed", "corpus", "variants", "trials"}
				fmt.Fprintln(a.stdout, ux.Table(a.mode(a.stdout), headers, rows))
				return nil
			})
		},
	}
}

func newRunsShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run; the id may be abbreviated to a unique prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *badger.Store) error {
				ctx := cmd.Context()
				id, err := store.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				snap, err := store.Get(ctx, id)
				if err != nil {
					return err
				}
				if format != "table" {
					return encodeSnapshot(a.stdout, format, snap)
				}
				p := a.printer()
				p.KeyValues(
					[2]string{"run", snap.RunID},
					[2]string{"started", formatMillis(snap.StartedAt)},
					[2]string{"corpus", snap.CorpusDir},
					[2]string{"repeat", strconv.Itoa(snap.Repeat)},
					[2]string{"failure policy", snap.Policy},
				)
				fmt.Fprintln(a.stdout, ux.Summary(p.Mode(), snap))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "table, json or yaml")
	return cmd
}

func newRunsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *badger.Store) error {
				id, err := store.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				a.printer().Success("deleted run " + id)
				return nil
			})
		},
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
