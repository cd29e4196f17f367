// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command pathbench benchmarks graph preprocessing and pathfinding variants
// over a directory corpus of graph instances.
//
// Usage:
//
//	pathbench run --corpus ./corpus --preprocess none,corner-jumps --search astar,bfs
//	pathbench count --corpus ./corpus
//	pathbench variants
//	pathbench runs list
//	pathbench runs show <run-id>
//	pathbench config init
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/pathbench/pkg/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	if err != nil {
		p := ux.NewPrinter(os.Stderr, ux.DetectMode(os.Stderr))
		if errors.Is(err, context.Canceled) {
			p.Warning("interrupted")
		} else {
			p.Error(err.Error())
		}
		stop()
		os.Exit(1)
	}
}
