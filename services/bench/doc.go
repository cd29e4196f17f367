// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package bench is the pathfinding benchmark engine.
//
// A benchmark run walks a corpus of graph instances laid out as
//
//	<root>/<structural parameter>/<size>/<repeat file>
//
// and, for every instance, runs each requested preprocessing variant once
// followed by repeated timed searches of each search variant. Results land
// in a tree keyed variant → structural parameter → size → repeat, whose
// size level carries mean and median aggregates.
//
// Subpackages:
//
//	corpus/         discovers instances and parses their coordinates
//	graph/          graph model, text loader, built-in algorithms
//	variants/       preprocessing and search capabilities and their registry
//	runner/         times preprocessing and search trials on one instance
//	results/        result tree, aggregation and snapshots
//	stats/          sorted series, mean and median
//	orchestrator/   drives a whole run and reports progress
//	storage/badger/ stores run snapshots
//	telemetry/      OpenTelemetry setup
package bench
