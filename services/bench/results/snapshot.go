// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package results

// Snapshot is a plain, ordered copy of a TestResult.
//
// Description:
//
//	Snapshots carry no locks and no back-pointers, so they can be encoded
//	as JSON or YAML, stored, and rendered after the run. Slice order
//	follows the tree's insertion order.
type Snapshot struct {
	// RunID identifies the run. Set by the caller.
	RunID string `json:"run_id" yaml:"run_id"`

	// StartedAt and FinishedAt are Unix milliseconds UTC. Set by the caller.
	StartedAt  int64 `json:"started_at" yaml:"started_at"`
	FinishedAt int64 `json:"finished_at" yaml:"finished_at"`

	// Repeat is the search repeat count of the run. Set by the caller.
	Repeat int `json:"repeat" yaml:"repeat"`

	// CorpusDir is the corpus root of the run. Set by the caller.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	Policy   string            `json:"failure_policy" yaml:"failure_policy"`
	Axes     Axes              `json:"axes" yaml:"axes"`
	Variants []VariantSnapshot `json:"variants" yaml:"variants"`
}

// VariantSnapshot is the snapshot of one VariantNode.
type VariantSnapshot struct {
	Preprocessing string          `json:"preprocessing" yaml:"preprocessing"`
	Search        string          `json:"search" yaml:"search"`
	Params        []ParamSnapshot `json:"params" yaml:"params"`
}

// ParamSnapshot is the snapshot of one ParamNode.
type ParamSnapshot struct {
	Value float64        `json:"value" yaml:"value"`
	Sizes []SizeSnapshot `json:"sizes" yaml:"sizes"`
}

// SizeSnapshot is the snapshot of one SizeNode.
type SizeSnapshot struct {
	Size                 int                      `json:"size" yaml:"size"`
	AverageSearch        AverageSearchResult      `json:"average_search" yaml:"average_search"`
	AveragePreprocessing AveragePreprocessingTime `json:"average_preprocessing" yaml:"average_preprocessing"`
	Repeats              []RepeatSnapshot         `json:"repeats" yaml:"repeats"`
}

// RepeatSnapshot is the snapshot of one RepeatNode.
type RepeatSnapshot struct {
	Repeat            int        `json:"repeat" yaml:"repeat"`
	PreprocessingTime float64    `json:"preprocessing_time" yaml:"preprocessing_time"`
	Trials            []RawTrial `json:"trials" yaml:"trials"`
}

// Snapshot copies the tree into a Snapshot.
//
// Description:
//
//	Each SizeNode is copied under its own lock, so a snapshot taken during
//	a run is consistent per size but not across sizes.
//
// Thread Safety: Safe for concurrent use.
func (r *TestResult) Snapshot() Snapshot {
	snap := Snapshot{
		Policy: r.policy.String(),
		Axes:   r.axes,
	}
	for _, v := range r.Variants() {
		vs := VariantSnapshot{
			Preprocessing: v.key.Preprocessing,
			Search:        v.key.Search,
		}
		for _, p := range r.params(v) {
			ps := ParamSnapshot{Value: p.value}
			for _, s := range r.sizes(p) {
				ps.Sizes = append(ps.Sizes, s.snapshot())
			}
			vs.Params = append(vs.Params, ps)
		}
		snap.Variants = append(snap.Variants, vs)
	}
	return snap
}

func (s *SizeNode) snapshot() SizeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss := SizeSnapshot{
		Size:                 s.size,
		AverageSearch:        s.averageSearch,
		AveragePreprocessing: s.averagePreprocessing,
	}
	for pair := s.repeats.Oldest(); pair != nil; pair = pair.Next() {
		rep := pair.Value
		trials := make([]RawTrial, len(rep.trials))
		copy(trials, rep.trials)
		ss.Repeats = append(ss.Repeats, RepeatSnapshot{
			Repeat:            rep.repeat,
			PreprocessingTime: rep.preprocessing.Duration,
			Trials:            trials,
		})
	}
	return ss
}

// TrialCount returns the number of raw trials in the snapshot.
func (s Snapshot) TrialCount() int {
	total := 0
	for _, v := range s.Variants {
		for _, p := range v.Params {
			for _, sz := range p.Sizes {
				for _, rep := range sz.Repeats {
					total += len(rep.Trials)
				}
			}
		}
	}
	return total
}
