// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package variants

import (
	"fmt"
	"sort"
	"sync"
)

// Registry resolves variant names to implementations.
//
// Description:
//
//	Preprocessing and search variants live in separate namespaces, so a
//	preprocessor and a searcher may share a name.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu            sync.RWMutex
	preprocessors map[string]Preprocessor
	searchers     map[string]Searcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		preprocessors: make(map[string]Preprocessor),
		searchers:     make(map[string]Searcher),
	}
}

// Default returns a registry holding every built-in variant.
//
// Outputs:
//   - *Registry: A new registry. Callers may register more variants.
func Default() *Registry {
	r := NewRegistry()
	for _, p := range []Preprocessor{NonePreprocessor, IntersectionJumps, CornerJumps} {
		r.MustRegisterPreprocessor(p)
	}
	for _, s := range []Searcher{AStar, Dijkstra, BFS} {
		r.MustRegisterSearcher(s)
	}
	return r
}

// RegisterPreprocessor adds a preprocessing variant under its Name().
//
// Outputs:
//   - error: ErrNilVariant or ErrAlreadyRegistered.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) RegisterPreprocessor(p Preprocessor) error {
	if p == nil {
		return ErrNilVariant
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.preprocessors[p.Name()]; exists {
		return fmt.Errorf("%w: preprocessing %s", ErrAlreadyRegistered, p.Name())
	}
	r.preprocessors[p.Name()] = p
	return nil
}

// RegisterSearcher adds a search variant under its Name().
//
// Outputs:
//   - error: ErrNilVariant or ErrAlreadyRegistered.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) RegisterSearcher(s Searcher) error {
	if s == nil {
		return ErrNilVariant
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.searchers[s.Name()]; exists {
		return fmt.Errorf("%w: search %s", ErrAlreadyRegistered, s.Name())
	}
	r.searchers[s.Name()] = s
	return nil
}

// MustRegisterPreprocessor registers p and panics on error. Startup use only.
func (r *Registry) MustRegisterPreprocessor(p Preprocessor) {
	if err := r.RegisterPreprocessor(p); err != nil {
		panic(fmt.Sprintf("variants: failed to register preprocessor: %v", err))
	}
}

// MustRegisterSearcher registers s and panics on error. Startup use only.
func (r *Registry) MustRegisterSearcher(s Searcher) {
	if err := r.RegisterSearcher(s); err != nil {
		panic(fmt.Sprintf("variants: failed to register searcher: %v", err))
	}
}

// Preprocessor returns the preprocessing variant called name.
//
// Outputs:
//   - Preprocessor: The variant.
//   - error: ErrUnknownVariant if name is not registered.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Preprocessor(name string) (Preprocessor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.preprocessors[name]
	if !ok {
		return nil, fmt.Errorf("%w: preprocessing %q", ErrUnknownVariant, name)
	}
	return p, nil
}

// Searcher returns the search variant called name.
//
// Outputs:
//   - Searcher: The variant.
//   - error: ErrUnknownVariant if name is not registered.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Searcher(name string) (Searcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.searchers[name]
	if !ok {
		return nil, fmt.Errorf("%w: search %q", ErrUnknownVariant, name)
	}
	return s, nil
}

// Resolve looks up every requested variant, failing on the first unknown name.
//
// Inputs:
//   - preprocessing: Preprocessing variant names, in run order.
//   - search: Search variant names, in run order.
//
// Outputs:
//   - []Preprocessor, []Searcher: The variants in request order.
//   - error: ErrUnknownVariant naming the first unknown variant.
func (r *Registry) Resolve(preprocessing, search []string) ([]Preprocessor, []Searcher, error) {
	pres := make([]Preprocessor, 0, len(preprocessing))
	for _, name := range preprocessing {
		p, err := r.Preprocessor(name)
		if err != nil {
			return nil, nil, err
		}
		pres = append(pres, p)
	}
	searches := make([]Searcher, 0, len(search))
	for _, name := range search {
		s, err := r.Searcher(name)
		if err != nil {
			return nil, nil, err
		}
		searches = append(searches, s)
	}
	return pres, searches, nil
}

// Preprocessors returns every registered preprocessing variant sorted by name.
func (r *Registry) Preprocessors() []Preprocessor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Preprocessor, 0, len(r.preprocessors))
	for _, p := range r.preprocessors {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Searchers returns every registered search variant sorted by name.
func (r *Registry) Searchers() []Searcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Searcher, 0, len(r.searchers))
	for _, s := range r.searchers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
