// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"fmt"
	"sort"
)

// DefaultPriority is the baseline priority for a parser family; the
// built-in SQL dialect registers itself at DefaultPriority+5, per
// spec.md §6.
const DefaultPriority = 0

// Registry holds the set of known Dialects and dispatches by priority:
// among the Dialects whose SupportsExtension(path) is true, the one
// with the highest Priority wins.
type Registry struct {
	dialects []Dialect
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds d to the registry.
func (r *Registry) Register(d Dialect) { r.dialects = append(r.dialects, d) }

// For returns the highest-priority Dialect that supports path's
// extension, or an error if none does.
func (r *Registry) For(path string) (Dialect, error) {
	var candidates []Dialect
	for _, d := range r.dialects {
		if d.SupportsExtension(path) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("changelog: no dialect supports %q", path)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority() > candidates[j].Priority()
	})
	return candidates[0], nil
}
