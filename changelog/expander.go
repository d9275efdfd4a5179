// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"fmt"
	"regexp"
	"strings"
)

// Expander substitutes "${name}"-style tokens in directive-adjacent
// text. The parser calls Expand at defined points (changeset bodies,
// rollback text, changeset attribute values) and Register when it
// encounters a property directive; it never interprets tokens itself.
type Expander interface {
	// Expand substitutes tokens in text using parameters visible from
	// scope. Unrecognized tokens are left as-is.
	Expand(text string, scope *ChangeLog) (string, error)
	// Register records a parameter from a property directive.
	Register(name, value, context, labels, dbms string, global bool, scope *ChangeLog)
}

var paramToken = regexp.MustCompile(`\$\{([^}]+)}`)

// MapExpander is a default, in-memory Expander keyed by parameter name.
// Later registrations for the same name are ignored unless global is
// true, in which case they replace the existing value, matching the
// common "first wins unless forced" convention of changelog parameter
// registries.
type MapExpander struct {
	values map[string]string
	global map[string]bool
}

// NewMapExpander returns an empty MapExpander.
func NewMapExpander() *MapExpander {
	return &MapExpander{values: map[string]string{}, global: map[string]bool{}}
}

// Register implements Expander.
func (m *MapExpander) Register(name, value, _, _, _ string, global bool, _ *ChangeLog) {
	if _, ok := m.values[name]; ok && !global {
		return
	}
	m.values[name] = value
	m.global[name] = global
}

// Expand implements Expander.
func (m *MapExpander) Expand(text string, _ *ChangeLog) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}
	return paramToken.ReplaceAllStringFunc(text, func(tok string) string {
		name := tok[2 : len(tok)-1]
		if v, ok := m.values[name]; ok {
			return v
		}
		return tok
	}), nil
}

// Set is a convenience for seeding parameters before a parse, e.g. from
// CLI flags or a config file.
func (m *MapExpander) Set(name, value string) {
	m.Register(name, value, "", "", "", true, nil)
}

// String renders the expander's current bindings, useful for debug logs.
func (m *MapExpander) String() string {
	var b strings.Builder
	for k, v := range m.values {
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	return b.String()
}
