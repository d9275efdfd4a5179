// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"regexp"
	"strings"
)

// directiveKind tags the variants a classified line can take. It
// mirrors the "Directive (internal)" type from the data model: kind
// plus captured groups.
type directiveKind int

const (
	dBody directiveKind = iota
	dHeader
	dProperty
	dChangeSet
	dRollback
	dRollbackMultiStart
	dPreconditions
	dPrecondition
	dComment
	dValidChecksum
	dIgnoreLinesN
	dIgnoreLinesStart
	dIgnoreLinesEnd
	dAltDash
)

// directive is the classified form of a source line.
type directive struct {
	kind directiveKind
	// groups holds the regex capture groups relevant to kind.
	groups []string
	// raw is the unmodified source line.
	raw string
}

// grammar is the fixed table of directive regexes for a dialect's
// single-line comment token. It is a value, not a type hierarchy: one
// grammar per dialect, built once and reused by every parse.
type grammar struct {
	commentToken string

	header             *regexp.Regexp
	property           *regexp.Regexp
	changeset          *regexp.Regexp
	rollback           *regexp.Regexp
	rollbackMultiStart *regexp.Regexp
	rollbackEnd        *regexp.Regexp
	preconditions      *regexp.Regexp
	precondition       *regexp.Regexp
	comment            *regexp.Regexp
	validChecksum      *regexp.Regexp
	ignoreLines        *regexp.Regexp
	altDashPrefixes    []string
}

// newGrammar builds the directive grammar for a dialect's comment
// tokens. The patterns are ordered by specificity at match time in
// classify, not here.
func newGrammar(commentToken, mlStart, mlEnd string) *grammar {
	c := regexp.QuoteMeta(commentToken)
	g := &grammar{
		commentToken:  commentToken,
		header:        regexp.MustCompile(`(?i)^\s*` + c + `\s*liquibase\s+formatted\s+(\S+)(?:\s+logicalFilePath:(\S+))?\s*$`),
		property:      regexp.MustCompile(`(?i)^\s*` + c + `\s*property\s+(.*)$`),
		changeset:     regexp.MustCompile(`(?i)^\s*` + c + `\s*changeset\s+(.*)$`),
		rollback:      regexp.MustCompile(`(?i)^\s*` + c + `\s*rollback\s+(.*)$`),
		preconditions: regexp.MustCompile(`(?i)^\s*` + c + `\s*preconditions\s+(.*)$`),
		precondition:  regexp.MustCompile(`(?i)^\s*` + c + `\s*precondition-([\w-]+)\s+(.*)$`),
		comment:       regexp.MustCompile(`(?i)^\s*` + c + `\s*comment:\s*(.*)$`),
		validChecksum: regexp.MustCompile(`(?i)^\s*` + c + `\s*validCheckSum:\s*(.*)$`),
		ignoreLines:   regexp.MustCompile(`(?i)^\s*` + c + `\s*ignoreLines:\s*(start|end|\d+)\s*$`),
	}
	if mlStart != "" {
		g.rollbackMultiStart = regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(mlStart) + `\s*liquibase\s+rollback\s*$`)
	}
	if mlEnd != "" {
		g.rollbackEnd = regexp.MustCompile(regexp.QuoteMeta(mlEnd) + `\s*$`)
	}
	if len(commentToken) >= 2 {
		g.altDashPrefixes = []string{commentToken[:len(commentToken)-1]}
	}
	return g
}

// classify matches line against the grammar in the precedence order
// described by spec.md §4.1: property, header, ignoreLines, changeset,
// comment (recognized everywhere so the parser can reject it outside a
// changeset), then (when inChangeSet) validCheckSum/rollback
// multi-start/rollback/preconditions/precondition-X, then alt-dash,
// else body.
func (g *grammar) classify(line string, inChangeSet, isFirstLine bool) *directive {
	if m := g.property.FindStringSubmatch(line); m != nil {
		return &directive{kind: dProperty, groups: m[1:], raw: line}
	}
	if isFirstLine {
		if m := g.header.FindStringSubmatch(line); m != nil {
			return &directive{kind: dHeader, groups: m[1:], raw: line}
		}
	}
	if m := g.ignoreLines.FindStringSubmatch(line); m != nil {
		switch strings.ToLower(m[1]) {
		case "start":
			return &directive{kind: dIgnoreLinesStart, raw: line}
		case "end":
			return &directive{kind: dIgnoreLinesEnd, raw: line}
		default:
			return &directive{kind: dIgnoreLinesN, groups: m[1:], raw: line}
		}
	}
	if m := g.changeset.FindStringSubmatch(line); m != nil {
		return &directive{kind: dChangeSet, groups: m[1:], raw: line}
	}
	if m := g.comment.FindStringSubmatch(line); m != nil {
		return &directive{kind: dComment, groups: m[1:], raw: line}
	}
	if inChangeSet {
		if m := g.validChecksum.FindStringSubmatch(line); m != nil {
			return &directive{kind: dValidChecksum, groups: m[1:], raw: line}
		}
		if g.rollbackMultiStart != nil && g.rollbackMultiStart.MatchString(line) {
			return &directive{kind: dRollbackMultiStart, raw: line}
		}
		if m := g.rollback.FindStringSubmatch(line); m != nil {
			return &directive{kind: dRollback, groups: m[1:], raw: line}
		}
		if m := g.preconditions.FindStringSubmatch(line); m != nil {
			return &directive{kind: dPreconditions, groups: m[1:], raw: line}
		}
		if m := g.precondition.FindStringSubmatch(line); m != nil {
			return &directive{kind: dPrecondition, groups: m[1:], raw: line}
		}
	}
	if g.isAltDash(line) {
		return &directive{kind: dAltDash, raw: line}
	}
	return &directive{kind: dBody, raw: line}
}

// isAltDash recognizes common misspellings of the comment token (e.g.
// a single dash where the dialect expects a double dash) immediately
// followed by a known directive keyword. These exist only to produce
// a precise formatting error; they never succeed as directives.
func (g *grammar) isAltDash(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, alt := range g.altDashPrefixes {
		if !strings.HasPrefix(trimmed, alt) {
			continue
		}
		// Exclude the real comment token itself (e.g. "--" has "-" as
		// its alt-dash prefix, but "--changeset" must not match here).
		if strings.HasPrefix(trimmed, g.commentToken) {
			continue
		}
		rest := strings.TrimLeft(trimmed[len(alt):], " \t")
		for _, kw := range altDashKeywords {
			if strings.HasPrefix(strings.ToLower(rest), kw) {
				return true
			}
		}
	}
	return false
}

var altDashKeywords = []string{
	"changeset", "rollback", "property", "preconditions",
	"precondition-", "comment", "validchecksum", "ignorelines",
	"liquibase formatted",
}

// extractAttr pulls a "key:value" attribute from anywhere in line,
// matched to end-of-word, with an optional double-quoted form. It
// implements the attribute sub-directive parsing described in §4.3.
func extractAttr(line, key string) (string, bool) {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(key) + `:(?:"([^"]*)"|(\S+))`)
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if strings.Contains(m[0], `:"`) {
		return m[1], true
	}
	return strings.Trim(m[2], `"`), true
}

// extractBoolAttr parses a boolean attribute, defaulting to def when
// absent.
func extractBoolAttr(line, key string, def bool) bool {
	v, ok := extractAttr(line, key)
	if !ok {
		return def
	}
	return strings.EqualFold(v, "true")
}
