// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package sqlchangelog provides the SQL Dialect Adapter for the
// changelog package: comment tokens, the SQL Change type, and the
// onFail/onError/onSqlOutput/onUpdateSql precondition attributes
// specific to SQL changelogs.
package sqlchangelog

import (
	"path/filepath"
	"regexp"
	"strings"

	"ariga.io/changelog/changelog"
)

// Change is the SQL dialect's implementation of changelog.Change: raw
// SQL text plus the splitting/comment/delimiter policy a downstream
// execution engine would need.
type Change struct {
	SQL             string
	SplitStatements bool
	StripComments   bool
	EndDelimiter    string
}

// NewChange returns a Change with the dialect's defaults.
func NewChange() *Change {
	return &Change{SplitStatements: true, StripComments: true}
}

// SetSequence implements changelog.Change.
func (c *Change) SetSequence(text string) { c.SQL = text }

// Sequence implements changelog.Sequencer.
func (c *Change) Sequence() string { return c.SQL }

// IsEmpty implements changelog.Change.
func (c *Change) IsEmpty() bool { return strings.TrimSpace(c.SQL) == "" }

// SetSplitStatements implements changelog.SplitStatementsSetter.
func (c *Change) SetSplitStatements(v bool) { c.SplitStatements = v }

// SetStripComments implements changelog.StripCommentsSetter.
func (c *Change) SetStripComments(v bool) { c.StripComments = v }

// SetEndDelimiter implements changelog.EndDelimiterSetter.
func (c *Change) SetEndDelimiter(v string) { c.EndDelimiter = v }

// endDelimiterMagic is forced onto a Change's EndDelimiter at EOF when
// Dialect.IsEndDelimiter reports true (§4.3 step 4).
const endDelimiterMagic = "\n/$"

// endDelimiterHeuristic matches a line consisting only of "/" anywhere
// in the SQL, the signal that this SQL dialect uses to decide a change
// needs the end-of-batch delimiter forced at EOF.
var endDelimiterHeuristic = regexp.MustCompile(`(?m)^\s*/\s*$`)

// Dialect implements changelog.Dialect for SQL changelogs, the only
// dialect supplied by this repository; other host languages (YAML,
// XML, etc.) would supply their own Dialect value.
type Dialect struct{}

// New returns the SQL Dialect.
func New() *Dialect { return &Dialect{} }

func (Dialect) Name() string                      { return "sql" }
func (Dialect) SingleLineCommentToken() string     { return "--" }
func (Dialect) StartMultiLineCommentToken() string { return "/*" }
func (Dialect) EndMultiLineCommentToken() string   { return "*/" }
func (Dialect) DocumentationLink() string {
	return "https://docs.liquibase.com/concepts/changelogs/sql-format.html"
}
func (Dialect) SequenceTypeLabel() string { return "SQL" }
func (Dialect) Priority() int             { return changelog.DefaultPriority + 5 }

func (Dialect) SupportsExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

func (Dialect) NewChange() changelog.Change { return NewChange() }

func (Dialect) IsEndDelimiter(ch changelog.Change) bool {
	c, ok := ch.(*Change)
	if !ok {
		return false
	}
	return endDelimiterHeuristic.MatchString(c.SQL)
}

// HandlePreconditions recognizes SQL's own preconditions attributes:
// onFail, onError, and exactly one of onSqlOutput / onUpdateSql.
func (Dialect) HandlePreconditions(cs *changelog.ChangeSet, line int, rawAttrs string) error {
	if cs.Preconditions == nil {
		cs.Preconditions = &changelog.PreconditionContainer{}
	}
	pc := cs.Preconditions
	if v, ok := attr(rawAttrs, "onFail"); ok {
		pc.OnFail = v
	}
	if v, ok := attr(rawAttrs, "onError"); ok {
		pc.OnError = v
	}
	sqlOutput, hasSQLOutput := attr(rawAttrs, "onSqlOutput")
	updateSQL, hasUpdateSQL := attr(rawAttrs, "onUpdateSql")
	if hasSQLOutput && hasUpdateSQL {
		return &changelog.ParseError{Path: cs.Path, Line: line, Msg: "preconditions cannot set both onSqlOutput and onUpdateSql"}
	}
	if hasSQLOutput {
		pc.OnSqlOutput = sqlOutput
	}
	if hasUpdateSQL {
		pc.OnUpdateSQL = updateSQL
	}
	return nil
}

func attr(line, key string) (string, bool) {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(key) + `:(?:"([^"]*)"|(\S+))`)
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if strings.Contains(m[0], `:"`) {
		return m[1], true
	}
	return m[2], true
}

var (
	_ changelog.Dialect               = Dialect{}
	_ changelog.Change                = (*Change)(nil)
	_ changelog.SplitStatementsSetter = (*Change)(nil)
	_ changelog.StripCommentsSetter   = (*Change)(nil)
	_ changelog.EndDelimiterSetter    = (*Change)(nil)
	_ changelog.Sequencer             = (*Change)(nil)
)
