// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"regexp"
	"strings"
)

var reNotRequired = regexp.MustCompile(`(?i)^not required.*`)

// onChangeSet handles a "changeset" directive: it finalizes whatever
// changeset was pending, then parses AUTHOR:ID and the attribute
// sub-directives from the remainder of the line to begin a new one.
func (p *parser) onChangeSet(d *directive, no int) error {
	if p.state == stateInChangeSet {
		if err := p.finalize(no, false); err != nil {
			return err
		}
	}
	rest := strings.TrimSpace(d.groups[0])
	author, id, attrs, ok := splitAuthorID(rest)
	if !ok {
		return formattingError(p.cl.Path, no, p.dialect.SequenceTypeLabel(),
			p.g.commentToken+" changeset AUTHOR:ID", p.dialect.DocumentationLink())
	}
	// Secondary, literal check: author and id must not be separated by
	// whitespace around the colon (§4.3).
	lit := regexp.MustCompile(`^` + regexp.QuoteMeta(author) + `:` + regexp.QuoteMeta(id) + `(\s|$)`)
	if strings.TrimRight(author, " \t") != author || !lit.MatchString(rest) {
		return formattingError(p.cl.Path, no, p.dialect.SequenceTypeLabel(),
			p.g.commentToken+" changeset AUTHOR:ID", p.dialect.DocumentationLink())
	}
	attrs, err := p.params.Expand(attrs, p.cl)
	if err != nil {
		return err
	}

	cs := &ChangeSet{
		ID:               id,
		Author:           author,
		Path:             p.cl.Path,
		RunInTransaction: true,
		FailOnError:      true,
	}
	cs.LogicalPath = firstNonEmpty(mustAttr(attrs, "logicalFilePath"), p.cl.LogicalPath, p.cl.Path)
	// contextFilter is preferred over the legacy context alias (§4.3, §9).
	rawContext, hasContext := extractAttr(attrs, "contextFilter")
	if !hasContext {
		rawContext, _ = extractAttr(attrs, "context")
	}
	cs.Contexts = stripQuotes(rawContext)
	cs.Labels = mustAttr(attrs, "labels")
	cs.DBMS = mustAttr(attrs, "dbms")
	cs.RunWith = mustAttr(attrs, "runWith")
	cs.RunWithSpoolFile = mustAttr(attrs, "runWithSpoolFile")
	cs.RunAlways = extractBoolAttr(attrs, "runAlways", false)
	cs.RunOnChange = extractBoolAttr(attrs, "runOnChange", false)
	cs.RunInTransaction = extractBoolAttr(attrs, "runInTransaction", true)
	cs.FailOnError = extractBoolAttr(attrs, "failOnError", true)
	cs.Ignore = extractBoolAttr(attrs, "ignore", false)

	ch := p.dialect.NewChange()
	if s, ok := ch.(StripCommentsSetter); ok {
		s.SetStripComments(extractBoolAttr(attrs, "stripComments", true))
	}
	if s, ok := ch.(SplitStatementsSetter); ok {
		s.SetSplitStatements(extractBoolAttr(attrs, "splitStatements", true))
	}
	if v, present := extractAttr(attrs, "endDelimiter"); present {
		if s, ok := ch.(EndDelimiterSetter); ok {
			s.SetEndDelimiter(v)
		}
	}
	cs.Change = ch

	rollbackSplit := extractBoolAttr(attrs, "rollbackSplitStatements", true)
	rollbackEndDelim, hasRollbackEndDelim := extractAttr(attrs, "rollbackEndDelimiter")

	p.cur = cs
	p.cl.ChangeSets = append(p.cl.ChangeSets, cs)
	p.body.Reset()
	p.rollback.Reset()
	p.rollbackSplit = &rollbackSplit
	if hasRollbackEndDelim {
		p.rollbackEndDelim = rollbackEndDelim
	} else {
		p.rollbackEndDelim = ""
	}
	p.state = stateInChangeSet
	return nil
}

// splitAuthorID extracts AUTHOR and ID from the remainder of a
// changeset directive line, and returns the rest of the line (the
// attribute sub-directives) after them.
func splitAuthorID(rest string) (author, id, attrs string, ok bool) {
	i := strings.IndexByte(rest, ':')
	if i <= 0 {
		return "", "", "", false
	}
	author = rest[:i]
	remainder := rest[i+1:]
	j := 0
	for j < len(remainder) && !isSpace(remainder[j]) {
		j++
	}
	id = remainder[:j]
	if id == "" {
		return "", "", "", false
	}
	return author, id, strings.TrimSpace(remainder[j:]), true
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func mustAttr(line, key string) string {
	v, _ := extractAttr(line, key)
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func stripQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// finalize flushes the pending changeset's body and rollback buffers
// into its Change and Rollback fields. at is the line number of
// the directive (or 0 at EOF) that ended the changeset; isEOF
// distinguishes the EOF end-delimiter-forcing step (§4.3 step 4) from
// an ordinary next-changeset boundary.
func (p *parser) finalize(at int, isEOF bool) error {
	cs := p.cur
	trimmed := strings.TrimSpace(p.body.String())
	expanded, err := p.params.Expand(trimmed, p.cl)
	if err != nil {
		return err
	}
	if expanded == "" {
		return p.errf(at, "No %s for changeset %s::%s::%s", p.dialect.SequenceTypeLabel(), cs.Path, cs.ID, cs.Author)
	}
	cs.Change.SetSequence(expanded)

	rb := p.rollback.String()
	rbTrimmed := strings.TrimSpace(rb)
	switch {
	case rbTrimmed == "":
		// no rollback specified
	case reNotRequired.MatchString(rbTrimmed):
		cs.Rollback = []Change{p.dialect.NewChange()}
	case strings.Contains(strings.ToLower(rbTrimmed), "changesetid"):
		rollback, err := resolveRollback(p.cl, at, rb)
		if err != nil {
			return err
		}
		cs.Rollback = rollback
	default:
		expandedRB, err := p.params.Expand(rb, p.cl)
		if err != nil {
			return err
		}
		rc := p.dialect.NewChange()
		rc.SetSequence(expandedRB)
		if p.rollbackSplit != nil {
			if s, ok := rc.(SplitStatementsSetter); ok {
				s.SetSplitStatements(*p.rollbackSplit)
			}
		}
		if p.rollbackEndDelim != "" {
			if s, ok := rc.(EndDelimiterSetter); ok {
				s.SetEndDelimiter(p.rollbackEndDelim)
			}
		}
		cs.Rollback = []Change{rc}
	}

	if isEOF && p.dialect.IsEndDelimiter(cs.Change) {
		if s, ok := cs.Change.(EndDelimiterSetter); ok {
			s.SetEndDelimiter("\n/$")
		}
	}
	p.cur = nil
	p.body.Reset()
	p.rollback.Reset()
	return nil
}

// onPrecondition handles a "precondition-<name>" directive; only
// sql-check is supported.
func (p *parser) onPrecondition(d *directive, no int) error {
	name := strings.ToLower(d.groups[0])
	if name != "sql-check" {
		return p.errf(no, "unknown precondition %q", name)
	}
	body := d.groups[1]
	expected, sql, ok := parseSQLCheckBody(body)
	if !ok {
		return p.errf(no, "precondition-sql-check: could not parse %q", body)
	}
	if p.cur.Preconditions == nil {
		p.cur.Preconditions = &PreconditionContainer{}
	}
	p.cur.Preconditions.Preconditions = append(p.cur.Preconditions.Preconditions, SqlCheckPrecondition{
		ExpectedResult: expected,
		SQL:            sql,
	})
	return nil
}

var (
	// sqlCheckWord matches `[expectedResult:]RESULT SQL` with a bare,
	// unquoted RESULT word.
	sqlCheckWord = regexp.MustCompile(`(?i)^(?:expectedResult:)?(\S+)\s+(.*)$`)
	// sqlCheckSingleQuoted matches a single-quoted RESULT.
	sqlCheckSingleQuoted = regexp.MustCompile(`(?i)^(?:expectedResult:)?'([^']*)'\s+(.*)$`)
	// sqlCheckDoubleQuoted matches a double-quoted RESULT.
	sqlCheckDoubleQuoted = regexp.MustCompile(`(?i)^(?:expectedResult:)?"([^"]*)"\s+(.*)$`)
)

// parseSQLCheckBody implements the three quoting patterns the source
// material supports for precondition-sql-check bodies, tried in order;
// an input matching none of them is an error (§9 open question,
// resolved per the authoritative fallback-throws behavior).
func parseSQLCheckBody(body string) (expected, sql string, ok bool) {
	for _, re := range []*regexp.Regexp{sqlCheckDoubleQuoted, sqlCheckSingleQuoted, sqlCheckWord} {
		if m := re.FindStringSubmatch(body); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}
