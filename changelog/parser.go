// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// parserState is the Parser State Machine's (P) current mode.
type parserState int

const (
	stateBeforeFirstChangeSet parserState = iota
	stateInChangeSet
	stateInIgnoreBlock
	stateInMultiLineRollback
)

// Parse reads path via accessor, selects dialect's grammar, and
// produces a ChangeLog. parent, if non-nil, is consulted by the
// Rollback Resolver when a rollback references a changeset by
// (path, author, id) not found in the changelog being parsed.
func Parse(path string, dialect Dialect, params Expander, accessor Accessor, parent *ChangeLog) (*ChangeLog, error) {
	rc, err := accessor.Open(path)
	if err != nil {
		return nil, wrapErr(path, 0, err, "open: %v", err)
	}
	defer rc.Close()

	cl := &ChangeLog{Path: path, Params: params, Parent: parent}
	g := newGrammar(dialect.SingleLineCommentToken(), dialect.StartMultiLineCommentToken(), dialect.EndMultiLineCommentToken())
	ls := newLineScanner(bufio.NewScanner(rc))

	p := &parser{cl: cl, g: g, dialect: dialect, params: params, ls: ls}
	if err := p.run(); err != nil {
		return nil, err
	}
	return cl, nil
}

// Supports reports whether path's first non-blank line matches the
// changelog-header sentinel for dialect. It does not consult or
// mutate parser state; it is a cheap pre-check an external factory can
// use to pick a dialect.
func Supports(path string, dialect Dialect, accessor Accessor) bool {
	rc, err := accessor.Open(path)
	if err != nil {
		return false
	}
	defer rc.Close()
	g := newGrammar(dialect.SingleLineCommentToken(), "", "")
	ls := newLineScanner(bufio.NewScanner(rc))
	line, _, ok := ls.firstNonBlank()
	if !ok {
		return false
	}
	return g.header.MatchString(line)
}

// parser threads the Parser State Machine's mutable state through the
// main loop: the changelog being built, the current state, the
// changeset under construction, and its body/rollback buffers.
type parser struct {
	cl      *ChangeLog
	g       *grammar
	dialect Dialect
	params  Expander
	ls      *lineScanner

	state parserState
	// prevState is restored when an ignore block ends.
	prevState parserState

	cur              *ChangeSet
	body             strings.Builder
	rollback         strings.Builder
	rollbackSplit    *bool
	rollbackEndDelim string
	ignoreRemaining  int
	// sawFirstLine marks that the very first non-blank line (the only
	// position where a changelog-header directive is recognized, §4.1)
	// has already been dispatched.
	sawFirstLine bool
}

func (p *parser) errf(line int, format string, args ...interface{}) error {
	return newErr(p.cl.Path, line, format, args...)
}

func (p *parser) run() error {
	// The first non-blank line is fed into the normal dispatch loop
	// like any other line, so a logicalFilePath: side effect on a
	// matching header takes effect (§4.2). A non-matching first line
	// is not fatal here -- only Supports() reports false for that;
	// Parse proceeds and lets the grammar classify it as usual.
	first, firstNo, ok := p.ls.firstNonBlank()
	if !ok {
		return p.atEOF()
	}
	return p.loop(first, firstNo)
}

// loop drives the main classify/dispatch cycle. If pending/pendingNo
// is non-zero, that line (already read by run's header pre-scan) is
// processed first.
func (p *parser) loop(pending string, pendingNo int) error {
	line, no, ok := pending, pendingNo, pendingNo > 0
	for {
		if !ok {
			line, no, ok = p.ls.next()
			if !ok {
				return p.atEOF()
			}
		}
		if err := p.dispatch(line, no); err != nil {
			return err
		}
		ok = false
	}
}

func (p *parser) dispatch(line string, no int) error {
	isFirst := !p.sawFirstLine
	p.sawFirstLine = true
	switch p.state {
	case stateInIgnoreBlock:
		if p.ignoreRemaining > 0 {
			p.ignoreRemaining--
			if p.ignoreRemaining == 0 {
				p.state = p.prevState
			}
			return nil
		}
		d := p.g.classify(line, p.prevState == stateInChangeSet, isFirst)
		if d.kind == dIgnoreLinesEnd {
			p.state = p.prevState
		}
		return nil
	case stateInMultiLineRollback:
		if p.g.rollbackEnd != nil && p.g.rollbackEnd.MatchString(line) {
			// Strip the closing token; if nothing else was on this
			// line, don't add a trailing blank line for it (§8
			// invariant 10).
			if rest := strings.TrimRight(p.g.rollbackEnd.ReplaceAllString(line, ""), " \t"); rest != "" {
				p.rollback.WriteString(rest)
				p.rollback.WriteString("\n")
			}
			p.state = stateInChangeSet
			return nil
		}
		p.rollback.WriteString(line)
		p.rollback.WriteString("\n")
		return nil
	}

	d := p.g.classify(line, p.state == stateInChangeSet, isFirst)
	switch d.kind {
	case dAltDash:
		return formattingError(p.cl.Path, no, p.dialect.SequenceTypeLabel(),
			fmt.Sprintf("%s changeset AUTHOR:ID", p.g.commentToken), p.dialect.DocumentationLink())
	case dProperty:
		return p.onProperty(d)
	case dHeader:
		if len(d.groups) > 1 && d.groups[1] != "" {
			p.cl.LogicalPath = d.groups[1]
		}
		return nil
	case dIgnoreLinesStart:
		p.prevState = p.state
		p.state = stateInIgnoreBlock
		p.ignoreRemaining = 0
		return nil
	case dIgnoreLinesN:
		n, err := strconv.Atoi(d.groups[0])
		if err != nil {
			return p.errf(no, "ignoreLines: value %q is not a number", d.groups[0])
		}
		p.prevState = p.state
		p.state = stateInIgnoreBlock
		p.ignoreRemaining = n
		if n == 0 {
			p.state = p.prevState
		}
		return nil
	case dChangeSet:
		return p.onChangeSet(d, no)
	case dComment:
		if p.state != stateInChangeSet {
			return p.errf(no, "comment directive is only valid inside a changeset")
		}
		p.cur.Comments = d.groups[0]
		return nil
	case dValidChecksum:
		if p.state != stateInChangeSet {
			return p.errf(no, "validCheckSum directive is only valid inside a changeset")
		}
		p.cur.ValidCheckSums = append(p.cur.ValidCheckSums, strings.TrimSpace(d.groups[0]))
		return nil
	case dRollback:
		if p.state != stateInChangeSet {
			return p.errf(no, "rollback directive is only valid inside a changeset")
		}
		p.rollback.WriteString(d.groups[0])
		p.rollback.WriteString("\n")
		return nil
	case dRollbackMultiStart:
		if p.state != stateInChangeSet {
			return p.errf(no, "rollback directive is only valid inside a changeset")
		}
		if p.dialect.StartMultiLineCommentToken() == "" || p.dialect.EndMultiLineCommentToken() == "" {
			return p.errf(no, "dialect %s does not support multi-line rollback comments", p.dialect.Name())
		}
		p.state = stateInMultiLineRollback
		return nil
	case dPreconditions:
		if p.state != stateInChangeSet {
			return p.errf(no, "preconditions directive is only valid inside a changeset")
		}
		if p.cur.Preconditions == nil {
			p.cur.Preconditions = &PreconditionContainer{}
		}
		if v, ok := extractAttr(d.groups[0], "onFail"); ok {
			p.cur.Preconditions.OnFail = v
		}
		if v, ok := extractAttr(d.groups[0], "onError"); ok {
			p.cur.Preconditions.OnError = v
		}
		return p.dialect.HandlePreconditions(p.cur, no, d.groups[0])
	case dPrecondition:
		if p.state != stateInChangeSet {
			return p.errf(no, "precondition-%s directive is only valid inside a changeset", d.groups[0])
		}
		return p.onPrecondition(d, no)
	default: // dBody
		p.body.WriteString(line)
		p.body.WriteString("\n")
		return nil
	}
}

func (p *parser) atEOF() error {
	switch p.state {
	case stateInMultiLineRollback:
		return p.errf(0, "Liquibase rollback comment is not closed.")
	case stateInChangeSet:
		return p.finalize(0, true)
	default:
		return nil
	}
}

func (p *parser) onProperty(d *directive) error {
	rest := d.groups[0]
	name, _ := extractAttr(rest, "name")
	value, _ := extractAttr(rest, "value")
	context, _ := extractAttr(rest, "context")
	labels, _ := extractAttr(rest, "labels")
	dbms, _ := extractAttr(rest, "dbms")
	global := extractBoolAttr(rest, "global", true)
	p.params.Register(name, value, context, labels, dbms, global, p.cl)
	return nil
}
