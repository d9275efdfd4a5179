// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

// Dialect is the capability set a host language plugs in to get a
// formatted-changelog parser for free: comment tokens, a Change
// factory, and the handful of behaviors spec.md calls out as
// dialect-specific (end-delimiter heuristics, extra precondition
// attributes). It replaces the abstract-base-class-with-subclasses
// shape of the source material with a capability record of plain
// methods, so Parser takes a Dialect value rather than being
// subclassed per host language.
type Dialect interface {
	// Name identifies the dialect, e.g. "sql".
	Name() string
	// SingleLineCommentToken is the token that opens a directive line,
	// e.g. "--" for SQL.
	SingleLineCommentToken() string
	// StartMultiLineCommentToken and EndMultiLineCommentToken bound a
	// multi-line rollback block, e.g. "/*" and "*/" for SQL. A dialect
	// that returns "" for either does not support multi-line rollback
	// and must error if one is attempted (see §9 design notes).
	StartMultiLineCommentToken() string
	EndMultiLineCommentToken() string
	// SupportsExtension reports whether this dialect should handle the
	// given path, based on its file extension.
	SupportsExtension(path string) bool
	// NewChange returns a fresh Change value for use as either the
	// primary change or a rollback change of a changeset.
	NewChange() Change
	// DocumentationLink and SequenceTypeLabel are interpolated into
	// formatting-error messages (§7).
	DocumentationLink() string
	SequenceTypeLabel() string
	// IsEndDelimiter reports whether the dialect's end-delimiter
	// heuristic applies to ch; used only at EOF finalization to force
	// a trailing delimiter (§4.3 step 4).
	IsEndDelimiter(ch Change) bool
	// HandlePreconditions lets the dialect recognize its own
	// precondition attributes (e.g. SQL's onSqlOutput/onUpdateSql) on
	// the "preconditions" directive line. rawAttrs is the unsplit
	// remainder of that line after the "preconditions" keyword.
	HandlePreconditions(cs *ChangeSet, line int, rawAttrs string) error
	// Priority is used by a Registry to pick among dialects that both
	// claim to support a given extension.
	Priority() int
}
