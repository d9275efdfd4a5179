// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

// The following are optional capability interfaces a dialect's Change
// implementation may satisfy. The parser type-asserts against them
// rather than widening the Change interface itself, so dialects that
// have no notion of e.g. an end delimiter aren't forced to implement
// a no-op.
type (
	// SplitStatementsSetter is implemented by Changes that support the
	// splitStatements / rollbackSplitStatements attribute.
	SplitStatementsSetter interface {
		SetSplitStatements(bool)
	}
	// StripCommentsSetter is implemented by Changes that support the
	// stripComments attribute.
	StripCommentsSetter interface {
		SetStripComments(bool)
	}
	// EndDelimiterSetter is implemented by Changes that support the
	// endDelimiter / rollbackEndDelimiter attribute, and the EOF
	// end-delimiter heuristic.
	EndDelimiterSetter interface {
		SetEndDelimiter(string)
	}
)
