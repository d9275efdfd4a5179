// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"fmt"
	"strings"
)

// Sequencer is the read-side counterpart to SetSequence: a Change that
// can render its own executable text back out. It is an optional
// capability, not part of Change itself, since most callers only ever
// set a Change's sequence during parsing; only canonical-form
// re-emission needs to read it back.
type Sequencer interface {
	Sequence() string
}

// Canonical renders cs back into the directive text dialect's grammar
// would parse into an equivalent changeset: a "changeset AUTHOR:ID"
// directive carrying cs's context/labels/dbms attributes, followed by
// its body. It is used to exercise the round-trip property named in
// spec.md §8 (parse, re-emit, re-parse, same changesets); it is not a
// general pretty-printer and doesn't attempt to reproduce preconditions,
// comments, or rollback formatting.
func Canonical(dialect Dialect, cs *ChangeSet) (string, error) {
	seq, ok := cs.Change.(Sequencer)
	if !ok {
		return "", fmt.Errorf("changelog: %s's Change does not implement Sequencer", dialect.Name())
	}
	c := dialect.SingleLineCommentToken()
	var b strings.Builder
	fmt.Fprintf(&b, "%schangeset %s:%s", c, cs.Author, cs.ID)
	if cs.Contexts != "" {
		fmt.Fprintf(&b, " contextFilter:%q", cs.Contexts)
	}
	if cs.Labels != "" {
		fmt.Fprintf(&b, " labels:%q", cs.Labels)
	}
	if cs.DBMS != "" {
		fmt.Fprintf(&b, " dbms:%q", cs.DBMS)
	}
	b.WriteString("\n")
	b.WriteString(seq.Sequence())
	b.WriteString("\n")
	return b.String(), nil
}
