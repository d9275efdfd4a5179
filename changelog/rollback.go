// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"regexp"
	"strings"
)

var (
	reChangeSetID     = regexp.MustCompile(`(?i)changesetid:(\S+)`)
	reChangeSetAuthor = regexp.MustCompile(`(?i)changesetauthor:(\S+)`)
	reChangeSetPath   = regexp.MustCompile(`(?i)changesetpath:(\S+)`)
)

// resolveRollback is the Rollback Resolver (R): given the raw rollback
// buffer of a changeset whose rollback references another changeset by
// (path, author, id), it walks up the ChangeLog.Parent chain to locate
// that changeset and returns its Changes, in their original order, to
// be attached (by reference, not copied) as the current changeset's
// rollback.
func resolveRollback(cl *ChangeLog, line int, buf string) ([]Change, error) {
	collapsed := strings.ReplaceAll(strings.ReplaceAll(buf, "\r\n", "\n"), "\r", "\n")
	idm := reChangeSetID.FindStringSubmatch(collapsed)
	authorm := reChangeSetAuthor.FindStringSubmatch(collapsed)
	if idm == nil || authorm == nil {
		return nil, newErr(cl.Path, line, "rollback reference must set both changeSetId and changeSetAuthor")
	}
	id, author := idm[1], authorm[1]
	path := cl.Path
	if pm := reChangeSetPath.FindStringSubmatch(collapsed); pm != nil {
		path = pm[1]
	}
	for at := cl; at != nil; at = at.Parent {
		if cs := findChangeSet(at, path, author, id); cs != nil {
			return []Change{cs.Change}, nil
		}
	}
	return nil, newErr(cl.Path, line, "Change set %s:%s:%s does not exist", path, author, id)
}

func findChangeSet(cl *ChangeLog, path, author, id string) *ChangeSet {
	for _, cs := range cl.ChangeSets {
		csPath := cs.Path
		if csPath == "" {
			csPath = cl.Path
		}
		if csPath == path && cs.Author == author && cs.ID == id {
			return cs
		}
	}
	return nil
}
