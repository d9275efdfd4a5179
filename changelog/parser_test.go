// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog_test

import (
	"strings"
	"testing"

	"ariga.io/changelog/changelog"
	"ariga.io/changelog/changelog/sqlchangelog"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, files map[string]string, path string, exp *changelog.MapExpander, parent *changelog.ChangeLog) (*changelog.ChangeLog, error) {
	t.Helper()
	raw := make(changelog.StaticAccessor, len(files))
	for k, v := range files {
		raw[k] = []byte(v)
	}
	if exp == nil {
		exp = changelog.NewMapExpander()
	}
	return changelog.Parse(path, sqlchangelog.New(), exp, raw, parent)
}

func TestSingleChangeSet(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--changeset alice:1\nCREATE TABLE t (id INT);\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Len(t, cl.ChangeSets, 1)
	cs := cl.ChangeSets[0]
	require.Equal(t, "1", cs.ID)
	require.Equal(t, "alice", cs.Author)
	require.Empty(t, cs.Rollback)
	ch := cs.Change.(*sqlchangelog.Change)
	require.Equal(t, "CREATE TABLE t (id INT);", ch.SQL)
}

func TestInlineRollback(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--changeset alice:1\nCREATE TABLE t (id INT);\n--rollback DROP TABLE t;\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	cs := cl.ChangeSets[0]
	require.Len(t, cs.Rollback, 1)
	rb := cs.Rollback[0].(*sqlchangelog.Change)
	require.Equal(t, "DROP TABLE t;\n", rb.SQL)
}

func TestRollbackNotRequired(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--changeset alice:1\nCREATE TABLE t (id INT);\n--rollback not required\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	cs := cl.ChangeSets[0]
	require.Len(t, cs.Rollback, 1)
	rb := cs.Rollback[0].(*sqlchangelog.Change)
	require.True(t, rb.IsEmpty())
}

func TestRollbackAcrossParent(t *testing.T) {
	parent, err := parse(t, map[string]string{
		"p.sql": "--liquibase formatted sql\n--changeset alice:1\nX;\n",
	}, "p.sql", nil, nil)
	require.NoError(t, err)

	cl, err := parse(t, map[string]string{
		"c.sql": "--liquibase formatted sql\n--changeset bob:2\nY;\n--rollback changesetId:1 changesetAuthor:alice changesetPath:p.sql\n",
	}, "c.sql", nil, parent)
	require.NoError(t, err)
	cs := cl.ChangeSets[0]
	require.Len(t, cs.Rollback, 1)
	rb := cs.Rollback[0].(*sqlchangelog.Change)
	require.Equal(t, "X;", rb.SQL)
}

func TestAltDashFormattingError(t *testing.T) {
	_, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n-changeset alice:2\nX;\n",
	}, "a.sql", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unexpected formatting at line 2")
}

func TestIgnoreLinesRange(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--ignoreLines:start\ngarbage\n--ignoreLines:end\n--changeset bob:3\nSELECT 1;\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Len(t, cl.ChangeSets, 1)
	cs := cl.ChangeSets[0]
	require.Equal(t, "3", cs.ID)
	require.Equal(t, "bob", cs.Author)
}

func TestIgnoreLinesCount(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--ignoreLines:2\nskip one\nskip two\n--changeset bob:3\nSELECT 1;\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Len(t, cl.ChangeSets, 1)
}

func TestPreconditionsMutuallyExclusive(t *testing.T) {
	_, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--changeset alice:1\n--preconditions onFail:HALT onSqlOutput:IGNORE onUpdateSql:FAIL\nX;\n",
	}, "a.sql", nil, nil)
	require.Error(t, err)
}

func TestPropertyExpansion(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--property name:tbl value:users\n--changeset alice:1\nSELECT * FROM ${tbl};\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	ch := cl.ChangeSets[0].Change.(*sqlchangelog.Change)
	require.Equal(t, "SELECT * FROM users;", ch.SQL)
}

func TestEmptyFileAfterHeader(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Empty(t, cl.ChangeSets)
}

func TestChangeSetWithNoBodyErrors(t *testing.T) {
	_, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--changeset alice:1\n",
	}, "a.sql", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "No SQL for changeset")
}

func TestUnterminatedMultiLineRollback(t *testing.T) {
	_, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--changeset alice:1\nX;\n/* liquibase rollback\nDROP TABLE t;\n",
	}, "a.sql", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not closed")
}

func TestMultiLineRollback(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n--changeset alice:1\nX;\n/* liquibase rollback\nDROP TABLE t;\n*/\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	cs := cl.ChangeSets[0]
	rb := cs.Rollback[0].(*sqlchangelog.Change)
	require.Equal(t, "DROP TABLE t;\n", rb.SQL)
}

func TestChangeSetOrderPreserved(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n" +
			"--changeset alice:1\nA;\n" +
			"--changeset bob:2\nB;\n" +
			"--changeset carol:3\nC;\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Len(t, cl.ChangeSets, 3)
	require.Equal(t, []string{"1", "2", "3"}, []string{
		cl.ChangeSets[0].ID, cl.ChangeSets[1].ID, cl.ChangeSets[2].ID,
	})
}

func TestPropertyVisibleToLaterExpansionsOnly(t *testing.T) {
	// alice's body is expanded when "--changeset bob:2" is read, which
	// is before the property directive inside bob's own block -- so
	// alice never sees it. bob's body is expanded at EOF, by which
	// time the property (registered earlier in bob's own block) is
	// visible.
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n" +
			"--changeset alice:1\nSELECT ${v};\n" +
			"--changeset bob:2\n--property name:v value:1\nSELECT ${v};\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	first := cl.ChangeSets[0].Change.(*sqlchangelog.Change)
	second := cl.ChangeSets[1].Change.(*sqlchangelog.Change)
	require.Equal(t, "SELECT ${v};", first.SQL)
	require.Equal(t, "SELECT 1;", second.SQL)
}

func TestContextFilterWinsOverContext(t *testing.T) {
	cl, err := parse(t, map[string]string{
		"a.sql": `--liquibase formatted sql
--changeset alice:1 context:"old" contextFilter:"new"
X;
`,
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "new", cl.ChangeSets[0].Contexts)
}

func TestSupportsFalseWithoutHeader(t *testing.T) {
	raw := changelog.StaticAccessor{"a.sql": []byte("CREATE TABLE t (id INT);\n")}
	require.False(t, changelog.Supports("a.sql", sqlchangelog.New(), raw))
}

func TestSupportsTrueWithHeader(t *testing.T) {
	raw := changelog.StaticAccessor{"a.sql": []byte("--liquibase formatted sql\n--changeset alice:1\nX;\n")}
	require.True(t, changelog.Supports("a.sql", sqlchangelog.New(), raw))
}

// TestCanonicalRoundTrip exercises spec.md §8's round-trip property:
// parsing a changelog, re-emitting each changeset in canonical form, and
// re-parsing that output must yield the same changesets.
func TestCanonicalRoundTrip(t *testing.T) {
	dialect := sqlchangelog.New()
	cl, err := parse(t, map[string]string{
		"a.sql": "--liquibase formatted sql\n" +
			"--changeset alice:1 contextFilter:\"prod\" labels:\"init\" dbms:\"postgresql\"\nCREATE TABLE t (id INT);\n" +
			"--changeset bob:2\nDROP TABLE u;\n",
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Len(t, cl.ChangeSets, 2)

	var reemitted strings.Builder
	reemitted.WriteString("--liquibase formatted sql\n")
	for _, cs := range cl.ChangeSets {
		text, err := changelog.Canonical(dialect, cs)
		require.NoError(t, err)
		reemitted.WriteString(text)
	}

	reparsed, err := parse(t, map[string]string{
		"a.sql": reemitted.String(),
	}, "a.sql", nil, nil)
	require.NoError(t, err)
	require.Len(t, reparsed.ChangeSets, 2)

	for i, cs := range cl.ChangeSets {
		got := reparsed.ChangeSets[i]
		require.Equal(t, cs.ID, got.ID)
		require.Equal(t, cs.Author, got.Author)
		require.Equal(t, cs.Contexts, got.Contexts)
		require.Equal(t, cs.Labels, got.Labels)
		require.Equal(t, cs.DBMS, got.DBMS)
		require.Equal(t,
			cs.Change.(*sqlchangelog.Change).SQL,
			got.Change.(*sqlchangelog.Change).SQL,
		)
	}
}
