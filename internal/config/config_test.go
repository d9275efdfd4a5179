// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"ariga.io/changelog/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelogctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dir: changelogs
dialect: sql
params:
  schema: public
skip:
  - draft.sql
`), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "changelogs", c.Dir)
	require.Equal(t, "sql", c.Dialect)
	require.Equal(t, "public", c.Params["schema"])
	require.True(t, c.Skips("draft.sql"))
	require.False(t, c.Skips("other.sql"))
}

func TestLoadDefaultsDirToCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelogctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: sql\n"), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ".", c.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
