// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"ariga.io/changelog/changelog"
	"ariga.io/changelog/changelog/sqlchangelog"
	"ariga.io/changelog/internal/config"
	"github.com/spf13/cobra"
)

// parseCmd represents the subcommand "changelogctl parse".
var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse one or more changelog files and print a summary.",
	Long: `'changelogctl parse' reads changelogctl.yaml to locate the changelog
directory and any seed parameters, then parses either the files named on
the command line or every file a registered dialect recognizes in Dir.`,
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GlobalFlags.ConfigFile)
	if err != nil {
		return err
	}
	accessor, err := changelog.NewLocalAccessor(cfg.Dir)
	if err != nil {
		return fmt.Errorf("changelogctl: %w", err)
	}

	reg := changelog.NewRegistry()
	reg.Register(sqlchangelog.New())

	params := changelog.NewMapExpander()
	for k, v := range cfg.Params {
		params.Set(k, v)
	}

	files := args
	if len(files) == 0 {
		files, err = discover(cfg, reg)
		if err != nil {
			return err
		}
	}

	var total int
	for _, f := range files {
		dialect, err := reg.For(f)
		if err != nil {
			log.WithField("file", f).Warn("no dialect recognizes this file, skipping")
			continue
		}
		cl, err := changelog.Parse(f, dialect, params, accessor, nil)
		if err != nil {
			var line int
			if pe, ok := err.(*changelog.ParseError); ok {
				line = pe.Line
			}
			log.WithField("file", f).WithField("line", line).Error(err)
			return fmt.Errorf("changelogctl: %s: %w", f, err)
		}
		log.WithFields(logrusFields(f, len(cl.ChangeSets))).Info("parsed changelog")
		for _, cs := range cl.ChangeSets {
			cmd.Printf("%s::%s::%s\n", cs.Path, cs.ID, cs.Author)
		}
		total += len(cl.ChangeSets)
	}
	cmd.Printf("%d changeset(s) across %d file(s)\n", total, len(files))
	return nil
}

// discover walks cfg.Dir for files reg has a Dialect for, honoring
// cfg.Skip, and returns them in a stable, sorted order.
func discover(cfg *config.Config, reg *changelog.Registry) ([]string, error) {
	var files []string
	err := filepath.WalkDir(cfg.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(cfg.Dir, path)
		if err != nil {
			return err
		}
		if cfg.Skips(rel) {
			return nil
		}
		if _, err := reg.For(rel); err == nil {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("changelogctl: walking %s: %w", cfg.Dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func logrusFields(file string, n int) map[string]interface{} {
	return map[string]interface{}{"file": file, "changesets": n}
}
