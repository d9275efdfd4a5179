// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package main builds the changelogctl CLI: a thin cobra wrapper around
// the changelog package for parsing and inspecting formatted changelog
// directories from the command line.
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Root represents the root command when called without any
	// subcommands.
	Root = &cobra.Command{
		Use:          "changelogctl",
		Short:        "Parse and inspect formatted changelog files.",
		SilenceUsage: true,
	}

	// GlobalFlags contains flags common to every subcommand.
	GlobalFlags struct {
		// ConfigFile points at the changelogctl.yaml describing the
		// changelog directory to operate on.
		ConfigFile string
		// Verbose raises the logger's level to Debug.
		Verbose bool
	}

	log = logrus.New()
)

func init() {
	Root.PersistentFlags().StringVarP(&GlobalFlags.ConfigFile, "config", "c", "changelogctl.yaml", "path to changelogctl.yaml")
	Root.PersistentFlags().BoolVarP(&GlobalFlags.Verbose, "verbose", "v", false, "enable debug logging")
	Root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if GlobalFlags.Verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	}
	Root.AddCommand(parseCmd)
	Root.AddCommand(versionCmd)
}

// versionCmd represents the subcommand "changelogctl version".
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the changelogctl version.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("changelogctl version " + version())
	},
}

// versionString holds the changelogctl binary version. Set at build time via
// "-X 'main.versionString=...'"; empty means a development build.
var versionString string

func version() string {
	if versionString == "" {
		return "(development)"
	}
	return versionString
}
