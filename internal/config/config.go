// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package config loads changelogctl.yaml, the on-disk configuration for
// a directory of changelog files: a dialect name, any seed parameters
// to register before parsing, and files to skip.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of changelogctl.yaml.
type Config struct {
	// Dir is the directory the Accessor is rooted at. It is used as
	// written: a relative Dir is resolved against the working directory,
	// not the config file's location.
	Dir string `yaml:"dir"`
	// Dialect names a Dialect (e.g. "sql"). Load reads it, but the
	// changelogctl parse command does not consult it: dialects are always
	// detected per file via Registry.For.
	Dialect string `yaml:"dialect"`
	// Params seeds the Expander before the first parse, e.g. values a
	// property directive would otherwise need to supply.
	Params map[string]string `yaml:"params"`
	// Skip lists file names the CLI should not attempt to parse even if
	// present in Dir.
	Skip []string `yaml:"skip"`
}

// Load reads and parses a changelogctl.yaml file from path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if c.Dir == "" {
		c.Dir = "."
	}
	return &c, nil
}

// Skips reports whether name is in the configured Skip list.
func (c *Config) Skips(name string) bool {
	for _, s := range c.Skip {
		if s == name {
			return true
		}
	}
	return false
}
