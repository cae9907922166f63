// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the asset index.
//
// Configuration is loaded from a single YAML file specified by:
//   - ASSETINDEX_CONFIG environment variable, or
//   - --config flag passed to the command
//
// When neither is set, built-in defaults apply. There is no automatic
// discovery and environment variables never override file values —
// this keeps a scan's behavior deterministic and auditable.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the tool configuration.
type Config struct {
	// Database is the path to the SQLite index file.
	Database string `yaml:"database"`

	// CaseFold lowercases filenames when building the index, so that
	// names differing only in letter case are treated as identical.
	// Wipe and rebuild the index after changing this.
	CaseFold bool `yaml:"casefold"`

	// FlushInterval is the number of inserts between implicit index
	// flushes during a scan.
	FlushInterval int `yaml:"flush_interval"`

	// GameSubdirectories overrides the asset directories scanned in
	// game mode. Empty means the standard install layout.
	GameSubdirectories []string `yaml:"game_subdirectories"`
}

// Default returns the built-in defaults: a hashes.sqb index in the
// working directory, case-folded names, flush every 100 inserts.
func Default() *Config {
	return &Config{
		Database:      "hashes.sqb",
		CaseFold:      true,
		FlushInterval: 100,
	}
}

// Load loads configuration from the ASSETINDEX_CONFIG environment
// variable, falling back to defaults when it is unset.
func Load() (*Config, error) {
	path := os.Getenv("ASSETINDEX_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Database == "" {
		errs = append(errs, fmt.Errorf("database is required"))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("flush_interval must be positive, got %d", c.FlushInterval))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
