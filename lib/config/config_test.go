// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Database != "hashes.sqb" {
		t.Errorf("default database %q, want hashes.sqb", cfg.Database)
	}
	if !cfg.CaseFold {
		t.Error("case folding should default on")
	}
	if cfg.FlushInterval != 100 {
		t.Errorf("default flush interval %d, want 100", cfg.FlushInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults fail validation: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, "database: /data/index.sqb\nflush_interval: 50\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database != "/data/index.sqb" {
		t.Errorf("database %q, want /data/index.sqb", cfg.Database)
	}
	if cfg.FlushInterval != 50 {
		t.Errorf("flush interval %d, want 50", cfg.FlushInterval)
	}
	// Unset keys keep their defaults.
	if !cfg.CaseFold {
		t.Error("casefold default lost during merge")
	}
}

func TestLoadFileGameSubdirectories(t *testing.T) {
	path := writeConfig(t, "game_subdirectories: [Maps, Textures]\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.GameSubdirectories) != 2 || cfg.GameSubdirectories[0] != "Maps" {
		t.Errorf("game subdirectories %v, want [Maps Textures]", cfg.GameSubdirectories)
	}
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	for _, content := range []string{
		"database: \"\"\n",
		"flush_interval: 0\n",
		"flush_interval: -3\n",
	} {
		path := writeConfig(t, content)
		if _, err := LoadFile(path); err == nil {
			t.Errorf("LoadFile accepted invalid config %q", content)
		}
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile accepted a missing file")
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	path := writeConfig(t, "database: env.sqb\n")
	t.Setenv("ASSETINDEX_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "env.sqb" {
		t.Errorf("database %q, want env.sqb", cfg.Database)
	}
}

func TestLoadWithoutEnvironmentFallsBack(t *testing.T) {
	t.Setenv("ASSETINDEX_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != Default().Database {
		t.Errorf("database %q, want default", cfg.Database)
	}
}
