// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package enumerate lists candidate files for a scan. Enumeration is
// deliberately non-recursive: game installs keep each asset type in a
// flat directory, and recursing would pull in mod tools, screenshots,
// and other noise.
package enumerate

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// GameSubdirectories are the standard asset directories of a game
// install, scanned by game mode in this order.
var GameSubdirectories = []string{
	"Animations",
	"KarmaData",
	"Maps",
	"Music",
	"Sounds",
	"System",
	"Textures",
}

// ListDir returns the full paths of all entries directly under dir,
// in lexical order. Directories are included; the scan orchestrator
// skips them. Returns an error only if dir itself cannot be read.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("enumerate: reading %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// GameDirs returns the asset directories that exist under a game
// install root, preserving the order of subdirs. Missing or non-
// directory entries are reported through logger and omitted.
func GameDirs(root string, subdirs []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	if len(subdirs) == 0 {
		subdirs = GameSubdirectories
	}

	var dirs []string
	for _, name := range subdirs {
		dir := filepath.Join(root, name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logger.Warn("game directory missing", "directory", name)
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}
