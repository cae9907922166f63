// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scan drives a bulk indexing run: it walks an ordered list
// of candidate paths, hands each file to the classifier, and inserts
// successful digests into the index. One file's failure never aborts
// the batch; a store durability failure does.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/assetindex/lib/classify"
	"github.com/bureau-foundation/assetindex/lib/digest"
	"github.com/bureau-foundation/assetindex/lib/hashindex"
)

// Stats summarizes one scan run.
type Stats struct {
	// Indexed is the number of records inserted.
	Indexed int

	// Skipped is the number of files skipped without error
	// (directories, unrecognized types, oversize files).
	Skipped int

	// Failed is the number of files abandoned on a per-file error
	// (unreadable, truncated, malformed, corrupt).
	Failed int
}

// Scanner runs bulk scans against one classifier and one index.
type Scanner struct {
	classifier *classify.Classifier
	index      *hashindex.Index
	logger     *slog.Logger
}

// New returns a Scanner. A nil logger discards diagnostics.
func New(classifier *classify.Classifier, index *hashindex.Index, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Scanner{
		classifier: classifier,
		index:      index,
		logger:     logger,
	}
}

// Run processes candidate paths in order. Directories are skipped.
// Partial work on an abandoned file is discarded, never indexed.
// Returns an error only when the index cannot make inserts durable —
// the one failure that must abort the run, since resuming with an
// ambiguous buffer risks silent data loss. A final commit flushes the
// batch before returning.
func (s *Scanner) Run(ctx context.Context, paths []string) (Stats, error) {
	var stats Stats

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			stats.Failed++
			continue
		}
		if info.IsDir() {
			s.logger.Debug("skipping directory", "path", path)
			stats.Skipped++
			continue
		}

		outcome := s.classifier.File(path, info.Size())
		if !outcome.Hashed() {
			if outcome.Err != nil {
				s.logger.Warn("file not indexed",
					"path", path,
					"reason", outcome.Reason.String(),
					"error", outcome.Err,
				)
				stats.Failed++
			} else {
				s.logger.Debug("file skipped",
					"path", path,
					"reason", outcome.Reason.String(),
				)
				stats.Skipped++
			}
			continue
		}

		err = s.index.Insert(ctx, outcome.Name, outcome.Size, digest.Format(outcome.Digest))
		if err != nil {
			return stats, fmt.Errorf("scan: indexing %s: %w", path, err)
		}
		stats.Indexed++
		s.logger.Debug("indexed",
			"name", outcome.Name,
			"size", outcome.Size,
			"digest", digest.Format(outcome.Digest),
		)
	}

	if err := s.index.Commit(ctx); err != nil {
		return stats, fmt.Errorf("scan: final commit: %w", err)
	}
	return stats, nil
}
