// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package classify decides, per candidate file, how its content digest
// is computed: UZ2 containers are decoded before hashing, known plain
// asset types are hashed raw, and everything else is skipped unless
// the caller forces hashing. One classifier serves a whole scan.
package classify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/assetindex/lib/digest"
	"github.com/bureau-foundation/assetindex/lib/uz2"
)

// MaxFileSize is the on-disk size ceiling. Files beyond it are always
// skipped as oversize, regardless of extension. The limit predates the
// index format and is kept for compatibility with it.
const MaxFileSize = 2147483647

// hashBlockSize is the read granularity for plain (non-container)
// files.
const hashBlockSize = 32 * 1024

// plainExtensions is the allow-list of known plain asset types,
// compared case-insensitively without the leading dot.
var plainExtensions = map[string]bool{
	"u":   true,
	"ucl": true,
	"ukx": true,
	"uxx": true,
	"ka":  true,
	"ut2": true,
	"ogg": true,
	"uax": true,
	"usx": true,
	"utx": true,
}

// SkipReason explains why no digest was produced for a file.
// ReasonNone means the file was hashed successfully.
type SkipReason uint8

const (
	// ReasonNone: a digest was produced.
	ReasonNone SkipReason = iota

	// ReasonOversize: on-disk size exceeds MaxFileSize.
	ReasonOversize

	// ReasonUnrecognized: extension is neither the container suffix
	// nor on the plain allow-list, and force mode is off.
	ReasonUnrecognized

	// ReasonTruncated: a container ended mid-chunk.
	ReasonTruncated

	// ReasonMalformed: a container chunk declared a zero-valued size.
	ReasonMalformed

	// ReasonCorrupt: a container payload failed to inflate.
	ReasonCorrupt

	// ReasonUnreadable: the file could not be opened or read.
	ReasonUnreadable
)

// String returns the reason as reported in scan output and logs.
func (r SkipReason) String() string {
	switch r {
	case ReasonNone:
		return "hashed"
	case ReasonOversize:
		return "oversize"
	case ReasonUnrecognized:
		return "unrecognized type"
	case ReasonTruncated:
		return "truncated"
	case ReasonMalformed:
		return "malformed chunk"
	case ReasonCorrupt:
		return "corrupt data"
	case ReasonUnreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// Outcome is the result of classifying and hashing one file. When
// Reason is ReasonNone, Name, Size, and Digest describe the record to
// index. Otherwise no digest was produced and Err, when non-nil, holds
// the underlying cause.
type Outcome struct {
	// Name is the indexed name: the base name of the path, with the
	// container suffix stripped for containers.
	Name string

	// Size is the logical size: decoded length for containers, the
	// on-disk byte count otherwise.
	Size int64

	// Digest is the content digest.
	Digest digest.Digest

	// Reason is ReasonNone on success, or why the file was skipped.
	Reason SkipReason

	// Err is the underlying error for failure reasons, nil for plain
	// skips (oversize, unrecognized).
	Err error
}

// Hashed reports whether a digest was produced.
func (o Outcome) Hashed() bool {
	return o.Reason == ReasonNone
}

// Config holds the parameters for creating a Classifier.
type Config struct {
	// Logger receives per-file warnings and skip diagnostics. If nil,
	// a no-op logger is used.
	Logger *slog.Logger

	// ForceUnrecognized hashes files whose extension is not
	// recognized instead of skipping them. Bulk scans leave this off;
	// the single-file hash command turns it on. The asymmetry is
	// deliberate: bulk indexing wants only known asset types, ad hoc
	// inspection wants an answer for any file.
	ForceUnrecognized bool
}

// Classifier routes candidate files to the appropriate hashing path.
// Not safe for concurrent use.
type Classifier struct {
	decoder *uz2.Decoder
	logger  *slog.Logger
	force   bool
}

// New returns a Classifier.
func New(cfg Config) *Classifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Classifier{
		decoder: uz2.NewDecoder(logger),
		logger:  logger,
		force:   cfg.ForceUnrecognized,
	}
}

// File classifies and hashes the file at path, whose on-disk size is
// diskSize. The size ceiling is checked before any extension routing.
func (c *Classifier) File(path string, diskSize int64) Outcome {
	name := filepath.Base(path)

	if diskSize > MaxFileSize {
		c.logger.Warn("skipping oversize file", "path", path, "size", diskSize)
		return Outcome{Name: name, Reason: ReasonOversize}
	}

	if strings.HasSuffix(strings.ToLower(name), uz2.Suffix) {
		return c.container(path, name[:len(name)-len(uz2.Suffix)], diskSize)
	}

	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if !plainExtensions[extension] {
		if !c.force {
			c.logger.Debug("skipping unrecognized file type",
				"path", path,
				"extension", extension,
			)
			return Outcome{Name: name, Reason: ReasonUnrecognized}
		}
	} else if extension == "uxx" {
		// Cache files are indexable but usually transient; flag them.
		c.logger.Warn("hashing cache file", "path", path)
	}

	return c.plain(path, name, diskSize)
}

// container decodes a UZ2 container and hashes the decompressed
// stream. The indexed size is the decoded logical size, not the
// on-disk size.
func (c *Classifier) container(path, name string, diskSize int64) Outcome {
	file, err := os.Open(path)
	if err != nil {
		return Outcome{Name: name, Reason: ReasonUnreadable, Err: err}
	}
	defer file.Close()

	accumulator := digest.New()
	logicalSize, err := c.decoder.Decode(file, diskSize, accumulator)
	if err != nil {
		return Outcome{Name: name, Reason: decodeReason(err), Err: err}
	}

	return Outcome{Name: name, Size: logicalSize, Digest: accumulator.Sum()}
}

// plain hashes the raw file bytes in fixed-size blocks.
func (c *Classifier) plain(path, name string, diskSize int64) Outcome {
	file, err := os.Open(path)
	if err != nil {
		return Outcome{Name: name, Reason: ReasonUnreadable, Err: err}
	}
	defer file.Close()

	accumulator := digest.New()
	block := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(accumulator, file, block); err != nil {
		return Outcome{Name: name, Reason: ReasonUnreadable, Err: err}
	}

	return Outcome{Name: name, Size: diskSize, Digest: accumulator.Sum()}
}

// decodeReason maps a decoder error to its skip reason.
func decodeReason(err error) SkipReason {
	switch {
	case errors.Is(err, uz2.ErrTruncated):
		return ReasonTruncated
	case errors.Is(err, uz2.ErrMalformedChunk):
		return ReasonMalformed
	case errors.Is(err, uz2.ErrInflate):
		return ReasonCorrupt
	default:
		return ReasonUnreadable
	}
}
