// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package uz2 decodes the UZ2 chunked compression container used for
// compressed game asset files. A container is a sequence of chunks
// filling the file exactly, with no count field or end marker:
//
//	{u32le compressedSize; u32le uncompressedSize; byte[compressedSize] payload}
//
// Each payload is a raw deflate stream (no zlib or gzip header) whose
// decompressed length is the declared uncompressedSize. The end of the
// container is implied by the file's total size.
package uz2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/flate"
)

// Suffix is the container file extension, compared case-insensitively.
const Suffix = ".uz2"

// Chunk size bounds. These mirror the game's own chunk buffer limits:
// a well-formed encoder never exceeds them, but files in the wild do,
// and the game decodes them anyway. Exceeding a bound is therefore a
// warning, not a failure.
const (
	// MaxCompressedSize is the largest declared compressed payload a
	// conforming encoder produces.
	MaxCompressedSize = 33096

	// MaxUncompressedSize is the largest declared uncompressed chunk
	// length a conforming encoder produces.
	MaxUncompressedSize = 32768
)

// chunkHeaderSize is the two little-endian uint32 size fields.
const chunkHeaderSize = 8

// Decode failure sentinels. All are terminal for the current file
// only; callers skip the file and continue.
var (
	// ErrTruncated reports a container that ends mid-chunk: the
	// stream had fewer payload bytes than the chunk header declared.
	ErrTruncated = errors.New("uz2: container truncated mid-chunk")

	// ErrMalformedChunk reports a chunk header with a zero-valued
	// size field.
	ErrMalformedChunk = errors.New("uz2: zero-sized chunk field")

	// ErrInflate reports a corrupt deflate payload.
	ErrInflate = errors.New("uz2: inflate failure")
)

// Decoder decodes UZ2 containers, streaming decompressed bytes into a
// caller-provided sink. A Decoder is reusable across files but not
// safe for concurrent use (it reuses one inflate state).
type Decoder struct {
	logger  *slog.Logger
	inflate io.ReadCloser
}

// NewDecoder returns a Decoder. Chunk bound violations are reported
// through logger; pass nil to discard them.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Decoder{logger: logger}
}

// Decode reads chunks from r, which holds totalLength container bytes,
// and writes the decompressed stream to sink. Returns the logical
// (decompressed) length: the sum of the declared uncompressed sizes of
// all chunks.
//
// A header read that yields fewer than chunkHeaderSize bytes is a
// clean end of stream, not a failure: Decode returns successfully with
// whatever has been accumulated. A payload shorter than its declared
// size returns ErrTruncated, a zero-valued size field returns
// ErrMalformedChunk, and a corrupt payload returns an error wrapping
// ErrInflate. On any failure the sink contents are unusable and must
// be discarded by the caller.
func (d *Decoder) Decode(r io.Reader, totalLength int64, sink io.Writer) (int64, error) {
	remaining := totalLength
	var logicalSize int64
	var header [chunkHeaderSize]byte

	for chunk := 0; remaining > 0; chunk++ {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				// Expected end of stream: the last chunk consumed the
				// rest of the file.
				d.logger.Debug("end of container", "chunks", chunk)
				return logicalSize, nil
			}
			return 0, fmt.Errorf("reading chunk %d header: %w", chunk, err)
		}

		compressedSize := binary.LittleEndian.Uint32(header[0:4])
		uncompressedSize := binary.LittleEndian.Uint32(header[4:8])

		if compressedSize == 0 || uncompressedSize == 0 {
			return 0, fmt.Errorf("chunk %d declares sizes %d/%d: %w",
				chunk, compressedSize, uncompressedSize, ErrMalformedChunk)
		}
		if compressedSize > MaxCompressedSize {
			d.logger.Warn("chunk declares oversize compressed size",
				"chunk", chunk,
				"compressed_size", compressedSize,
			)
		}
		if uncompressedSize > MaxUncompressedSize {
			d.logger.Warn("chunk declares oversize uncompressed size",
				"chunk", chunk,
				"uncompressed_size", uncompressedSize,
			)
		}

		payload := make([]byte, compressedSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return 0, fmt.Errorf("chunk %d payload: %w", chunk, ErrTruncated)
			}
			return 0, fmt.Errorf("reading chunk %d payload: %w", chunk, err)
		}
		remaining -= chunkHeaderSize + int64(compressedSize)

		if err := d.inflateChunk(payload, sink); err != nil {
			return 0, fmt.Errorf("chunk %d: %w: %v", chunk, ErrInflate, err)
		}
		logicalSize += int64(uncompressedSize)
	}

	return logicalSize, nil
}

// inflateChunk decompresses one raw deflate payload into sink,
// reusing the decoder's inflate state across chunks.
func (d *Decoder) inflateChunk(payload []byte, sink io.Writer) error {
	source := bytes.NewReader(payload)
	if d.inflate == nil {
		d.inflate = flate.NewReader(source)
	} else if err := d.inflate.(flate.Resetter).Reset(source, nil); err != nil {
		return err
	}
	if _, err := io.Copy(sink, d.inflate); err != nil {
		return err
	}
	return d.inflate.Close()
}
