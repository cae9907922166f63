// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes the 128-bit content-identity digest used
// throughout the asset index. The digest is MD5: stores written by
// earlier releases of the tool hold MD5 hex strings, and digests must
// compare equal across installs, so the algorithm is part of the
// storage contract and cannot change.
package digest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
)

// Size is the digest length in bytes.
const Size = 16

// HexLength is the length of the canonical hex rendering.
const HexLength = 2 * Size

// Digest is a 128-bit content digest.
type Digest [Size]byte

// Accumulator computes a digest over a logically contiguous byte
// stream. Write may be called any number of times, in order; Sum
// finalizes the digest. An Accumulator is single-use: one file, one
// instance. Construct with [New].
type Accumulator struct {
	inner     hash.Hash
	finalized bool
}

// New returns an Accumulator ready to receive bytes.
func New() *Accumulator {
	return &Accumulator{inner: md5.New()}
}

// Write feeds the next span of the stream into the digest. Implements
// io.Writer so decoders can stream into the accumulator directly.
// Never returns an error.
func (a *Accumulator) Write(p []byte) (int, error) {
	if a.finalized {
		panic("digest: Write after Sum")
	}
	return a.inner.Write(p)
}

// Sum finalizes the accumulator and returns the digest. Callable
// exactly once; further use of the accumulator panics.
func (a *Accumulator) Sum() Digest {
	if a.finalized {
		panic("digest: Sum called twice")
	}
	a.finalized = true
	var d Digest
	copy(d[:], a.inner.Sum(nil))
	return d
}

// Format returns the canonical rendering of a digest: exactly 32
// lowercase hexadecimal characters. This is the form stored in the
// index and printed in query output.
func Format(d Digest) string {
	return hex.EncodeToString(d[:])
}

// String implements fmt.Stringer using the canonical rendering.
func (d Digest) String() string {
	return Format(d)
}

// Parse parses a 32-character hex string into a Digest. Uppercase hex
// is accepted; use [Normalize] first when the canonical string form is
// needed.
func Parse(hexString string) (Digest, error) {
	var d Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return d, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != Size {
		return d, fmt.Errorf("digest is %d bytes, want %d", len(decoded), Size)
	}
	copy(d[:], decoded)
	return d, nil
}

// Normalize validates a user-supplied digest string and returns its
// canonical form. The input is case-folded, then must be exactly 32
// hex characters. This is the validation gate for digest arguments to
// query operations.
func Normalize(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(d), nil
}
