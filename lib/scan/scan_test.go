// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"

	"github.com/bureau-foundation/assetindex/lib/classify"
	"github.com/bureau-foundation/assetindex/lib/enumerate"
	"github.com/bureau-foundation/assetindex/lib/hashindex"
)

func writeFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func writeContainer(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	var payload bytes.Buffer
	writer, err := flate.NewWriter(&payload, flate.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := writer.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	var container bytes.Buffer
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(payload.Len()))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(content)))
	container.Write(header[:])
	container.Write(payload.Bytes())
	writeFile(t, dir, name, container.Bytes())
}

func openTestIndex(t *testing.T) *hashindex.Index {
	t.Helper()
	index, err := hashindex.Open(context.Background(), hashindex.Config{
		Path:     filepath.Join(t.TempDir(), "hashes.sqb"),
		CaseFold: true,
	})
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

func TestRunMixedDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	plainContent := []byte("plain asset")
	packedContent := bytes.Repeat([]byte("packed asset "), 100)

	writeFile(t, dir, "Weapons.utx", plainContent)
	writeContainer(t, dir, "DM-Test.ut2.uz2", packedContent)
	writeFile(t, dir, "readme.txt", []byte("notes"))
	// Truncated container: header promises more payload than exists.
	writeFile(t, dir, "broken.usx.uz2", []byte{200, 0, 0, 0, 16, 0, 0, 0, 1, 2, 3})
	if err := os.Mkdir(filepath.Join(dir, "Subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := enumerate.ListDir(dir)
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}

	index := openTestIndex(t)
	scanner := New(classify.New(classify.Config{}), index, nil)
	stats, err := scanner.Run(ctx, paths)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Indexed != 2 {
		t.Errorf("indexed %d, want 2", stats.Indexed)
	}
	if stats.Skipped != 2 {
		t.Errorf("skipped %d, want 2 (directory and unrecognized type)", stats.Skipped)
	}
	if stats.Failed != 1 {
		t.Errorf("failed %d, want 1 (truncated container)", stats.Failed)
	}

	// The container is indexed under its stripped, case-folded name
	// with the digest of its decoded content.
	sum := md5.Sum(packedContent)
	records, err := index.FindByName(ctx, "dm-test.ut2")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records for container, want 1", len(records))
	}
	if records[0].Digest != hex.EncodeToString(sum[:]) {
		t.Errorf("container digest %s, want %s", records[0].Digest, hex.EncodeToString(sum[:]))
	}
	if records[0].Size != int64(len(packedContent)) {
		t.Errorf("container size %d, want decoded %d", records[0].Size, len(packedContent))
	}
}

func TestRunMissingPathCountsAsFailed(t *testing.T) {
	index := openTestIndex(t)
	scanner := New(classify.New(classify.Config{}), index, nil)

	stats, err := scanner.Run(context.Background(), []string{
		filepath.Join(t.TempDir(), "does-not-exist.utx"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 1 || stats.Indexed != 0 {
		t.Errorf("stats %+v, want one failure", stats)
	}
}

func TestRunEmptyPathList(t *testing.T) {
	index := openTestIndex(t)
	scanner := New(classify.New(classify.Config{}), index, nil)

	stats, err := scanner.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("stats %+v, want zero", stats)
	}
}
