// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hashindex

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const (
	digestA = "0123456789abcdef0123456789abcdef"
	digestB = "fedcba9876543210fedcba9876543210"
	digestC = "00112233445566778899aabbccddeeff"
)

// openTestIndex opens an index on a fresh database under t.TempDir.
func openTestIndex(t *testing.T, cfg Config) *Index {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "hashes.sqb")
	}
	index, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

func mustInsert(t *testing.T, index *Index, name string, size int64, digestHex string) {
	t.Helper()
	if err := index.Insert(context.Background(), name, size, digestHex); err != nil {
		t.Fatalf("inserting %s: %v", name, err)
	}
}

func TestInsertAndFindByName(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	mustInsert(t, index, "citymap.ut2", 2048, digestA)

	// No explicit commit: queries must observe buffered inserts.
	records, err := index.FindByName(ctx, "citymap.ut2")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Name != "citymap.ut2" || records[0].Size != 2048 || records[0].Digest != digestA {
		t.Errorf("unexpected record %+v", records[0])
	}
}

func TestCaseFoldingOnInsert(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{CaseFold: true})

	mustInsert(t, index, "CityMap.UT2", 100, digestA)

	records, err := index.FindByName(ctx, "citymap.ut2")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("case-folded insert not found under lowercase name, got %d records", len(records))
	}
	if records[0].Name != "citymap.ut2" {
		t.Errorf("stored name %q, want lowercased", records[0].Name)
	}
}

func TestInsertRejectsBadDigestLength(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	err := index.Insert(ctx, "file.utx", 1, "abcdef")
	if !errors.Is(err, ErrInvalidDigest) {
		t.Errorf("short digest: got %v, want ErrInvalidDigest", err)
	}
}

func TestFindByDigestNormalizesArgument(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	mustInsert(t, index, "sound.uax", 512, digestA)

	records, err := index.FindByDigest(ctx, strings.ToUpper(digestA))
	if err != nil {
		t.Fatalf("FindByDigest with uppercase argument: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}

	if _, err := index.FindByDigest(ctx, "not-a-digest"); !errors.Is(err, ErrInvalidDigest) {
		t.Errorf("invalid digest: got %v, want ErrInvalidDigest", err)
	}
}

func TestFindByNameRejectsInvalidQueries(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	for _, name := range []string{"", "a; b", "a:b"} {
		if _, err := index.FindByName(ctx, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("FindByName(%q): got %v, want ErrInvalidName", name, err)
		}
	}
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	records, err := index.FindByDigest(ctx, digestA)
	if err != nil {
		t.Fatalf("FindByDigest on empty index: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records from empty index", len(records))
	}
}

func TestCountAcrossFlushBoundaries(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{FlushInterval: 2})

	for i := 0; i < 5; i++ {
		mustInsert(t, index, "same.utx", 10, digestA)
	}

	count, err := index.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 5 {
		t.Errorf("count %d, want 5", count)
	}
}

func TestReopenPreservesRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hashes.sqb")

	index := openTestIndex(t, Config{Path: path})
	mustInsert(t, index, "a.utx", 1, digestA)
	mustInsert(t, index, "b.utx", 2, digestB)
	if err := index.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	reopened := openTestIndex(t, Config{Path: path})
	mustInsert(t, reopened, "c.utx", 3, digestC)

	records, err := reopened.Dump(ctx)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records after reopen, want 3", len(records))
	}
	for i, want := range []string{"a.utx", "b.utx", "c.utx"} {
		if records[i].Name != want {
			t.Errorf("record %d name %q, want %q", i, records[i].Name, want)
		}
	}
}

func TestClearOnOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hashes.sqb")

	index := openTestIndex(t, Config{Path: path})
	mustInsert(t, index, "old.utx", 1, digestA)
	if err := index.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	cleared := openTestIndex(t, Config{Path: path, Clear: true})
	count, err := cleared.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count %d after clear, want 0", count)
	}
}

func TestDuplicateGroups(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	mustInsert(t, index, "dup.utx", 10, digestA)
	mustInsert(t, index, "dup.utx", 10, digestA)
	mustInsert(t, index, "unique.utx", 20, digestB)

	groups, err := index.DuplicateGroups(ctx)
	if err != nil {
		t.Fatalf("DuplicateGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Name != "dup.utx" || groups[0].Digest != digestA || groups[0].Count != 2 {
		t.Errorf("unexpected group %+v", groups[0])
	}
}

func TestDuplicateDigestsIgnoresNames(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	// Same content under two names: a digest duplicate but not a
	// (filename, digest) duplicate.
	mustInsert(t, index, "copy1.utx", 10, digestA)
	mustInsert(t, index, "copy2.utx", 10, digestA)

	nameGroups, err := index.DuplicateGroups(ctx)
	if err != nil {
		t.Fatalf("DuplicateGroups: %v", err)
	}
	if len(nameGroups) != 0 {
		t.Errorf("got %d name groups, want 0", len(nameGroups))
	}

	digestGroups, err := index.DuplicateDigests(ctx)
	if err != nil {
		t.Fatalf("DuplicateDigests: %v", err)
	}
	if len(digestGroups) != 1 {
		t.Fatalf("got %d digest groups, want 1", len(digestGroups))
	}
	if digestGroups[0].Count != 2 {
		t.Errorf("group count %d, want 2", digestGroups[0].Count)
	}
}

func TestRemoveDuplicatesKeepsOnePerGroup(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	mustInsert(t, index, "a.utx", 10, digestA)
	mustInsert(t, index, "a.utx", 10, digestA)
	mustInsert(t, index, "b.utx", 20, digestB)

	removed, err := index.RemoveDuplicates(ctx)
	if err != nil {
		t.Fatalf("RemoveDuplicates: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d rows, want 1", removed)
	}

	records, err := index.Dump(ctx)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records after dedupe, want 2", len(records))
	}
	if records[0].Name != "a.utx" || records[1].Name != "b.utx" {
		t.Errorf("unexpected survivors %+v", records)
	}
}

func TestRemoveDuplicatesAcrossReopen(t *testing.T) {
	// Ids continue past a reopen, so a row inserted in a later session
	// is the survivor of its duplicate group.
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hashes.sqb")

	index := openTestIndex(t, Config{Path: path})
	mustInsert(t, index, "a.utx", 10, digestA)
	mustInsert(t, index, "a.utx", 10, digestA)
	if err := index.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	reopened := openTestIndex(t, Config{Path: path})
	mustInsert(t, reopened, "a.utx", 10, digestA)

	removed, err := reopened.RemoveDuplicates(ctx)
	if err != nil {
		t.Fatalf("RemoveDuplicates: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d rows, want 2", removed)
	}

	count, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count %d after dedupe, want 1", count)
	}
}

func TestRemoveDuplicatesIdempotent(t *testing.T) {
	ctx := context.Background()
	index := openTestIndex(t, Config{})

	mustInsert(t, index, "a.utx", 10, digestA)
	mustInsert(t, index, "a.utx", 10, digestA)

	if _, err := index.RemoveDuplicates(ctx); err != nil {
		t.Fatalf("first RemoveDuplicates: %v", err)
	}
	removed, err := index.RemoveDuplicates(ctx)
	if err != nil {
		t.Fatalf("second RemoveDuplicates: %v", err)
	}
	if removed != 0 {
		t.Errorf("second pass removed %d rows, want 0", removed)
	}
}
