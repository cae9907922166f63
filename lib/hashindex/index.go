// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hashindex is the durable digest index: a SQLite table of
// (id, filename, size, digest) rows with point lookups and
// duplicate-group queries.
//
// The table shape is a storage contract shared with earlier releases
// of the tool — indexes built by them must load unchanged:
//
//	CREATE TABLE hashes(id INTEGER PRIMARY KEY, filename TEXT,
//	                    size INTEGER, digest TEXT)
//
// Inserts are buffered in memory and flushed in one transaction every
// FlushInterval rows, bounding both data loss on a crash and the
// per-row transaction cost across a multi-hour scan. Queries flush
// first, so reads always observe prior inserts.
package hashindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/assetindex/lib/digest"
	"github.com/bureau-foundation/assetindex/lib/sqlitepool"
)

// DefaultFlushInterval is the number of buffered inserts that trigger
// an implicit flush.
const DefaultFlushInterval = 100

// Validation sentinels for query and insert arguments.
var (
	// ErrInvalidDigest reports a digest argument that is not exactly
	// 32 hex characters.
	ErrInvalidDigest = errors.New("hashindex: digest must be exactly 32 hex characters")

	// ErrInvalidName reports a filename query containing characters
	// that never occur in indexed names.
	ErrInvalidName = errors.New("hashindex: invalid filename query")
)

// Record is one indexed file: the triple returned by point lookups.
type Record struct {
	// Name is the indexed filename (lowercased when the index was
	// built with case-folding).
	Name string

	// Size is the logical file size: decoded length for containers,
	// on-disk byte count otherwise.
	Size int64

	// Digest is the 32-character lowercase hex content digest.
	Digest string
}

// Group is one duplicate group: rows sharing a (filename, digest)
// pair, or sharing a digest alone, depending on the query.
type Group struct {
	// Name is the filename of one member of the group.
	Name string

	// Digest is the shared content digest.
	Digest string

	// Count is the number of rows in the group, always > 1.
	Count int64
}

// Config holds the parameters for opening an index.
type Config struct {
	// Path is the SQLite database file. Created if absent.
	Path string

	// CaseFold lowercases filenames on insert so that names differing
	// only in letter case share identity. Changing this setting
	// requires wiping and rebuilding the index.
	CaseFold bool

	// FlushInterval is the number of buffered inserts that trigger an
	// implicit flush. Defaults to DefaultFlushInterval if zero or
	// negative.
	FlushInterval int

	// Clear drops any existing table on open, starting empty.
	Clear bool

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Index is the digest store. It owns the periodic-flush counter and
// the next row id; neither is shared state. Not safe for concurrent
// use — the index has exactly one writer by design.
type Index struct {
	pool          *sqlitepool.Pool
	logger        *slog.Logger
	caseFold      bool
	flushInterval int

	// nextID is the id assigned to the next inserted row: one more
	// than the maximum id ever stored. Never reused, even after
	// duplicate removal.
	nextID int64

	// pending holds buffered rows not yet written to SQLite.
	pending []pendingRow
}

type pendingRow struct {
	id     int64
	name   string
	size   int64
	digest string
}

// Open opens (creating if necessary) the index at cfg.Path and
// ensures the table exists. The caller must call Close when done.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}

	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Path,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("hashindex: %w", err)
	}

	index := &Index{
		pool:          pool,
		logger:        logger,
		caseFold:      cfg.CaseFold,
		flushInterval: flushInterval,
	}

	if err := index.Initialize(ctx, cfg.Clear); err != nil {
		pool.Close()
		return nil, err
	}

	return index, nil
}

// Initialize ensures the table exists and computes the next id to
// assign. With clear set, the table is dropped first and the index
// starts empty; any buffered inserts are discarded.
func (ix *Index) Initialize(ctx context.Context, clear bool) error {
	conn, err := ix.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("hashindex: initialize: %w", err)
	}
	defer ix.pool.Put(conn)

	if clear {
		ix.logger.Warn("clearing index contents by request")
		ix.pending = nil
		if err := sqlitex.ExecuteTransient(conn, "DROP TABLE IF EXISTS hashes", nil); err != nil {
			return fmt.Errorf("hashindex: dropping table: %w", err)
		}
	}

	err = sqlitex.ExecuteTransient(conn,
		`CREATE TABLE IF NOT EXISTS hashes(
			id INTEGER PRIMARY KEY,
			filename TEXT,
			size INTEGER,
			digest TEXT
		)`, nil)
	if err != nil {
		return fmt.Errorf("hashindex: creating table: %w", err)
	}

	// Next id: one past the maximum ever assigned, 1 for an empty
	// table. Ids are never reused across the lifetime of a store.
	ix.nextID = 1
	err = sqlitex.Execute(conn, "SELECT MAX(id) FROM hashes", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			if stmt.ColumnType(0) != sqlite.TypeNull {
				ix.nextID = stmt.ColumnInt64(0) + 1
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("hashindex: reading max id: %w", err)
	}

	ix.logger.Debug("index initialized", "next_id", ix.nextID)
	return nil
}

// Insert buffers one record for insertion. The digest must be exactly
// 32 characters; the name is lowercased when case-folding is enabled.
// Every FlushInterval buffered rows, the buffer is flushed in a single
// transaction. A flush failure is returned to the caller and must be
// treated as fatal: the store cannot say which buffered rows survived.
func (ix *Index) Insert(ctx context.Context, name string, size int64, digestHex string) error {
	if len(digestHex) != digest.HexLength {
		return fmt.Errorf("%w: got %d characters", ErrInvalidDigest, len(digestHex))
	}
	if ix.caseFold {
		name = strings.ToLower(name)
	}

	ix.pending = append(ix.pending, pendingRow{
		id:     ix.nextID,
		name:   name,
		size:   size,
		digest: digestHex,
	})
	ix.nextID++

	if len(ix.pending) >= ix.flushInterval {
		return ix.flush(ctx)
	}
	return nil
}

// Commit forces a flush of all buffered inserts. Blocks until the
// data is durable.
func (ix *Index) Commit(ctx context.Context) error {
	return ix.flush(ctx)
}

// Close flushes buffered inserts and closes the store.
func (ix *Index) Close() error {
	flushErr := ix.flush(context.Background())
	closeErr := ix.pool.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// flush writes all buffered rows in one IMMEDIATE transaction.
func (ix *Index) flush(ctx context.Context) (err error) {
	if len(ix.pending) == 0 {
		return nil
	}

	conn, err := ix.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("hashindex: flush: %w", err)
	}
	defer ix.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("hashindex: begin flush transaction: %w", err)
	}
	defer endTransaction(&err)

	for _, row := range ix.pending {
		err = sqlitex.Execute(conn,
			"INSERT INTO hashes (id, filename, size, digest) VALUES (?, ?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{row.id, row.name, row.size, row.digest},
			})
		if err != nil {
			return fmt.Errorf("hashindex: inserting %q: %w", row.name, err)
		}
	}

	ix.logger.Debug("flushed inserts", "rows", len(ix.pending))
	ix.pending = ix.pending[:0]
	return nil
}

// FindByDigest returns all records with the given digest, ordered by
// filename under case-insensitive comparison. The digest argument is
// validated and case-folded first; no match is an empty result, not
// an error.
func (ix *Index) FindByDigest(ctx context.Context, digestHex string) ([]Record, error) {
	normalized, err := digest.Normalize(digestHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	return ix.queryRecords(ctx,
		"SELECT filename, size, digest FROM hashes WHERE digest=? ORDER BY filename COLLATE NOCASE",
		normalized)
}

// FindByName returns all records with exactly the given filename,
// ordered by filename under case-insensitive comparison. No match is
// an empty result, not an error.
func (ix *Index) FindByName(ctx context.Context, name string) ([]Record, error) {
	if name == "" || strings.ContainsAny(name, "; :") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return ix.queryRecords(ctx,
		"SELECT filename, size, digest FROM hashes WHERE filename=? ORDER BY filename COLLATE NOCASE",
		name)
}

// Dump returns every record, ordered by filename.
func (ix *Index) Dump(ctx context.Context) ([]Record, error) {
	return ix.queryRecords(ctx,
		"SELECT filename, size, digest FROM hashes ORDER BY filename")
}

// queryRecords flushes pending inserts and runs a query returning
// (filename, size, digest) rows.
func (ix *Index) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	if err := ix.flush(ctx); err != nil {
		return nil, err
	}

	conn, err := ix.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("hashindex: query: %w", err)
	}
	defer ix.pool.Put(conn)

	var records []Record
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			records = append(records, Record{
				Name:   stmt.ColumnText(0),
				Size:   stmt.ColumnInt64(1),
				Digest: stmt.ColumnText(2),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("hashindex: query: %w", err)
	}
	return records, nil
}

// Count returns the total number of indexed records.
func (ix *Index) Count(ctx context.Context) (int64, error) {
	if err := ix.flush(ctx); err != nil {
		return 0, err
	}

	conn, err := ix.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("hashindex: count: %w", err)
	}
	defer ix.pool.Put(conn)

	var count int64
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM hashes", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("hashindex: count: %w", err)
	}
	return count, nil
}

// DuplicateGroups returns groups of rows sharing both filename and
// digest (case-sensitive): the same content indexed repeatedly under
// an identical name.
func (ix *Index) DuplicateGroups(ctx context.Context) ([]Group, error) {
	return ix.queryGroups(ctx,
		`SELECT filename, digest, COUNT(*) FROM hashes
		 GROUP BY filename, digest HAVING COUNT(*) > 1`)
}

// DuplicateDigests returns groups of rows sharing a digest alone: the
// same content indexed under possibly different names.
func (ix *Index) DuplicateDigests(ctx context.Context) ([]Group, error) {
	return ix.queryGroups(ctx,
		`SELECT filename, digest, COUNT(digest) FROM hashes
		 GROUP BY digest HAVING COUNT(digest) > 1`)
}

// queryGroups flushes pending inserts and runs a duplicate-group
// query returning (filename, digest, count) rows.
func (ix *Index) queryGroups(ctx context.Context, query string) ([]Group, error) {
	if err := ix.flush(ctx); err != nil {
		return nil, err
	}

	conn, err := ix.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("hashindex: duplicates: %w", err)
	}
	defer ix.pool.Put(conn)

	var groups []Group
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			groups = append(groups, Group{
				Name:   stmt.ColumnText(0),
				Digest: stmt.ColumnText(1),
				Count:  stmt.ColumnInt64(2),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("hashindex: duplicates: %w", err)
	}
	return groups, nil
}

// RemoveDuplicates deletes, for every (filename, digest) group, all
// rows except the one with the maximum id. Returns the number of rows
// removed. The deletion is durable on return.
func (ix *Index) RemoveDuplicates(ctx context.Context) (int64, error) {
	if err := ix.flush(ctx); err != nil {
		return 0, err
	}

	conn, err := ix.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("hashindex: remove duplicates: %w", err)
	}
	defer ix.pool.Put(conn)

	err = sqlitex.ExecuteTransient(conn,
		`DELETE FROM hashes WHERE id NOT IN
		 (SELECT MAX(id) FROM hashes GROUP BY filename, digest)`, nil)
	if err != nil {
		return 0, fmt.Errorf("hashindex: remove duplicates: %w", err)
	}

	removed := int64(conn.Changes())
	if removed > 0 {
		ix.logger.Info("removed duplicate rows", "rows", removed)
	}
	return removed, nil
}
