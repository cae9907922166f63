// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetindex/cmd/assetindex/cli"
	"github.com/bureau-foundation/assetindex/lib/config"
	"github.com/bureau-foundation/assetindex/lib/hashindex"
)

// commonFlags are the flags shared by every command: configuration
// source, database override, and log verbosity.
type commonFlags struct {
	configPath string
	database   string
	verbosity  int
}

func (f *commonFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.configPath, "config", "", "path to YAML configuration file")
	flags.StringVar(&f.database, "db", "", "index database path (overrides configuration)")
	flags.IntVarP(&f.verbosity, "verbosity", "v", 3, "log verbosity, 0 (errors only) to 4 (debug)")
}

// session resolves configuration and builds the invocation logger.
// The --db flag wins over the configured database path.
func (f *commonFlags) session() (*config.Config, *slog.Logger, error) {
	logger := cli.NewLogger(f.verbosity)

	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if f.database != "" {
		cfg.Database = f.database
	}
	return cfg, logger, nil
}

// openIndex opens the configured index. With clear set the existing
// contents are dropped first.
func openIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger, clear bool) (*hashindex.Index, error) {
	return hashindex.Open(ctx, hashindex.Config{
		Path:          cfg.Database,
		CaseFold:      cfg.CaseFold,
		FlushInterval: cfg.FlushInterval,
		Clear:         clear,
		Logger:        logger,
	})
}

// openOutput returns the destination for query results: stdout, or
// the file named by --out.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}
	return file, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// writeRecords prints records in the tab-separated exchange format: a
// header line, then one "filename<TAB>size<TAB>digest" line per row.
func writeRecords(w io.Writer, records []hashindex.Record) error {
	if _, err := fmt.Fprintln(w, "filename\tsize\tdigest"); err != nil {
		return err
	}
	for _, record := range records {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", record.Name, record.Size, record.Digest); err != nil {
			return err
		}
	}
	return nil
}

// writeGroups prints duplicate groups in the same tab-separated shape
// with a count column.
func writeGroups(w io.Writer, groups []hashindex.Group) error {
	if _, err := fmt.Fprintln(w, "filename\tdigest\tcount"); err != nil {
		return err
	}
	for _, group := range groups {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", group.Name, group.Digest, group.Count); err != nil {
			return err
		}
	}
	return nil
}
