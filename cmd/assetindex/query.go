// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetindex/cmd/assetindex/cli"
	"github.com/bureau-foundation/assetindex/lib/hashindex"
)

// queryFlags extends the common flags with the --out destination used
// by every record-printing query.
type queryFlags struct {
	commonFlags
	out string
}

func (f *queryFlags) register(flags *pflag.FlagSet) {
	f.commonFlags.register(flags)
	flags.StringVarP(&f.out, "out", "o", "", "write results to a file instead of stdout")
}

// runQuery opens the index read path, runs the query, and prints the
// resulting records tab-separated.
func runQuery(flags *queryFlags, query func(context.Context, *hashindex.Index) ([]hashindex.Record, error)) error {
	cfg, logger, err := flags.session()
	if err != nil {
		return err
	}
	ctx := context.Background()

	index, err := openIndex(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer index.Close()

	records, err := query(ctx, index)
	if err != nil {
		return err
	}

	output, err := openOutput(flags.out)
	if err != nil {
		return err
	}
	defer output.Close()
	return writeRecords(output, records)
}

func findCommand() *cli.Command {
	var flags queryFlags

	return &cli.Command{
		Name:    "find",
		Summary: "look up index records by content digest",
		Description: "Find prints every indexed file whose content digest matches the\n" +
			"argument. The digest is 32 hex characters, case-insensitive. No\n" +
			"matches prints only the header line.",
		Usage: "assetindex find [flags] DIGEST",
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("find", pflag.ContinueOnError)
			flags.register(set)
			return set
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one digest argument, got %d", len(args))
			}
			return runQuery(&flags, func(ctx context.Context, index *hashindex.Index) ([]hashindex.Record, error) {
				return index.FindByDigest(ctx, args[0])
			})
		},
	}
}

func nameCommand() *cli.Command {
	var flags queryFlags

	return &cli.Command{
		Name:    "name",
		Summary: "look up index records by filename",
		Description: "Name prints every indexed file whose filename exactly matches the\n" +
			"argument. Indexes built with case-folding store lowercased names,\n" +
			"so query with the lowercase form. No matches prints only the\n" +
			"header line.",
		Usage: "assetindex name [flags] FILENAME",
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("name", pflag.ContinueOnError)
			flags.register(set)
			return set
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one filename argument, got %d", len(args))
			}
			return runQuery(&flags, func(ctx context.Context, index *hashindex.Index) ([]hashindex.Record, error) {
				return index.FindByName(ctx, args[0])
			})
		},
	}
}

func dumpCommand() *cli.Command {
	var flags queryFlags

	return &cli.Command{
		Name:    "dump",
		Summary: "print every index record",
		Description: "Dump prints the entire index in the tab-separated exchange format,\n" +
			"ordered by filename. Useful for diffing two indexes or feeding\n" +
			"other tools.",
		Usage: "assetindex dump [flags]",
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			flags.register(set)
			return set
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("dump takes no arguments")
			}
			return runQuery(&flags, func(ctx context.Context, index *hashindex.Index) ([]hashindex.Record, error) {
				return index.Dump(ctx)
			})
		},
	}
}

func countCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "count",
		Summary: "print the number of index records",
		Usage:   "assetindex count [flags]",
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("count", pflag.ContinueOnError)
			common.register(set)
			return set
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("count takes no arguments")
			}
			cfg, logger, err := common.session()
			if err != nil {
				return err
			}
			ctx := context.Background()

			index, err := openIndex(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			defer index.Close()

			count, err := index.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		},
	}
}
