// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetindex/cmd/assetindex/cli"
)

func dupesCommand() *cli.Command {
	var flags queryFlags
	var byDigest bool

	return &cli.Command{
		Name:    "dupes",
		Summary: "list duplicate groups in the index",
		Description: "Dupes lists groups of index rows that share both filename and\n" +
			"digest: the same content indexed repeatedly under an identical\n" +
			"name. With --by-digest, grouping is on the digest alone, which\n" +
			"also surfaces identical content indexed under different names.",
		Usage: "assetindex dupes [flags]",
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("dupes", pflag.ContinueOnError)
			flags.register(set)
			set.BoolVar(&byDigest, "by-digest", false, "group by digest alone, ignoring filenames")
			return set
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("dupes takes no arguments")
			}
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

			groups, err := index.DuplicateGroups(ctx)
			if byDigest {
				groups, err = index.DuplicateDigests(ctx)
			}
			if err != nil {
				return err
			}

			output, err := openOutput(flags.out)
			if err != nil {
				return err
			}
			defer output.Close()
			return writeGroups(output, groups)
		},
	}
}

func dedupeCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "dedupe",
		Summary: "delete redundant rows from duplicate groups",
		Description: "Dedupe deletes, for every group of rows sharing both filename and\n" +
			"digest, all rows except the most recently inserted one. Row ids\n" +
			"are never reused, so the surviving row keeps its id.",
		Usage: "assetindex dedupe [flags]",
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("dedupe", pflag.ContinueOnError)
			common.register(set)
			return set
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("dedupe takes no arguments")
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

			removed, err := index.RemoveDuplicates(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d duplicate rows\n", removed)
			return nil
		},
	}
}
