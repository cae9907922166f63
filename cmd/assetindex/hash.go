// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetindex/cmd/assetindex/cli"
	"github.com/bureau-foundation/assetindex/lib/classify"
	"github.com/bureau-foundation/assetindex/lib/digest"
	"github.com/bureau-foundation/assetindex/lib/hashindex"
)

func hashCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "hash",
		Summary: "hash a single file and print its record",
		Description: "Hash computes the content digest of one file and prints the\n" +
			"(filename, size, digest) triple without touching the index. Unlike\n" +
			"scan, unrecognized file types are hashed rather than skipped, so\n" +
			"any file gets an answer. UZ2 containers are still decoded first.",
		Usage: "assetindex hash [flags] FILE",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("hash", pflag.ContinueOnError)
			common.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one file argument, got %d", len(args))
			}
			_, logger, err := common.session()
			if err != nil {
				return err
			}

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("hashing %s: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}

			classifier := classify.New(classify.Config{
				Logger:            logger,
				ForceUnrecognized: true,
			})
			outcome := classifier.File(path, info.Size())
			if !outcome.Hashed() {
				if outcome.Err != nil {
					return fmt.Errorf("hashing %s: %s: %w", path, outcome.Reason, outcome.Err)
				}
				return fmt.Errorf("hashing %s: %s", path, outcome.Reason)
			}

			return writeRecords(os.Stdout, []hashindex.Record{{
				Name:   outcome.Name,
				Size:   outcome.Size,
				Digest: digest.Format(outcome.Digest),
			}})
		},
	}
}
