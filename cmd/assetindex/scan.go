// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetindex/cmd/assetindex/cli"
	"github.com/bureau-foundation/assetindex/lib/classify"
	"github.com/bureau-foundation/assetindex/lib/enumerate"
	"github.com/bureau-foundation/assetindex/lib/scan"
)

func scanCommand() *cli.Command {
	var common commonFlags
	var gameRoot string
	var wipe bool

	return &cli.Command{
		Name:    "scan",
		Summary: "hash asset files and record them in the index",
		Description: "Scan hashes every recognized asset file in the given directories\n" +
			"and inserts the results into the index. Directories are not\n" +
			"recursed into. With --game, the standard asset subdirectories of a\n" +
			"game install are scanned instead.",
		Usage: "assetindex scan [flags] [directory...]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&gameRoot, "game", "", "game install root; scan its asset subdirectories")
			flags.BoolVar(&wipe, "wipe", false, "clear the index before scanning")
			return flags
		},
		Run: func(args []string) error {
			cfg, logger, err := common.session()
			if err != nil {
				return err
			}
			ctx := context.Background()

			var dirs []string
			switch {
			case gameRoot != "":
				if len(args) > 0 {
					return fmt.Errorf("--game and directory arguments are mutually exclusive")
				}
				dirs = enumerate.GameDirs(gameRoot, cfg.GameSubdirectories, logger)
				if len(dirs) == 0 {
					return fmt.Errorf("no asset directories found under %s", gameRoot)
				}
			case len(args) > 0:
				dirs = args
			default:
				dirs = []string{"."}
			}

			var paths []string
			for _, dir := range dirs {
				entries, err := enumerate.ListDir(dir)
				if err != nil {
					return err
				}
				paths = append(paths, entries...)
			}

			index, err := openIndex(ctx, cfg, logger, wipe)
			if err != nil {
				return err
			}
			defer index.Close()

			classifier := classify.New(classify.Config{Logger: logger})
			stats, err := scan.New(classifier, index, logger).Run(ctx, paths)
			if err != nil {
				return err
			}

			logger.Info("scan complete",
				"indexed", stats.Indexed,
				"skipped", stats.Skipped,
				"failed", stats.Failed,
			)
			fmt.Printf("indexed %d, skipped %d, failed %d\n",
				stats.Indexed, stats.Skipped, stats.Failed)
			return nil
		},
	}
}
