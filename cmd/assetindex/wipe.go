// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetindex/cmd/assetindex/cli"
)

func wipeCommand() *cli.Command {
	var common commonFlags
	var force bool

	return &cli.Command{
		Name:    "wipe",
		Summary: "clear all records from the index",
		Description: "Wipe deletes every record from the index. The database file itself\n" +
			"is kept. Refuses to run without --force; there is no undo.",
		Usage: "assetindex wipe --force [flags]",
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("wipe", pflag.ContinueOnError)
			common.register(set)
			set.BoolVar(&force, "force", false, "confirm the wipe")
			return set
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("wipe takes no arguments")
			}
			if !force {
				return fmt.Errorf("wipe clears the entire index; pass --force to confirm")
			}
			cfg, logger, err := common.session()
			if err != nil {
				return err
			}
			ctx := context.Background()

			index, err := openIndex(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			if err := index.Close(); err != nil {
				return err
			}

			fmt.Println("index cleared")
			return nil
		},
	}
}
