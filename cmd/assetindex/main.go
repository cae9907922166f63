// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command assetindex builds and queries a content-digest index of game
// asset files. Compressed UZ2 containers are hashed over their decoded
// content, so a container and the file it packs share one digest.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/assetindex/cmd/assetindex/cli"
)

func main() {
	root := &cli.Command{
		Name:    "assetindex",
		Summary: "content-digest index for game asset files",
		Description: "assetindex hashes game asset files and records the digests in a\n" +
			"SQLite index for duplicate detection and content lookups. UZ2\n" +
			"compressed containers are decoded before hashing, so compressed and\n" +
			"uncompressed copies of the same asset share a digest.",
		Subcommands: []*cli.Command{
			scanCommand(),
			hashCommand(),
			findCommand(),
			nameCommand(),
			countCommand(),
			dumpCommand(),
			dupesCommand(),
			dedupeCommand(),
			wipeCommand(),
		},
	}

	if err := root.Execute(os.Args[1:]); err != nil {
		code := 1
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			code = coder.ExitCode()
		} else {
			fmt.Fprintf(os.Stderr, "assetindex: %v\n", err)
		}
		os.Exit(code)
	}
}
