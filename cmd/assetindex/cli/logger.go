// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates the structured logger for a command invocation.
// When stderr is a terminal, slog.TextHandler gives human-readable
// output; when piped or redirected, slog.JSONHandler gives
// machine-parseable lines.
//
// Verbosity is the explicit 0–4 scale carried over from earlier
// releases of the tool (0 fatal, 1 error, 2 warn, 3 info, 4 debug),
// threaded into every component as a logger rather than mutated as
// process-wide state.
func NewLogger(verbosity int) *slog.Logger {
	var level slog.Level
	switch {
	case verbosity <= 1:
		level = slog.LevelError
	case verbosity == 2:
		level = slog.LevelWarn
	case verbosity == 3:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}

	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
