// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. The main function checks for this interface on
// returned errors to distinguish "handled non-zero exit" from
// "unexpected error to display" — useful for commands where a
// non-zero exit is a valid outcome (e.g., "find" with no matches).
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
