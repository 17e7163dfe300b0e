// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// Exit codes reported to the calling process.
const (
	// ExitSuccess means linting finished with no warnings or errors.
	ExitSuccess = 0
	// ExitUncaughtException means the linter itself failed.
	ExitUncaughtException = 42
	// ExitLintingWarnings means linting finished with warnings only.
	ExitLintingWarnings = 100
	// ExitLintingErrors means linting finished with at least one error.
	ExitLintingErrors = 101
)

// ExitError carries a process exit code through the cobra error path, so
// subcommands can request a specific code without calling os.Exit directly.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
