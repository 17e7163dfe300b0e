// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"condalint/pkg/lint"
)

var (
	lintSubdirs  []string
	lintSeverity string
	lintFix      bool

	lintCmd = &cobra.Command{
		Use:   "lint [flags] FEEDSTOCK_PATH...",
		Short: "Lint conda recipes",
		Long: `Lint the recipe of each feedstock path given. The recipe manifest is
expected at <path>/recipe/meta.yaml. Each recipe is rendered and linted
once per target subdir; messages are merged across subdirs.

Exit codes: 0 clean, 100 warnings, 101 errors, 42 internal failure.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLint,
	}
)

func init() {
	lintCmd.Flags().StringSliceVar(&lintSubdirs, "subdirs", nil,
		"subdirs to lint for (default from config, else all platforms)")
	lintCmd.Flags().StringVar(&lintSeverity, "severity", "",
		"minimum severity to report: INFO, WARNING or ERROR")
	lintCmd.Flags().BoolVarP(&lintFix, "fix", "f", false,
		"attempt to fix issues in place")
}

func runLint(cmd *cobra.Command, args []string) error {
	severityMin := lint.SeverityMinDefault
	if lintSeverity == "" && cfg.SeverityMin != "" {
		lintSeverity = cfg.SeverityMin
	}
	if lintSeverity != "" {
		var err error
		severityMin, err = lint.ParseSeverity(lintSeverity)
		if err != nil {
			return err
		}
	}

	subdirs := lintSubdirs
	if len(subdirs) == 0 {
		subdirs = cfg.Subdirs
	}

	linter, err := lint.New(lint.Options{
		Config:      cfg,
		SeverityMin: severityMin,
		Logger:      log.Default(),
	})
	if err != nil {
		return &ExitError{Code: ExitUncaughtException, Err: err}
	}

	recipeDirs := make([]string, 0, len(args))
	for _, arg := range args {
		recipeDirs = append(recipeDirs, filepath.Join(arg, "recipe"))
	}

	overall := lint.SeverityNone
	for _, subdir := range subdirs {
		if result := linter.Lint(cmd.Context(), recipeDirs, subdir, lintFix); result > overall {
			overall = result
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), styleReport(linter.Report(verbose)))

	switch {
	case overall >= lint.SeverityError:
		return &ExitError{Code: ExitLintingErrors}
	case overall == lint.SeverityWarning:
		return &ExitError{Code: ExitLintingWarnings}
	default:
		return nil
	}
}

// styleReport colors the fixed report markers without changing its text
// structure, so piped output stays parseable.
func styleReport(report string) string {
	if report == "All checks OK" {
		return SuccessStyle.Render(report)
	}
	return report
}
