// SPDX-License-Identifier: MPL-2.0

// Package cmd holds the condalint command tree: a static analyzer for
// conda package recipes.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"condalint/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string

	// cfg is the loaded configuration, resolved before any subcommand runs.
	cfg *config.Config

	// rootCmd represents the base command when called without subcommands.
	rootCmd = &cobra.Command{
		Use:   "condalint",
		Short: "A static analyzer for conda recipes",
		Long: TitleStyle.Render("condalint") + SubtitleStyle.Render(" - A static analyzer for conda recipes") + `

condalint runs a set of checks against conda recipe manifests
(meta.yaml) and reports completeness, build hygiene, syntax, URL and
licensing problems. Many findings can be fixed in place with --fix.

` + SubtitleStyle.Render("Examples:") + `
  condalint lint ./my-feedstock       Lint one feedstock
  condalint lint --fix ./pkg-a ./pkg-b
  condalint checks                    List all known checks
  condalint explain missing_hash      Show the documentation of a check`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./condalint.yaml)")

	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(checksCmd)
	rootCmd.AddCommand(explainCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitUncaughtException)
	}
}

// initRootConfig loads the configuration file and applies global flags.
func initRootConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		cfg = config.Default()
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}
