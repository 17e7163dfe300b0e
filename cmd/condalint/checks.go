// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"condalint/pkg/lint"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List all known checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := lint.NewRegistry()
		if err != nil {
			return err
		}
		for _, name := range registry.Names() {
			check, _ := registry.Get(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				CheckStyle.Render(fmt.Sprintf("%-40s", name)), severityStyle(check.Severity()))
		}
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain CHECK",
	Short: "Show the documentation of a check",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := lint.NewRegistry()
		if err != nil {
			return err
		}
		check, ok := registry.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown check %q; run 'condalint checks' to list them", args[0])
		}

		title, body, _ := strings.Cut(check.Doc(), "\n")
		md := fmt.Sprintf("# %s\n\n*severity: %s*\n\n%s\n", check.Name(), check.Severity(), title)
		if body != "" {
			md += "\n" + body + "\n"
		}
		if reqs := check.Requires(); len(reqs) > 0 {
			md += "\nRuns only after: " + strings.Join(reqs, ", ") + "\n"
		}

		renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			return err
		}
		out, err := renderer.Render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func severityStyle(sev lint.Severity) string {
	switch sev {
	case lint.SeverityError:
		return ErrorStyle.Render(sev.String())
	case lint.SeverityWarning:
		return WarningStyle.Render(sev.String())
	default:
		return SubtitleStyle.Render(sev.String())
	}
}
