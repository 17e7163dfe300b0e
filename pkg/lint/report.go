// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"strings"
)

// BuildReport renders the final text report: the list of automatically
// fixed checks, then the remaining findings grouped by severity, then the
// closing counts. With no findings and no fixes the report is a single
// all-clear line.
func BuildReport(messages []Message, fixedChecks []string, verbose bool) string {
	bySeverity := map[Severity][]Message{}
	for _, msg := range messages {
		bySeverity[msg.Severity] = append(bySeverity[msg.Severity], msg)
	}

	var sections []string
	if len(fixedChecks) > 0 {
		sections = append(sections,
			"\n===== Automatically Fixed =====\n- "+strings.Join(fixedChecks, "\n- "))
	}
	for _, sev := range []Severity{SeverityWarning, SeverityError} {
		msgs := bySeverity[sev]
		if len(msgs) == 0 {
			continue
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "\n===== %sS =====\n", strings.ToUpper(sev.String()))
		for i, msg := range msgs {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "- %s:%d: %s: %s", msg.FName, msg.EndLine, msg.Check, msg.Title)
			if verbose && msg.Body != "" {
				fmt.Fprintf(&sb, "\n Additional Details: %s", msg.Body)
			}
		}
		sections = append(sections, sb.String())
	}

	if len(sections) == 0 {
		return "All checks OK"
	}

	var report strings.Builder
	report.WriteString("The following problems have been found:\n")
	report.WriteString(strings.Join(sections, "\n"))
	report.WriteString("\n===== Final Report: =====\n")
	if n := len(fixedChecks); n > 0 {
		fmt.Fprintf(&report, "Automatically fixed %d issue%s.\n", n, plural(n))
	}
	errorCount := len(bySeverity[SeverityError])
	warningCount := len(bySeverity[SeverityWarning])
	fmt.Fprintf(&report, "%d Error%s and %d Warning%s were found",
		errorCount, plural(errorCount), warningCount, plural(warningCount))
	return report.String()
}

// Report renders the session report for the accumulated messages.
func (l *Linter) Report(verbose bool) string {
	return BuildReport(l.Messages(), l.FixedChecks(), verbose)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
