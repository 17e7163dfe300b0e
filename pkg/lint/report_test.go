// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"strings"
	"testing"
)

func TestBuildReportAllClear(t *testing.T) {
	t.Parallel()
	if got := BuildReport(nil, nil, false); got != "All checks OK" {
		t.Errorf("empty report = %q", got)
	}
}

func TestBuildReportSections(t *testing.T) {
	t.Parallel()
	messages := []Message{
		{Check: "missing_home", Severity: SeverityError,
			Title: "Missing home", Body: "Please add about/home.",
			FName: "pkg/recipe/meta.yaml", EndLine: 12},
		{Check: "missing_doc_url", Severity: SeverityWarning,
			Title: "Missing doc_url", FName: "pkg/recipe/meta.yaml", EndLine: 14},
	}
	report := BuildReport(messages, []string{"missing_build_number"}, false)

	for _, want := range []string{
		"The following problems have been found:",
		"===== Automatically Fixed =====",
		"- missing_build_number",
		"===== WARNINGS =====",
		"- pkg/recipe/meta.yaml:14: missing_doc_url: Missing doc_url",
		"===== ERRORS =====",
		"- pkg/recipe/meta.yaml:12: missing_home: Missing home",
		"===== Final Report: =====",
		"Automatically fixed 1 issue.",
		"1 Error and 1 Warning were found",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "Additional Details") {
		t.Error("details should only appear in verbose mode")
	}
}

func TestBuildReportVerboseDetails(t *testing.T) {
	t.Parallel()
	messages := []Message{{
		Check: "missing_home", Severity: SeverityError,
		Title: "Missing home", Body: "Please add about/home.",
		FName: "meta.yaml", EndLine: 3,
	}}
	report := BuildReport(messages, nil, true)
	if !strings.Contains(report, " Additional Details: Please add about/home.") {
		t.Errorf("verbose report should carry the body:\n%s", report)
	}
}

func TestBuildReportPluralization(t *testing.T) {
	t.Parallel()
	messages := []Message{
		{Check: "a", Severity: SeverityError, FName: "m", EndLine: 1},
		{Check: "b", Severity: SeverityError, FName: "m", EndLine: 2},
	}
	report := BuildReport(messages, nil, false)
	if !strings.Contains(report, "2 Errors and 0 Warnings were found") {
		t.Errorf("plural counts wrong:\n%s", report)
	}
}
