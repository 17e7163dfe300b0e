// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"testing"

	"condalint/pkg/recipe"
)

func TestMessageEqualIgnoresRecipe(t *testing.T) {
	t.Parallel()
	recA, err := recipe.LoadString("package:\n  name: a\n", "a")
	if err != nil {
		t.Fatal(err)
	}
	recB, err := recipe.LoadString("package:\n  name: b\n", "b")
	if err != nil {
		t.Fatal(err)
	}

	base := Message{
		Check: "missing_home", Severity: SeverityError,
		Title: "Missing home", StartLine: 3, EndLine: 4,
		FName: "a/meta.yaml", Recipe: recA,
	}
	same := base
	same.Recipe = recB
	if !base.Equal(same) {
		t.Error("messages differing only in recipe should compare equal")
	}

	diff := base
	diff.EndLine = 9
	if base.Equal(diff) {
		t.Error("messages with different line ranges should not compare equal")
	}
	if base.Key() == diff.Key() {
		t.Error("keys should differ when line ranges differ")
	}
}

func TestMessageLevel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "notice"},
		{SeverityWarning, "warning"},
		{SeverityError, "failure"},
	}
	for _, tc := range cases {
		if got := (Message{Severity: tc.severity}).Level(); got != tc.want {
			t.Errorf("Level(%v) = %q, want %q", tc.severity, got, tc.want)
		}
	}
}

func TestSortMessages(t *testing.T) {
	t.Parallel()
	messages := []Message{
		{FName: "b/meta.yaml", EndLine: 2},
		{FName: "a/meta.yaml", EndLine: 9},
		{FName: "a/meta.yaml", EndLine: 1},
	}
	sortMessages(messages)
	got := []string{messages[0].String(), messages[1].String(), messages[2].String()}
	want := []string{
		"a/meta.yaml:1: : ",
		"a/meta.yaml:9: : ",
		"b/meta.yaml:2: : ",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDedupeMessagesKeepsFirst(t *testing.T) {
	t.Parallel()
	a := Message{Check: "missing_home", FName: "x/meta.yaml", EndLine: 5}
	b := Message{Check: "missing_summary", FName: "x/meta.yaml", EndLine: 7}
	out := dedupeMessages([]Message{a, b, a, a, b})
	if len(out) != 2 {
		t.Fatalf("expected 2 unique messages, got %d", len(out))
	}
	if out[0].Check != "missing_home" || out[1].Check != "missing_summary" {
		t.Errorf("dedupe should preserve first-seen order, got %v", out)
	}
}

func TestDisplayPath(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"/very/long/prefix/myfeedstock/recipe/meta.yaml", "myfeedstock/recipe/meta.yaml"},
		{"recipe/meta.yaml", "recipe/meta.yaml"},
		{"meta.yaml", "meta.yaml"},
	}
	for _, tc := range cases {
		if got := displayPath(tc.in); got != tc.want {
			t.Errorf("displayPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
