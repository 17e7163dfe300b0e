// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"slices"
	"testing"

	"condalint/internal/config"
	"condalint/pkg/recipe"
)

func TestParseSkipDirectives(t *testing.T) {
	t.Parallel()
	text := `Fix the build.

[lint skip missing_home for mypkg]
[ lint skip missing_summary for mypkg ]
[lint skip uses_setup_py for otherpkg]
[lint skip for nobody]
[lint skip missing_home]
`
	directives := parseSkipDirectives(text)
	if len(directives) != 2 {
		t.Fatalf("expected directives for 2 recipes, got %v", directives)
	}
	if got := directives["mypkg"]; !slices.Equal(got, []string{"missing_home", "missing_summary"}) {
		t.Errorf("mypkg directives: %v", got)
	}
	if got := directives["otherpkg"]; !slices.Equal(got, []string{"uses_setup_py"}) {
		t.Errorf("otherpkg directives: %v", got)
	}
}

func TestParseSkipDirectivesEmpty(t *testing.T) {
	t.Parallel()
	if got := parseSkipDirectives("no directives anywhere"); len(got) != 0 {
		t.Errorf("expected no directives, got %v", got)
	}
}

func mustLoadString(t *testing.T, text, name string) *recipe.Recipe {
	t.Helper()
	rec, err := recipe.LoadString(text, name)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	return rec
}

func TestChecksToSkipUnknownNamesDropped(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{NoCatch: true})
	rec := mustLoadString(t, `package:
  name: unknowns
extra:
  skip-lints:
    - no_such_check
    - missing_home
`, "unknowns")

	skip := l.checksToSkip(rec)
	if skip["no_such_check"] {
		t.Error("unknown check names must be dropped from the skip set")
	}
	if !skip["missing_home"] {
		t.Error("known check names must stay in the skip set")
	}
}

func TestChecksToSkipClosesOverDependents(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{NoCatch: true})
	rec := mustLoadString(t, `package:
  name: closure
extra:
  skip-lints:
    - uses_setup_py
`, "closure")

	skip := l.checksToSkip(rec)
	for _, dependent := range []string{"pip_install_args", "missing_pip_in_host"} {
		if !skip[dependent] {
			t.Errorf("%s requires uses_setup_py and must be skipped with it", dependent)
		}
	}

	// The closure is a fixed point: recomputing adds nothing.
	again := l.checksToSkip(rec)
	if len(again) != len(skip) {
		t.Errorf("skip set should be stable across recomputation: %d vs %d", len(skip), len(again))
	}
}

func TestChecksToSkipOnlyLintInvertsGraph(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{NoCatch: true})
	rec := mustLoadString(t, `package:
  name: allowlist
extra:
  only-lint:
    - missing_home
    - missing_summary
`, "allowlist")

	skip := l.checksToSkip(rec)
	if skip["missing_home"] || skip["missing_summary"] {
		t.Error("allow-listed checks must not be skipped")
	}
	if !skip["missing_license"] {
		t.Error("checks outside the allow-list must be skipped")
	}
}

func TestChecksToSkipSkipListBeatsAllowList(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{NoCatch: true})
	rec := mustLoadString(t, `package:
  name: both
extra:
  only-lint:
    - missing_home
  skip-lints:
    - missing_home
`, "both")

	if skip := l.checksToSkip(rec); !skip["missing_home"] {
		t.Error("a check in both lists stays skipped")
	}
}

func TestChecksToSkipMergesConfigSkips(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Skips = map[string][]string{"configured": {"missing_doc_url"}}
	l := newTestLinter(t, Options{NoCatch: true, Config: cfg})

	configured := mustLoadString(t, "package:\n  name: configured\n", "configured")
	if skip := l.checksToSkip(configured); !skip["missing_doc_url"] {
		t.Error("config skips for the recipe name must apply")
	}

	other := mustLoadString(t, "package:\n  name: other\n", "other")
	if skip := l.checksToSkip(other); skip["missing_doc_url"] {
		t.Error("config skips for another recipe must not apply")
	}
}
