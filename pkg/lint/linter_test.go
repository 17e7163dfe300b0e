// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"condalint/internal/dag"
	"condalint/pkg/recipe"
)

// noNetworkExcludes keeps the URL probing checks out of engine tests.
var noNetworkExcludes = []string{"invalid_url"}

func newTestLinter(t *testing.T, opts Options) *Linter {
	t.Helper()
	if opts.SkipText == "" {
		opts.SkipText = "no directives"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr)
	}
	if opts.Exclude == nil {
		opts.Exclude = noNetworkExcludes
	}
	l, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func lintText(t *testing.T, l *Linter, text, name string) []Message {
	t.Helper()
	rec, err := recipe.LoadString(text, name)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	return l.LintRecipe(context.Background(), rec, false)
}

func messagesFor(messages []Message, check string) []Message {
	var out []Message
	for _, msg := range messages {
		if msg.Check == check {
			out = append(out, msg)
		}
	}
	return out
}

// recordingCheck notes every invocation in a shared journal. Test-only;
// production checks are stateless.
type recordingCheck struct {
	baseCheck
	journal *[]string
	report  bool
}

func (c *recordingCheck) CheckRecipe(run *Run) {
	*c.journal = append(*c.journal, c.name)
	if c.report {
		run.Report(Issue{Line: 1})
	}
}

func TestExecutionFollowsRequires(t *testing.T) {
	t.Parallel()
	var journal []string
	l := newTestLinter(t, Options{
		NoCatch: true,
		ExtraChecks: []Check{
			&recordingCheck{baseCheck: baseCheck{
				name: "zz_dependent", severity: SeverityError,
				requires: []string{"aa_required"}, doc: "dependent\n"}, journal: &journal},
			&recordingCheck{baseCheck: baseCheck{
				name: "aa_required", severity: SeverityError, doc: "required\n"}, journal: &journal},
		},
	})

	lintText(t, l, "extra:\n  only-lint: [aa_required, zz_dependent]\n", "order")

	want := []string{"aa_required", "zz_dependent"}
	if len(journal) != 2 || journal[0] != want[0] || journal[1] != want[1] {
		t.Errorf("expected invocation order %v, got %v", want, journal)
	}
}

func TestFailurePropagationSkipsDependents(t *testing.T) {
	t.Parallel()
	var journal []string
	l := newTestLinter(t, Options{
		NoCatch: true,
		ExtraChecks: []Check{
			&recordingCheck{baseCheck: baseCheck{
				name: "aa_required", severity: SeverityError, doc: "required check failed\n"},
				journal: &journal, report: true},
			&recordingCheck{baseCheck: baseCheck{
				name: "zz_dependent", severity: SeverityError,
				requires: []string{"aa_required"}, doc: "dependent\n"}, journal: &journal},
		},
	})

	messages := lintText(t, l,
		"extra:\n  only-lint: [aa_required, zz_dependent]\n", "prop")

	if len(journal) != 1 || journal[0] != "aa_required" {
		t.Errorf("dependent should not run after its requirement reported, journal: %v", journal)
	}
	if got := messagesFor(messages, "aa_required"); len(got) != 1 {
		t.Errorf("expected 1 message from aa_required, got %d", len(got))
	}
}

func TestSkipPropagatesToDependents(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{NoCatch: true})

	// Skipping missing_source_url must transitively disable missing_hash.
	messages := lintText(t, l, `package:
  name: skiptest
source:
  url: ftp://example.com/src.tar.gz
extra:
  skip-lints:
    - missing_source_url
`, "skiptest")

	if got := messagesFor(messages, "missing_source_url"); len(got) != 0 {
		t.Errorf("missing_source_url should be skipped, got %v", got)
	}
	if got := messagesFor(messages, "missing_hash"); len(got) != 0 {
		t.Errorf("missing_hash should be skipped via propagation, got %v", got)
	}
}

func TestOnlyLintAllowList(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{NoCatch: true})

	messages := lintText(t, l, `package:
  name: onlytest
  version: "1.0"
requirements:
  host:
    - python
extra:
  only-lint:
    - missing_section
`, "onlytest")

	sections := messagesFor(messages, "missing_section")
	if len(sections) != 2 {
		t.Fatalf("expected exactly 2 missing_section messages (build, about), got %d: %v",
			len(sections), messages)
	}
	for _, msg := range sections {
		if msg.Severity != SeverityError {
			t.Errorf("expected ERROR severity, got %v", msg.Severity)
		}
		if msg.StartLine != 1 || msg.EndLine != 1 {
			t.Errorf("absent section should degrade to line 1, got %d-%d",
				msg.StartLine, msg.EndLine)
		}
	}
	if len(messages) != 2 {
		t.Errorf("allow-list should suppress everything else, got %v", messages)
	}
}

func TestSkipDirectiveForRecipe(t *testing.T) {
	t.Parallel()
	manifest := `package:
  name: directed
  version: "1.0"
build:
  number: 0
about:
  summary: test
extra:
  only-lint:
    - missing_home
`
	skipped := newTestLinter(t, Options{
		NoCatch:  true,
		SkipText: "fixup lint [lint skip missing_home for directed]",
	})
	if got := messagesFor(lintText(t, skipped, manifest, "directed"), "missing_home"); len(got) != 0 {
		t.Errorf("directive should suppress missing_home, got %v", got)
	}

	other := newTestLinter(t, Options{
		NoCatch:  true,
		SkipText: "fixup lint [lint skip missing_home for somethingelse]",
	})
	if got := messagesFor(lintText(t, other, manifest, "directed"), "missing_home"); len(got) != 1 {
		t.Errorf("directive for another recipe should not apply, got %v", got)
	}
}

func TestLintOneParseFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()
		l := newTestLinter(t, Options{NoCatch: true})
		messages := l.LintOne(ctx, filepath.Join(t.TempDir(), "absent"), recipe.DefaultSubdir, false)
		if len(messages) != 1 || messages[0].Check != "missing_recipe_file" {
			t.Fatalf("expected single missing_recipe_file message, got %v", messages)
		}
		if messages[0].Severity != SeverityError || messages[0].StartLine != 1 {
			t.Errorf("failure message should be ERROR at line 1, got %+v", messages[0])
		}
	})

	t.Run("empty manifest", func(t *testing.T) {
		t.Parallel()
		l := newTestLinter(t, Options{NoCatch: true})
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, recipe.ManifestName), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		messages := l.LintOne(ctx, dir, recipe.DefaultSubdir, false)
		if len(messages) != 1 || messages[0].Check != "empty_recipe" {
			t.Fatalf("expected single empty_recipe message, got %v", messages)
		}
	})

	t.Run("broken yaml", func(t *testing.T) {
		t.Parallel()
		l := newTestLinter(t, Options{NoCatch: true})
		dir := t.TempDir()
		data := []byte("package:\n  name: x\n bad: y\n")
		if err := os.WriteFile(filepath.Join(dir, recipe.ManifestName), data, 0o644); err != nil {
			t.Fatal(err)
		}
		messages := l.LintOne(ctx, dir, recipe.DefaultSubdir, false)
		if len(messages) != 1 || messages[0].Check != "yaml_load_failure" {
			t.Fatalf("expected single yaml_load_failure message, got %v", messages)
		}
	})
}

func TestSeverityAggregation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	writeRecipe := func(t *testing.T, text string) string {
		t.Helper()
		dir := filepath.Join(t.TempDir(), "pkg", "recipe")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, recipe.ManifestName), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
		return dir
	}

	t.Run("errors dominate", func(t *testing.T) {
		t.Parallel()
		l := newTestLinter(t, Options{NoCatch: true})
		dir := writeRecipe(t, "extra:\n  only-lint: [missing_home]\n")
		if got := l.Lint(ctx, []string{dir}, recipe.DefaultSubdir, false); got != SeverityError {
			t.Errorf("expected ERROR aggregate, got %v", got)
		}
	})

	t.Run("warnings fall back", func(t *testing.T) {
		t.Parallel()
		l := newTestLinter(t, Options{NoCatch: true})
		dir := writeRecipe(t, "extra:\n  only-lint: [missing_description]\n")
		if got := l.Lint(ctx, []string{dir}, recipe.DefaultSubdir, false); got != SeverityWarning {
			t.Errorf("expected WARNING aggregate, got %v", got)
		}
	})

	t.Run("clean is none", func(t *testing.T) {
		t.Parallel()
		l := newTestLinter(t, Options{NoCatch: true})
		dir := writeRecipe(t, `package:
  name: clean
about:
  description: present
extra:
  only-lint:
    - missing_description
`)
		if got := l.Lint(ctx, []string{dir}, recipe.DefaultSubdir, false); got != SeverityNone {
			t.Errorf("expected NONE aggregate, got %v", got)
		}
	})
}

func TestMessagesSeverityFloor(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{NoCatch: true, SeverityMin: SeverityError})

	rec, err := recipe.LoadString(`package:
  name: floor
extra:
  only-lint:
    - missing_description
    - missing_home
`, "floor")
	if err != nil {
		t.Fatal(err)
	}
	l.messages = l.LintRecipe(context.Background(), rec, false)

	for _, msg := range l.Messages() {
		if msg.Severity < SeverityError {
			t.Errorf("severity floor leaked %+v", msg)
		}
	}
	if got := messagesFor(l.Messages(), "missing_home"); len(got) != 1 {
		t.Errorf("expected missing_home to survive the floor, got %v", l.Messages())
	}
}

type panickyCheck struct{ baseCheck }

func (c *panickyCheck) CheckRecipe(*Run) { panic("boom") }

func TestPanicContainment(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{
		ExtraChecks: []Check{&panickyCheck{baseCheck{
			name: "panicky", severity: SeverityError, doc: "panics\n"}}},
	})

	messages := lintText(t, l, "extra:\n  only-lint: [panicky, missing_home]\n", "boom")
	synthesized := messagesFor(messages, "panicky")
	if len(synthesized) != 1 {
		t.Fatalf("expected single synthesized message, got %v", messages)
	}
	msg := synthesized[0]
	if msg.Severity != SeverityError || !strings.Contains(msg.Title, "panicky") {
		t.Errorf("contained panic should yield an ERROR naming the check, got %+v", msg)
	}
	if got := messagesFor(messages, "missing_home"); len(got) != 1 {
		t.Errorf("independent checks should still run after a contained panic, got %v", messages)
	}
}

func TestPanicNoCatchPropagates(t *testing.T) {
	t.Parallel()
	l := newTestLinter(t, Options{
		NoCatch: true,
		ExtraChecks: []Check{&panickyCheck{baseCheck{
			name: "panicky", severity: SeverityError, doc: "panics\n"}}},
	})

	defer func() {
		if recover() == nil {
			t.Error("expected the panic to propagate in NoCatch mode")
		}
	}()
	lintText(t, l, "extra:\n  only-lint: [panicky]\n", "boom")
}

func TestFixWritesBackOnceAndIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	manifest := `package:
  name: fixable
extra:
  only-lint:
    - missing_build_number
`
	if err := os.WriteFile(filepath.Join(dir, recipe.ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	l := newTestLinter(t, Options{NoCatch: true})
	first := l.LintOne(ctx, dir, recipe.DefaultSubdir, true)
	if got := messagesFor(first, "missing_build_number"); len(got) != 1 || got[0].FixState != FixPassed {
		t.Fatalf("expected one fix-passed message, got %v", first)
	}

	data, err := os.ReadFile(filepath.Join(dir, recipe.ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "number: 0") {
		t.Fatalf("fix was not persisted:\n%s", data)
	}

	second := l.LintOne(ctx, dir, recipe.DefaultSubdir, true)
	if got := messagesFor(second, "missing_build_number"); len(got) != 0 {
		t.Errorf("fix should be idempotent, second run produced %v", got)
	}
}

func TestFixedMessagesExcludedFromOutput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	manifest := "package:\n  name: fixable\nextra:\n  only-lint: [missing_build_number]\n"
	if err := os.WriteFile(filepath.Join(dir, recipe.ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	l := newTestLinter(t, Options{NoCatch: true})
	if got := l.Lint(ctx, []string{dir}, recipe.DefaultSubdir, true); got != SeverityNone {
		t.Errorf("fixed findings should not count toward the aggregate, got %v", got)
	}
	if len(l.Messages()) != 0 {
		t.Errorf("fixed findings should be excluded from Messages, got %v", l.Messages())
	}
	if fixed := l.FixedChecks(); len(fixed) != 1 || fixed[0] != "missing_build_number" {
		t.Errorf("expected FixedChecks to report missing_build_number, got %v", fixed)
	}
}

func TestNewRejectsDependencyCycle(t *testing.T) {
	t.Parallel()
	_, err := New(Options{
		SkipText: "no directives",
		ExtraChecks: []Check{
			baseCheck{name: "cycle_a", severity: SeverityError,
				requires: []string{"cycle_b"}, doc: "a\n"},
			baseCheck{name: "cycle_b", severity: SeverityError,
				requires: []string{"cycle_a"}, doc: "b\n"},
		},
	})
	var cycle *dag.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *dag.CycleError, got %v", err)
	}
}

func TestNewRejectsUnknownRequirement(t *testing.T) {
	t.Parallel()
	_, err := New(Options{
		SkipText: "no directives",
		ExtraChecks: []Check{baseCheck{
			name: "needs_ghost", severity: SeverityError,
			requires: []string{"ghost_check"}, doc: "dangling\n"}},
	})
	var unknown *UnknownCheckError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownCheckError, got %v", err)
	}
	if unknown.Check != "needs_ghost" || unknown.Requirement != "ghost_check" {
		t.Errorf("unexpected error detail: %+v", unknown)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()
	_, err := NewRegistry(baseCheck{name: "missing_home", severity: SeverityError, doc: "dup\n"})
	var dup *DuplicateCheckError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateCheckError, got %v", err)
	}
	if dup.Name != "missing_home" {
		t.Errorf("expected duplicate name missing_home, got %q", dup.Name)
	}
}
