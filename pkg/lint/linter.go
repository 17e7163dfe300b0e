// SPDX-License-Identifier: MPL-2.0

// Package lint turns a flat set of independently-authored checks into one
// deterministic analysis pass over conda recipes: checks are ordered by
// their declared requirements, skip directives and failures propagate along
// the dependency graph, and findings come back as a sorted, deduplicated
// message list with optional auto-remediation.
package lint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"condalint/internal/config"
	"condalint/internal/dag"
	"condalint/pkg/recipe"
)

type (
	// Options configures a Linter.
	Options struct {
		// Config is the loaded linter configuration.
		Config *config.Config
		// Exclude lists check names to skip for every recipe in the
		// session; use sparingly.
		Exclude []string
		// NoCatch disables panic containment in the execution engine so a
		// failing check surfaces directly. Meant for the test suite.
		NoCatch bool
		// SeverityMin is the minimum severity included in Messages().
		SeverityMin Severity
		// SkipText overrides the skip-directive source (environment
		// variable / commit message) with literal text.
		SkipText string
		// Logger receives engine trace output; defaults to log.Default().
		Logger *log.Logger
		// ExtraChecks are registered alongside the built-in set.
		ExtraChecks []Check
	}

	// Linter executes the check set over recipes and accumulates messages
	// across a session. Construct with New; one Linter serves many recipes.
	Linter struct {
		cfg         *config.Config
		exclude     []string
		nocatch     bool
		severityMin Severity
		logger      *log.Logger

		registry       *Registry
		graph          *dag.Graph
		order          []string
		skipDirectives map[string][]string

		messages []Message
	}
)

// New constructs a Linter: it assembles the check registry, builds and
// validates the dependency graph, and parses skip directives once. A cyclic
// requirements graph or a duplicate check name is a configuration error
// reported here, before any recipe is linted.
func New(opts Options) (*Linter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	severityMin := opts.SeverityMin
	if severityMin == SeverityNone {
		severityMin = SeverityMinDefault
	}

	exclude := append([]string{}, opts.Exclude...)
	if opts.Config != nil {
		exclude = append(exclude, opts.Config.Exclude...)
	}

	l := &Linter{
		cfg:            opts.Config,
		exclude:        exclude,
		nocatch:        opts.NoCatch,
		severityMin:    severityMin,
		logger:         logger,
		skipDirectives: loadSkipDirectives(opts.SkipText),
	}

	registry, err := NewRegistry(opts.ExtraChecks...)
	if err != nil {
		return nil, err
	}
	l.registry = registry

	if opts.Config != nil && opts.Config.URLTimeoutSeconds > 0 {
		timeout := time.Duration(opts.Config.URLTimeoutSeconds) * time.Second
		for _, c := range registry.Checks() {
			if tc, ok := c.(interface{ SetURLTimeout(time.Duration) }); ok {
				tc.SetURLTimeout(timeout)
			}
		}
	}

	if err := l.ReloadChecks(); err != nil {
		return nil, err
	}
	return l, nil
}

// ReloadChecks rebuilds the dependency graph and the execution order from
// the registry. Checks are stateless, so this is only needed when the
// registry contents conceptually change; it is cheap enough to call between
// recipes regardless.
func (l *Linter) ReloadChecks() error {
	graph := dag.New()
	for _, c := range l.registry.Checks() {
		graph.AddNode(c.Name())
	}
	for _, c := range l.registry.Checks() {
		for _, req := range c.Requires() {
			if !graph.Has(req) {
				return &UnknownCheckError{Check: c.Name(), Requirement: req}
			}
			// The requirement must complete before its dependent starts.
			graph.AddEdge(req, c.Name())
		}
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		return fmt.Errorf("check requirements: %w", err)
	}
	l.graph = graph
	l.order = order
	return nil
}

// Registry exposes the check registry, e.g. for listing and documentation.
func (l *Linter) Registry() *Registry { return l.registry }

// Lint runs the linter over multiple recipe directories for one subdir.
// Messages accumulate in the linter across calls; the return value is the
// aggregate severity over everything accumulated so far: ERROR if any error
// message exists, else WARNING if any warning exists, else NONE.
func (l *Linter) Lint(ctx context.Context, recipeDirs []string, subdir string, fix bool) Severity {
	dirs := make([]string, len(recipeDirs))
	copy(dirs, recipeDirs)
	sort.Strings(dirs)

	for _, dir := range dirs {
		l.messages = append(l.messages, l.LintOne(ctx, dir, subdir, fix)...)
	}
	return l.aggregate()
}

// LintOne lints a single recipe directory and returns its messages without
// accumulating them. A structural load failure produces exactly one message
// mapped from the failure kind; no individual checks run in that case.
func (l *Linter) LintOne(ctx context.Context, dir, subdir string, fix bool) []Message {
	rec, err := recipe.Load(ctx, dir, subdir)
	if err != nil {
		if pf, ok := err.(*recipe.ParseFailure); ok {
			checkName := parseFailureChecks[pf.Kind]
			if checkName == "" {
				checkName = checkLinterFailure
			}
			l.logger.Debug("recipe failed to load", "dir", dir, "kind", pf.Kind.String())
			return []Message{l.failureMessage(checkName, manifestDisplayPath(dir), pf.Line)}
		}
		l.logger.Error("unexpected error loading recipe", "dir", dir, "error", err)
		return []Message{l.failureMessage(checkLinterFailure, manifestDisplayPath(dir), 0)}
	}
	return l.lintRecipe(ctx, rec, fix)
}

// LintRecipe lints an already-loaded recipe and returns its messages.
func (l *Linter) LintRecipe(ctx context.Context, rec *recipe.Recipe, fix bool) []Message {
	return l.lintRecipe(ctx, rec, fix)
}

// lintRecipe is the execution engine: it walks checks in dependency order,
// honors the mutating skip set, contains per-check panics, propagates
// failures to dependents, and persists fixed documents exactly once.
func (l *Linter) lintRecipe(ctx context.Context, rec *recipe.Recipe, fix bool) []Message {
	skip := l.checksToSkip(rec)

	var messages []Message
	for _, name := range l.order {
		if skip[name] {
			l.logger.Debug("skipping check", "check", name, "recipe", rec.Name())
			continue
		}
		check, ok := l.registry.Get(name)
		if !ok {
			continue
		}
		l.logger.Debug("running check", "check", name, "recipe", rec.Name())

		res := l.runContained(check, rec, fix)
		if len(res) > 0 {
			// Anything that produced a message disables its dependents for
			// the remainder of this pass, whatever the severity.
			for _, dependent := range l.graph.Reachable(name) {
				skip[dependent] = true
			}
		}
		messages = append(messages, res...)
	}

	if fix && rec.IsModified() {
		if err := rec.WriteBack(ctx); err != nil {
			l.logger.Error("failed to write fixed recipe", "path", rec.Path(), "error", err)
		}
	}
	return messages
}

// runContained invokes one check with panic containment: a panicking check
// yields a single ERROR message attributed to it and linting continues. In
// NoCatch mode the panic propagates for diagnosis.
func (l *Linter) runContained(check Check, rec *recipe.Recipe, fix bool) (messages []Message) {
	if !l.nocatch {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("check panicked", "check", check.Name(), "recipe", rec.Name(), "panic", r)
				// The message keeps the failing check's identity so skip
				// directives and dedupe treat it like any of its findings;
				// the body keeps the generic failure guidance.
				msg := l.failureMessage(checkLinterFailure, rec.Path(), 0)
				msg.Check = check.Name()
				msg.Title = fmt.Sprintf("Check %s raised an unexpected error", check.Name())
				messages = []Message{msg}
			}
		}()
	}
	return invoke(check, rec, fix, l.logger)
}

// Messages returns the accumulated session messages sorted by (file name,
// end line), deduplicated, filtered to the severity floor, and excluding
// messages whose finding was already auto-fixed.
func (l *Linter) Messages() []Message {
	var out []Message
	for _, msg := range l.messages {
		if msg.Severity < l.severityMin || msg.FixState == FixPassed {
			continue
		}
		out = append(out, msg)
	}
	out = dedupeMessages(out)
	sortMessages(out)
	return out
}

// FixedChecks returns the names of checks whose findings were auto-fixed in
// this session, in first-fixed order.
func (l *Linter) FixedChecks() []string {
	var out []string
	seen := map[string]bool{}
	for _, msg := range l.messages {
		if msg.FixState == FixPassed && !seen[msg.Check] {
			seen[msg.Check] = true
			out = append(out, msg.Check)
		}
	}
	return out
}

// ClearMessages drops all accumulated messages.
func (l *Linter) ClearMessages() {
	l.messages = nil
}

// aggregate computes the overall severity with a single scan: any ERROR
// short-circuits, WARNING is only a fallback classification.
func (l *Linter) aggregate() Severity {
	result := SeverityNone
	for _, msg := range l.messages {
		if msg.FixState == FixPassed {
			continue
		}
		if msg.Severity == SeverityError {
			return SeverityError
		}
		if msg.Severity == SeverityWarning {
			result = SeverityWarning
		}
	}
	return result
}
