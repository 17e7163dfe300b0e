// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"condalint/pkg/recipe"
)

type (
	// Check is one independent analysis rule over a recipe document.
	//
	// Implementations are stateless: all per-run state lives in the Run
	// accumulator handed to the hooks, so check instances can be shared
	// across recipes without leaking results between passes. The three
	// hooks are all optional in spirit; embed baseCheck to inherit no-op
	// implementations and the metadata accessors.
	Check interface {
		// Name returns the unique check identity, e.g. "missing_home".
		// The identity is what skip directives and requires lists refer to.
		Name() string
		// Severity is the default severity of messages the check reports.
		Severity() Severity
		// Requires lists checks that must have run and passed before this
		// one executes.
		Requires() []string
		// Doc returns the check documentation. The first line is the
		// message title (it may contain fmt verbs filled at report time),
		// the remainder the message body.
		Doc() string

		// CheckRecipe evaluates the whole recipe.
		CheckRecipe(run *Run)
		// CheckDeps evaluates the aggregated dependency mapping.
		CheckDeps(run *Run, deps recipe.DepsDict)
		// CheckSource evaluates one source entry; the engine calls it once
		// per entry regardless of the authored source shape.
		CheckSource(run *Run, src recipe.SourceEntry)
	}

	// Fixer is implemented by checks that can auto-remediate their findings.
	// Fix receives the message under construction and the opaque payload
	// attached at report time; it returns whether the remediation succeeded.
	Fixer interface {
		Fix(rec *recipe.Recipe, msg *Message, data any) bool
	}

	// baseCheck carries check metadata and no-op hook implementations.
	// Every built-in rule embeds it.
	baseCheck struct {
		name     string
		severity Severity
		requires []string
		doc      string
	}

	// Issue describes one finding a check hands to Run.Report.
	Issue struct {
		// Section anchors the message at a document section; the message
		// location degrades to line 1 when the section does not exist.
		Section string
		// Line anchors the message directly when Section is empty.
		Line int
		// Severity overrides the check's default severity when non-zero.
		Severity Severity
		// FName overrides the target file (defaults to the manifest).
		FName string
		// TitleArgs are fmt arguments for the doc title.
		TitleArgs []any
		// Output is the name of the output the finding applies to, used to
		// prefix the title in multi-output recipes.
		Output string
		// Data is the opaque fix payload; a message is only fixable when a
		// non-nil payload was supplied by a check that implements Fixer.
		Data any
	}

	// Run accumulates the results of one check invocation against one
	// recipe. The engine creates a fresh Run per invocation, so no state
	// survives between recipes or between checks.
	Run struct {
		rec      *recipe.Recipe
		check    Check
		fixer    Fixer
		fix      bool
		logger   *log.Logger
		messages []Message
	}
)

func (b baseCheck) Name() string                       { return b.name }
func (b baseCheck) Severity() Severity                 { return b.severity }
func (b baseCheck) Requires() []string                 { return b.requires }
func (b baseCheck) Doc() string                        { return b.doc }
func (baseCheck) CheckRecipe(*Run)                     {}
func (baseCheck) CheckDeps(*Run, recipe.DepsDict)      {}
func (baseCheck) CheckSource(*Run, recipe.SourceEntry) {}

// Recipe returns the recipe under test.
func (r *Run) Recipe() *recipe.Recipe { return r.rec }

// Report records one finding. When fix mode is active and the owning check
// can remediate the finding, the fix is attempted immediately; a successful
// fix marks the message fix-passed, which keeps it out of the session's
// reported message list.
func (r *Run) Report(issue Issue) {
	msg := r.makeMessage(issue)
	if r.fix && msg.CanFix {
		if r.fixer.Fix(r.rec, &msg, issue.Data) {
			msg.FixState = FixPassed
		} else {
			msg.FixState = FixFailed
		}
	}
	r.messages = append(r.messages, msg)
}

func (r *Run) makeMessage(issue Issue) Message {
	severity := issue.Severity
	if severity == SeverityNone {
		severity = r.check.Severity()
	}

	title, body, _ := strings.Cut(r.check.Doc(), "\n")
	if len(issue.TitleArgs) > 0 {
		title = fmt.Sprintf(title, issue.TitleArgs...)
	}
	if issue.Output != "" {
		title = fmt.Sprintf("output %q: %s", issue.Output, title)
	}

	startLine, endLine := issue.Line, issue.Line
	if issue.Section != "" {
		if rr, err := r.rec.GetRawRange(issue.Section); err == nil {
			startLine, endLine = rr.StartLine, rr.EndLine
		} else {
			startLine, endLine = 1, 1
		}
	}

	fname := issue.FName
	if fname == "" {
		fname = r.rec.Path()
	}

	return Message{
		Check:     r.check.Name(),
		Severity:  severity,
		Title:     strings.TrimSpace(title),
		Body:      strings.TrimSpace(body),
		StartLine: startLine,
		EndLine:   endLine,
		FName:     displayPath(fname),
		CanFix:    r.fixer != nil && issue.Data != nil,
		Recipe:    r.rec,
	}
}

// invoke runs the full check protocol against a recipe: the whole-recipe
// hook, one call per normalized source entry, then the dependency hook.
func invoke(c Check, rec *recipe.Recipe, fix bool, logger *log.Logger) []Message {
	run := &Run{
		rec:    rec,
		check:  c,
		fix:    fix,
		logger: logger,
	}
	run.fixer, _ = c.(Fixer)

	c.CheckRecipe(run)
	for _, src := range rec.Sources() {
		c.CheckSource(run, src)
	}
	c.CheckDeps(run, rec.GetDepsDict())
	return run.messages
}
