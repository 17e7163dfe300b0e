// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"path/filepath"
	"strings"

	"condalint/pkg/recipe"
)

// Structural load failures are reported through ordinary check identities so
// that they participate in skip directives and dependency edges like any
// other check. These checks carry documentation only; the engine synthesizes
// their messages directly from a ParseFailure, and no per-check pass runs
// for a recipe that failed to load.

const (
	checkLinterFailure     = "linter_failure"
	checkMissingRecipeFile = "missing_recipe_file"
	checkEmptyRecipe       = "empty_recipe"
	checkRenderFailure     = "render_failure"
	checkYAMLLoadFailure   = "yaml_load_failure"
)

// failureChecks returns the message-only identities for load failures and
// engine-internal errors.
func failureChecks() []Check {
	return []Check{
		baseCheck{
			name:     checkLinterFailure,
			severity: SeverityError,
			doc: `An unexpected error occurred during linting
Please file an issue against condalint with the recipe that triggered it.`,
		},
		baseCheck{
			name:     checkMissingRecipeFile,
			severity: SeverityError,
			doc: `The recipe is missing a meta.yaml file
Most commonly the file was accidentally named meta.yml; if so, rename it
to meta.yaml.`,
		},
		baseCheck{
			name:     checkEmptyRecipe,
			severity: SeverityError,
			doc: `The recipe has an empty meta.yaml
Please check whether you forgot to commit its contents.`,
		},
		baseCheck{
			name:     checkRenderFailure,
			severity: SeverityError,
			doc: `The recipe template could not be rendered
Check for missing quotes or unbalanced braces in template expressions.`,
		},
		baseCheck{
			name:     checkYAMLLoadFailure,
			severity: SeverityError,
			doc: `The recipe could not be loaded as YAML
Check your selectors and overall YAML validity.`,
		},
	}
}

// parseFailureChecks maps each structural failure kind to the fixed check
// identity that reports it.
var parseFailureChecks = map[recipe.FailureKind]string{
	recipe.FailureMissingFile: checkMissingRecipeFile,
	recipe.FailureEmpty:       checkEmptyRecipe,
	recipe.FailureRender:      checkRenderFailure,
	recipe.FailureYAML:        checkYAMLLoadFailure,
}

// failureMessage synthesizes the single diagnostic for a check identity
// without running any hooks. Used for load failures and contained panics.
func (l *Linter) failureMessage(checkName, fname string, line int) Message {
	title, body := checkName, ""
	if c, ok := l.registry.Get(checkName); ok {
		title, body, _ = strings.Cut(c.Doc(), "\n")
	}
	if line < 1 {
		line = 1
	}
	return Message{
		Check:     checkName,
		Severity:  SeverityError,
		Title:     strings.TrimSpace(title),
		Body:      strings.TrimSpace(body),
		StartLine: line,
		EndLine:   line,
		FName:     displayPath(fname),
	}
}

// manifestDisplayPath builds the display path of a recipe manifest from its
// directory, for failures where no Recipe object exists.
func manifestDisplayPath(dir string) string {
	return displayPath(filepath.Join(dir, recipe.ManifestName))
}
