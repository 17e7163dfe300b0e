// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"os"
	"regexp"
	"sort"

	"github.com/go-git/go-git/v5"

	"condalint/pkg/recipe"
)

// SkipEnvVar overrides the commit-message skip-directive source. When set,
// its content is parsed instead of the latest commit message.
const SkipEnvVar = "LINT_SKIP"

// skipDirectiveRe matches bracketed skip directives of the form
// "[lint skip CHECKNAME for RECIPENAME]" anywhere in free text.
var skipDirectiveRe = regexp.MustCompile(`\[\s*lint skip (\w+) for ([^\]\s]+)\s*\]`)

// parseSkipDirectives extracts every skip directive from text, returning a
// mapping of recipe name to the check names skipped for it. Malformed
// bracket expressions are ignored.
func parseSkipDirectives(text string) map[string][]string {
	directives := map[string][]string{}
	for _, m := range skipDirectiveRe.FindAllStringSubmatch(text, -1) {
		check, recipeName := m[1], m[2]
		directives[recipeName] = append(directives[recipeName], check)
	}
	return directives
}

// headCommitMessage returns the message of the latest commit of the
// repository enclosing dir, or "" when dir is not inside a repository.
func headCommitMessage(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return ""
	}
	return commit.Message
}

// loadSkipDirectives resolves the skip-directive input channel: an explicit
// override, else the environment variable, else the latest commit message.
func loadSkipDirectives(override string) map[string][]string {
	text := override
	if text == "" {
		text = os.Getenv(SkipEnvVar)
	}
	if text == "" {
		wd, err := os.Getwd()
		if err != nil {
			return map[string][]string{}
		}
		text = headCommitMessage(wd)
	}
	return parseSkipDirectives(text)
}

// checksToSkip computes the initial skip set for one recipe run: the union
// of the global exclude list, skip directives matching the recipe name, the
// recipe's own skip list, and the inversion of its allow-list, transitively
// closed over the dependency graph.
func (l *Linter) checksToSkip(rec *recipe.Recipe) map[string]bool {
	skip := map[string]bool{}
	for _, name := range l.exclude {
		skip[name] = true
	}
	for _, name := range l.skipDirectives[rec.Name()] {
		skip[name] = true
	}
	if l.cfg != nil {
		for _, name := range l.cfg.Skips[rec.Name()] {
			skip[name] = true
		}
	}
	for _, name := range rec.GetStrings("extra/skip-lints") {
		skip[name] = true
	}

	// An allow-list skips everything outside it. The explicit skip list
	// still applies on top, so a check named in both stays skipped.
	if onlyLint := rec.GetStrings("extra/only-lint"); len(onlyLint) > 0 {
		allowed := map[string]bool{}
		for _, name := range onlyLint {
			allowed[name] = true
		}
		for _, name := range l.graph.Nodes() {
			if !allowed[name] {
				skip[name] = true
			}
			delete(allowed, name)
		}
		// Allow-list entries naming no known check fall through to the
		// unknown-name handling below.
		for name := range allowed {
			skip[name] = true
		}
	}

	// Close the set over transitive dependents, deterministically.
	initial := make([]string, 0, len(skip))
	for name := range skip {
		initial = append(initial, name)
	}
	sort.Strings(initial)
	for _, name := range initial {
		if !l.graph.Has(name) {
			l.logger.Error("skipping unknown check", "check", name)
			delete(skip, name)
			continue
		}
		for _, dependent := range l.graph.Reachable(name) {
			if !skip[dependent] {
				l.logger.Info("disabling check because its requirement is disabled",
					"check", dependent, "requirement", name)
			}
			skip[dependent] = true
		}
	}
	return skip
}
