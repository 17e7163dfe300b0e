// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"fmt"
	"regexp"
	"strings"
)

// The render prepass is a deliberately narrow stand-in for a full template
// renderer: it captures `{% set k = v %}` assignments, substitutes
// `{{ k }}` references, evaluates trailing selector comments against the
// target subdir, and blanks expressions it cannot resolve. Anything fancier
// belongs in an external renderer; the linter only needs a structured tree
// with stable line numbers.

var (
	setStmtRe  = regexp.MustCompile(`^\s*\{%\s*set\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+?)\s*%\}\s*$`)
	blockRe    = regexp.MustCompile(`\{%.*?%\}`)
	exprRe     = regexp.MustCompile(`\{\{\s*([^}]*?)\s*\}\}`)
	selectorRe = regexp.MustCompile(`#\s*\[([^\]]+)\]\s*$`)
)

// subdirFeatures maps a conda subdir to the selector symbols that are true
// for it. Unknown subdirs get no symbols beyond the subdir name itself.
func subdirFeatures(subdir string) map[string]bool {
	features := map[string]bool{subdir: true}
	platform, arch, _ := strings.Cut(subdir, "-")
	switch platform {
	case "linux":
		features["linux"] = true
		features["unix"] = true
	case "osx":
		features["osx"] = true
		features["unix"] = true
	case "win":
		features["win"] = true
	}
	switch arch {
	case "64":
		features["x86_64"] = true
		features[platform+"64"] = true
	case "aarch64", "arm64":
		features["aarch64"] = true
		features["arm64"] = true
	case "ppc64le", "s390x":
		features[arch] = true
	}
	return features
}

// evalSelector evaluates a selector expression against the feature set.
// Supported grammar: bare symbols, "not SYM", and "and"/"or" conjunctions,
// which covers the overwhelming majority of recipes in the wild.
func evalSelector(expr string, features map[string]bool) bool {
	for _, clause := range strings.Split(expr, " or ") {
		all := true
		for _, term := range strings.Split(clause, " and ") {
			term = strings.TrimSpace(term)
			negate := false
			if rest, ok := strings.CutPrefix(term, "not "); ok {
				negate = true
				term = strings.TrimSpace(rest)
			}
			val := features[term]
			if negate {
				val = !val
			}
			if !val {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// render performs the template prepass on raw recipe text for one subdir.
// The returned text has the same number of lines as the input wherever
// possible: dropped lines become empty lines so that node positions keep
// pointing at the authored document.
func render(raw, subdir string) (string, error) {
	features := subdirFeatures(subdir)
	vars := map[string]string{}

	lines := strings.Split(raw, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		// Selector comments decide whether the line survives at all.
		if m := selectorRe.FindStringSubmatchIndex(line); m != nil {
			expr := line[m[2]:m[3]]
			if !evalSelector(expr, features) {
				out[i] = ""
				continue
			}
			line = strings.TrimRight(line[:m[0]], " \t")
		}

		if m := setStmtRe.FindStringSubmatch(line); m != nil {
			vars[m[1]] = strings.Trim(m[2], `"'`)
			out[i] = ""
			continue
		}
		if strings.Contains(line, "{%") {
			if !strings.Contains(line, "%}") {
				return "", &ParseFailure{Kind: FailureRender, Line: i + 1,
					Cause: fmt.Errorf("unterminated template statement")}
			}
			// Flow-control statements are evaluated by the real renderer;
			// here they only get stripped so the YAML stays loadable.
			line = blockRe.ReplaceAllString(line, "")
		}
		if strings.Contains(line, "{{") {
			if !strings.Contains(line, "}}") {
				return "", &ParseFailure{Kind: FailureRender, Line: i + 1,
					Cause: fmt.Errorf("unterminated template expression")}
			}
			line = exprRe.ReplaceAllStringFunc(line, func(match string) string {
				expr := exprRe.FindStringSubmatch(match)[1]
				return resolveExpr(expr, vars)
			})
		}
		out[i] = line
	}
	return strings.Join(out, "\n"), nil
}

// callRe matches a template function call with a string first argument,
// e.g. compiler('c') or pin_subpackage("libfoo", exact=True).
var callRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(\s*['"]([^'"]+)['"]`)

// resolveExpr resolves a `{{ ... }}` expression body: a variable reference
// with optional simple filters, or one of the well-known template function
// calls, rendered the way conda-build's own dummy environment does so that
// dependency names stay inspectable. Unresolvable expressions render empty.
func resolveExpr(expr string, vars map[string]string) string {
	parts := strings.Split(expr, "|")
	name := strings.TrimSpace(parts[0])
	if m := callRe.FindStringSubmatch(name); m != nil {
		fn, arg := m[1], m[2]
		switch fn {
		case "compiler", "stdlib", "cdt":
			return fn + "_" + arg
		case "pin_subpackage", "pin_compatible":
			return arg
		}
		return ""
	}
	val, ok := vars[name]
	if !ok {
		return ""
	}
	for _, filter := range parts[1:] {
		switch strings.TrimSpace(filter) {
		case "lower":
			val = strings.ToLower(val)
		case "upper":
			val = strings.ToUpper(val)
		}
	}
	return val
}
