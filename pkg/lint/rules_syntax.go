// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"condalint/pkg/recipe"
)

// syntaxChecks covers the spelling of dependency specs.
func syntaxChecks() []Check {
	return []Check{
		&versionConstraintsMissingSpace{baseCheck{
			name:     "version_constraints_missing_space",
			severity: SeverityError,
			doc: `Packages and their version constraints must be space separated
Example:

    host:
      - python >=3`,
		}},
		&invalidVersionConstraint{baseCheck{
			name:     "invalid_version_constraint",
			severity: SeverityWarning,
			doc: `The version constraint %q could not be parsed
Please check the constraint for typos.`,
		}},
	}
}

// constraintRe splits a dependency spec into the package part and the
// constraint starting at the first comparison operator.
var constraintRe = regexp.MustCompile(`^(.*?)([!<=>].*)$`)

// requirementPaths enumerates every requirement list of the recipe,
// including per-output blocks.
func requirementPaths(rec *recipe.Recipe) []string {
	paths := []string{"requirements/build", "requirements/host", "requirements/run"}
	for n := range rec.GetList("outputs") {
		prefix := "outputs/" + strconv.Itoa(n) + "/requirements/"
		paths = append(paths, prefix+"build", prefix+"host", prefix+"run")
	}
	return paths
}

type versionConstraintsMissingSpace struct{ baseCheck }

type constraintFix struct {
	listPath string
	old      string
	fixed    string
}

func (c *versionConstraintsMissingSpace) CheckRecipe(run *Run) {
	rec := run.Recipe()
	for _, listPath := range requirementPaths(rec) {
		output := ""
		if strings.HasPrefix(listPath, "outputs/") {
			n, _ := strconv.Atoi(strings.Split(listPath, "/")[1])
			output = outputName(rec, n)
		}
		for i, spec := range rec.GetStrings(listPath) {
			m := constraintRe.FindStringSubmatch(spec)
			if m == nil {
				continue
			}
			name, constraint := m[1], m[2]
			if strings.HasSuffix(name, " ") || strings.Contains(strings.TrimSpace(name), " ") {
				continue
			}
			if strings.TrimSpace(name) == "" {
				continue
			}
			run.Report(Issue{
				Section: listPath + "/" + strconv.Itoa(i),
				Output:  output,
				Data: constraintFix{
					listPath: listPath,
					old:      spec,
					fixed:    name + " " + constraint,
				},
			})
		}
	}
}

func (c *versionConstraintsMissingSpace) Fix(rec *recipe.Recipe, _ *Message, data any) bool {
	fix, ok := data.(constraintFix)
	if !ok {
		return false
	}
	return rec.Patch([]recipe.PatchOp{{
		Op:    recipe.OpReplace,
		Path:  fix.listPath,
		Match: regexp.QuoteMeta(fix.old),
		Value: fix.fixed,
	}})
}

// condaVersionRe accepts version tokens conda allows that strict semver
// rejects, e.g. four-component versions, trailing wildcards, local labels.
var condaVersionRe = regexp.MustCompile(`^[0-9!]([0-9A-Za-z._*+!]*)$`)

type invalidVersionConstraint struct{ baseCheck }

func (c *invalidVersionConstraint) CheckDeps(run *Run, deps recipe.DepsDict) {
	for _, dep := range deps {
		for i, constraint := range dep.Constraints {
			if constraint == "" || validConstraint(constraint) {
				continue
			}
			run.Report(Issue{
				Section:   dep.Paths[i],
				TitleArgs: []any{constraint},
			})
		}
	}
}

// validConstraint accepts a constraint when semver parses it or when every
// comma-separated clause is an operator followed by a conda version token.
func validConstraint(constraint string) bool {
	if _, err := semver.NewConstraint(constraint); err == nil {
		return true
	}
	for _, clause := range strings.Split(constraint, ",") {
		clause = strings.TrimSpace(clause)
		version := strings.TrimLeft(clause, "<>=!~^")
		if !condaVersionRe.MatchString(version) {
			return false
		}
	}
	return true
}
