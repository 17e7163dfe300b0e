// SPDX-License-Identifier: MPL-2.0

package lint

import (
	_ "embed"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// The identifier lists mirror the SPDX license-list-data release shipped
// with the linter; refresh them from
// https://github.com/spdx/license-list-data when SPDX cuts a new release.

//go:embed data/licenses.txt
var spdxLicensesRaw string

//go:embed data/license_exceptions.txt
var spdxExceptionsRaw string

func idSet(raw string) map[string]bool {
	set := map[string]bool{}
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = true
		}
	}
	return set
}

// licenseRefRe matches user-defined LicenseRef identifiers, which SPDX
// permits without registration.
var licenseRefRe = regexp.MustCompile(`^LicenseRef[a-zA-Z0-9\-.]*$`)

// licenseChecks covers SPDX compliance of the about/license expression.
func licenseChecks() []Check {
	return []Check{
		&incorrectLicense{
			baseCheck: baseCheck{
				name:     "incorrect_license",
				severity: SeverityWarning,
				doc: `%s
Please review:

    about:
      license: <name of license>`,
			},
			licenses:   idSet(spdxLicensesRaw),
			exceptions: idSet(spdxExceptionsRaw),
			closest:    closestByEditDistance,
		},
	}
}

type incorrectLicense struct {
	baseCheck
	licenses   map[string]bool
	exceptions map[string]bool
	// closest proposes a replacement identifier; swappable for tests and
	// for alternative matching strategies.
	closest func(id string, candidates map[string]bool) string
}

func (c *incorrectLicense) CheckRecipe(run *Run) {
	expr := run.Recipe().GetString("about/license", "")
	if expr == "" {
		return
	}
	licenses, exceptions := parseLicenseExpression(expr)

	for _, id := range licenses {
		if licenseRefRe.MatchString(id) || c.licenses[id] {
			continue
		}
		text := "The about/license key is not an SPDX compliant license or" +
			" license exception, reference https://spdx.org/licenses/"
		if match := c.closest(id, c.licenses); match != "" {
			text = "The about/license key is not an SPDX compliant license or" +
				" license exception, closest match: " + match
		}
		run.Report(Issue{Section: "about/license", TitleArgs: []any{text}})
	}
	for _, id := range exceptions {
		if c.exceptions[id] {
			continue
		}
		run.Report(Issue{
			Section: "about/license",
			TitleArgs: []any{"The about/license key is not an SPDX compliant license" +
				" or license exception, reference https://spdx.org/licenses/exceptions-index.html"},
		})
	}
}

// parseLicenseExpression tokenizes an SPDX expression into license and
// exception identifiers. Operators and parentheses are structural only;
// validation of the ids happens in the caller.
func parseLicenseExpression(expr string) (licenses, exceptions []string) {
	expr = strings.ReplaceAll(expr, "(", " ")
	expr = strings.ReplaceAll(expr, ")", " ")
	tokens := strings.Fields(expr)

	expectException := false
	for _, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "AND", "OR":
			continue
		case "WITH":
			expectException = true
			continue
		}
		id := strings.TrimSuffix(tok, "+")
		if expectException {
			exceptions = append(exceptions, id)
			expectException = false
		} else {
			licenses = append(licenses, id)
		}
	}
	return licenses, exceptions
}

// closestByEditDistance returns the candidate with the smallest edit
// distance to id, or "" when nothing is reasonably close. The threshold
// scales with the identifier length so short ids do not match everything.
func closestByEditDistance(id string, candidates map[string]bool) string {
	dmp := diffmatchpatch.New()
	best, bestDist := "", len(id)/2+1
	for candidate := range candidates {
		diffs := dmp.DiffMain(strings.ToLower(id), strings.ToLower(candidate), false)
		dist := dmp.DiffLevenshtein(diffs)
		if dist < bestDist || (dist == bestDist && best != "" && candidate < best) {
			best, bestDist = candidate, dist
		}
	}
	return best
}
