// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"strings"
)

// multiOutputChecks covers recipes with an outputs section.
func multiOutputChecks() []Check {
	return []Check{
		&outputMissingName{baseCheck{
			name:     "output_missing_name",
			severity: SeverityError,
			doc: `Output has no name
Each output must have a unique name. Please add:

    outputs:
      - name: <output name>`,
		}},
		&outputsNotUnique{baseCheck{
			name:     "outputs_not_unique",
			severity: SeverityError,
			doc: `Output name %q is not unique
Please make sure all output names are unique and are not the same as the
package name.`,
		}},
		&noGlobalTest{baseCheck{
			name:     "no_global_test",
			severity: SeverityInfo,
			doc: `Global tests are ignored in multi-output recipes
Tests must be added to each individual output.`,
		}},
		&outputMissingScript{baseCheck{
			name:     "output_missing_script",
			severity: SeverityWarning,
			doc: `Output is missing a script
Every output must have either a filename or a command in the script field.`,
		}},
		&outputScriptNameDefault{baseCheck{
			name:     "output_script_name_default",
			severity: SeverityError,
			doc: `Output should not use default script names build.sh/bld.bat
conda-build runs the default script names for the top-level package. Please
give each output its own script name.`,
		}},
	}
}

type outputMissingName struct{ baseCheck }

func (c *outputMissingName) CheckRecipe(run *Run) {
	rec := run.Recipe()
	for n := range rec.GetList("outputs") {
		if rec.GetString(fmt.Sprintf("outputs/%d/name", n), "") == "" {
			run.Report(Issue{Section: fmt.Sprintf("outputs/%d", n)})
		}
	}
}

type outputsNotUnique struct{ baseCheck }

func (c *outputsNotUnique) CheckRecipe(run *Run) {
	rec := run.Recipe()
	outputs := rec.GetList("outputs")
	if len(outputs) == 0 {
		return
	}
	seen := map[string]bool{}
	if pkg := rec.GetString("package/name", ""); pkg != "" {
		seen[pkg] = true
	}
	for n := range outputs {
		name := rec.GetString(fmt.Sprintf("outputs/%d/name", n), "")
		if name == "" {
			continue
		}
		if seen[name] {
			run.Report(Issue{
				Section:   fmt.Sprintf("outputs/%d/name", n),
				TitleArgs: []any{name},
			})
		}
		seen[name] = true
	}
}

type noGlobalTest struct{ baseCheck }

func (c *noGlobalTest) CheckRecipe(run *Run) {
	rec := run.Recipe()
	if len(rec.GetList("outputs")) > 0 && rec.Get("test", nil) != nil {
		run.Report(Issue{Section: "test"})
	}
}

type outputMissingScript struct{ baseCheck }

func (c *outputMissingScript) CheckRecipe(run *Run) {
	rec := run.Recipe()
	outputs := rec.GetList("outputs")
	if len(outputs) == 0 {
		return
	}

	// Outputs that appear as run dependencies of other outputs are
	// subpackages materialized via pin_subpackage; those need no script.
	names := map[string]bool{}
	for n := range outputs {
		if name := rec.GetString(fmt.Sprintf("outputs/%d/name", n), ""); name != "" {
			names[name] = true
		}
	}
	subpackages := map[string]bool{}
	for name, dep := range rec.GetDepsDict("run") {
		if !names[name] {
			continue
		}
		for _, path := range dep.Paths {
			if strings.HasPrefix(path, "outputs/") {
				subpackages[name] = true
			}
		}
	}

	for n := range outputs {
		name := rec.GetString(fmt.Sprintf("outputs/%d/name", n), "")
		if subpackages[name] {
			continue
		}
		if rec.GetString(fmt.Sprintf("outputs/%d/script", n), "") == "" {
			run.Report(Issue{
				Section: fmt.Sprintf("outputs/%d", n),
				Output:  outputName(rec, n),
			})
		}
	}
}

type outputScriptNameDefault struct{ baseCheck }

var defaultScriptNames = []string{"build.sh", "bld.bat"}

func (c *outputScriptNameDefault) CheckRecipe(run *Run) {
	rec := run.Recipe()
	for n := range rec.GetList("outputs") {
		script := rec.GetString(fmt.Sprintf("outputs/%d/script", n), "")
		for _, name := range defaultScriptNames {
			if script == name {
				run.Report(Issue{
					Section: fmt.Sprintf("outputs/%d/script", n),
					Output:  outputName(rec, n),
				})
			}
		}
	}
}
