// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"

	"condalint/pkg/recipe"
)

// completenessChecks covers essential metadata a publishable recipe must
// carry: identity, build number, about fields, sources, checksums and tests.
func completenessChecks() []Check {
	return []Check{
		&missingSection{baseCheck{
			name:     "missing_section",
			severity: SeverityError,
			doc: `The %s section is missing
Please add this section to the recipe or output.`,
		}},
		&missingBuildNumber{baseCheck{
			name:     "missing_build_number",
			severity: SeverityError,
			doc: `The recipe is missing a build number
Please add:

    build:
      number: 0`,
		}},
		&missingScalar{baseCheck: baseCheck{
			name:     "missing_package_name",
			severity: SeverityError,
			doc: `The recipe is missing a package name
Please add:

    package:
      name: <package name>`,
		}, path: "package/name", section: "package"},
		&missingScalar{baseCheck: baseCheck{
			name:     "missing_package_version",
			severity: SeverityError,
			doc: `The recipe is missing a package version
Please add:

    package:
      version: <package version>`,
		}, path: "package/version", section: "package"},
		&missingScalar{baseCheck: baseCheck{
			name:     "missing_home",
			severity: SeverityError,
			doc: `The recipe is missing a homepage URL
Please add:

    about:
      home: <URL to homepage>`,
		}, path: "about/home", section: "about"},
		&missingScalar{baseCheck: baseCheck{
			name:     "missing_summary",
			severity: SeverityError,
			doc: `The recipe is missing a summary
Please add:

    about:
      summary: <one line describing the package>`,
		}, path: "about/summary", section: "about"},
		&missingScalar{baseCheck: baseCheck{
			name:     "missing_license",
			severity: SeverityError,
			doc: `The recipe is missing the about/license key
Please add:

    about:
      license: <name of license>`,
		}, path: "about/license", section: "about"},
		&missingLicenseFile{baseCheck{
			name:     "missing_license_file",
			severity: SeverityWarning,
			doc: `The recipe is missing the about/license_file or about/license_url key
Please add:

    about:
      license_file: <license file name>

or a license_url pointing at the license text.`,
		}},
		&licenseFileOverspecified{baseCheck{
			name:     "license_file_overspecified",
			severity: SeverityWarning,
			doc: `Using license_file and license_url together is overspecified
Please remove about/license_url.`,
		}},
		&missingAnyScalar{baseCheck: baseCheck{
			name:     "missing_doc_url",
			severity: SeverityWarning,
			doc: `The recipe is missing a doc_url or doc_source_url
Please add:

    about:
      doc_url: <documentation URL>`,
		}, paths: []string{"about/doc_url", "about/doc_source_url"}, section: "about"},
		&missingScalar{baseCheck: baseCheck{
			name:     "missing_dev_url",
			severity: SeverityWarning,
			doc: `The recipe is missing a dev_url
Please add:

    about:
      dev_url: <development repository URL>`,
		}, path: "about/dev_url", section: "about"},
		&missingScalar{baseCheck: baseCheck{
			name:     "missing_description",
			severity: SeverityWarning,
			doc: `The recipe is missing a description
Please add:

    about:
      description: <a few sentences describing the package>`,
		}, path: "about/description", section: "about"},
		&missingTests{baseCheck{
			name:     "missing_tests",
			severity: SeverityWarning,
			doc: `No tests were found
Please add test commands or imports:

    test:
      commands:
        - some_command

For multi-output recipes, add a test script to each output.`,
		}},
		&missingSourceURL{baseCheck{
			name:     "missing_source_url",
			severity: SeverityError,
			doc: `The recipe is missing a URL for the source
Please add:

    source:
      url: <URL to source>`,
		}},
		&missingHash{baseCheck{
			name:     "missing_hash",
			severity: SeverityError,
			requires: []string{"missing_source_url"},
			doc: `The recipe is missing a sha256 checksum for a source file
Please add:

    source:
      sha256: <checksum value>

Note that md5 and sha1 are deprecated.`,
		}},
		&nonURLSource{baseCheck{
			name:     "non_url_source",
			severity: SeverityWarning,
			doc: `A source of the recipe is not a valid type
Allowed source types are url, git_url and path.`,
		}},
	}
}

// outputName labels an output for message prefixes: its declared name when
// present, else its index.
func outputName(rec *recipe.Recipe, n int) string {
	if name := rec.GetString(fmt.Sprintf("outputs/%d/name", n), ""); name != "" {
		return name
	}
	return fmt.Sprintf("%d", n)
}

// missingScalar reports when a single string-valued path is absent or empty.
// Several completeness rules are exactly this shape.
type missingScalar struct {
	baseCheck
	path    string
	section string
}

func (c *missingScalar) CheckRecipe(run *Run) {
	if run.Recipe().GetString(c.path, "") == "" {
		run.Report(Issue{Section: c.section})
	}
}

// missingAnyScalar reports when none of a set of alternative paths is set.
type missingAnyScalar struct {
	baseCheck
	paths   []string
	section string
}

func (c *missingAnyScalar) CheckRecipe(run *Run) {
	for _, path := range c.paths {
		if run.Recipe().GetString(path, "") != "" {
			return
		}
	}
	run.Report(Issue{Section: c.section})
}

type missingSection struct{ baseCheck }

func (c *missingSection) CheckRecipe(run *Run) {
	rec := run.Recipe()
	for _, section := range []string{"package", "build", "about"} {
		if rec.Get(section, nil) == nil {
			run.Report(Issue{Section: section, TitleArgs: []any{section}})
		}
	}
	if outputs := rec.GetList("outputs"); len(outputs) > 0 {
		for n := range outputs {
			path := fmt.Sprintf("outputs/%d/requirements", n)
			if rec.Get(path, nil) == nil {
				run.Report(Issue{
					Section:   path,
					TitleArgs: []any{"requirements"},
					Output:    outputName(rec, n),
				})
			}
		}
		return
	}
	if rec.Get("requirements", nil) == nil {
		run.Report(Issue{Section: "requirements", TitleArgs: []any{"requirements"}})
	}
}

type missingBuildNumber struct{ baseCheck }

func (c *missingBuildNumber) CheckRecipe(run *Run) {
	if run.Recipe().Get("build/number", nil) == nil {
		run.Report(Issue{Section: "build", Data: true})
	}
}

func (c *missingBuildNumber) Fix(rec *recipe.Recipe, _ *Message, _ any) bool {
	return rec.Patch([]recipe.PatchOp{
		{Op: recipe.OpAdd, Path: "build/number", Value: 0},
	})
}

type missingLicenseFile struct{ baseCheck }

func (c *missingLicenseFile) CheckRecipe(run *Run) {
	rec := run.Recipe()
	if rec.GetString("about/license_file", "") == "" &&
		len(rec.GetStrings("about/license_file")) == 0 &&
		rec.GetString("about/license_url", "") == "" {
		run.Report(Issue{Section: "about"})
	}
}

type licenseFileOverspecified struct{ baseCheck }

func (c *licenseFileOverspecified) CheckRecipe(run *Run) {
	rec := run.Recipe()
	hasFile := rec.GetString("about/license_file", "") != "" || len(rec.GetStrings("about/license_file")) > 0
	if hasFile && rec.GetString("about/license_url", "") != "" {
		run.Report(Issue{Section: "about", Data: true})
	}
}

func (c *licenseFileOverspecified) Fix(rec *recipe.Recipe, _ *Message, _ any) bool {
	return rec.Patch([]recipe.PatchOp{
		{Op: recipe.OpRemove, Path: "about/license_url"},
	})
}

type missingTests struct{ baseCheck }

func (c *missingTests) CheckRecipe(run *Run) {
	rec := run.Recipe()
	if outputs := rec.GetList("outputs"); len(outputs) > 0 {
		// Global test sections do not run for multi-output recipes; each
		// output needs its own script or test section.
		for n := range outputs {
			if rec.GetString(fmt.Sprintf("outputs/%d/test/script", n), "") != "" {
				continue
			}
			c.checkTestSection(run, fmt.Sprintf("outputs/%d/", n), outputName(rec, n))
		}
		return
	}
	c.checkTestSection(run, "", "")
}

func (c *missingTests) checkTestSection(run *Run, prefix, output string) {
	rec := run.Recipe()
	section := prefix + "test"
	if rec.GetString(section+"/commands", "") != "" || len(rec.GetStrings(section+"/commands")) > 0 {
		return
	}
	if rec.GetString(section+"/imports", "") != "" || len(rec.GetStrings(section+"/imports")) > 0 {
		return
	}
	if rec.Get(section, nil) != nil {
		run.Report(Issue{Section: section, Output: output})
		return
	}
	anchor := prefix
	if anchor == "" {
		anchor = "package"
	} else {
		anchor = anchor[:len(anchor)-1]
	}
	run.Report(Issue{Section: anchor, Output: output})
}

type missingSourceURL struct{ baseCheck }

var sourceTypeKeys = []string{"url", "git_url", "hg_url", "svn_url", "path"}

func (c *missingSourceURL) CheckSource(run *Run, src recipe.SourceEntry) {
	for _, key := range sourceTypeKeys {
		if src.GetString(key, "") != "" {
			return
		}
	}
	run.Report(Issue{Section: src.Section})
}

type missingHash struct{ baseCheck }

func (c *missingHash) CheckSource(run *Run, src recipe.SourceEntry) {
	// Version-controlled and local sources carry no archive to checksum.
	for _, key := range []string{"git_url", "path"} {
		if src.GetString(key, "") != "" {
			return
		}
	}
	if src.GetString("sha256", "") == "" {
		run.Report(Issue{Section: src.Section})
	}
}

type nonURLSource struct{ baseCheck }

func (c *nonURLSource) CheckSource(run *Run, src recipe.SourceEntry) {
	for _, key := range []string{"hg_url", "svn_url"} {
		if src.GetString(key, "") != "" {
			run.Report(Issue{Section: src.Section})
			return
		}
	}
}
