// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"strings"

	"condalint/internal/script"
	"condalint/pkg/recipe"
)

// compilerPackages are packages that request a compiler directly instead of
// using the compiler() template function.
var compilerPackages = []string{
	"cgo", "cuda", "dpcpp", "gcc", "go", "libgcc", "libgfortran", "llvm",
	"m2w64_c", "m2w64_cxx", "m2w64_fortran", "rust-gnu", "rust", "toolchain",
}

// pythonBuildTools are packages only needed while building a Python package.
var pythonBuildTools = []string{
	"build", "cython", "flit", "flit-core", "hatch", "hatchling", "maturin",
	"meson", "meson-python", "pdm", "pdm-pep517", "pip", "poetry",
	"poetry-core", "pybind11", "python-build", "scikit-build",
	"scikit-build-core", "setuptools", "setuptools-rust", "setuptools_scm",
	"whey",
}

// guiPackages indicate the recipe likely ships a graphical application.
var guiPackages = []string{
	"enaml", "glue-core", "glueviz", "jupyterhub", "jupyterlab", "orange3",
	"pyqt", "qt3dstudio", "qtcreator", "qtpy", "spyder", "wxpython",
}

// buildHelpChecks covers the build and requirements sections: compiler
// syntax, install-script hygiene and build-tool placement.
func buildHelpChecks() []Check {
	return []Check{
		&shouldUseCompilers{baseCheck{
			name:     "should_use_compilers",
			severity: SeverityError,
			doc: `The recipe requires a compiler directly
conda-build uses a special syntax to require compilers matching the target
architecture. Please use:

    requirements:
      build:
        - {{ compiler('language') }}

where language is one of c, cxx, fortran, go or cgo. There is no need to
add libgfortran, libgcc, or toolchain to the dependencies.`,
		}},
		&compilersMustBeInBuild{baseCheck{
			name:     "compilers_must_be_in_build",
			severity: SeverityError,
			requires: []string{"should_use_compilers"},
			doc: `The recipe requests a compiler in a section other than build
Please move the compiler() line into the requirements/build section.`,
		}},
		&usesSetupPy{baseCheck{
			name:     "uses_setup_py",
			severity: SeverityError,
			doc: `python setup.py install is deprecated
Please use:

    $PYTHON -m pip install . --no-deps --no-build-isolation

or another python build tool.`,
		}},
		&pipInstallArgs{baseCheck{
			name:     "pip_install_args",
			severity: SeverityError,
			requires: []string{"uses_setup_py"},
			doc: `pip install should be run with --no-deps and --no-build-isolation
Please use:

    $PYTHON -m pip install . --no-deps --no-build-isolation`,
		}},
		&missingPipInHost{baseCheck{
			name:     "missing_pip_in_host",
			severity: SeverityError,
			requires: []string{"uses_setup_py"},
			doc: `The build script uses pip but pip is not in the host section
Please add:

    requirements:
      host:
        - pip`,
		}},
		&pythonBuildToolInRun{baseCheck{
			name:     "python_build_tool_in_run",
			severity: SeverityWarning,
			doc: `The python build tool %s is in run depends
Most Python packages only need build tools during installation. Check if
the package really needs this tool at runtime (e.g. because it uses
pkg_resources or setuptools console scripts).`,
		}},
		&guiApp{baseCheck{
			name:     "gui_app",
			severity: SeverityInfo,
			doc: `This may be a GUI application
It is advised to test the GUI.`,
		}},
		&missingWheel{baseCheck{
			name:     "missing_wheel",
			severity: SeverityError,
			doc: `For pypi packages, wheel should be present in the host section
Without an explicit build backend pip falls back to setup.py, which needs
wheel at build time. Please add:

    requirements:
      host:
        - wheel`,
		}},
		&missingPython{baseCheck{
			name:     "missing_python",
			severity: SeverityError,
			doc: `For pypi packages, python should be present in the %s section
Please add:

    requirements:
      host:
        - python
      run:
        - python`,
		}},
		&missingPipCheck{baseCheck{
			name:     "missing_pip_check",
			severity: SeverityError,
			doc: `For pypi packages, pip check should be present in the test commands
Please add:

    test:
      commands:
        - pip check`,
		}},
		&avoidNoarch{baseCheck{
			name:     "avoid_noarch",
			severity: SeverityWarning,
			doc: `noarch: python packages should be avoided
It is difficult to assess whether a noarch package really contains no
architecture specific binaries. Keep noarch only when rebuilding a package
version that is currently noarch.`,
		}},
		&cythonMustBeInHost{baseCheck{
			name:     "cython_must_be_in_host",
			severity: SeverityError,
			doc: `Cython should be in the host section
Please move cython into requirements/host.`,
		}},
		&cythonNeedsCompiler{baseCheck{
			name:     "cython_needs_compiler",
			severity: SeverityError,
			doc: `Cython generates C code, which will need to be compiled
Please add the compiler to the recipe:

    requirements:
      build:
        - {{ compiler('c') }}`,
		}},
		&noGitOnWindows{baseCheck{
			name:     "no_git_on_windows",
			severity: SeverityError,
			doc: `git should not be used as a dependency on Windows
git is supplied by the cygwin environment. Installing it may break the
build.`,
		}},
	}
}

// scriptSection is one build-script location within a recipe document.
type scriptSection struct {
	path   string
	output string
	text   string
}

// buildScripts collects every inline build script of the recipe, covering
// the top-level build section and per-output script keys.
func buildScripts(rec *recipe.Recipe) []scriptSection {
	var sections []scriptSection
	add := func(path, output string) {
		lines := rec.GetStrings(path)
		if len(lines) == 0 {
			return
		}
		text := strings.Join(lines, "\n")
		// A bare file name is a script reference, not script content.
		if len(lines) == 1 && !strings.ContainsAny(text, " \t") {
			return
		}
		sections = append(sections, scriptSection{path: path, output: output, text: text})
	}
	add("build/script", "")
	for n := range rec.GetList("outputs") {
		name := outputName(rec, n)
		add(fmt.Sprintf("outputs/%d/script", n), name)
		add(fmt.Sprintf("outputs/%d/build/script", n), name)
	}
	return sections
}

// isPipInstall reports whether a call invokes pip install, directly or via
// the interpreter's -m flag.
func isPipInstall(c script.Call) bool {
	if c.Base() == "pip" || c.Base() == "pip3" {
		return c.HasArg("install")
	}
	for i, a := range c.Args {
		if a == "-m" && i+1 < len(c.Args) && c.Args[i+1] == "pip" {
			for _, rest := range c.Args[i+2:] {
				if rest == "install" {
					return true
				}
			}
		}
	}
	return false
}

// isSetupPyInstall reports whether a call runs the legacy setup.py install.
func isSetupPyInstall(c script.Call) bool {
	words := c.Words()
	for i, w := range words {
		if w == "setup.py" || strings.HasSuffix(w, "/setup.py") {
			for _, rest := range words[i+1:] {
				if rest == "install" {
					return true
				}
			}
		}
	}
	return false
}

type shouldUseCompilers struct{ baseCheck }

func (c *shouldUseCompilers) CheckDeps(run *Run, deps recipe.DepsDict) {
	for _, name := range compilerPackages {
		dep, ok := deps[name]
		if !ok {
			continue
		}
		for _, path := range dep.Paths {
			run.Report(Issue{Section: path})
		}
	}
}

type compilersMustBeInBuild struct{ baseCheck }

func (c *compilersMustBeInBuild) CheckDeps(run *Run, deps recipe.DepsDict) {
	for name, dep := range deps {
		if !strings.HasPrefix(name, "compiler_") {
			continue
		}
		for _, path := range dep.Paths {
			if strings.Contains(path, "/run/") || strings.Contains(path, "/host/") {
				run.Report(Issue{Section: path})
			}
		}
	}
}

type usesSetupPy struct{ baseCheck }

func (c *usesSetupPy) CheckRecipe(run *Run) {
	for _, sec := range buildScripts(run.Recipe()) {
		for _, call := range script.Calls(sec.text) {
			if isSetupPyInstall(call) {
				run.Report(Issue{Section: sec.path, Output: sec.output, Data: sec.path})
				break
			}
		}
	}
}

func (c *usesSetupPy) Fix(rec *recipe.Recipe, _ *Message, data any) bool {
	path, ok := data.(string)
	if !ok {
		return false
	}
	return rec.Patch([]recipe.PatchOp{{
		Op:    recipe.OpReplace,
		Path:  path,
		Match: `.*setup\.py\s+install.*`,
		Value: "$PYTHON -m pip install . --no-deps --no-build-isolation --ignore-installed --no-cache-dir -vv",
	}})
}

type pipInstallArgs struct{ baseCheck }

var requiredPipArgs = []string{"--no-deps", "--no-build-isolation"}

func (c *pipInstallArgs) CheckRecipe(run *Run) {
	for _, sec := range buildScripts(run.Recipe()) {
		for _, call := range script.Calls(sec.text) {
			if !isPipInstall(call) {
				continue
			}
			hardened := true
			for _, arg := range requiredPipArgs {
				if !call.HasArg(arg) {
					hardened = false
				}
			}
			if !hardened {
				run.Report(Issue{Section: sec.path, Output: sec.output, Data: sec.path})
				break
			}
		}
	}
}

func (c *pipInstallArgs) Fix(rec *recipe.Recipe, _ *Message, data any) bool {
	path, ok := data.(string)
	if !ok {
		return false
	}
	return rec.Patch([]recipe.PatchOp{{
		Op:    recipe.OpReplace,
		Path:  path,
		Match: `(.*\s)?pip +install.*`,
		Value: "$PYTHON -m pip install . --no-deps --no-build-isolation --ignore-installed --no-cache-dir -vv",
	}})
}

type missingPipInHost struct{ baseCheck }

func (c *missingPipInHost) CheckRecipe(run *Run) {
	rec := run.Recipe()
	if !scriptsRunPip(rec) {
		return
	}
	if _, ok := rec.GetDepsDict("host")["pip"]; !ok {
		run.Report(Issue{Section: "requirements/host"})
	}
}

type pythonBuildToolInRun struct{ baseCheck }

func (c *pythonBuildToolInRun) CheckRecipe(run *Run) {
	deps := run.Recipe().GetDepsDict("run")
	for _, tool := range pythonBuildTools {
		dep, ok := deps[tool]
		if !ok {
			continue
		}
		for _, path := range dep.Paths {
			run.Report(Issue{Section: path, TitleArgs: []any{tool}})
		}
	}
}

type guiApp struct{ baseCheck }

func (c *guiApp) CheckRecipe(run *Run) {
	deps := run.Recipe().GetDepsDict("run")
	for _, name := range guiPackages {
		if _, ok := deps[name]; ok {
			run.Report(Issue{Section: "requirements/run"})
			return
		}
	}
}

// packageScope identifies one package within a recipe document. A multi
// output recipe builds one package per output; everything else builds a
// single package rooted at the document top.
type packageScope struct {
	prefix string
	output string
}

func packageScopes(rec *recipe.Recipe) []packageScope {
	outputs := rec.GetList("outputs")
	if len(outputs) == 0 {
		return []packageScope{{}}
	}
	scopes := make([]packageScope, 0, len(outputs))
	for n := range outputs {
		scopes = append(scopes, packageScope{
			prefix: fmt.Sprintf("outputs/%d/", n),
			output: outputName(rec, n),
		})
	}
	return scopes
}

// pypiDomains host the downloads of packages published on PyPI.
var pypiDomains = []string{"pypi.io", "pypi.org", "pypi.python.org"}

// isPyPISource reports whether any source entry downloads from PyPI.
func isPyPISource(rec *recipe.Recipe) bool {
	for _, src := range rec.Sources() {
		url := src.GetString("url", "")
		for _, domain := range pypiDomains {
			if strings.Contains(url, domain) {
				return true
			}
		}
	}
	return false
}

// scriptsRunPip reports whether any build script performs a pip install.
func scriptsRunPip(rec *recipe.Recipe) bool {
	for _, sec := range buildScripts(rec) {
		for _, call := range script.Calls(sec.text) {
			if isPipInstall(call) {
				return true
			}
		}
	}
	return false
}

// installsFromPyPI reports whether the recipe builds a PyPI package, either
// by downloading from PyPI or by running pip install in a build script.
func installsFromPyPI(rec *recipe.Recipe) bool {
	return isPyPISource(rec) || scriptsRunPip(rec)
}

// scopeHasDep reports whether the requirement section of one package scope
// lists the dependency.
func scopeHasDep(deps recipe.DepsDict, scope packageScope, section, name string) bool {
	dep, ok := deps[name]
	if !ok {
		return false
	}
	want := scope.prefix + "requirements/" + section + "/"
	for _, p := range dep.Paths {
		if strings.HasPrefix(p, want) {
			return true
		}
	}
	return false
}

// pythonBuildBackends are PEP 517 backends that replace the setup.py and
// wheel machinery during a pip install.
var pythonBuildBackends = []string{
	"flit", "flit-core", "hatch", "hatchling", "maturin", "meson-python",
	"pdm-backend", "pdm-pep517", "poetry-core", "scikit-build-core", "whey",
}

type missingWheel struct{ baseCheck }

func (c *missingWheel) CheckRecipe(run *Run) {
	rec := run.Recipe()
	if !installsFromPyPI(rec) {
		return
	}
	deps := rec.GetDepsDict("host")
	for _, scope := range packageScopes(rec) {
		if scopeHasDep(deps, scope, "host", "wheel") {
			continue
		}
		backend := false
		for _, name := range pythonBuildBackends {
			if scopeHasDep(deps, scope, "host", name) {
				backend = true
				break
			}
		}
		if backend {
			continue
		}
		run.Report(Issue{
			Section: scope.prefix + "requirements/host",
			Output:  scope.output,
			Data:    scope.prefix,
		})
	}
}

func (c *missingWheel) Fix(rec *recipe.Recipe, _ *Message, data any) bool {
	prefix, ok := data.(string)
	if !ok {
		return false
	}
	return rec.Patch([]recipe.PatchOp{{
		Op:    recipe.OpAdd,
		Path:  prefix + "requirements/host",
		Value: []string{"wheel"},
	}})
}

type missingPython struct{ baseCheck }

func (c *missingPython) CheckRecipe(run *Run) {
	rec := run.Recipe()
	if !installsFromPyPI(rec) {
		return
	}
	deps := rec.GetDepsDict("host", "run")
	for _, scope := range packageScopes(rec) {
		for _, section := range []string{"host", "run"} {
			if scopeHasDep(deps, scope, section, "python") {
				continue
			}
			run.Report(Issue{
				Section:   scope.prefix + "requirements/" + section,
				Output:    scope.output,
				TitleArgs: []any{section},
				Data:      scope.prefix + "requirements/" + section,
			})
		}
	}
}

func (c *missingPython) Fix(rec *recipe.Recipe, _ *Message, data any) bool {
	path, ok := data.(string)
	if !ok {
		return false
	}
	return rec.Patch([]recipe.PatchOp{{
		Op:    recipe.OpAdd,
		Path:  path,
		Value: []string{"python"},
	}})
}

type missingPipCheck struct{ baseCheck }

func (c *missingPipCheck) CheckRecipe(run *Run) {
	rec := run.Recipe()
	if !installsFromPyPI(rec) {
		return
	}
	for _, scope := range packageScopes(rec) {
		commands := rec.GetStrings(scope.prefix + "test/commands")
		covered := false
		for _, cmd := range commands {
			if strings.Contains(cmd, "pip check") {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		section := scope.prefix + "test"
		if len(commands) > 0 {
			section += "/commands"
		}
		run.Report(Issue{Section: section, Output: scope.output, Data: scope.prefix})
	}
}

func (c *missingPipCheck) Fix(rec *recipe.Recipe, _ *Message, data any) bool {
	prefix, ok := data.(string)
	if !ok {
		return false
	}
	return rec.Patch([]recipe.PatchOp{{
		Op:    recipe.OpAdd,
		Path:  prefix + "test/commands",
		Value: []string{"pip check"},
	}})
}

type avoidNoarch struct{ baseCheck }

func (c *avoidNoarch) CheckRecipe(run *Run) {
	rec := run.Recipe()
	for _, scope := range packageScopes(rec) {
		noarch := rec.GetString(scope.prefix+"build/noarch", "")
		if noarch != "python" {
			continue
		}
		if rec.GetString(scope.prefix+"build/number", "0") != "0" {
			continue
		}
		if rec.Get(scope.prefix+"build/osx_is_app", false) == true {
			continue
		}
		if rec.Get(scope.prefix+"app", nil) != nil {
			continue
		}
		run.Report(Issue{Section: scope.prefix + "build", Output: scope.output})
	}
}

type cythonMustBeInHost struct{ baseCheck }

func (c *cythonMustBeInHost) CheckDeps(run *Run, deps recipe.DepsDict) {
	dep, ok := deps["cython"]
	if !ok {
		return
	}
	for _, path := range dep.Paths {
		if !strings.Contains(path, "/host/") {
			run.Report(Issue{Section: path})
		}
	}
}

type cythonNeedsCompiler struct{ baseCheck }

func (c *cythonNeedsCompiler) CheckDeps(run *Run, deps recipe.DepsDict) {
	if _, ok := deps["cython"]; !ok {
		return
	}
	if dep, ok := deps["compiler_c"]; ok {
		for _, path := range dep.Paths {
			if strings.Contains(path, "/build/") {
				return
			}
		}
	}
	run.Report(Issue{Section: "requirements/build"})
}

type noGitOnWindows struct{ baseCheck }

func (c *noGitOnWindows) CheckDeps(run *Run, deps recipe.DepsDict) {
	if !strings.HasPrefix(run.Recipe().Subdir(), "win") {
		return
	}
	dep, ok := deps["git"]
	if !ok {
		return
	}
	for _, path := range dep.Paths {
		run.Report(Issue{Section: path})
	}
}
