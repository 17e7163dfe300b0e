// SPDX-License-Identifier: MPL-2.0

// Package recipe loads conda recipe manifests into a structured, queryable
// document. The lint engine consumes it through a narrow surface: slash-path
// reads, dependency aggregation, source-entry iteration, raw line ranges for
// diagnostics, and structural patching for auto-fixes.
package recipe

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// ManifestName is the file name every conda recipe is anchored at.
const ManifestName = "meta.yaml"

// DefaultSubdir is the subdir used when the caller does not care about
// platform-specific selector evaluation.
const DefaultSubdir = "linux-64"

type (
	// Recipe is a rendered conda recipe document.
	Recipe struct {
		name     string
		path     string
		subdir   string
		fs       afs.Service
		root     *yaml.Node
		modified bool
	}

	// RawRange locates a section within the authored manifest.
	RawRange struct {
		StartLine int
		StartCol  int
		EndLine   int
		EndCol    int
	}

	// Dep aggregates every occurrence of one dependency across the
	// requirement sections of a recipe.
	Dep struct {
		// Constraints holds the version constraint of each occurrence
		// (empty string for unconstrained entries), index-aligned with Paths.
		Constraints []string
		// Paths holds the slash path of each occurrence, e.g.
		// "requirements/run/0" or "outputs/1/requirements/host/2".
		Paths []string
	}

	// DepsDict maps dependency names to their aggregated occurrences.
	DepsDict map[string]*Dep

	// SourceEntry is one entry of the source section. Recipes may declare
	// source as a single mapping or a list of mappings; Sources() always
	// hands rules a flat slice so they never see both shapes.
	SourceEntry struct {
		// Section is the slash path of this entry ("source" or "source/N").
		Section string

		rec *Recipe
	}
)

var yamlErrLineRe = regexp.MustCompile(`line (\d+)`)

// Load reads, renders, and parses the recipe found in dir for the given
// subdir. Structural failures are reported as *ParseFailure.
func Load(ctx context.Context, dir, subdir string) (*Recipe, error) {
	fs := afs.New()
	path := filepath.Join(dir, ManifestName)
	if ok, _ := fs.Exists(ctx, path); !ok {
		return nil, &ParseFailure{Kind: FailureMissingFile}
	}
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, &ParseFailure{Kind: FailureMissingFile, Cause: err}
	}
	rec, err := parse(string(data), subdir)
	if err != nil {
		return nil, err
	}
	rec.fs = fs
	rec.path = path
	if rec.name = rec.GetString("package/name", ""); rec.name == "" {
		rec.name = filepath.Base(filepath.Dir(dir))
	}
	return rec, nil
}

// LoadString parses recipe text directly. Used for in-memory recipes and by
// the test suite; the recipe is named after the given name and keeps the
// default manifest path.
func LoadString(text, name string) (*Recipe, error) {
	return LoadStringFor(text, name, DefaultSubdir)
}

// LoadStringFor is LoadString with an explicit subdir, evaluating platform
// selectors for that target.
func LoadStringFor(text, name, subdir string) (*Recipe, error) {
	rec, err := parse(text, subdir)
	if err != nil {
		return nil, err
	}
	rec.fs = afs.New()
	rec.path = filepath.Join(name, ManifestName)
	rec.name = name
	return rec, nil
}

func parse(raw, subdir string) (*Recipe, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseFailure{Kind: FailureEmpty}
	}
	rendered, err := render(raw, subdir)
	if err != nil {
		return nil, err
	}
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(rendered), &root); err != nil {
		line := 0
		if m := yamlErrLineRe.FindStringSubmatch(err.Error()); m != nil {
			line, _ = strconv.Atoi(m[1])
		}
		return nil, &ParseFailure{Kind: FailureYAML, Line: line, Cause: err}
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &ParseFailure{Kind: FailureEmpty}
	}
	return &Recipe{root: &root, subdir: subdir}, nil
}

// Name returns the recipe identity used for skip directives.
func (r *Recipe) Name() string { return r.name }

// Path returns the location of the manifest backing this recipe.
func (r *Recipe) Path() string { return r.path }

// Subdir returns the subdir the recipe was rendered for.
func (r *Recipe) Subdir() string { return r.subdir }

// lookup walks a slash-delimited path through the document tree and returns
// the key and value nodes of the final segment. For sequence traversal the
// key node is nil.
func (r *Recipe) lookup(path string) (key, value *yaml.Node, ok bool) {
	node := r.root.Content[0]
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		switch node.Kind {
		case yaml.MappingNode:
			found := false
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == seg {
					key, node = node.Content[i], node.Content[i+1]
					found = true
					break
				}
			}
			if !found {
				return nil, nil, false
			}
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return nil, nil, false
			}
			key, node = nil, node.Content[idx]
		default:
			return nil, nil, false
		}
	}
	return key, node, true
}

// Get reads the value at a slash-delimited path, returning def when the path
// is absent or holds an explicit null.
func (r *Recipe) Get(path string, def any) any {
	_, node, ok := r.lookup(path)
	if !ok || node.Tag == "!!null" {
		return def
	}
	var v any
	if err := node.Decode(&v); err != nil || v == nil {
		return def
	}
	return v
}

// GetString reads a scalar string at path, returning def for absent or
// non-string values.
func (r *Recipe) GetString(path, def string) string {
	v := r.Get(path, nil)
	if v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// GetList reads a sequence at path as a generic slice. A scalar value is
// wrapped into a one-element slice; absent paths return nil.
func (r *Recipe) GetList(path string) []any {
	v := r.Get(path, nil)
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// GetStrings reads a sequence of scalars at path as strings, applying the
// same single-value wrapping as GetList. Non-scalar entries are dropped.
func (r *Recipe) GetStrings(path string) []string {
	var out []string
	for _, v := range r.GetList(path) {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case int:
			out = append(out, strconv.Itoa(t))
		}
	}
	return out
}

// Contains reports whether the scripted field at path contains the needle.
// The field may be absent (returns def), a single string, or a list of
// strings; all shapes are searched uniformly.
func (r *Recipe) Contains(path, needle string, def bool) bool {
	v := r.Get(path, nil)
	if v == nil {
		return def
	}
	for _, line := range r.GetStrings(path) {
		if strings.Contains(line, needle) {
			return true
		}
	}
	return false
}

// GetRawRange returns the authored location of a section. Unknown sections
// yield an error wrapping ErrPathNotFound so diagnostics can degrade to the
// document head instead of failing.
func (r *Recipe) GetRawRange(path string) (RawRange, error) {
	key, node, ok := r.lookup(path)
	if !ok {
		return RawRange{}, &PathNotFoundError{Path: path}
	}
	start := node
	if key != nil {
		start = key
	}
	return RawRange{
		StartLine: start.Line,
		StartCol:  start.Column,
		EndLine:   maxLine(node),
		EndCol:    node.Column,
	}, nil
}

func maxLine(node *yaml.Node) int {
	line := node.Line
	for _, child := range node.Content {
		if l := maxLine(child); l > line {
			line = l
		}
	}
	return line
}

// Sources returns the source entries of the recipe, normalized to a flat
// slice regardless of whether source is a single mapping or a list.
func (r *Recipe) Sources() []SourceEntry {
	_, node, ok := r.lookup("source")
	if !ok {
		return nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		return []SourceEntry{{Section: "source", rec: r}}
	case yaml.SequenceNode:
		entries := make([]SourceEntry, 0, len(node.Content))
		for i := range node.Content {
			entries = append(entries, SourceEntry{
				Section: "source/" + strconv.Itoa(i),
				rec:     r,
			})
		}
		return entries
	default:
		return nil
	}
}

// Get reads a value relative to this source entry.
func (s SourceEntry) Get(key string, def any) any {
	return s.rec.Get(s.Section+"/"+key, def)
}

// GetString reads a scalar string relative to this source entry.
func (s SourceEntry) GetString(key, def string) string {
	return s.rec.GetString(s.Section+"/"+key, def)
}

var depSplitRe = regexp.MustCompile(`[\s<=>]`)

// defaultDepSections are the requirement sections inspected when the caller
// does not narrow the query.
var defaultDepSections = []string{"build", "run", "host"}

// GetDepsDict aggregates every dependency spec across the given requirement
// sections, including per-output requirement blocks. An empty section list
// means build, run, and host.
func (r *Recipe) GetDepsDict(sections ...string) DepsDict {
	if len(sections) == 0 {
		sections = defaultDepSections
	}
	paths := make([]string, 0, len(sections))
	for _, section := range sections {
		paths = append(paths, "requirements/"+section)
	}
	for n := range r.GetList("outputs") {
		for _, section := range sections {
			paths = append(paths, "outputs/"+strconv.Itoa(n)+"/requirements/"+section)
		}
	}

	deps := DepsDict{}
	for _, path := range paths {
		for n, spec := range r.GetStrings(path) {
			name, constraint := spec, ""
			if loc := depSplitRe.FindStringIndex(spec); loc != nil {
				name = spec[:loc[0]]
				constraint = strings.TrimSpace(spec[loc[0]:])
			}
			if name == "" {
				continue
			}
			dep := deps[name]
			if dep == nil {
				dep = &Dep{}
				deps[name] = dep
			}
			dep.Paths = append(dep.Paths, path+"/"+strconv.Itoa(n))
			dep.Constraints = append(dep.Constraints, constraint)
		}
	}
	return deps
}

// IsModified reports whether any patch changed the document since loading.
func (r *Recipe) IsModified() bool { return r.modified }
