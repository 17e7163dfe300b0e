// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/viant/afs/file"
	"gopkg.in/yaml.v3"
)

const (
	// OpAdd inserts (or overwrites) a value at a path, creating missing
	// parent mappings along the way.
	OpAdd PatchOpKind = iota
	// OpReplace replaces the value at an existing path. With Match set and a
	// sequence at the path, only the element equal to Match is replaced.
	OpReplace
	// OpRemove deletes the key at a path. With Match set and a sequence at
	// the path, only the element equal to Match is removed.
	OpRemove
)

type (
	// PatchOpKind enumerates the supported structural edit operations.
	PatchOpKind int

	// PatchOp is one structural edit against the recipe document.
	PatchOp struct {
		Op    PatchOpKind
		Path  string
		Value any
		// Match is a regular expression selecting which scalar (or which
		// sequence element) an OpReplace or OpRemove applies to.
		Match string
	}
)

// Patch applies the given operations in order and reports whether all of
// them succeeded. The document is marked modified as soon as one operation
// takes effect, so a trailing failure still leaves earlier edits in place.
func (r *Recipe) Patch(ops []PatchOp) bool {
	ok := true
	for _, op := range ops {
		if err := r.apply(op); err != nil {
			ok = false
			continue
		}
		r.modified = true
	}
	return ok
}

func (r *Recipe) apply(op PatchOp) error {
	switch op.Op {
	case OpAdd:
		return r.applyAdd(op)
	case OpReplace:
		return r.applyReplace(op)
	case OpRemove:
		return r.applyRemove(op)
	default:
		return fmt.Errorf("unknown patch operation %d", op.Op)
	}
}

// valueNode converts an arbitrary Go value into a yaml node subtree.
func valueNode(v any) (*yaml.Node, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty patch value")
	}
	return doc.Content[0], nil
}

func (r *Recipe) applyAdd(op PatchOp) error {
	segs := strings.Split(strings.Trim(op.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return fmt.Errorf("empty patch path")
	}
	parent := r.root.Content[0]
	for _, seg := range segs[:len(segs)-1] {
		if parent.Kind == yaml.SequenceNode {
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(parent.Content) {
				return fmt.Errorf("patch path %q indexes a missing element", op.Path)
			}
			parent = parent.Content[idx]
			continue
		}
		next := childValue(parent, seg)
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			parent.Content = append(parent.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: seg}, next)
		}
		if next.Kind != yaml.MappingNode && next.Kind != yaml.SequenceNode {
			return fmt.Errorf("patch path %q crosses a non-mapping node", op.Path)
		}
		parent = next
	}
	val, err := valueNode(op.Value)
	if err != nil {
		return err
	}
	if parent.Kind != yaml.MappingNode {
		return fmt.Errorf("patch path %q crosses a non-mapping node", op.Path)
	}
	last := segs[len(segs)-1]
	if existing := childValue(parent, last); existing != nil {
		// Sequence values extend an existing list instead of replacing it.
		if existing.Kind == yaml.SequenceNode && val.Kind == yaml.SequenceNode {
			existing.Content = append(existing.Content, val.Content...)
			return nil
		}
		*existing = *val
		return nil
	}
	parent.Content = append(parent.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: last}, val)
	return nil
}

func (r *Recipe) applyReplace(op PatchOp) error {
	_, node, ok := r.lookup(op.Path)
	if !ok {
		return &PathNotFoundError{Path: op.Path}
	}
	if op.Match != "" {
		matcher, err := regexp.Compile(op.Match)
		if err != nil {
			return err
		}
		var targets []*yaml.Node
		if node.Kind == yaml.SequenceNode {
			targets = node.Content
		} else {
			targets = []*yaml.Node{node}
		}
		for _, elem := range targets {
			if matcher.MatchString(elem.Value) {
				val, err := valueNode(op.Value)
				if err != nil {
					return err
				}
				*elem = *val
				return nil
			}
		}
		return fmt.Errorf("no value matching %q under %q", op.Match, op.Path)
	}
	val, err := valueNode(op.Value)
	if err != nil {
		return err
	}
	*node = *val
	return nil
}

func (r *Recipe) applyRemove(op PatchOp) error {
	_, node, ok := r.lookup(op.Path)
	if !ok {
		return &PathNotFoundError{Path: op.Path}
	}
	if op.Match != "" && node.Kind == yaml.SequenceNode {
		matcher, err := regexp.Compile(op.Match)
		if err != nil {
			return err
		}
		for i, elem := range node.Content {
			if matcher.MatchString(elem.Value) {
				node.Content = append(node.Content[:i], node.Content[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("no element matching %q under %q", op.Match, op.Path)
	}

	segs := strings.Split(strings.Trim(op.Path, "/"), "/")
	parentPath := strings.Join(segs[:len(segs)-1], "/")
	parent := r.root.Content[0]
	if parentPath != "" {
		var okParent bool
		if _, parent, okParent = r.lookup(parentPath); !okParent {
			return &PathNotFoundError{Path: parentPath}
		}
	}
	if parent.Kind != yaml.MappingNode {
		return fmt.Errorf("cannot remove %q from non-mapping parent", op.Path)
	}
	last := segs[len(segs)-1]
	for i := 0; i+1 < len(parent.Content); i += 2 {
		if parent.Content[i].Value == last {
			parent.Content = append(parent.Content[:i], parent.Content[i+2:]...)
			return nil
		}
	}
	return &PathNotFoundError{Path: op.Path}
}

func childValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// Dump serializes the current document state, preserving comments and key
// order from the authored manifest.
func (r *Recipe) Dump() string {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(r.root.Content[0]); err != nil {
		return ""
	}
	_ = enc.Close()
	return b.String()
}

// WriteBack overwrites the recipe manifest in place with the current
// document state, UTF-8 encoded. Callers are expected to gate this on
// IsModified so untouched recipes never get rewritten.
func (r *Recipe) WriteBack(ctx context.Context) error {
	return r.fs.Upload(ctx, r.path, file.DefaultFileOsMode, strings.NewReader(r.Dump()))
}
