// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
)

const (
	// FailureMissingFile means no meta.yaml was found at the recipe location.
	FailureMissingFile FailureKind = iota
	// FailureEmpty means the meta.yaml exists but has no content.
	FailureEmpty
	// FailureRender means the template prepass could not render the document.
	FailureRender
	// FailureYAML means the rendered document is not valid YAML.
	FailureYAML
)

var (
	// ErrPathNotFound is returned by GetRawRange when the requested section
	// does not exist in the document.
	ErrPathNotFound = errors.New("section not found in recipe")
)

type (
	// FailureKind classifies structural load failures of a recipe document.
	FailureKind int

	// ParseFailure is returned by Load when the recipe document could not be
	// turned into a structured tree. It replaces per-cause exception types
	// with a single tagged result so callers can map kinds to diagnostics.
	ParseFailure struct {
		// Kind is the failure classification.
		Kind FailureKind
		// Line is the 1-based line the failure was detected at (0 if unknown).
		Line int
		// Cause is the underlying error, if any.
		Cause error
	}

	// PathNotFoundError reports the missing path for GetRawRange lookups.
	// It wraps ErrPathNotFound for errors.Is() compatibility.
	PathNotFoundError struct {
		Path string
	}
)

// String returns a stable identifier for the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureMissingFile:
		return "missing_file"
	case FailureEmpty:
		return "empty"
	case FailureRender:
		return "render"
	case FailureYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

func (e *ParseFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("recipe load failed (%s, line %d): %v", e.Kind, e.Line, e.Cause)
	}
	return fmt.Sprintf("recipe load failed (%s, line %d)", e.Kind, e.Line)
}

// Unwrap returns the underlying cause.
func (e *ParseFailure) Unwrap() error {
	return e.Cause
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("section not found in recipe: %q", e.Path)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *PathNotFoundError) Unwrap() error {
	return ErrPathNotFound
}
