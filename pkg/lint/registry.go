// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

type (
	// Registry is the explicitly assembled collection of checks available
	// to a Linter. There is no process-global registration: the registry is
	// built once at linter construction and passed by reference.
	Registry struct {
		checks []Check
		byName map[string]Check
	}

	// DuplicateCheckError indicates two registered checks share a name.
	DuplicateCheckError struct {
		Name string
	}

	// UnknownCheckError indicates a check declares a requirement on a name
	// that is not registered.
	UnknownCheckError struct {
		Check       string
		Requirement string
	}
)

func (e *DuplicateCheckError) Error() string {
	return fmt.Sprintf("duplicate check registration: %q", e.Name)
}

func (e *UnknownCheckError) Error() string {
	return fmt.Sprintf("check %q requires unknown check %q", e.Check, e.Requirement)
}

// NewRegistry assembles the built-in check set plus any extra checks the
// caller supplies. Registration order is unspecified to consumers; the
// dependency graph imposes the real execution order.
func NewRegistry(extra ...Check) (*Registry, error) {
	checks := builtinChecks()
	checks = append(checks, extra...)

	byName := make(map[string]Check, len(checks))
	for _, c := range checks {
		if _, dup := byName[c.Name()]; dup {
			return nil, &DuplicateCheckError{Name: c.Name()}
		}
		byName[c.Name()] = c
	}
	return &Registry{checks: checks, byName: byName}, nil
}

// Checks returns every registered check in registration order.
func (r *Registry) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Get returns the check registered under name.
func (r *Registry) Get(name string) (Check, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns all registered check names, sorted.
func (r *Registry) Names() []string {
	names := maps.Keys(r.byName)
	sort.Strings(names)
	return names
}

// builtinChecks enumerates the closed set of rule implementations shipped
// with the linter, grouped the way their source files group them.
func builtinChecks() []Check {
	var checks []Check
	checks = append(checks, failureChecks()...)
	checks = append(checks, completenessChecks()...)
	checks = append(checks, buildHelpChecks()...)
	checks = append(checks, syntaxChecks()...)
	checks = append(checks, urlChecks()...)
	checks = append(checks, multiOutputChecks()...)
	checks = append(checks, licenseChecks()...)
	return checks
}
