// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"strings"
)

const (
	// SeverityNone is the null severity: no messages were produced.
	SeverityNone Severity = iota
	// SeverityInfo marks purely informational findings.
	SeverityInfo
	// SeverityWarning marks possible problems that do not fail a recipe.
	SeverityWarning
	// SeverityError marks findings that must be fixed and fail a recipe.
	SeverityError
)

const (
	// FixNotAttempted means no auto-fix was tried for a message.
	FixNotAttempted FixState = iota
	// FixPassed means an auto-fix was attempted and succeeded.
	FixPassed
	// FixFailed means an auto-fix was attempted and failed.
	FixFailed
)

// SeverityDefault is the severity of a message when neither the check nor
// the report site overrides it.
const SeverityDefault = SeverityError

// SeverityMinDefault is the default display floor for reported messages.
const SeverityMinDefault = SeverityInfo

type (
	// Severity is the ordinal classification of a diagnostic's importance.
	Severity int

	// FixState tracks the auto-fix outcome of a single message.
	FixState int

	// InvalidSeverityError is returned when a severity name cannot be parsed.
	InvalidSeverityError struct {
		Value string
	}
)

func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid severity %q (valid: INFO, WARNING, ERROR)", e.Value)
}

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "NONE"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a case-insensitive severity name into a Severity.
// The null severity is not accepted; it only arises as an aggregate result.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, nil
	case "WARNING":
		return SeverityWarning, nil
	case "ERROR":
		return SeverityError, nil
	default:
		return SeverityNone, &InvalidSeverityError{Value: s}
	}
}
