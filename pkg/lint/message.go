// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"condalint/pkg/recipe"
)

type (
	// Message is one immutable diagnostic produced by a check. Construct it
	// through Run.Report (or the engine's failure synthesis), never mutate
	// it afterwards.
	Message struct {
		// Check is the identity of the check that produced the message.
		Check string
		// Severity classifies the finding.
		Severity Severity
		// Title is the first line of the check documentation, formatted.
		Title string
		// Body is the remainder of the check documentation.
		Body string
		// StartLine and EndLine anchor the finding in FName (1-based).
		StartLine int
		EndLine   int
		// FName names the file the finding applies to; defaults to the
		// recipe's own manifest.
		FName string
		// CanFix marks the finding as auto-fixable.
		CanFix bool
		// FixState records the outcome of an attempted auto-fix.
		FixState FixState

		// Recipe is the recipe the message was produced against. It is
		// deliberately excluded from Key and Equal: two messages about the
		// same problem in the same file compare equal even when produced
		// against different recipe instances.
		Recipe *recipe.Recipe
	}

	// MessageKey is the comparable identity of a Message, suitable as a map
	// key for deduplication and as the hash/equality contract.
	MessageKey struct {
		Check     string
		Severity  Severity
		Title     string
		Body      string
		StartLine int
		EndLine   int
		FName     string
	}
)

// Key returns the value-identity of the message.
func (m Message) Key() MessageKey {
	return MessageKey{
		Check:     m.Check,
		Severity:  m.Severity,
		Title:     m.Title,
		Body:      m.Body,
		StartLine: m.StartLine,
		EndLine:   m.EndLine,
		FName:     m.FName,
	}
}

// Equal reports value-equality of two messages, ignoring the recipe
// reference and fix bookkeeping.
func (m Message) Equal(other Message) bool {
	return m.Key() == other.Key()
}

// Level returns the annotation level expected by CI annotators.
func (m Message) Level() string {
	switch {
	case m.Severity < SeverityWarning:
		return "notice"
	case m.Severity < SeverityError:
		return "warning"
	default:
		return "failure"
	}
}

func (m Message) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", m.FName, m.EndLine, m.Check, m.Title)
}

// sortMessages orders messages by (file name, end line), a stable order
// independent of check execution order.
func sortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].FName != messages[j].FName {
			return messages[i].FName < messages[j].FName
		}
		return messages[i].EndLine < messages[j].EndLine
	})
}

// dedupeMessages drops value-equal duplicates, keeping first occurrences.
// Linting the same manifest for several subdirs commonly reproduces the
// same finding; the session report should show it once.
func dedupeMessages(messages []Message) []Message {
	seen := make(map[MessageKey]bool, len(messages))
	out := messages[:0]
	for _, msg := range messages {
		if seen[msg.Key()] {
			continue
		}
		seen[msg.Key()] = true
		out = append(out, msg)
	}
	return out
}

// displayPath trims a manifest path down to its last three components, the
// way recipe locations are conventionally presented in reports.
func displayPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	return filepath.Join(parts...)
}
