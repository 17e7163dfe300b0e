// SPDX-License-Identifier: MPL-2.0

// Package script inspects build scripts embedded in recipe manifests. It
// parses POSIX shell fragments and reports the simple commands they invoke,
// so callers can reason about tokens instead of substring-matching raw text.
package script

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Call is one simple command found in a script: the command name followed by
// its arguments, with unresolvable expansions kept as their source text.
type Call struct {
	// Name is the invoked command, e.g. "pip" or "$PYTHON".
	Name string
	// Args are the remaining words of the command.
	Args []string
	// Line is the 1-based line of the call within the script fragment.
	Line int
}

// Calls parses a shell fragment and returns every simple command in it, in
// source order. Commands inside pipelines, conditionals and loops are all
// included. A fragment that fails to parse yields a best-effort word split
// of each line instead, so linting degrades rather than aborts on scripts
// using syntax the parser does not accept.
func Calls(src string) []Call {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	prog, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return fallbackCalls(src)
	}

	var calls []Call
	syntax.Walk(prog, func(node syntax.Node) bool {
		ce, ok := node.(*syntax.CallExpr)
		if !ok || len(ce.Args) == 0 {
			return true
		}
		words := make([]string, 0, len(ce.Args))
		for _, w := range ce.Args {
			words = append(words, wordText(w))
		}
		calls = append(calls, Call{
			Name: words[0],
			Args: words[1:],
			Line: int(ce.Pos().Line()),
		})
		return true
	})
	return calls
}

// wordText reconstructs the source text of a word, dropping quotes but
// keeping parameter expansions as written.
func wordText(w *syntax.Word) string {
	var sb strings.Builder
	for _, part := range w.Parts {
		partText(&sb, part)
	}
	return sb.String()
}

func partText(sb *strings.Builder, part syntax.WordPart) {
	switch p := part.(type) {
	case *syntax.Lit:
		sb.WriteString(p.Value)
	case *syntax.SglQuoted:
		sb.WriteString(p.Value)
	case *syntax.DblQuoted:
		for _, inner := range p.Parts {
			partText(sb, inner)
		}
	case *syntax.ParamExp:
		sb.WriteString("$")
		sb.WriteString(p.Param.Value)
	default:
		// Command substitutions and arithmetic keep a placeholder so the
		// word count stays truthful.
		sb.WriteString("$(...)")
	}
}

// fallbackCalls treats each non-empty line as one whitespace-split command.
func fallbackCalls(src string) []Call {
	var calls []Call
	for i, line := range strings.Split(src, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		calls = append(calls, Call{Name: fields[0], Args: fields[1:], Line: i + 1})
	}
	return calls
}

// Words returns the full token list of a call, name included.
func (c Call) Words() []string {
	return append([]string{c.Name}, c.Args...)
}

// HasArg reports whether the call carries the exact argument.
func (c Call) HasArg(arg string) bool {
	for _, a := range c.Args {
		if a == arg {
			return true
		}
	}
	return false
}

// Base returns the last path component of the command name, lowercased, so
// "/usr/bin/Python3" compares as "python3".
func (c Call) Base() string {
	name := c.Name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}
