// SPDX-License-Identifier: MPL-2.0

package script

import (
	"slices"
	"testing"
)

func TestCallsSimple(t *testing.T) {
	t.Parallel()
	calls := Calls("pip install . --no-deps\n")
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %v", calls)
	}
	c := calls[0]
	if c.Name != "pip" || !slices.Equal(c.Args, []string{"install", ".", "--no-deps"}) {
		t.Errorf("unexpected call: %+v", c)
	}
	if c.Line != 1 {
		t.Errorf("expected line 1, got %d", c.Line)
	}
}

func TestCallsMultiline(t *testing.T) {
	t.Parallel()
	src := `set -ex
cd src
$PYTHON -m pip install . --no-deps && echo done
`
	calls := Calls(src)
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %v", calls)
	}
	if calls[2].Name != "$PYTHON" || calls[2].Line != 3 {
		t.Errorf("parameter expansion should survive as source text: %+v", calls[2])
	}
	if !calls[2].HasArg("install") {
		t.Errorf("expected install argument in %+v", calls[2])
	}
	if calls[3].Name != "echo" {
		t.Errorf("calls inside && lists should be collected, got %+v", calls[3])
	}
}

func TestCallsQuoting(t *testing.T) {
	t.Parallel()
	calls := Calls(`python setup.py install --prefix="$PREFIX"` + "\n")
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %v", calls)
	}
	want := []string{"python", "setup.py", "install", "--prefix=$PREFIX"}
	if !slices.Equal(calls[0].Words(), want) {
		t.Errorf("got %v, want %v", calls[0].Words(), want)
	}
}

func TestCallsControlFlow(t *testing.T) {
	t.Parallel()
	src := `if [ -f setup.py ]; then
  python setup.py install
fi
for f in *.txt; do cp "$f" "$PREFIX"; done
`
	calls := Calls(src)
	var names []string
	for _, c := range calls {
		names = append(names, c.Name)
	}
	if !slices.Contains(names, "python") || !slices.Contains(names, "cp") {
		t.Errorf("expected commands inside conditionals and loops, got %v", names)
	}
}

func TestCallsFallbackOnParseError(t *testing.T) {
	t.Parallel()
	// Unterminated quote defeats the parser; line splitting takes over.
	src := "pip install .\necho \"unterminated\n"
	calls := Calls(src)
	if len(calls) < 1 || calls[0].Name != "pip" {
		t.Fatalf("fallback should still see the pip call, got %v", calls)
	}
}

func TestCallsEmpty(t *testing.T) {
	t.Parallel()
	if calls := Calls("\n# only a comment\n"); len(calls) != 0 {
		t.Errorf("expected no calls, got %v", calls)
	}
}

func TestCallBase(t *testing.T) {
	t.Parallel()
	cases := []struct{ name, want string }{
		{"pip", "pip"},
		{"/usr/bin/Python3", "python3"},
		{"$PYTHON", "$python"},
	}
	for _, tc := range cases {
		if got := (Call{Name: tc.name}).Base(); got != tc.want {
			t.Errorf("Base(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
