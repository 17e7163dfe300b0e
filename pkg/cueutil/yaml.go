// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/encoding/yaml"
)

// DefaultMaxFileSize bounds documents accepted for validation. Schema
// unification cost grows with input size, so oversized files are rejected
// before compilation.
const DefaultMaxFileSize int64 = 1 << 20

// CompileYAML turns a YAML document into a CUE value within ctx, ready to
// be unified with a schema. The filename only labels error messages.
func CompileYAML(ctx *cue.Context, data []byte, filename string) (cue.Value, error) {
	file, err := yaml.Extract(filename, data)
	if err != nil {
		return cue.Value{}, err
	}
	value := ctx.BuildFile(file)
	if value.Err() != nil {
		return cue.Value{}, value.Err()
	}
	return value, nil
}
