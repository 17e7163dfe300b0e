// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchAddCreatesParents(t *testing.T) {
	t.Parallel()
	rec, err := LoadString("package:\n  name: x\n", "x")
	require.NoError(t, err)
	require.False(t, rec.IsModified())

	ok := rec.Patch([]PatchOp{{Op: OpAdd, Path: "build/number", Value: 0}})
	assert.True(t, ok)
	assert.True(t, rec.IsModified())
	assert.Equal(t, 0, rec.Get("build/number", -1))

	dump := rec.Dump()
	assert.Contains(t, dump, "build:")
	assert.Contains(t, dump, "number: 0")
}

func TestPatchAddOverwritesExisting(t *testing.T) {
	t.Parallel()
	rec, err := LoadString("build:\n  number: 3\n", "x")
	require.NoError(t, err)

	ok := rec.Patch([]PatchOp{{Op: OpAdd, Path: "build/number", Value: 5}})
	assert.True(t, ok)
	assert.Equal(t, 5, rec.Get("build/number", -1))
}

func TestPatchReplaceScalarWithMatch(t *testing.T) {
	t.Parallel()
	rec, err := LoadString("build:\n  script: python setup.py install\n", "x")
	require.NoError(t, err)

	ok := rec.Patch([]PatchOp{{
		Op:    OpReplace,
		Path:  "build/script",
		Match: `.*setup\.py\s+install.*`,
		Value: "$PYTHON -m pip install . --no-deps --no-build-isolation",
	}})
	assert.True(t, ok)
	assert.Contains(t, rec.GetString("build/script", ""), "pip install")
}

func TestPatchReplaceSequenceElement(t *testing.T) {
	t.Parallel()
	rec, err := LoadString(`requirements:
  host:
    - python>=3.8
    - pip
`, "x")
	require.NoError(t, err)

	ok := rec.Patch([]PatchOp{{
		Op:    OpReplace,
		Path:  "requirements/host",
		Match: `python>=3\.8`,
		Value: "python >=3.8",
	}})
	assert.True(t, ok)
	assert.Equal(t, []string{"python >=3.8", "pip"}, rec.GetStrings("requirements/host"))
}

func TestPatchRemove(t *testing.T) {
	t.Parallel()
	rec, err := LoadString(`about:
  license: MIT
  license_file: LICENSE
  license_url: https://example.com/license
`, "x")
	require.NoError(t, err)

	ok := rec.Patch([]PatchOp{{Op: OpRemove, Path: "about/license_url"}})
	assert.True(t, ok)
	assert.Equal(t, "", rec.GetString("about/license_url", ""))
	assert.Equal(t, "LICENSE", rec.GetString("about/license_file", ""))
	assert.NotContains(t, rec.Dump(), "license_url")
}

func TestPatchFailureDoesNotMarkModified(t *testing.T) {
	t.Parallel()
	rec, err := LoadString("package:\n  name: x\n", "x")
	require.NoError(t, err)

	ok := rec.Patch([]PatchOp{{Op: OpRemove, Path: "about/license_url"}})
	assert.False(t, ok)
	assert.False(t, rec.IsModified())
}

func TestDumpRoundTrip(t *testing.T) {
	t.Parallel()
	rec, err := LoadString(sampleManifest, "mypkg")
	require.NoError(t, err)

	reparsed, err := LoadString(rec.Dump(), "mypkg")
	require.NoError(t, err)
	assert.Equal(t, "mypkg", reparsed.GetString("package/name", ""))
	assert.Equal(t, []string{"python", "pip"}, reparsed.GetStrings("requirements/host"))
}

func TestPatchAddAppendsToSequence(t *testing.T) {
	t.Parallel()
	rec, err := LoadString(`requirements:
  host:
    - python
`, "x")
	require.NoError(t, err)

	ok := rec.Patch([]PatchOp{{Op: OpAdd, Path: "requirements/host", Value: []string{"wheel"}}})
	assert.True(t, ok)
	assert.Equal(t, []string{"python", "wheel"}, rec.GetStrings("requirements/host"))
}

func TestPatchAddThroughSequenceIndex(t *testing.T) {
	t.Parallel()
	rec, err := LoadString(`outputs:
  - name: libfoo
    test:
      commands:
        - libfoo --version
`, "x")
	require.NoError(t, err)

	ok := rec.Patch([]PatchOp{{Op: OpAdd, Path: "outputs/0/test/commands", Value: []string{"pip check"}}})
	assert.True(t, ok)
	assert.Equal(t, []string{"libfoo --version", "pip check"},
		rec.GetStrings("outputs/0/test/commands"))

	ok = rec.Patch([]PatchOp{{Op: OpAdd, Path: "outputs/3/test/commands", Value: "x"}})
	assert.False(t, ok)
}
