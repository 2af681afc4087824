package specification

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir_Testdata(t *testing.T) {
	set, err := LoadDir(filepath.Join("testdata", "specs"))
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	csip, ok := set.Get("CSIP")
	require.True(t, ok)
	assert.Equal(t, "2.1.0", csip.Version)
	assert.Equal(t, "https://earkcsip.dilcis.eu/", csip.URL)
	require.Len(t, csip.Groups, 2)
	assert.Equal(t, "metsRoot", csip.Groups[0].Name)
	assert.Equal(t, "mets/@OBJID", csip.Groups[0].Requirements[0].Location)
	require.Len(t, csip.Structural, 1)

	ids, err := csip.RequirementIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	assert.Equal(t, "SIP", set.All()[1].ID)
}

func TestLoadDir_NotFound(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadDir_NoFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	_, err := LoadDir(dir)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadDir_DuplicateRequirementIsFatal(t *testing.T) {
	dir := t.TempDir()
	src := `
package specifications

specification: CSIP: {
	version: "2.1.0"
	requirements: metsRoot: [{id: "CSIP1"}]
	structural: [{id: "CSIP1"}]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "csip.cue"), []byte(src), 0644))

	_, err := LoadDir(dir)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeDuplicateReq, le.Code)
	assert.Contains(t, le.Message, "CSIP1")
}

func TestFromValue_MissingVersion(t *testing.T) {
	v := cuecontext.New().CompileString(`specification: CSIP: { requirements: g: [{id: "CSIP1"}] }`)
	_, err := FromValue(v)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeVersion, le.Code)
}

func TestFromValue_RequirementWithoutID(t *testing.T) {
	v := cuecontext.New().CompileString(`specification: CSIP: { version: "2.1.0", structural: [{name: "x"}] }`)
	_, err := FromValue(v)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeRequirement, le.Code)
}

func TestFromValue_NoSpecificationField(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	_, err := FromValue(v)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeNoSpecs, le.Code)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeGeneric, Message: "boom"}
	assert.Equal(t, "E001: boom", err.Error())
}
