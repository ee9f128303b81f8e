package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughlang/groupledger/internal/ledger"
)

func TestParse_Defaults(t *testing.T) {
	limits, err := Parse([]byte(``))
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultLimits, limits)
}

func TestParse_Overrides(t *testing.T) {
	limits, err := Parse([]byte(`
maxGroupSize:      100
maxNameSize:       32
maxGroupsPerOwner: 5
`))
	require.NoError(t, err)
	assert.Equal(t, ledger.Limits{
		MaxGroupSize:      100,
		MaxNameSize:       32,
		MaxGroupsPerOwner: 5,
	}, limits)
}

func TestParse_PartialOverride(t *testing.T) {
	limits, err := Parse([]byte(`maxGroupSize: 9`))
	require.NoError(t, err)
	assert.Equal(t, uint32(9), limits.MaxGroupSize)
	assert.Equal(t, ledger.DefaultLimits.MaxNameSize, limits.MaxNameSize)
	assert.Equal(t, ledger.DefaultLimits.MaxGroupsPerOwner, limits.MaxGroupsPerOwner)
}

func TestParse_RejectsZero(t *testing.T) {
	_, err := Parse([]byte(`maxGroupSize: 0`))
	assert.Error(t, err)
}

func TestParse_RejectsAboveCeiling(t *testing.T) {
	_, err := Parse([]byte(`maxGroupSize: 10000000`))
	assert.Error(t, err)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`maxGorupSize: 100`))
	assert.Error(t, err, "typo'd field names must not pass silently")
}

func TestParse_RejectsNonInteger(t *testing.T) {
	_, err := Parse([]byte(`maxGroupSize: 1.5`))
	assert.Error(t, err)
}

func TestParse_RejectsMalformedCUE(t *testing.T) {
	_, err := Parse([]byte(`maxGroupSize: {`))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.cue")
	require.NoError(t, os.WriteFile(path, []byte(`maxGroupsPerOwner: 2`), 0o644))

	limits, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), limits.MaxGroupsPerOwner)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, ledger.DefaultLimits, Default())
}
