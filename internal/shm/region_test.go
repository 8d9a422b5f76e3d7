package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempBaseDir(t *testing.T) {
	t.Helper()
	orig := baseDir
	baseDir = t.TempDir()
	t.Cleanup(func() { baseDir = orig })
}

func TestCreateAndOpenRW(t *testing.T) {
	withTempBaseDir(t)

	r, err := Create("test-region", 128)
	require.NoError(t, err)
	defer r.Close()

	r.Bytes()[0] = 0xAB

	r2, err := OpenRW("test-region", 128)
	require.NoError(t, err)
	defer r2.Close()

	assert.Equal(t, byte(0xAB), r2.Bytes()[0])
}

func TestOpenRWRejectsSizeMismatch(t *testing.T) {
	withTempBaseDir(t)

	r, err := Create("sized", 64)
	require.NoError(t, err)
	defer r.Close()

	_, err = OpenRW("sized", 128)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestUnlinkRemovesRegion(t *testing.T) {
	withTempBaseDir(t)

	r, err := Create("gone", 64)
	require.NoError(t, err)
	r.Close()

	require.NoError(t, Unlink("gone"))
	_, err = OpenRW("gone", 64)
	assert.Error(t, err)
}
