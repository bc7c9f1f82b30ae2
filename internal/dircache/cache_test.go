package dircache

import (
	"testing"

	"csvsync/pkg/testutils"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmsExistingDirectory(t *testing.T) {
	fs := testutils.NewCountingFs(afero.NewMemMapFs())
	testutils.MkdirAll(t, fs, "/data/src")

	cache := New(fs)
	assert.True(t, cache.Confirms("/data/src"))
	assert.True(t, cache.Confirms("/data/src"))
	assert.True(t, cache.Confirms("/data/src"))

	assert.Equal(t, 1, fs.Stats("/data/src"), "cached directory must not be probed again")
	assert.Equal(t, 1, cache.Len())
}

func TestConfirmsMissingDirectory(t *testing.T) {
	fs := testutils.NewCountingFs(afero.NewMemMapFs())

	cache := New(fs)
	assert.False(t, cache.Confirms("/missing"))
	assert.Equal(t, 0, cache.Len())

	// A directory that appears later is confirmed on the next probe
	require.NoError(t, fs.MkdirAll("/missing", 0755))
	assert.True(t, cache.Confirms("/missing"))
	assert.Equal(t, 2, fs.Stats("/missing"))
}

func TestConfirmsRejectsRegularFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.WriteFiles(t, fs, map[string]string{"/data/file.txt": "x"})

	cache := New(fs)
	assert.False(t, cache.Confirms("/data/file.txt"))
	assert.True(t, cache.Confirms("/data"))
}

func TestCacheIsNeverInvalidated(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.MkdirAll(t, fs, "/gone")

	cache := New(fs)
	require.True(t, cache.Confirms("/gone"))

	require.NoError(t, fs.RemoveAll("/gone"))
	assert.True(t, cache.Confirms("/gone"), "confirmed directories stay confirmed for the run")
}
