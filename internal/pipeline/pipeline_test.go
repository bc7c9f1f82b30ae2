package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"csvsync/internal/config"
	"csvsync/internal/errors"
	"csvsync/internal/log"
	"csvsync/pkg/testutils"
	"csvsync/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Configure(log.WithOutput(io.Discard))
	os.Exit(m.Run())
}

func run(t *testing.T, fs afero.Fs, cfg *config.Config) (*Result, string, error) {
	t.Helper()
	var out bytes.Buffer
	res, err := New(fs, cfg, &out).Run(context.Background(), "/m/sync.csv")
	return res, testutils.StripANSI(out.String()), err
}

func TestRunExampleManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.WriteFiles(t, fs, map[string]string{
		"/m/sync.csv":         testutils.Manifest("report.txt,/tmp/src,/tmp/dst,y"),
		"/tmp/src/report.txt": "A",
		"/tmp/dst/report.txt": "B",
	})

	res, out, err := run(t, fs, nil)
	require.NoError(t, err)

	assert.Equal(t, "A", testutils.ReadFile(t, fs, "/tmp/dst/report.txt"))
	assert.Contains(t, out, "Overwritten: /tmp/dst/report.txt\n")
	assert.Contains(t, out, "Summary: 0 copied, 1 overwritten, 0 skipped, 0 failed, 0 rows dropped")
	assert.Equal(t, 0, res.Failed())
}

func TestRunMixedManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.MkdirAll(t, fs, "/dst2")
	testutils.WriteFiles(t, fs, map[string]string{
		"/m/sync.csv": testutils.Manifest(
			"new.txt,/src,/dst,n",
			"keep.txt,/src,/dst,n",
			"bad-flag.txt,/src,/dst,maybe",
			"nodir.txt,/nowhere,/dst,y",
			"ghost.txt,/src,/dst2,y",
		),
		"/src/new.txt":  "new",
		"/src/keep.txt": "fresh",
		"/dst/keep.txt": "kept",
	})

	res, out, err := run(t, fs, nil)
	require.NoError(t, err)

	assert.Len(t, res.Manifest.Rules, 3)
	assert.Len(t, res.Manifest.Dropped, 2)
	require.Len(t, res.Copies, 3)
	assert.Equal(t, types.Copied, res.Copies[0].Outcome)
	assert.Equal(t, types.SkippedOverwriteDenied, res.Copies[1].Outcome)
	assert.Equal(t, types.MissingSource, res.Copies[2].Outcome)
	assert.Equal(t, 1, res.Failed())

	assert.Equal(t, "new", testutils.ReadFile(t, fs, "/dst/new.txt"))
	assert.Equal(t, "kept", testutils.ReadFile(t, fs, "/dst/keep.txt"))
	assert.Equal(t,
		"Copied: /dst/new.txt\n"+
			"Skipped (overwrite denied): /dst/keep.txt\n"+
			"Summary: 1 copied, 0 overwritten, 1 skipped, 1 failed, 2 rows dropped\n",
		out)
}

func TestRunColumnCountAbortsBeforeCopying(t *testing.T) {
	for _, bad := range []string{"b.txt,/src,/dst", "b.txt,/src,/dst,y,extra"} {
		fs := afero.NewMemMapFs()
		testutils.WriteFiles(t, fs, map[string]string{
			"/m/sync.csv": testutils.Manifest("a.txt,/src,/dst,y", bad),
			"/src/a.txt":  "a",
			"/src/b.txt":  "b",
		})
		testutils.MkdirAll(t, fs, "/dst")

		res, out, err := run(t, fs, nil)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, errors.IsFatal(err))
		assert.True(t, errors.IsSchemaError(err))
		assert.Empty(t, out)

		exists, err := afero.Exists(fs, "/dst/a.txt")
		require.NoError(t, err)
		assert.False(t, exists, "rows before the bad row must not be copied")
	}
}

func TestRunIsIdempotentWhenOverwriteDenied(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.WriteFiles(t, fs, map[string]string{
		"/m/sync.csv": testutils.Manifest("a.txt,/src,/dst,n"),
		"/src/a.txt":  "source",
		"/dst/a.txt":  "destination",
	})

	for i := 0; i < 2; i++ {
		res, out, err := run(t, fs, nil)
		require.NoError(t, err)
		require.Len(t, res.Copies, 1)
		assert.Equal(t, types.SkippedOverwriteDenied, res.Copies[0].Outcome)
		assert.Contains(t, out, "Skipped (overwrite denied): /dst/a.txt")
		assert.Equal(t, "destination", testutils.ReadFile(t, fs, "/dst/a.txt"))
	}
}

func TestRunProbesSharedDirectoriesOnce(t *testing.T) {
	fs := testutils.NewCountingFs(afero.NewMemMapFs())
	testutils.WriteFiles(t, fs, map[string]string{
		"/m/sync.csv": testutils.Manifest("a.txt,/src,/dst,y", "b.txt,/src,/dst,y", "c.txt,/src,/dst,y"),
		"/src/a.txt":  "a",
		"/src/b.txt":  "b",
		"/src/c.txt":  "c",
	})
	testutils.MkdirAll(t, fs, "/dst")

	_, _, err := run(t, fs, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fs.Stats("/src"))
	assert.Equal(t, 1, fs.Stats("/dst"))
}

func TestRunDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.WriteFiles(t, fs, map[string]string{
		"/m/sync.csv": testutils.Manifest("a.txt,/src,/dst,y"),
		"/src/a.txt":  "a",
	})
	testutils.MkdirAll(t, fs, "/dst")

	cfg := config.New()
	cfg.Settings.DryRun = true
	hook := test.NewLocal(log.Default().Logrus())

	_, out, err := run(t, fs, cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Would copy: /dst/a.txt")
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "Dry run: no files will be written", hook.AllEntries()[0].Message)

	exists, err := afero.Exists(fs, "/dst/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunReportsMissingSourceOnErrorStream(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.WriteFiles(t, fs, map[string]string{"/m/sync.csv": testutils.Manifest("a.txt,/src,/dst,y")})
	testutils.MkdirAll(t, fs, "/src", "/dst")
	hook := test.NewLocal(log.Default().Logrus())

	_, out, err := run(t, fs, nil)
	require.NoError(t, err)

	assert.NotContains(t, out, "a.txt")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Source file does not exist: /src/a.txt", hook.LastEntry().Message)
}

func TestRunSameDirectoryKeepsSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutils.WriteFiles(t, fs, map[string]string{
		"/m/sync.csv": testutils.Manifest("a.txt,/data,/data,y"),
		"/data/a.txt": "precious",
	})

	res, out, err := run(t, fs, nil)
	require.NoError(t, err)
	require.Len(t, res.Copies, 1)
	assert.Equal(t, types.SkippedSameFile, res.Copies[0].Outcome)
	assert.Contains(t, out, "Skipped (same file): /data/a.txt")
	assert.Equal(t, "precious", testutils.ReadFile(t, fs, "/data/a.txt"))
}
