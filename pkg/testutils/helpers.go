package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// CountingFs wraps an afero.Fs and records every Stat call per path.
type CountingFs struct {
	afero.Fs

	mu    sync.Mutex
	stats map[string]int
}

// NewCountingFs wraps fs.
func NewCountingFs(fs afero.Fs) *CountingFs {
	return &CountingFs{Fs: fs, stats: map[string]int{}}
}

// Stat records the probe and delegates.
func (c *CountingFs) Stat(name string) (os.FileInfo, error) {
	c.mu.Lock()
	c.stats[name]++
	c.mu.Unlock()
	return c.Fs.Stat(name)
}

// Stats returns how many times name was stat'ed.
func (c *CountingFs) Stats(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats[name]
}

// WriteFiles creates each path with its content, making parent directories.
func WriteFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

// MkdirAll creates every directory in dirs.
func MkdirAll(t *testing.T, fs afero.Fs, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		require.NoError(t, fs.MkdirAll(dir, 0755))
	}
}

// ReadFile returns the content of path as a string.
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

// Manifest renders a manifest with the standard header followed by rows.
func Manifest(rows ...string) string {
	lines := append([]string{"filename,local_directory,sync_directory,overwrite_allowed"}, rows...)
	return strings.Join(lines, "\n") + "\n"
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var result []rune
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result = append(result, r)
	}
	return string(result)
}
