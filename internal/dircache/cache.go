// Package dircache confirms that manifest directories exist, remembering
// every directory it has confirmed for the rest of the run.
package dircache

import (
	"github.com/spf13/afero"
)

// Cache is the set of directories confirmed during one run. It is not safe
// for concurrent use; a run owns its cache.
type Cache struct {
	fs        afero.Fs
	confirmed map[string]struct{}
}

// New returns an empty cache probing fs.
func New(fs afero.Fs) *Cache {
	return &Cache{
		fs:        fs,
		confirmed: make(map[string]struct{}),
	}
}

// Confirms reports whether path is an existing directory. A cached path is
// answered without touching the filesystem. Misses are not cached, so a
// directory created mid-run is picked up by later rows.
func (c *Cache) Confirms(path string) bool {
	if _, ok := c.confirmed[path]; ok {
		return true
	}

	info, err := c.fs.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	c.confirmed[path] = struct{}{}
	return true
}

// Len returns the number of confirmed directories.
func (c *Cache) Len() int {
	return len(c.confirmed)
}
