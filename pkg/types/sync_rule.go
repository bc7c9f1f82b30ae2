package types

import (
	"fmt"
	"path/filepath"
)

// SyncRule is one validated manifest row
type SyncRule struct {
	Filename         string `json:"filename"`
	LocalDirectory   string `json:"local_directory"`
	SyncDirectory    string `json:"sync_directory"`
	OverwriteAllowed bool   `json:"overwrite_allowed"`
	// Line is the manifest line the rule was read from
	Line int `json:"line,omitempty"`
}

// SourcePath joins the local directory and the file name
func (r SyncRule) SourcePath() string {
	return filepath.Join(r.LocalDirectory, r.Filename)
}

// DestinationPath joins the sync directory and the file name
func (r SyncRule) DestinationPath() string {
	return filepath.Join(r.SyncDirectory, r.Filename)
}

// String returns a human-readable representation
func (r SyncRule) String() string {
	flag := "n"
	if r.OverwriteAllowed {
		flag = "y"
	}
	return fmt.Sprintf("%s: %s -> %s (overwrite=%s)", r.Filename, r.LocalDirectory, r.SyncDirectory, flag)
}

// DroppedRow records a manifest row that produced no SyncRule
type DroppedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}
