package copier

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"csvsync/internal/errors"
	"csvsync/internal/log"
	"csvsync/pkg/types"

	"github.com/spf13/afero"
)

// Reporter receives the result of every rule as soon as it is applied.
type Reporter interface {
	Report(result types.CopyResult)
}

// Engine applies sync rules one at a time.
type Engine struct {
	fs       afero.Fs
	dryRun   bool
	reporter Reporter
}

// New creates a copy engine writing through fs.
func New(fs afero.Fs) *Engine {
	return &Engine{fs: fs}
}

// SetDryRun sets whether copies should be performed or just reported
func (e *Engine) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// IsDryRun returns whether the engine is in dry run mode
func (e *Engine) IsDryRun() bool {
	return e.dryRun
}

// SetReporter installs r; nil disables reporting.
func (e *Engine) SetReporter(r Reporter) {
	e.reporter = r
}

// Apply runs every rule in order. A failing rule never stops the batch; only
// a cancelled ctx does, and then the remaining rules are not attempted.
func (e *Engine) Apply(ctx context.Context, rules []types.SyncRule) []types.CopyResult {
	results := make([]types.CopyResult, 0, len(rules))
	for _, rule := range rules {
		if ctx.Err() != nil {
			log.Warnf("Sync interrupted, %d rules not attempted", len(rules)-len(results))
			break
		}
		result := e.ApplyRule(rule)
		if e.reporter != nil {
			e.reporter.Report(result)
		}
		results = append(results, result)
	}
	return results
}

// ApplyRule copies one file according to the rule's overwrite policy.
func (e *Engine) ApplyRule(rule types.SyncRule) types.CopyResult {
	src := rule.SourcePath()
	dest := rule.DestinationPath()
	result := types.CopyResult{
		Rule:            rule,
		SourcePath:      src,
		DestinationPath: dest,
		DryRun:          e.dryRun,
	}

	srcInfo, err := e.fs.Stat(src)
	if err != nil {
		result.Outcome = types.MissingSource
		result.Error = errors.NewFileError("Source file does not exist", src, errors.FileNotFound, nil)
		return result
	}
	if !srcInfo.Mode().IsRegular() {
		result.Outcome = types.MissingSource
		result.Error = errors.NewFileError("Source is not a regular file", src, errors.NotRegularFile, nil)
		return result
	}

	result.Outcome = types.Copied
	failure := "Failed to copy file"
	if destInfo, err := e.fs.Stat(dest); err == nil {
		if !rule.OverwriteAllowed {
			result.Outcome = types.SkippedOverwriteDenied
			return result
		}
		// Truncating dest would empty src before it is read
		if sameFile(src, dest, srcInfo, destInfo) {
			result.Outcome = types.SkippedSameFile
			return result
		}
		result.Outcome = types.Overwritten
		failure = "Failed to overwrite file"
	}

	if e.dryRun {
		result.Bytes = srcInfo.Size()
		return result
	}

	log.Debugf("Copying %s to %s", src, dest)
	n, err := e.copyFile(src, dest, srcInfo.Mode())
	result.Bytes = n
	if err != nil {
		result.Outcome = types.Failed
		result.Error = errors.NewFileError(failure, dest, errors.FileOperationFailed, err)
	}
	return result
}

// sameFile reports whether src and dest name one file, either by path or,
// on the OS filesystem, through a link.
func sameFile(src, dest string, srcInfo, destInfo os.FileInfo) bool {
	return filepath.Clean(src) == filepath.Clean(dest) || os.SameFile(srcInfo, destInfo)
}

// copyFile writes the content of src over dest. A failure part way may leave
// a truncated dest behind.
func (e *Engine) copyFile(src, dest string, mode os.FileMode) (int64, error) {
	in, err := e.fs.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := e.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return n, err
}
