// Package pipeline runs one sync: load the manifest, validate directories,
// then copy every surviving rule.
package pipeline

import (
	"context"
	"io"

	"csvsync/internal/config"
	"csvsync/internal/copier"
	"csvsync/internal/dircache"
	"csvsync/internal/log"
	"csvsync/internal/manifest"
	"csvsync/internal/report"
	"csvsync/pkg/types"

	"github.com/spf13/afero"
)

// Result describes a completed run.
type Result struct {
	Manifest *manifest.Manifest
	Copies   []types.CopyResult
}

// Failed returns how many rules ended in an error.
func (r *Result) Failed() int {
	n := 0
	for _, c := range r.Copies {
		if !c.OK() {
			n++
		}
	}
	return n
}

// Runner executes sync runs against a filesystem. Runs must not overlap.
type Runner struct {
	fs      afero.Fs
	cfg     *config.Config
	printer *report.Printer
}

// New creates a runner. Status lines are written to stdout.
func New(fs afero.Fs, cfg *config.Config, stdout io.Writer) *Runner {
	if cfg == nil {
		cfg = config.New()
	}
	return &Runner{
		fs:      fs,
		cfg:     cfg,
		printer: report.NewPrinter(stdout),
	}
}

// Run syncs manifestPath. A non-nil error means the manifest was rejected
// and nothing was copied; per-rule problems are reported, not returned.
func (r *Runner) Run(ctx context.Context, manifestPath string) (*Result, error) {
	loader := manifest.NewLoader(r.fs, dircache.New(r.fs), r.cfg)
	m, err := loader.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	engine := copier.New(r.fs)
	engine.SetDryRun(r.cfg.Settings.DryRun)
	engine.SetReporter(r.printer)
	if engine.IsDryRun() {
		log.Info("Dry run: no files will be written")
	}

	r.printer.Reset()
	copies := engine.Apply(ctx, m.Rules)
	r.printer.Summary(len(m.Dropped))

	log.LogWithFields(log.F("manifest", manifestPath), log.F("rules", len(m.Rules)), log.F("dry_run", engine.IsDryRun())).Debug("Sync run finished")
	return &Result{Manifest: m, Copies: copies}, nil
}
