package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csvsync/internal/errors"
	"csvsync/internal/log"
	"csvsync/internal/manifest"
	"csvsync/internal/pipeline"
	"csvsync/internal/watch"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// watchCmd syncs once, then again every time the manifest changes.
func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <absolute_csv_filepath>",
		Short: "Sync now and again whenever the manifest changes",
		Long:  `Run a sync, then watch the manifest and re-run the sync after every change until interrupted.`,
		Args:  exactlyOneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := manifest.CheckPath(path); err != nil {
				return err
			}

			w, err := watch.New(path)
			if err != nil {
				return errors.NewManifestError("Unable to watch the CSV file", path, 0, errors.IOError, err)
			}
			defer w.Stop()
			if err := w.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			syncOnce := a.syncer(path)
			syncOnce(ctx)
			log.Infof("Watching %s for changes. Press Ctrl+C to stop.", w.Path())

			debounce := time.Duration(a.cfg.Watch.DebounceMs) * time.Millisecond
			watch.Run(ctx, w.Events(), clockwork.NewRealClock(), debounce, syncOnce)
			return nil
		},
	}
}

// syncer returns the function watch mode runs on every burst. A rejected
// manifest is logged and never stops the watch.
func (a *app) syncer(path string) func(context.Context) {
	runner := pipeline.New(a.fs, a.cfg, a.stdout)
	return func(ctx context.Context) {
		if _, err := runner.Run(ctx, path); err != nil {
			log.LogError(err, "Manifest rejected, waiting for the next change")
		}
	}
}
