package main

import (
	"context"
	"fmt"
	"io"

	"csvsync/internal/config"
	"csvsync/internal/errors"
	"csvsync/internal/log"
	"csvsync/internal/pipeline"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const usageLine = "Usage: csvsync <absolute_csv_filepath>"

// errUsage is returned when the positional arguments are wrong.
var errUsage = errors.New("wrong number of arguments")

// app holds what every command shares once flags are parsed.
type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config

	cfgFile   string
	dryRun    bool
	verbose   bool
	logFormat string
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{fs: afero.NewOsFs(), stdout: stdout, stderr: stderr}
	rootCmd := a.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintln(stderr, usageLine)
		return 1
	}
	// Logging may not be configured yet if flag parsing failed.
	if a.cfg == nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	log.Error(err.Error())
	return 1
}

func exactlyOneArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return nil
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "csvsync <absolute_csv_filepath>",
		Short:   "Copy files listed in a CSV manifest",
		Long:    `csvsync reads a manifest of filename,local_directory,sync_directory,overwrite_allowed rows and copies each file into its sync directory.`,
		Version: version,
		Args:    exactlyOneArg,

		SilenceUsage: true,
		// run prints the error, so we silence errors here to avoid double printing.
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := pipeline.New(a.fs, a.cfg, a.stdout).Run(cmd.Context(), args[0])
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/csvsync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.dryRun, "dry-run", "n", false, "Show what would be copied without writing anything")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(a.watchCmd())
	rootCmd.AddCommand(a.versionCmd())
	rootCmd.AddCommand(a.configCmd())

	return rootCmd
}

// setup loads configuration, then configures from it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	return a.configure(cmd, cfg)
}

// configure applies flag overrides to cfg and sets up logging.
func (a *app) configure(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.Settings.DryRun = a.dryRun
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.LogLevel()
	opts := []log.Option{log.WithOutput(a.stderr), log.WithLevel(level)}
	if cfg.Logging.Format == "json" {
		opts = append(opts, log.WithJSON())
	} else if cfg.Logging.Timestamps {
		opts = append(opts, log.WithTimestamps())
	}
	if cfg.Logging.File != "" {
		opts = append(opts, log.WithFile(cfg.Logging.File))
	}
	log.SetDebug(level >= logrus.DebugLevel)
	log.Configure(opts...)

	a.cfg = cfg
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.cfgFile == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(a.stderr, "Warning: could not load config: %v. Using default settings.\n", err)
			return config.New(), nil
		}
		return cfg, nil
	}
	return config.LoadRequiredConfigFile(a.cfgFile)
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the csvsync version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "csvsync %s\n", version)
		},
	}
}
