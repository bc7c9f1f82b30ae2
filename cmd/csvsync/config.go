package main

import (
	"fmt"
	"os"

	"csvsync/internal/config"
	"csvsync/internal/errors"

	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the csvsync configuration file",
		// The file may not exist yet, so only logging is set up here.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd, config.New())
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long:  `Write the default configuration to --config, or to $HOME/.config/csvsync/config.yaml.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf("config file already exists: %s (use --force to replace it)", path)
			}
			if err := config.SaveConfig(config.New(), path); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote default config: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing config file")

	configCmd.AddCommand(initCmd)
	return configCmd
}

func (a *app) configPath() (string, error) {
	if a.cfgFile == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return "", errors.NewConfigError("unable to locate home directory", "", errors.ConfigNotFound, err)
		}
		return path, nil
	}
	return config.ExpandPath(a.cfgFile)
}
