package config

import (
	"fmt"
	"os"
	"path/filepath"

	"csvsync/internal/errors"

	"github.com/gobwas/glob"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration structure.
type Config struct {
	Settings struct {
		DryRun     bool     `yaml:"dry_run"`     // If true, report copies without writing
		ExpandHome bool     `yaml:"expand_home"` // Expand a leading ~ in manifest directories
		Exclude    []string `yaml:"exclude"`     // Filename globs that are never synced
	} `yaml:"settings"`
	Logging struct {
		Level      string `yaml:"level"`      // debug, info, warn or error
		Format     string `yaml:"format"`     // text or json
		File       string `yaml:"file"`       // Optional file receiving a copy of the log
		Timestamps bool   `yaml:"timestamps"` // Prefix text lines with the local time
	} `yaml:"logging"`
	Watch struct {
		DebounceMs int `yaml:"debounce_ms"` // Quiet period before a changed manifest is re-run
	} `yaml:"watch"`

	excludes []glob.Glob
}

// DefaultPath returns ~/.config/csvsync/config.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "csvsync", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
// A missing file yields the defaults.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, errors.NewConfigError("unable to locate home directory", "", errors.ConfigNotFound, err)
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	return loadFile(path, false)
}

// LoadRequiredConfigFile is LoadConfigFile for a path the user named
// explicitly: a missing file is an error.
func LoadRequiredConfigFile(path string) (*Config, error) {
	return loadFile(path, true)
}

// ExpandPath resolves a leading ~ in a config path.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.NewConfigError("invalid config path", path, errors.InvalidConfig, err)
	}
	return expanded, nil
}

func loadFile(path string, required bool) (*Config, error) {
	cfg := defaultConfig()

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, errors.NewConfigError("unable to read config file", expanded, errors.ConfigNotFound, err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, errors.NewConfigError("error parsing config file", expanded, errors.InvalidConfig, err)
	}

	cfg.Settings.DryRun = tempCfg.Settings.DryRun
	cfg.Settings.ExpandHome = tempCfg.Settings.ExpandHome
	if len(tempCfg.Settings.Exclude) > 0 {
		cfg.Settings.Exclude = tempCfg.Settings.Exclude
	}
	if tempCfg.Logging.Level != "" {
		cfg.Logging.Level = tempCfg.Logging.Level
	}
	if tempCfg.Logging.Format != "" {
		cfg.Logging.Format = tempCfg.Logging.Format
	}
	cfg.Logging.File = tempCfg.Logging.File
	cfg.Logging.Timestamps = tempCfg.Logging.Timestamps
	if tempCfg.Watch.DebounceMs != 0 {
		cfg.Watch.DebounceMs = tempCfg.Watch.DebounceMs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Settings.DryRun = false
	cfg.Settings.ExpandHome = false
	cfg.Settings.Exclude = []string{}

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Watch.DebounceMs = 250

	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid and compiles the exclude globs.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	if _, err := c.LogLevel(); err != nil {
		return errors.NewConfigError("invalid log level", "logging.level", errors.InvalidConfig, err)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return errors.NewConfigError("invalid log format", "logging.format", errors.InvalidConfig,
			fmt.Errorf("%q is not one of text, json", c.Logging.Format))
	}

	if c.Watch.DebounceMs < 0 {
		return errors.NewConfigError("debounce must be >= 0", "watch.debounce_ms", errors.InvalidConfig, nil)
	}

	compiled := make([]glob.Glob, 0, len(c.Settings.Exclude))
	for i, pattern := range c.Settings.Exclude {
		if pattern == "" {
			return errors.NewConfigError(fmt.Sprintf("exclude %d: pattern is required", i), "settings.exclude", errors.InvalidConfig, nil)
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("exclude %d: invalid glob %q", i, pattern), "settings.exclude", errors.InvalidConfig, err)
		}
		compiled = append(compiled, g)
	}
	c.excludes = compiled

	return nil
}

// LogLevel parses Logging.Level. An empty level means info.
func (c *Config) LogLevel() (logrus.Level, error) {
	if c.Logging.Level == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(c.Logging.Level)
}

// Excluded reports whether filename matches one of the exclude globs.
// Validate must have been called for patterns added after loading.
func (c *Config) Excluded(filename string) (string, bool) {
	if len(c.excludes) != len(c.Settings.Exclude) {
		if err := c.Validate(); err != nil {
			return "", false
		}
	}
	for i, g := range c.excludes {
		if g.Match(filename) {
			return c.Settings.Exclude[i], true
		}
	}
	return "", false
}

// ExpandDir applies ExpandHome to a manifest directory.
func (c *Config) ExpandDir(dir string) string {
	if !c.Settings.ExpandHome {
		return dir
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return dir
	}
	return expanded
}
