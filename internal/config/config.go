// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as
// the file format.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"ucdist/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "ucdist"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

var (
	// configFilePathOverride is set via the --config flag.
	configFilePathOverride string
	// configDirOverride lets tests point at a temp directory.
	configDirOverride string
)

type (
	// Config is the decoded application configuration.
	Config struct {
		Python    string `mapstructure:"python"`
		OutputDir string `mapstructure:"output_dir"`
		GitHub    GitHub `mapstructure:"github"`
		UI        UI     `mapstructure:"ui"`
	}

	// GitHub identifies the repository 'ucdist fetch' downloads from.
	GitHub struct {
		Owner string `mapstructure:"owner"`
		Repo  string `mapstructure:"repo"`
	}

	// UI holds terminal output preferences.
	UI struct {
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in configuration values.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHub{
			Owner: "databrickslabs",
			Repo:  "ucx",
		},
	}
}

// SetConfigFilePathOverride sets an explicit config file path (--config flag).
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// SetConfigDirOverride points config resolution at an alternate directory.
// Intended for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the ucdist configuration directory using the platform's
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME (default ~/.config) elsewhere.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string
	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the path Load would read, whether or not it exists.
func ConfigFilePath() (string, error) {
	if configFilePathOverride != "" {
		return configFilePathOverride, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads the configuration, merging the config file (if present) over
// the defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("python", defaults.Python)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("github.owner", defaults.GitHub.Owner)
	v.SetDefault("github.repo", defaults.GitHub.Repo)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	path, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	if fileExists(path) {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Run 'ucdist config show' to inspect the resolved values").
				Wrap(err).
				BuildError()
		}
	} else if configFilePathOverride != "" {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			Wrap(fmt.Errorf("config file not found: %s", path)).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
//
// Config decodes to map[string]any (not a struct) so Viper's default layering
// keeps working; validation uses Concrete(false) because all fields are
// optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("invalid CUE in %s: %w", path, userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	return v.MergeConfigMap(configMap)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
