// Package config loads CLI configuration from files and environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format" json:"format"`
	Quiet   bool   `mapstructure:"quiet" json:"quiet"`
	Verbose bool   `mapstructure:"verbose" json:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults" json:"defaults"`
}

// DefaultsConfig holds default values for various commands
type DefaultsConfig struct {
	// Tail command defaults
	Tokens       []string `mapstructure:"tokens" json:"tokens"`
	Journal      string   `mapstructure:"journal" json:"journal,omitempty"`
	PollInterval string   `mapstructure:"poll_interval" json:"poll_interval"`

	// Retention applied to the in-process event store
	KeepEvents int `mapstructure:"keep_events" json:"keep_events"`

	// Persisted settings blob location; empty means the platform default
	SettingsPath string `mapstructure:"settings_path" json:"settings_path,omitempty"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "text",
		Quiet:   false,
		Verbose: false,
		Defaults: DefaultsConfig{
			Tokens:       []string{"[AdSDK]"},
			PollInterval: "2s",
			KeepEvents:   200,
		},
	}
}

// Load loads configuration from files and environment
// Config file search order (highest precedence first):
// 1. ./.adscope.yaml or ./.adscope.yml
// 2. ~/.adscope.yaml or ~/.adscope.yml
// 3. $XDG_CONFIG_HOME/adscope/config.yaml (or ~/.config/adscope/config.yaml)
// 4. /etc/adscope/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	configFile := findConfigFile()
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}

		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	names := []string{".adscope.yaml", ".adscope.yml", "adscope.yaml", "adscope.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	// Search locations in order of precedence (highest first)
	var searchPaths []string

	cwd, err := os.Getwd()
	if err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "adscope"))
	}
	searchPaths = append(searchPaths, "/etc/adscope")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		// Also check for config.yaml in subdirs
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADSCOPE_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("ADSCOPE_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("ADSCOPE_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("ADSCOPE_JOURNAL"); v != "" {
		cfg.Defaults.Journal = v
	}
	if v := os.Getenv("ADSCOPE_SETTINGS"); v != "" {
		cfg.Defaults.SettingsPath = v
	}
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that would be loaded
func ConfigFile() string {
	return findConfigFile()
}
