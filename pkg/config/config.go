package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Owner   string        `mapstructure:"owner"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig holds the query/persistence service configuration
type BackendConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"` // For parsing string duration
}

// HistoryConfig holds conversation history configuration
type HistoryConfig struct {
	Limit        int    `mapstructure:"limit"`
	SnapshotFile string `mapstructure:"snapshot_file"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

var settings *Config

// Load unmarshals the current viper state into the global config
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Backend.Timeout = parseTimeout(cfg.Backend.TimeoutStr)

	settings = cfg
	return cfg, nil
}

// Get returns the loaded configuration, loading it on first use
func Get() *Config {
	if settings == nil {
		cfg, err := Load()
		if err != nil {
			// Fall back to defaults baked into viper
			cfg = &Config{}
			cfg.Backend.URL = viper.GetString("backend.url")
			cfg.Backend.Timeout = parseTimeout(viper.GetString("backend.timeout"))
			cfg.Owner = viper.GetString("owner")
			cfg.History.Limit = viper.GetInt("history.limit")
		}
		settings = cfg
	}
	return settings
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	settings = nil
}

// BuildSettingsPath returns a path inside the settings directory
func BuildSettingsPath(filename string) string {
	dir := viper.GetString("settings_dir")
	if dir == "" {
		dir = ".smarttender"
	}
	return filepath.Join(dir, filename)
}

func parseTimeout(s string) time.Duration {
	if s == "" {
		return 180 * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 180 * time.Second
	}
	return d
}
