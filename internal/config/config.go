// Package config provides configuration management for physioeval.
//
// Config file locations (priority order):
//  1. $PHYSIOEVAL_CONFIG
//  2. ./physioeval.yaml
//  3. $XDG_CONFIG_HOME/physioeval/config.yaml
//  4. ~/.config/physioeval/config.yaml
//  5. /etc/physioeval/config.yaml
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabasePath  = "./physioeval.db"
	DefaultCacheSizeKB   = 64000
	DefaultBusyTimeout   = 5 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultInboxDebounce = 500 * time.Millisecond
	DefaultExportDir     = "./exports"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Database.CacheSizeKB <= 0 {
		c.Database.CacheSizeKB = DefaultCacheSizeKB
	}
	if c.Database.BusyTimeout <= 0 {
		c.Database.BusyTimeout = Duration(DefaultBusyTimeout)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = Duration(DefaultPollInterval)
	}
	if c.Inbox.Debounce <= 0 {
		c.Inbox.Debounce = Duration(DefaultInboxDebounce)
	}
	if c.Export.Dir == "" {
		c.Export.Dir = DefaultExportDir
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Database: %s (cache %d KiB, busy timeout %s)\n",
		c.Database.Path, c.Database.CacheSizeKB, c.Database.BusyTimeout.Duration())
	summary += fmt.Sprintf("Log: %s/%s, queue poll: %s\n",
		c.Log.Level, c.Log.Format, c.Queue.PollInterval.Duration())
	if c.Inbox.Dir != "" {
		summary += fmt.Sprintf("Inbox: %s (debounce %s)\n", c.Inbox.Dir, c.Inbox.Debounce.Duration())
	}
	summary += fmt.Sprintf("Exports: %s", c.Export.Dir)
	return summary
}
