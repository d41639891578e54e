package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Queue    QueueConfig    `yaml:"queue"`
	Inbox    InboxConfig    `yaml:"inbox"`
	Export   ExportConfig   `yaml:"export"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
	// CacheSizeKB is the page cache size handed to PRAGMA cache_size
	CacheSizeKB int `yaml:"cache_size_kb"`
	// BusyTimeout is how long a connection waits on a locked database
	BusyTimeout Duration `yaml:"busy_timeout"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// QueueConfig tunes the result delivery loop
type QueueConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
}

// InboxConfig configures the JSON import inbox watcher
type InboxConfig struct {
	Dir      string   `yaml:"dir"`
	Debounce Duration `yaml:"debounce"`
}

// ExportConfig configures default export locations
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
