package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "PHYSIOEVAL_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "physioeval.yaml"
	// ConfigDirName is the directory under the XDG and system config roots
	ConfigDirName = "physioeval"
)

// SearchPaths lists the config locations in lookup order:
//
//	$PHYSIOEVAL_CONFIG
//	./physioeval.yaml
//	$XDG_CONFIG_HOME/physioeval/config.yaml
//	~/.config/physioeval/config.yaml
//	/etc/physioeval/config.yaml
//
// Locations whose environment variable is unset are left out.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		if resolved, err := ResolvePath(p); err == nil {
			paths = append(paths, resolved)
		}
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing file from SearchPaths, or ""
// when there is none. A $PHYSIOEVAL_CONFIG pointing at a missing file is
// skipped.
func FindConfigPath() string {
	for _, path := range SearchPaths() {
		if isFile(path) {
			return path
		}
	}
	return ""
}

// ResolvePath expands a leading "~/" and makes path absolute.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty config path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// DefaultConfigPath returns where `init --write-config` suggests a new
// config file: the XDG location when a home is known, else the working
// directory.
func DefaultConfigPath() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
