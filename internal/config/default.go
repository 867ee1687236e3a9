package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yndnr/portalshell-go/internal/infra/buildinfo"
)

// Default configuration values.
const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultTimeout   = 30 * time.Second
	DefaultBurst     = 1
	DefaultBackend   = "file"
	DefaultKey       = "token"
	DefaultStartPath = "/"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	dirName = ".portal"
)

// Dir returns the per-user configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APISection{
			BaseURL:   DefaultBaseURL,
			Timeout:   DefaultTimeout,
			Burst:     DefaultBurst,
			UserAgent: buildinfo.UserAgent(),
		},
		Session: SessionSection{
			Backend: DefaultBackend,
			File:    filepath.Join(Dir(), "session.yaml"),
			Dir:     filepath.Join(Dir(), "badger"),
			Key:     DefaultKey,
		},
		App: AppSection{
			StartPath: DefaultStartPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
