package config

import "time"

// Config is the root configuration for portal-cli.
type Config struct {
	API     APISection     `koanf:"api" yaml:"api" json:"api"`
	Session SessionSection `koanf:"session" yaml:"session" json:"session"`
	App     AppSection     `koanf:"app" yaml:"app" json:"app"`
	Log     LogSection     `koanf:"log" yaml:"log" json:"log"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

// APISection configures the backend client.
type APISection struct {
	BaseURL   string        `koanf:"base_url" yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout"`
	RateLimit float64       `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	Burst     int           `koanf:"burst" yaml:"burst" json:"burst"`
	UserAgent string        `koanf:"user_agent" yaml:"user_agent" json:"user_agent"`
	// CAFile is a PEM bundle or directory of extra trusted roots.
	CAFile             string `koanf:"ca_file" yaml:"ca_file" json:"ca_file"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify" yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
}

// SessionSection configures where the token is kept.
type SessionSection struct {
	Backend    string `koanf:"backend" yaml:"backend" json:"backend"`
	File       string `koanf:"file" yaml:"file" json:"file"`
	Dir        string `koanf:"dir" yaml:"dir" json:"dir"`
	Key        string `koanf:"key" yaml:"key" json:"key"`
	Passphrase string `koanf:"passphrase" yaml:"passphrase" json:"passphrase"`
	Watch      bool   `koanf:"watch" yaml:"watch" json:"watch"`
}

// AppSection configures the shell.
type AppSection struct {
	StartPath string `koanf:"start_path" yaml:"start_path" json:"start_path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// MetricsSection configures the optional /metrics endpoint of the shell.
type MetricsSection struct {
	Address string `koanf:"address" yaml:"address" json:"address"`
}
