package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yndnr/portalshell-go/internal/core/domain"
)

var (
	validBackends = map[string]bool{"memory": true, "file": true, "badger": true}
	validLevels   = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	validFormats  = map[string]bool{"text": true, "json": true}
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyAPI(&cfg.API); err != nil {
		return err
	}
	if err := verifySession(&cfg.Session); err != nil {
		return err
	}
	if !strings.HasPrefix(cfg.App.StartPath, "/") {
		return invalid("app.start_path must be an absolute path, got %q", cfg.App.StartPath)
	}
	if !validLevels[strings.ToLower(cfg.Log.Level)] {
		return invalid("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	if !validFormats[strings.ToLower(cfg.Log.Format)] {
		return invalid("log.format %q is not one of text, json", cfg.Log.Format)
	}
	return nil
}

func verifyAPI(cfg *APISection) error {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("api.base_url %q must be an http(s) URL", cfg.BaseURL)
	}
	if cfg.Timeout < 0 {
		return invalid("api.timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return invalid("api.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.Burst < 1 {
		return invalid("api.burst must be at least 1 when api.rate_limit is set")
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	backend := strings.ToLower(cfg.Backend)
	if !validBackends[backend] {
		return invalid("session.backend %q is not one of memory, file, badger", cfg.Backend)
	}
	if backend == "file" && cfg.File == "" {
		return invalid("session.file is required for the file backend")
	}
	if backend == "badger" && cfg.Dir == "" {
		return invalid("session.dir is required for the badger backend")
	}
	if cfg.Key == "" {
		return invalid("session.key must not be empty")
	}
	if cfg.Passphrase != "" && backend != "file" {
		return invalid("session.passphrase is only supported by the file backend")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return domain.ErrConfigInvalid.WithDetails(fmt.Sprintf(format, args...))
}
