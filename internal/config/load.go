package config

import (
	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/infra/confloader"
)

// Load builds the configuration from defaults, the YAML file at path, PORTAL_*
// environment variables and flags (dotted keys such as "api.base_url").
//
// An empty path means DefaultConfigPath, which may be absent. An explicit
// path must exist.
func Load(path string, flags map[string]any) (*Config, error) {
	opts := []confloader.Option{confloader.WithFlags(flags)}
	if path == "" {
		opts = append(opts, confloader.WithOptionalConfigFile(DefaultConfigPath()))
	} else {
		opts = append(opts, confloader.WithConfigFile(ExpandHome(path)))
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, domain.ErrConfigInvalid.WithCause(err)
	}

	cfg.Session.File = ExpandHome(cfg.Session.File)
	cfg.Session.Dir = ExpandHome(cfg.Session.Dir)
	cfg.API.CAFile = ExpandHome(cfg.API.CAFile)

	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
