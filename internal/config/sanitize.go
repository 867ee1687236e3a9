package config

import "net/url"

// redacted stands in for a secret that is set.
const redacted = "<redacted>"

// Sanitize returns a copy of cfg that is safe to print: the session
// passphrase is hidden and any password embedded in api.base_url is masked.
func Sanitize(cfg *Config) *Config {
	out := *cfg
	if out.Session.Passphrase != "" {
		out.Session.Passphrase = redacted
	}
	if u, err := url.Parse(out.API.BaseURL); err == nil && u.User != nil {
		out.API.BaseURL = u.Redacted()
	}
	return &out
}
