package logger

import (
	"log/slog"
	"strings"
)

// masked replaces a credential in log output.
const masked = "***REDACTED***"

// credentialWords mark an attribute key as holding a credential.
var credentialWords = []string{"token", "password", "passphrase", "secret", "credential", "authorization"}

// redact is a slog ReplaceAttr function. slog calls it for every leaf
// attribute, including those nested in groups.
func redact(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if scheme, _, ok := strings.Cut(s, " "); ok && strings.EqualFold(scheme, "bearer") {
		return slog.String(a.Key, scheme+" "+masked)
	}
	if s != "" && IsCredentialKey(a.Key) {
		return slog.String(a.Key, masked)
	}
	return a
}

// IsCredentialKey reports whether an attribute key names a credential.
func IsCredentialKey(key string) bool {
	key = strings.ToLower(key)
	for _, w := range credentialWords {
		if strings.Contains(key, w) {
			return true
		}
	}
	return false
}
