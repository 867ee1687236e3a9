// Package domain defines the core domain models for the portal shell.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// BearerScheme is the authorization scheme used for outgoing requests.
const BearerScheme = "Bearer"

// Token is an opaque credential proving an authenticated session.
// The zero value means "no token".
type Token string

// IsZero reports whether the token is absent.
func (t Token) IsZero() bool {
	return t == ""
}

// String returns the raw token value.
func (t Token) String() string {
	return string(t)
}

// AuthorizationValue returns the Authorization header value for the token.
func (t Token) AuthorizationValue() string {
	return BearerScheme + " " + string(t)
}

// Masked returns a form of the token that is safe to print.
// Tokens of 10 characters or fewer are fully hidden.
func (t Token) Masked() string {
	if len(t) <= 10 {
		return "***"
	}
	return string(t[:4]) + "..." + string(t[len(t)-4:])
}

// Fingerprint returns a short SHA-256 digest that identifies the token in
// output and logs without revealing it. It is empty for the zero token.
func (t Token) Fingerprint() string {
	if t.IsZero() {
		return ""
	}
	h := sha256.Sum256([]byte(t))
	return hex.EncodeToString(h[:6])
}

// Validate checks that the token can be carried in an HTTP header.
func (t Token) Validate() error {
	if t.IsZero() {
		return ErrTokenMalformed.WithDetails("empty token")
	}
	if strings.TrimSpace(string(t)) != string(t) {
		return ErrTokenMalformed.WithDetails("surrounding whitespace")
	}
	for _, r := range string(t) {
		if r < 0x20 || r == 0x7f {
			return ErrTokenMalformed.WithDetails("control character")
		}
	}
	return nil
}

// ParseBearer extracts the token from an Authorization header value.
// It returns false when the value is not a bearer credential.
func ParseBearer(header string) (Token, bool) {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, BearerScheme) {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return Token(value), true
}
