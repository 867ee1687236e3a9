// Package session holds the current authentication token.
//
// A Store exclusively owns the token value. The HTTP pipeline reads it on
// every request and clears it when the server rejects the session; the login
// flow writes it.
//
// Backends:
//
//   - memory.go: process-local value
//   - file.go: a named slot in a YAML document on disk, optionally sealed
//   - badger.go: a key in an embedded Badger database
//
// All backends are safe for concurrent use, and Clear is idempotent.
package session
