// Package config defines the portal-cli configuration.
//
//   - spec.go: configuration structure
//   - default.go: default values and paths
//   - verify.go: validation
//   - load.go: layered loading (flag > env > file > default)
//   - sanitize.go: secret masking for display
package config
