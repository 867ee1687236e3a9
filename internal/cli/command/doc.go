// Package command provides the portal-cli command definitions.
//
// It uses urfave/cli/v2 for command parsing and supports both single-command
// mode, where each invocation restores the session from the configured store,
// and the interactive shell, which keeps one App mounted for its lifetime.
package command
