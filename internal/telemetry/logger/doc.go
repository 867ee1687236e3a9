// Package logger builds the log/slog loggers used across portal-cli.
//
// Loggers write text or JSON, filter by a level that the interactive shell
// can change while running, and never print credentials: bearer values and
// attributes whose key names a token, password or secret are masked.
package logger
