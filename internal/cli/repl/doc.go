// Package repl is the line-oriented interactive loop behind `portal-cli shell`.
//
// Commands are registered by the caller; the loop provides parsing with
// shell-style quoting, history, prefix completion and the built-ins help,
// history and exit.
package repl
