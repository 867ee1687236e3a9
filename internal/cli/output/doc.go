// Package output renders command results as a table, JSON or YAML.
//
// The table formatter understands structs, slices of structs, maps and
// decoded JSON ([]any of map[string]any), which is what the request command
// prints for arbitrary API responses.
package output
