// Package domain defines the core domain models for the portal shell.
//
// Domain models are plain values without IO dependencies:
//
//   - Token: opaque bearer credential held by the session store
//   - Route, View, Location: static route table entries and navigation state
//   - Role: principal roles and their dashboard routes
//   - Errors: structured error codes shared by all packages
package domain
