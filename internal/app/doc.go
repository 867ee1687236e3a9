// Package app assembles the portal shell.
//
// Bootstrap order:
//
//	config → logger → session store → event bus → route table →
//	navigator (follows session invalidation) → metrics →
//	HTTP pipeline (RequestID, UserAgent, BearerAuth | SessionGuard) →
//	API client → mount (navigate to the start path)
//
// The App is the long-lived object the CLI commands and the interactive
// shell work against. Close releases the session store.
package app
