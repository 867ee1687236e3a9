// Package domain defines the core domain models for the portal shell.
package domain

import "errors"

// DomainError represents a domain error with a structured error code.
// Codes use the format PS-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "PS-SESS-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface. The cause, when present, is
// appended so that a single line explains the failure.
func (e *DomainError) Error() string {
	msg := "[" + e.Code + "] " + e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code, so a copy made by WithDetails or
// WithCause still matches its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// NewDomainError creates a sentinel error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *DomainError) WithDetails(details string) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy of e wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// HasCode reports whether err wraps a DomainError with the given code, or
// any DomainError when code is empty.
func HasCode(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionStore indicates the session backend failed.
	ErrSessionStore = NewDomainError("PS-SESS-5000", "session store error")

	// ErrSessionSealed indicates the persisted token could not be unsealed.
	ErrSessionSealed = NewDomainError("PS-SESS-5001", "sealed token cannot be opened")

	// ErrUnknownBackend indicates an unsupported session backend name.
	ErrUnknownBackend = NewDomainError("PS-SESS-4000", "unknown session backend")

	// ErrTokenMalformed indicates a token value that cannot be stored.
	ErrTokenMalformed = NewDomainError("PS-SESS-4001", "malformed token")
)

// ============================================================================
// HTTP Errors (HTTP)
// ============================================================================

var (
	// ErrRequestFailed indicates the request never produced a response.
	ErrRequestFailed = NewDomainError("PS-HTTP-5020", "request failed")

	// ErrUnauthorized indicates the server answered 401.
	ErrUnauthorized = NewDomainError("PS-HTTP-4010", "unauthorized")

	// ErrForbidden indicates the server answered 403.
	ErrForbidden = NewDomainError("PS-HTTP-4030", "forbidden")

	// ErrNotFound indicates the server answered 404.
	ErrNotFound = NewDomainError("PS-HTTP-4040", "not found")

	// ErrBadStatus indicates any other non-2xx status.
	ErrBadStatus = NewDomainError("PS-HTTP-5000", "unexpected status")
)

// ============================================================================
// Route Errors (ROUTE)
// ============================================================================

var (
	// ErrRouteInvalid indicates a malformed route definition.
	ErrRouteInvalid = NewDomainError("PS-ROUTE-4000", "invalid route")

	// ErrRouteConflict indicates a duplicate route path.
	ErrRouteConflict = NewDomainError("PS-ROUTE-4090", "duplicate route path")

	// ErrRedirectLoop indicates redirects that never reach a view.
	ErrRedirectLoop = NewDomainError("PS-ROUTE-5080", "redirect loop")
)

// ============================================================================
// Config and Argument Errors (CONF, ARG)
// ============================================================================

var (
	// ErrConfigInvalid indicates configuration verification failed.
	ErrConfigInvalid = NewDomainError("PS-CONF-4000", "invalid configuration")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("PS-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("PS-ARG-1002", "missing required argument")
)
