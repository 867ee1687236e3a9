package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yndnr/portalshell-go/internal/core/domain"
)

// maxErrorBody bounds how much of a failed response body is buffered.
const maxErrorBody = 1 << 20

// ResponseError is returned for any response whose status is not 2xx.
type ResponseError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
	Header     http.Header
	// Body is the buffered response body.
	Body []byte
	// Request is the request that produced the response.
	Request *http.Request
}

// Error implements error.
func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.statusText())
	if d := e.Detail(); d != "" {
		msg += ": " + d
	}
	return msg
}

// Unwrap maps the status to a domain error so callers can use errors.Is.
func (e *ResponseError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrBadStatus
	}
}

// Detail extracts the server's message from a JSON error body of the form
// {"detail": "..."} or a validation error list {"detail": [{"msg": ...}]}.
func (e *ResponseError) Detail() string {
	if len(e.Body) == 0 {
		return ""
	}
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}

	var s string
	if json.Unmarshal(body.Detail, &s) == nil && s != "" {
		return s
	}
	var items []struct {
		Msg string        `json:"msg"`
		Loc []interface{} `json:"loc"`
	}
	if json.Unmarshal(body.Detail, &items) == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return body.Message
}

func (e *ResponseError) statusText() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// RequestError is returned when no response was received.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

// Error implements error.
func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap exposes both domain.ErrRequestFailed and the transport error.
func (e *RequestError) Unwrap() []error {
	return []error{domain.ErrRequestFailed, e.Err}
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.StatusCode, true
	}
	return 0, false
}

// IsUnauthorized reports whether err carries a 401 response.
func IsUnauthorized(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusUnauthorized
}
