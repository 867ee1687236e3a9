package pipeline

import (
	"net/http"

	"github.com/oklog/ulid/v2"
)

// RequestID tags each request with a ULID in X-Request-ID unless the
// caller already set one.
func RequestID() RequestHook {
	return RequestHookFunc(func(req *http.Request) {
		if req.Header.Get(HeaderRequestID) == "" {
			req.Header.Set(HeaderRequestID, "req-"+ulid.Make().String())
		}
	})
}
