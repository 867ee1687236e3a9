package pipeline

import "net/http"

// RequestHook mutates an outgoing request before it is sent.
type RequestHook interface {
	BeforeSend(req *http.Request)
}

// RequestHookFunc adapts a function to RequestHook.
type RequestHookFunc func(req *http.Request)

// BeforeSend implements RequestHook.
func (f RequestHookFunc) BeforeSend(req *http.Request) {
	f(req)
}

// ResponseHook observes a completed exchange.
//
// OnSuccess receives 2xx responses and returns the response passed to the
// next hook. OnFailure receives *ResponseError or *RequestError and returns
// the error passed to the next hook. A nil return keeps the current value,
// so a failure cannot be turned into a success.
type ResponseHook interface {
	OnSuccess(resp *http.Response) *http.Response
	OnFailure(err error) error
}

// ResponseHookFuncs adapts a pair of functions to ResponseHook. A nil
// function is the identity.
type ResponseHookFuncs struct {
	Success func(resp *http.Response) *http.Response
	Failure func(err error) error
}

// OnSuccess implements ResponseHook.
func (h ResponseHookFuncs) OnSuccess(resp *http.Response) *http.Response {
	if h.Success == nil {
		return resp
	}
	return h.Success(resp)
}

// OnFailure implements ResponseHook.
func (h ResponseHookFuncs) OnFailure(err error) error {
	if h.Failure == nil {
		return err
	}
	return h.Failure(err)
}

// Header names set by the built-in hooks.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderUserAgent     = "User-Agent"
)

// UserAgent sets the User-Agent header unless the caller already did.
func UserAgent(ua string) RequestHook {
	return RequestHookFunc(func(req *http.Request) {
		if ua != "" && req.Header.Get(HeaderUserAgent) == "" {
			req.Header.Set(HeaderUserAgent, ua)
		}
	})
}
