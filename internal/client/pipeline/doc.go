// Package pipeline is the HTTP client every API call goes through.
//
// A Client runs an ordered list of request hooks before each request is
// sent and an ordered list of response hooks after it completes:
//
//	req ─▶ RequestHook... ─▶ transport ─▶ 2xx? ─▶ OnSuccess...    ─▶ resp
//	                                      else ─▶ OnFailure...    ─▶ error
//
// Any non-2xx status becomes a *ResponseError and a transport failure
// becomes a *RequestError, so callers see one error type per failure mode.
//
// Hooks shipped here:
//
//   - BearerAuth: copies the session token into the Authorization header
//   - SessionGuard: on 401 clears the session and publishes
//     events.SessionInvalidated before the error reaches the caller
//   - RequestID, UserAgent: request decoration
//
// All response-hook side effects (including synchronous event delivery)
// have completed when Do returns.
package pipeline
