// Package metric provides Prometheus metrics for portal-cli.
//
//   - prometheus.go: registry, collectors and the /metrics handler
//   - transport.go: http.RoundTripper instrumentation for the API client
//
// Metrics include outgoing request counts and latencies, requests in
// flight, session invalidations and route transitions.
package metric
