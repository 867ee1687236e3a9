package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Outgoing API requests, labelled by code and method.
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Session lifecycle
	SessionInvalidations prometheus.Counter
	Logins               *prometheus.CounterVec

	// Client-side routing
	Navigations *prometheus.CounterVec

	// Recovered hook panics
	HookPanics *prometheus.CounterVec
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outgoing API requests by status code and method.",
		}, []string{"code", "method"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Outgoing API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_requests_in_flight",
			Help:      "Outgoing API requests currently in flight.",
		}),
		SessionInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_invalidations_total",
			Help:      "Sessions cleared after the server answered 401.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Route transitions by target path.",
		}, []string{"path"}),
		HookPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_panics_total",
			Help:      "Recovered panics in pipeline hooks.",
		}, []string{"stage"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.RequestsInFlight,
		r.SessionInvalidations,
		r.Logins,
		r.Navigations,
		r.HookPanics,
	)
	return r
}

// Prometheus returns the underlying registry, for registering extra
// collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// IncSessionInvalidated records a session cleared after a 401.
func (r *Registry) IncSessionInvalidated() {
	r.SessionInvalidations.Inc()
}

// RecordLogin records a login attempt. result is "ok" or "failed".
func (r *Registry) RecordLogin(result string) {
	r.Logins.WithLabelValues(result).Inc()
}

// RecordNavigation records a transition to path.
func (r *Registry) RecordNavigation(path string) {
	r.Navigations.WithLabelValues(path).Inc()
}

// IncHookPanic records a recovered panic. stage is "request" or "response".
func (r *Registry) IncHookPanic(stage string) {
	r.HookPanics.WithLabelValues(stage).Inc()
}
