package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/portalshell-go/internal/events"
	"github.com/yndnr/portalshell-go/internal/session"
	"github.com/yndnr/portalshell-go/internal/telemetry/metric"
)

// BearerAuth copies the stored token into the Authorization header. With no
// stored token the request is left untouched.
type BearerAuth struct {
	store session.Store
}

// NewBearerAuth creates the hook.
func NewBearerAuth(store session.Store) *BearerAuth {
	return &BearerAuth{store: store}
}

// BeforeSend implements RequestHook.
func (b *BearerAuth) BeforeSend(req *http.Request) {
	token, ok := b.store.Get(req.Context())
	if !ok {
		return
	}
	req.Header.Set(HeaderAuthorization, token.AuthorizationValue())
}

// SessionGuard ends the session when the server answers 401: it clears the
// store, then publishes events.SessionInvalidated. The error is always
// passed on unchanged.
type SessionGuard struct {
	store   session.Store
	bus     *events.Bus
	logger  *slog.Logger
	metrics *metric.Registry
	now     func() time.Time
}

// GuardOption configures a SessionGuard.
type GuardOption func(*SessionGuard)

// WithGuardLogger sets the logger.
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *SessionGuard) {
		g.logger = logger
	}
}

// WithGuardMetrics counts invalidations.
func WithGuardMetrics(m *metric.Registry) GuardOption {
	return func(g *SessionGuard) {
		g.metrics = m
	}
}

// NewSessionGuard creates the hook. bus may be nil.
func NewSessionGuard(store session.Store, bus *events.Bus, opts ...GuardOption) *SessionGuard {
	g := &SessionGuard{
		store:  store,
		bus:    bus,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OnSuccess implements ResponseHook.
func (g *SessionGuard) OnSuccess(resp *http.Response) *http.Response {
	return resp
}

// OnFailure implements ResponseHook.
func (g *SessionGuard) OnFailure(err error) error {
	var re *ResponseError
	if !errors.As(err, &re) || re.StatusCode != http.StatusUnauthorized {
		return err
	}

	ctx := context.Background()
	if re.Request != nil {
		ctx = context.WithoutCancel(re.Request.Context())
	}
	requestID := ""
	if re.Request != nil {
		requestID = re.Request.Header.Get(HeaderRequestID)
	}

	if cerr := g.store.Clear(ctx); cerr != nil {
		g.logger.Error("failed to clear session after 401",
			"request_id", requestID,
			"error", cerr,
		)
	}
	g.logger.Warn("session invalidated by server",
		"method", re.Method,
		"url", re.URL,
		"request_id", requestID,
	)
	if g.metrics != nil {
		g.metrics.IncSessionInvalidated()
	}
	if g.bus != nil {
		g.bus.Publish(ctx, events.SessionInvalidated{
			Status:    re.StatusCode,
			Method:    re.Method,
			URL:       re.URL,
			RequestID: requestID,
			At:        g.now(),
		})
	}
	return err
}
