package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/yndnr/portalshell-go/internal/client/api"
	"github.com/yndnr/portalshell-go/internal/client/pipeline"
	"github.com/yndnr/portalshell-go/internal/config"
	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/events"
	"github.com/yndnr/portalshell-go/internal/infra/tlsroots"
	"github.com/yndnr/portalshell-go/internal/navigator"
	"github.com/yndnr/portalshell-go/internal/router"
	"github.com/yndnr/portalshell-go/internal/session"
	"github.com/yndnr/portalshell-go/internal/telemetry/logger"
	"github.com/yndnr/portalshell-go/internal/telemetry/metric"
)

// App is the assembled shell.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     session.Store
	Bus       *events.Bus
	Routes    *router.Table
	Navigator *navigator.Navigator
	Metrics   *metric.Registry
	HTTP      *pipeline.Client
	API       *api.Client

	unsubscribe []func()
	closeOnce   sync.Once
	closeErr    error
}

// Option overrides a component built by New.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	store      session.Store
	metrics    *metric.Registry
	routes     *router.Table
	httpClient *http.Client
}

// WithLogger uses logger instead of one built from cfg.Log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStore uses store instead of opening cfg.Session. The App takes
// ownership and closes it.
func WithStore(s session.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithMetrics uses m instead of a fresh registry.
func WithMetrics(m *metric.Registry) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRoutes uses a custom route table.
func WithRoutes(t *router.Table) Option {
	return func(o *options) {
		o.routes = t
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// New assembles the App without mounting it.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	a.Logger = o.logger
	if a.Logger == nil {
		a.Logger = logger.New(logger.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: os.Stderr,
		})
	}

	a.Store = o.store
	if a.Store == nil {
		store, err := session.Open(session.Config{
			Backend:    cfg.Session.Backend,
			File:       cfg.Session.File,
			Dir:        cfg.Session.Dir,
			Key:        cfg.Session.Key,
			Passphrase: cfg.Session.Passphrase,
			Watch:      cfg.Session.Watch,
		}, a.Logger.With("component", "session"))
		if err != nil {
			return nil, err
		}
		a.Store = store
	}

	a.Bus = events.NewBus(a.Logger.With("component", "events"))

	a.Routes = o.routes
	if a.Routes == nil {
		a.Routes = router.Default()
	}
	a.Navigator = navigator.New(a.Routes,
		navigator.WithBus(a.Bus),
		navigator.WithLogger(a.Logger.With("component", "navigator")),
	)
	a.unsubscribe = append(a.unsubscribe, a.Navigator.FollowSessionInvalidation(a.Bus))

	a.Metrics = o.metrics
	if a.Metrics == nil {
		a.Metrics = metric.NewRegistry()
	}
	a.unsubscribe = append(a.unsubscribe, a.Bus.Subscribe(events.KindNavigated,
		func(ctx context.Context, ev events.Event) {
			a.Metrics.RecordNavigation(ev.(events.Navigated).To)
		}))

	hc := o.httpClient
	if hc == nil {
		tlsCfg, err := tlsroots.ClientConfig(cfg.API.CAFile, cfg.API.InsecureSkipVerify)
		if err != nil {
			_ = a.Store.Close()
			return nil, domain.ErrConfigInvalid.WithDetails("api.ca_file").WithCause(err)
		}
		if tlsCfg != nil {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.TLSClientConfig = tlsCfg
			hc = &http.Client{Transport: transport}
		}
		if cfg.API.InsecureSkipVerify {
			a.Logger.Warn("TLS certificate verification is disabled", "base_url", cfg.API.BaseURL)
		}
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithHTTPClient(hc),
		pipeline.WithLogger(a.Logger.With("component", "http")),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		pipeline.WithRequestHooks(
			pipeline.RequestID(),
			pipeline.UserAgent(cfg.API.UserAgent),
			pipeline.NewBearerAuth(a.Store),
		),
		pipeline.WithResponseHooks(
			pipeline.NewSessionGuard(a.Store, a.Bus,
				pipeline.WithGuardLogger(a.Logger.With("component", "session-guard")),
				pipeline.WithGuardMetrics(a.Metrics),
			),
		),
	}
	if cfg.API.Timeout > 0 {
		pipeOpts = append(pipeOpts, pipeline.WithTimeout(cfg.API.Timeout))
	}
	a.HTTP = pipeline.New(cfg.API.BaseURL, pipeOpts...)
	a.API = api.New(a.HTTP)

	a.Logger.Debug("app assembled",
		"base_url", a.HTTP.BaseURL(),
		"session_backend", cfg.Session.Backend,
	)
	return a, nil
}

// Bootstrap assembles and mounts the App.
func Bootstrap(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.Mount(ctx)
	return a, nil
}

// Mount performs the initial navigation to the configured start path.
func (a *App) Mount(ctx context.Context) domain.Location {
	start := a.Config.App.StartPath
	if start == "" {
		start = domain.PathRoot
	}
	a.Navigator.GoToContext(ctx, start)
	loc := a.Navigator.Current()
	a.Logger.Debug("app mounted", "path", loc.Path, "view", string(loc.View))
	return loc
}

// Login authenticates, stores the token and lands on the role's dashboard.
func (a *App) Login(ctx context.Context, account, password string) (*api.Principal, error) {
	tok, err := a.API.Login(ctx, account, password)
	if err != nil {
		a.Metrics.RecordLogin("failed")
		return nil, err
	}
	if err := a.Store.Set(ctx, tok.Token()); err != nil {
		a.Metrics.RecordLogin("failed")
		return nil, err
	}

	p, err := a.API.Me(ctx)
	if err != nil {
		a.Metrics.RecordLogin("failed")
		return nil, err
	}

	a.Metrics.RecordLogin("ok")
	a.Navigator.GoToContext(ctx, p.Role.DashboardPath())
	a.Logger.Info("logged in",
		"account", p.AccountNo,
		"role", string(p.Role),
		"session_fp", tok.Token().Fingerprint(),
	)
	return p, nil
}

// Logout clears the session and returns to the login view.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Store.Clear(ctx); err != nil {
		return err
	}
	a.Navigator.GoToContext(ctx, domain.PathLogin)
	a.Logger.Info("logged out")
	return nil
}

// Whoami returns the current principal.
func (a *App) Whoami(ctx context.Context) (*api.Principal, error) {
	if _, ok := a.Store.Get(ctx); !ok {
		return nil, domain.ErrUnauthorized.WithDetails("not logged in")
	}
	return a.API.Me(ctx)
}

// Close releases the App. It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		for _, u := range a.unsubscribe {
			u()
		}
		if a.Store != nil {
			a.closeErr = a.Store.Close()
		}
	})
	return a.closeErr
}

// SessionExpired reports whether err means the server rejected the session.
func SessionExpired(err error) bool {
	return pipeline.IsUnauthorized(err) || errors.Is(err, domain.ErrUnauthorized)
}
