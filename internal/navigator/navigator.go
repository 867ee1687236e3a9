// Package navigator performs client-side route transitions.
//
// The navigator owns the current location and a history stack. It never
// fails: unknown paths land on the not-found view.
package navigator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/events"
	"github.com/yndnr/portalshell-go/internal/router"
)

// maxHistory bounds the history stack.
const maxHistory = 100

// Navigator moves between routes of a router.Table. It is safe for
// concurrent use.
type Navigator struct {
	table  *router.Table
	bus    *events.Bus
	logger *slog.Logger

	mu      sync.RWMutex
	current domain.Location
	history []domain.Location
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithBus publishes a events.Navigated event for every transition.
func WithBus(bus *events.Bus) Option {
	return func(n *Navigator) {
		n.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// New creates a navigator over table. No location is current until the
// first GoTo.
func New(table *router.Table, opts ...Option) *Navigator {
	n := &Navigator{
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// GoTo transitions to path. Navigating to the current location is a no-op.
func (n *Navigator) GoTo(path string) {
	n.GoToContext(context.Background(), path)
}

// GoToContext is GoTo with a context passed to event subscribers.
func (n *Navigator) GoToContext(ctx context.Context, path string) {
	res := n.table.Resolve(path)
	next := res.Location()

	n.mu.Lock()
	prev := n.current
	if prev.Path == next.Path && !prev.IsZero() {
		n.mu.Unlock()
		n.logger.Debug("navigation skipped, already there", "path", next.Path)
		return
	}
	if !prev.IsZero() {
		n.history = append(n.history, prev)
		if len(n.history) > maxHistory {
			n.history = n.history[len(n.history)-maxHistory:]
		}
	}
	n.current = next
	n.mu.Unlock()

	n.transitioned(ctx, prev, next, res.Found())
}

// Back returns to the previous location. It reports false when the history
// is empty.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	if len(n.history) == 0 {
		n.mu.Unlock()
		return false
	}
	prev := n.current
	next := n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	n.current = next
	n.mu.Unlock()

	n.transitioned(context.Background(), prev, next, next.View != domain.ViewNotFound)
	return true
}

// Current returns the current location. It is the zero Location before the
// first navigation.
func (n *Navigator) Current() domain.Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// History returns previous locations, oldest first.
func (n *Navigator) History() []domain.Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]domain.Location, len(n.history))
	copy(out, n.history)
	return out
}

// Table returns the route table the navigator resolves against.
func (n *Navigator) Table() *router.Table {
	return n.table
}

// FollowSessionInvalidation subscribes the navigator to
// events.SessionInvalidated and sends the user to the login view.
func (n *Navigator) FollowSessionInvalidation(bus *events.Bus) (unsubscribe func()) {
	return bus.Subscribe(events.KindSessionInvalidated, func(ctx context.Context, ev events.Event) {
		n.GoToContext(ctx, domain.PathLogin)
	})
}

func (n *Navigator) transitioned(ctx context.Context, prev, next domain.Location, found bool) {
	if found {
		n.logger.Debug("navigated", "from", prev.Path, "to", next.Path, "view", string(next.View))
	} else {
		n.logger.Warn("navigated to unknown path", "path", next.Path)
	}
	if n.bus != nil {
		n.bus.Publish(ctx, events.Navigated{From: prev.Path, To: next.Path})
	}
}
