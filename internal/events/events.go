// Package events provides the in-process event bus that decouples the HTTP
// pipeline from navigation.
//
// Delivery is synchronous: Publish returns only after every subscriber ran,
// so a caller that observes a failed request also observes its side effects.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind identifies an event type.
type Kind string

// Event kinds.
const (
	KindSessionInvalidated Kind = "session.invalidated"
	KindNavigated          Kind = "route.navigated"
)

// Event is anything published on the bus.
type Event interface {
	Kind() Kind
}

// SessionInvalidated is published after the session store was cleared in
// response to an authentication failure.
type SessionInvalidated struct {
	Status    int
	Method    string
	URL       string
	RequestID string
	At        time.Time
}

// Kind implements Event.
func (SessionInvalidated) Kind() Kind { return KindSessionInvalidated }

// Navigated is published after a real route transition.
type Navigated struct {
	From string
	To   string
}

// Kind implements Event.
func (Navigated) Kind() Kind { return KindNavigated }

// Handler receives published events.
type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe hub. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Kind][]subscription
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Kind][]subscription),
		logger: logger,
	}
}

// Subscribe registers h for events of the given kind and returns a function
// that removes the subscription.
func (b *Bus) Subscribe(kind Kind, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[kind]
			for i, s := range list {
				if s.id == id {
					b.subs[kind] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers ev to every subscriber of its kind, in subscription order.
// A panicking subscriber is logged and does not stop delivery.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	list := make([]subscription, len(b.subs[ev.Kind()]))
	copy(list, b.subs[ev.Kind()])
	b.mu.RUnlock()

	for _, s := range list {
		b.deliver(ctx, s.handler, ev)
	}
}

// Subscribers returns the number of handlers registered for kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

func (b *Bus) deliver(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				"kind", string(ev.Kind()),
				"panic", r,
			)
		}
	}()
	h(ctx, ev)
}
