package navigator

import (
	"context"
	"sync"
	"testing"

	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/events"
	"github.com/yndnr/portalshell-go/internal/router"
	"github.com/yndnr/portalshell-go/internal/telemetry/logger"
)

func newTestNavigator(bus *events.Bus) *Navigator {
	opts := []Option{WithLogger(logger.Discard())}
	if bus != nil {
		opts = append(opts, WithBus(bus))
	}
	return New(router.Default(), opts...)
}

func TestGoTo_RootRedirectsToLogin(t *testing.T) {
	nav := newTestNavigator(nil)
	if !nav.Current().IsZero() {
		t.Fatalf("Current() before mount = %+v, want zero", nav.Current())
	}

	nav.GoTo("/")
	cur := nav.Current()
	if cur.Path != "/login" || cur.View != domain.ViewLogin || cur.Requested != "/" {
		t.Errorf("Current() = %+v, want /login via /", cur)
	}
}

func TestGoTo_Idempotent(t *testing.T) {
	bus := events.NewBus(logger.Discard())
	var navigations []events.Navigated
	bus.Subscribe(events.KindNavigated, func(ctx context.Context, ev events.Event) {
		navigations = append(navigations, ev.(events.Navigated))
	})

	nav := newTestNavigator(bus)
	nav.GoTo("/login")
	nav.GoTo("/login")
	nav.GoTo("/login/")

	if got := nav.Current().Path; got != "/login" {
		t.Errorf("Current().Path = %q, want /login", got)
	}
	if len(nav.History()) != 0 {
		t.Errorf("History() = %v, want empty", nav.History())
	}
	if len(navigations) != 1 {
		t.Errorf("navigated events = %d, want 1", len(navigations))
	}
}

func TestGoTo_UnknownPath(t *testing.T) {
	nav := newTestNavigator(nil)
	nav.GoTo("/nowhere")

	cur := nav.Current()
	if cur.View != domain.ViewNotFound || cur.Path != "/nowhere" {
		t.Errorf("Current() = %+v, want not-found at /nowhere", cur)
	}
}

func TestBackAndHistory(t *testing.T) {
	nav := newTestNavigator(nil)
	if nav.Back() {
		t.Fatal("Back() on empty history should be false")
	}

	nav.GoTo("/login")
	nav.GoTo("/admin")
	nav.GoTo("/teacher")

	hist := nav.History()
	if len(hist) != 2 || hist[0].Path != "/login" || hist[1].Path != "/admin" {
		t.Fatalf("History() = %+v", hist)
	}

	if !nav.Back() {
		t.Fatal("Back() should succeed")
	}
	if got := nav.Current().Path; got != "/admin" {
		t.Errorf("after Back Current().Path = %q, want /admin", got)
	}
}

func TestHistoryBounded(t *testing.T) {
	nav := newTestNavigator(nil)
	paths := []string{"/login", "/admin", "/teacher", "/student"}
	for i := 0; i < maxHistory*2; i++ {
		nav.GoTo(paths[i%len(paths)])
	}
	if n := len(nav.History()); n != maxHistory {
		t.Errorf("len(History()) = %d, want %d", n, maxHistory)
	}
}

func TestFollowSessionInvalidation(t *testing.T) {
	bus := events.NewBus(logger.Discard())
	nav := newTestNavigator(bus)
	unsubscribe := nav.FollowSessionInvalidation(bus)
	defer unsubscribe()

	nav.GoTo("/admin")
	bus.Publish(context.Background(), events.SessionInvalidated{Status: 401})

	if got := nav.Current().Path; got != "/login" {
		t.Errorf("Current().Path = %q, want /login", got)
	}

	// Second invalidation while already on /login is a no-op.
	bus.Publish(context.Background(), events.SessionInvalidated{Status: 401})
	if n := len(nav.History()); n != 1 {
		t.Errorf("len(History()) = %d, want 1", n)
	}
}

func TestGoTo_Concurrent(t *testing.T) {
	bus := events.NewBus(logger.Discard())
	nav := newTestNavigator(bus)
	nav.FollowSessionInvalidation(bus)
	nav.GoTo("/student")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), events.SessionInvalidated{Status: 401})
		}()
	}
	wg.Wait()

	if got := nav.Current().Path; got != "/login" {
		t.Errorf("Current().Path = %q, want /login", got)
	}
	if n := len(nav.History()); n != 1 {
		t.Errorf("len(History()) = %d, want 1 (only /student)", n)
	}
}
