package command

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portalshell-go/internal/client/pipeline"
	"github.com/yndnr/portalshell-go/internal/core/domain"
)

func TestApp_Structure(t *testing.T) {
	app := App()

	if app.Name != "portal-cli" {
		t.Errorf("Name = %q, want portal-cli", app.Name)
	}
	if app.Version == "" {
		t.Error("Version should be set")
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, name := range []string{"login", "logout", "whoami", "passwd", "request", "routes", "open", "token", "config", "shell"} {
		if !names[name] {
			t.Errorf("missing command: %s", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	flags := make(map[string]bool)
	for _, f := range globalFlags() {
		for _, name := range f.Names() {
			flags[name] = true
		}
	}
	for _, name := range []string{"config", "c", "server", "s", "output", "o", "ca-file", "insecure", "session-backend", "session-file", "verbose", "V"} {
		if !flags[name] {
			t.Errorf("missing global flag: %s", name)
		}
	}
}

func TestGlobalFlags_Overrides(t *testing.T) {
	f := &GlobalFlags{Server: "http://portal:8000", SessionBackend: "memory", Verbose: true}
	got := f.overrides()

	want := map[string]any{
		"api.base_url":    "http://portal:8000",
		"session.backend": "memory",
		"log.level":       "debug",
	}
	if len(got) != len(want) {
		t.Fatalf("overrides = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("overrides[%q] = %v, want %v", k, got[k], v)
		}
	}

	if got := (&GlobalFlags{}).overrides(); len(got) != 0 {
		t.Errorf("empty flags overrides = %v, want none", got)
	}
}

func TestFail(t *testing.T) {
	expired := &pipeline.ResponseError{StatusCode: 401, Method: "GET", URL: "/api/auth/me"}

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"session expired", expired, exitUnauthorized, msgSessionExpired},
		{"not logged in", domain.ErrUnauthorized.WithDetails("not logged in"), exitUnauthorized, msgNotLoggedIn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ec cli.ExitCoder
			if !errors.As(fail(tt.err), &ec) {
				t.Fatalf("fail() = %v, want exit error", fail(tt.err))
			}
			if ec.ExitCode() != tt.wantCode || ec.Error() != tt.wantMsg {
				t.Errorf("got (%d, %q), want (%d, %q)", ec.ExitCode(), ec.Error(), tt.wantCode, tt.wantMsg)
			}
		})
	}

	other := errors.New("boom")
	if got := fail(other); got != other {
		t.Errorf("fail(other) = %v, want it unchanged", got)
	}
	if fail(nil) != nil {
		t.Error("fail(nil) should be nil")
	}
}

func TestRun_InvalidOutputFormat(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("", "-o", "xml", "routes")
	if !errors.Is(r.err, domain.ErrInvalidArgument) {
		t.Errorf("err = %v, want invalid argument", r.err)
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("", "--config", "/nonexistent/portal.yaml", "routes")
	if !errors.Is(r.err, domain.ErrConfigInvalid) {
		t.Errorf("err = %v, want config error", r.err)
	}
}
