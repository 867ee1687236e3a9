package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portalshell-go/internal/core/domain"
)

const testPassword = "pw123456"

// mockServer stands in for the portal backend: one account per role, bearer
// tokens of the form tok-<role>, and a switch that expires every session.
type mockServer struct {
	*httptest.Server
	expired atomic.Bool

	mu        sync.Mutex
	passwords map[string]string
	lastAuth  string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		passwords: map[string]string{"admin1": testPassword, "t001": testPassword, "s001": testPassword},
	}
	roles := map[string]string{"admin1": "admin", "t001": "teacher", "s001": "student"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		user := r.PostForm.Get("username")
		m.mu.Lock()
		pw, ok := m.passwords[user]
		m.mu.Unlock()
		if !ok || pw != r.PostForm.Get("password") {
			jsonResponse(w, http.StatusUnauthorized, map[string]string{"detail": "wrong account or password"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"access_token": "tok-" + user, "token_type": "bearer"})
	})
	mux.HandleFunc("GET /api/auth/me", m.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		jsonResponse(w, http.StatusOK, map[string]any{"account_no": user, "role": roles[user], "exp": 1767225600})
	}))
	mux.HandleFunc("POST /api/auth/change-password", m.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		var in struct {
			Old string `json:"old_password"`
			New string `json:"new_password"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.passwords[user] != in.Old {
			jsonResponse(w, http.StatusBadRequest, map[string]string{"detail": "old password is incorrect"})
			return
		}
		m.passwords[user] = in.New
		jsonResponse(w, http.StatusOK, map[string]string{"msg": "ok"})
	}))
	mux.HandleFunc("GET /api/student/courses", m.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		jsonResponse(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Algebra"}})
	}))
	mux.HandleFunc("POST /api/admin/users", m.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}))
	mux.HandleFunc("GET /api/admin/forbidden", m.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		jsonResponse(w, http.StatusForbidden, map[string]string{"detail": "admins only"})
	}))

	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Close)
	return m
}

// authed rejects requests without a live bearer token.
func (m *mockServer) authed(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.lastAuth = r.Header.Get("Authorization")
		m.mu.Unlock()

		tok, ok := domain.ParseBearer(r.Header.Get("Authorization"))
		if !ok || m.expired.Load() || !strings.HasPrefix(string(tok), "tok-") {
			jsonResponse(w, http.StatusUnauthorized, map[string]string{"detail": "could not validate credentials"})
			return
		}
		next(w, r, strings.TrimPrefix(string(tok), "tok-"))
	}
}

func (m *mockServer) authorization() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAuth
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// testEnv runs the CLI against a mock server with an isolated home directory
// and session file, so consecutive invocations share one session.
type testEnv struct {
	t           *testing.T
	server      *mockServer
	home        string
	sessionFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return &testEnv{
		t:           t,
		server:      newMockServer(t),
		home:        home,
		sessionFile: filepath.Join(home, "session.yaml"),
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// exitCode returns the exit code carried by the error, 0 for nil and 1 for
// errors without one.
func (r result) exitCode() int {
	if r.err == nil {
		return 0
	}
	var ec cli.ExitCoder
	if errors.As(r.err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

// run executes the CLI. Global flags may lead args.
func (e *testEnv) run(stdin string, args ...string) result {
	e.t.Helper()
	app := App()
	var stdout, stderr bytes.Buffer
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"portal-cli", "--server", e.server.URL, "--session-file", e.sessionFile}
	full = append(full, args...)
	err := app.Run(full)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// login logs in as account and fails the test otherwise.
func (e *testEnv) login(account string) {
	e.t.Helper()
	if r := e.run("", "login", "--account", account, "--password", testPassword); r.err != nil {
		e.t.Fatalf("login %s: %v\n%s", account, r.err, r.stderr)
	}
}

func decodeJSON(t *testing.T, s string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(s), v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
}
