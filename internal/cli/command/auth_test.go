package command

import (
	"os"
	"strings"
	"testing"
)

func TestLoginCommand_Flags(t *testing.T) {
	cmd := LoginCommand()

	flagNames := make(map[string]bool)
	for _, f := range cmd.Flags {
		flagNames[f.Names()[0]] = true
	}
	if !flagNames["account"] || !flagNames["password"] {
		t.Errorf("login flags = %v, want account and password", flagNames)
	}
}

func TestLogin_StoresTokenAndLandsOnDashboard(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("", "-o", "json", "login", "--account", "s001", "--password", testPassword)
	if r.err != nil {
		t.Fatalf("login: %v\n%s", r.err, r.stderr)
	}

	var v principalView
	decodeJSON(t, r.stdout, &v)
	if v.Account != "s001" || v.Role != "student" || v.Location != "/student" {
		t.Errorf("login output = %+v", v)
	}
	if v.ExpiresAt == "" {
		t.Error("expires_at should be reported")
	}

	data, err := os.ReadFile(env.sessionFile)
	if err != nil {
		t.Fatalf("session file: %v", err)
	}
	if !strings.Contains(string(data), "tok-s001") {
		t.Errorf("session file = %q, want the token", data)
	}
}

func TestLogin_PasswordFromInput(t *testing.T) {
	env := newTestEnv(t)

	r := env.run(testPassword+"\n", "login", "--account", "t001")
	if r.err != nil {
		t.Fatalf("login: %v", r.err)
	}
	if !strings.Contains(r.stdout, "/teacher") {
		t.Errorf("stdout = %q, want the teacher dashboard", r.stdout)
	}
}

func TestLogin_EmptyPassword(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("", "login", "--account", "t001")
	if r.err == nil || !strings.Contains(r.err.Error(), "password") {
		t.Errorf("err = %v, want missing password", r.err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("", "login", "--account", "s001", "--password", "nope")
	if r.exitCode() != exitUnauthorized {
		t.Fatalf("exit code = %d, want %d (err %v)", r.exitCode(), exitUnauthorized, r.err)
	}
	if !strings.Contains(r.err.Error(), "login failed") {
		t.Errorf("err = %q, want a login failure message", r.err)
	}
	if strings.Contains(r.err.Error(), msgSessionExpired) {
		t.Error("a rejected login must not read as an expired session")
	}
}

func TestWhoami(t *testing.T) {
	env := newTestEnv(t)
	env.login("admin1")

	r := env.run("", "-o", "json", "whoami")
	if r.err != nil {
		t.Fatalf("whoami: %v", r.err)
	}
	var v principalView
	decodeJSON(t, r.stdout, &v)
	if v.Account != "admin1" || v.Role != "admin" || v.Location != "/admin" {
		t.Errorf("whoami = %+v", v)
	}
	if got := env.server.authorization(); got != "Bearer tok-admin1" {
		t.Errorf("Authorization = %q, want the stored bearer token", got)
	}
}

func TestWhoami_NotLoggedIn(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("", "whoami")
	if r.exitCode() != exitUnauthorized || r.err.Error() != msgNotLoggedIn {
		t.Errorf("got (%d, %v), want not-logged-in exit", r.exitCode(), r.err)
	}
}

func TestWhoami_SessionExpiredClearsToken(t *testing.T) {
	env := newTestEnv(t)
	env.login("s001")
	env.server.expired.Store(true)

	r := env.run("", "whoami")
	if r.exitCode() != exitUnauthorized || r.err.Error() != msgSessionExpired {
		t.Fatalf("got (%d, %v), want session expired", r.exitCode(), r.err)
	}

	env.server.expired.Store(false)
	r = env.run("", "-o", "json", "token", "show")
	if r.err != nil {
		t.Fatal(r.err)
	}
	var v tokenView
	decodeJSON(t, r.stdout, &v)
	if v.Present {
		t.Error("token should be cleared after a 401")
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login("s001")

	r := env.run("", "logout")
	if r.err != nil {
		t.Fatalf("logout: %v", r.err)
	}
	if !strings.Contains(r.stdout, "Logged out") {
		t.Errorf("stdout = %q", r.stdout)
	}

	if r := env.run("", "whoami"); r.err == nil || r.err.Error() != msgNotLoggedIn {
		t.Errorf("whoami after logout = %v, want not logged in", r.err)
	}
}

func TestPasswd(t *testing.T) {
	env := newTestEnv(t)
	env.login("t001")

	r := env.run("", "passwd", "--old", testPassword, "--new", "newpass1")
	if r.err != nil {
		t.Fatalf("passwd: %v", r.err)
	}
	if !strings.Contains(r.stdout, "Password changed") {
		t.Errorf("stdout = %q", r.stdout)
	}

	if r := env.run("", "login", "--account", "t001", "--password", "newpass1"); r.err != nil {
		t.Errorf("login with new password: %v", r.err)
	}
}

func TestPasswd_Validation(t *testing.T) {
	env := newTestEnv(t)

	if r := env.run("", "passwd", "--old", testPassword, "--new", "newpass1"); r.err == nil || r.err.Error() != msgNotLoggedIn {
		t.Errorf("passwd without login = %v, want not logged in", r.err)
	}

	env.login("t001")
	r := env.run("", "passwd", "--old", testPassword, "--new", "short")
	if r.err == nil || !strings.Contains(r.err.Error(), "6") {
		t.Errorf("short password err = %v, want length error", r.err)
	}

	r = env.run("", "passwd", "--old", "wrong-old", "--new", "newpass1")
	if r.err == nil || !strings.Contains(r.err.Error(), "old password is incorrect") {
		t.Errorf("wrong old password err = %v, want backend detail", r.err)
	}
}
