package repl

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"get /api/x", []string{"get", "/api/x"}, false},
		{"  spaced\targs  ", []string{"spaced", "args"}, false},
		{`post /api/x '{"a": 1}'`, []string{"post", "/api/x", `{"a": 1}`}, false},
		{`say "hello world"`, []string{"say", "hello world"}, false},
		{`a\ b`, []string{"a b"}, false},
		{`empty ""`, []string{"empty", ""}, false},
		{`'unterminated`, nil, true},
		{`trailing\`, nil, true},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, err := SplitArgs(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitArgs(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestREPL_Run(t *testing.T) {
	in := strings.NewReader("echo one two\n\n# comment\nnope\necho 'three four'\nexit\necho unreachable\n")
	var out bytes.Buffer

	var calls [][]string
	r := New(WithIO(in, &out), WithPrompt(func() string { return "> " }))
	r.Register(Command{
		Name: "echo",
		Run: func(ctx context.Context, args []string) error {
			calls = append(calls, args)
			return nil
		},
	})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][]string{{"one", "two"}, {"three four"}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %q, want %q", calls, want)
	}
	if !strings.Contains(out.String(), `unknown command "nope"`) {
		t.Errorf("output missing unknown command error:\n%s", out.String())
	}
	if got := r.History().Entries(); len(got) != 4 || got[3] != "exit" {
		t.Errorf("history = %q", got)
	}
}

func TestREPL_EOFWithoutNewline(t *testing.T) {
	var ran bool
	r := New(WithIO(strings.NewReader("go"), &bytes.Buffer{}))
	r.Register(Command{Name: "go", Run: func(context.Context, []string) error { ran = true; return nil }})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("last line without newline was not executed")
	}
}

func TestREPL_CommandErrorsAreReported(t *testing.T) {
	var out bytes.Buffer
	r := New(WithIO(strings.NewReader("fail\n"), &out))
	r.Register(Command{Name: "fail", Run: func(context.Context, []string) error { return errors.New("boom") }})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Error: boom") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_CommandCanExit(t *testing.T) {
	var after bool
	in := strings.NewReader("logout\nafter\n")
	r := New(WithIO(in, &bytes.Buffer{}))
	r.Register(Command{Name: "logout", Run: func(context.Context, []string) error { return ErrExit }})
	r.Register(Command{Name: "after", Run: func(context.Context, []string) error { after = true; return nil }})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if after {
		t.Error("loop continued after ErrExit")
	}
}

func TestREPL_AliasesAndSuggestions(t *testing.T) {
	var out bytes.Buffer
	r := New(WithIO(strings.NewReader(""), &out))
	var ran int
	r.Register(Command{Name: "whoami", Aliases: []string{"me"}, Run: func(context.Context, []string) error { ran++; return nil }})

	ctx := context.Background()
	if err := r.Execute(ctx, "me"); err != nil || ran != 1 {
		t.Fatalf("alias: err=%v ran=%d", err, ran)
	}
	err := r.Execute(ctx, "who")
	if err == nil || !strings.Contains(err.Error(), "whoami") {
		t.Errorf("Execute(who) = %v, want suggestion", err)
	}
}

func TestREPL_Help(t *testing.T) {
	var out bytes.Buffer
	r := New(WithIO(strings.NewReader("help\n"), &out))
	r.Register(Command{Name: "open", Usage: "PATH", Summary: "navigate to a route"})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"open PATH", "navigate to a route", "exit", "history"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q:\n%s", want, out.String())
		}
	}
}

func TestHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")
	h := NewHistory(path)
	h.Add("open /admin")
	h.Add("open /admin")
	h.Add("where")

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (repeat skipped)", h.Len())
	}
	if h.Get(0) != "where" || h.Get(1) != "open /admin" || h.Get(5) != "" {
		t.Errorf("Get() mismatch: %q", h.Entries())
	}

	if err := h.Save(); err != nil {
		t.Fatal(err)
	}
	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Entries(), h.Entries()) {
		t.Errorf("loaded = %q, want %q", loaded.Entries(), h.Entries())
	}
}

func TestHistory_Bounded(t *testing.T) {
	h := NewHistory("")
	h.maxSize = 3
	for _, s := range []string{"a", "b", "c", "d"} {
		h.Add(s)
	}
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Entries() = %q", got)
	}
	if err := h.Save(); err != nil {
		t.Errorf("Save() without file = %v", err)
	}
}

func TestCompleter(t *testing.T) {
	c := NewCompleter()
	c.Add("open", "logout", "login", "open")

	if got := c.Complete("lo"); !reflect.DeepEqual(got, []string{"login", "logout"}) {
		t.Errorf("Complete(lo) = %q", got)
	}
	if got := c.Complete(""); len(got) != 3 {
		t.Errorf("Complete() = %q, want 3 unique names", got)
	}
	if got := c.Complete("x"); got != nil {
		t.Errorf("Complete(x) = %q", got)
	}
}

func TestREPL_SensitiveCommandHistory(t *testing.T) {
	r := New(WithIO(strings.NewReader("login a001 hunter22\n"), &bytes.Buffer{}))
	r.Register(Command{Name: "login", Sensitive: true, Run: func(context.Context, []string) error { return nil }})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := r.History().Entries(); len(got) != 1 || got[0] != "login" {
		t.Errorf("history = %q, want [login]", got)
	}
}
