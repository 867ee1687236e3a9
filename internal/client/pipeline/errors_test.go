package pipeline

import (
	"errors"
	"strings"
	"syscall"
	"testing"

	"github.com/yndnr/portalshell-go/internal/core/domain"
)

func TestResponseError_Detail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Incorrect account or password"}`, "Incorrect account or password"},
		{"validation list", `{"detail":[{"loc":["body","new_password"],"msg":"too short"},{"msg":"required"}]}`, "too short; required"},
		{"message field", `{"code":"X","message":"boom"}`, "boom"},
		{"not json", `<html>bad gateway</html>`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ResponseError{StatusCode: 400, Body: []byte(tt.body)}
			if got := e.Detail(); got != tt.want {
				t.Errorf("Detail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseError_Error(t *testing.T) {
	e := &ResponseError{
		StatusCode: 401,
		Method:     "GET",
		URL:        "http://localhost:8000/api/auth/me",
		Body:       []byte(`{"detail":"Not authenticated"}`),
	}
	msg := e.Error()
	for _, want := range []string{"GET", "/api/auth/me", "401 Unauthorized", "Not authenticated"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestRequestError_Unwrap(t *testing.T) {
	err := error(&RequestError{Method: "GET", URL: "http://x", Err: syscall.ECONNREFUSED})

	if !errors.Is(err, domain.ErrRequestFailed) {
		t.Error("want ErrRequestFailed")
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Error("want transport cause")
	}
	if domain.CodeOf(err) != "PS-HTTP-5020" {
		t.Errorf("code = %q", domain.CodeOf(err))
	}
}
