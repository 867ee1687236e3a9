// Package api is the typed client for the portal backend.
//
// Every call goes through a pipeline.Client, so it carries the session
// token and a 401 ends the session like any other request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yndnr/portalshell-go/internal/client/pipeline"
	"github.com/yndnr/portalshell-go/internal/core/domain"
)

// Backend endpoints.
const (
	PathLogin          = "/api/auth/login"
	PathMe             = "/api/auth/me"
	PathChangePassword = "/api/auth/change-password"
)

// MinPasswordLength is the shortest password the backend accepts, in
// characters.
const MinPasswordLength = 6

// TokenResponse is the login result.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token returns the access token.
func (r *TokenResponse) Token() domain.Token {
	return domain.Token(r.AccessToken)
}

// Principal is the authenticated account as reported by the backend.
type Principal struct {
	AccountNo string      `json:"account_no" yaml:"account_no"`
	Role      domain.Role `json:"role" yaml:"role"`
	Exp       int64       `json:"exp,omitempty" yaml:"exp,omitempty"`
}

// ExpiresAt returns the token expiry, or the zero time when unknown.
func (p *Principal) ExpiresAt() time.Time {
	if p.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(p.Exp, 0)
}

// Client calls the backend.
type Client struct {
	pipe *pipeline.Client
}

// New creates a Client on top of pipe.
func New(pipe *pipeline.Client) *Client {
	return &Client{pipe: pipe}
}

// Pipeline returns the underlying HTTP pipeline.
func (c *Client) Pipeline() *pipeline.Client {
	return c.pipe
}

// Login exchanges credentials for a token using the OAuth2 password form.
// It does not store the token.
func (c *Client) Login(ctx context.Context, account, password string) (*TokenResponse, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, domain.ErrMissingArgument.WithDetails("account")
	}
	if password == "" {
		return nil, domain.ErrMissingArgument.WithDetails("password")
	}

	form := url.Values{}
	form.Set("username", account)
	form.Set("password", password)

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("Accept", "application/json")

	resp, err := c.pipe.Send(ctx, http.MethodPost, PathLogin, []byte(form.Encode()), header)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	if err := out.Token().Validate(); err != nil {
		return nil, fmt.Errorf("login response: %w", err)
	}
	return &out, nil
}

// Me returns the principal of the current session.
func (c *Client) Me(ctx context.Context) (*Principal, error) {
	var p Principal
	if err := c.Do(ctx, http.MethodGet, PathMe, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ChangePassword changes the current account's password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if oldPassword == "" {
		return domain.ErrMissingArgument.WithDetails("old password")
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("new password must be at least %d characters", MinPasswordLength))
	}
	body := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return c.Do(ctx, http.MethodPost, PathChangePassword, body, nil)
}

// Do sends in as JSON (when non-nil) and decodes the JSON response into out
// (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	header := http.Header{}
	header.Set("Accept", "application/json")
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = data
		header.Set("Content-Type", "application/json")
	}

	resp, err := c.pipe.Send(ctx, method, path, body, header)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// DoRaw sends body verbatim as JSON and returns the raw response body.
func (c *Client) DoRaw(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if len(body) > 0 {
		if !json.Valid(body) {
			return nil, domain.ErrInvalidArgument.WithDetails("request body is not valid JSON")
		}
		header.Set("Content-Type", "application/json")
	} else {
		body = nil
	}

	resp, err := c.pipe.Send(ctx, method, path, body, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return bytes.TrimSpace(data), nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
