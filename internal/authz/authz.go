// Package authz attaches the stored bearer token to outgoing API calls and
// tears the session down when the backend rejects it.
package authz

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// TokenSource yields the current bearer token ("" when signed out).
type TokenSource interface {
	Load() (string, error)
}

// Invalidator performs session teardown for the token that was rejected.
// Implementations must be idempotent: concurrent 401s for the same token
// may all call Invalidate.
type Invalidator interface {
	Invalidate(token string) bool
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(token string) bool

func (f InvalidatorFunc) Invalidate(token string) bool { return f(token) }

type ctxKey int

const (
	exemptKey ctxKey = iota
	markerKey
)

// Exempt marks calls whose 401 means "bad credentials" (login, register,
// password reset) rather than "session expired". Their failures never
// trigger teardown.
func Exempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, exemptKey, true)
}

// IsExempt reports whether ctx was marked with Exempt.
func IsExempt(ctx context.Context) bool {
	v, _ := ctx.Value(exemptKey).(bool)
	return v
}

// Track installs the per-request "auth failure already handled" marker.
// The client calls it once per logical request so that redirects or
// retries of the same call react to a 401 at most once.
func Track(ctx context.Context) context.Context {
	if _, ok := ctx.Value(markerKey).(*atomic.Bool); ok {
		return ctx
	}
	return context.WithValue(ctx, markerKey, new(atomic.Bool))
}

// claim returns true the first time it is called for a tracked request,
// and always for untracked ones.
func claim(ctx context.Context) bool {
	m, ok := ctx.Value(markerKey).(*atomic.Bool)
	if !ok {
		return true
	}
	return m.CompareAndSwap(false, true)
}

// Transport is an http.RoundTripper that authorizes requests with the
// stored token and reports authorization failures to an Invalidator.
// The failing response is always returned to the caller unchanged.
type Transport struct {
	Base        http.RoundTripper
	Tokens      TokenSource
	Invalidator Invalidator
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(tokens TokenSource, inv Invalidator, base http.RoundTripper) *Transport {
	return &Transport{Base: base, Tokens: tokens, Invalidator: inv}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.token()
	out := req
	if token != "" {
		out = req.Clone(req.Context())
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.handleUnauthorized(req, token)
	}
	return resp, nil
}

func (t *Transport) token() string {
	if t.Tokens == nil {
		return ""
	}
	tok, err := t.Tokens.Load()
	if err != nil {
		slog.Warn("authz: load token", "err", err)
		return ""
	}
	return tok
}

func (t *Transport) handleUnauthorized(req *http.Request, token string) {
	ctx := req.Context()
	if IsExempt(ctx) {
		slog.Debug("authz: 401 on exempt request", "method", req.Method, "path", req.URL.Path)
		return
	}
	if !claim(ctx) {
		return
	}
	if t.Invalidator == nil {
		return
	}
	tore := t.Invalidator.Invalidate(token)
	slog.Info("authz: authorization failure", "method", req.Method, "path", req.URL.Path, "teardown", tore)
}
