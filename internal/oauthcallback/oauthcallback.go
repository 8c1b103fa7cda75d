// Package oauthcallback runs the short-lived localhost listener an OAuth
// provider flow redirects back to with ?token= or ?error=.
package oauthcallback

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// DefaultTimeout is how long a login waits for the provider to call back.
const DefaultTimeout = 2 * time.Minute

// ErrTimeout is returned by Wait when no callback arrived in time.
var ErrTimeout = errors.New("no callback received")

// Result is what the provider flow sent back. Exactly one of Token and
// Error is normally set; both empty is an unrecoverable callback.
type Result struct {
	Token string
	Error string
}

// Listener serves GET /auth/callback/{state}. The state path segment is a
// per-login uuid, so stray or forged callbacks are rejected.
type Listener struct {
	ln      net.Listener
	srv     *http.Server
	state   string
	results chan Result
}

// Listen starts a listener on addr ("127.0.0.1:0" for an ephemeral port).
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("oauthcallback.Listen: %w", err)
	}
	l := &Listener{
		ln:      ln,
		state:   uuid.NewString(),
		results: make(chan Result, 1),
	}
	l.srv = &http.Server{
		Handler:           l.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("oauthcallback: serve", "err", err)
		}
	}()
	return l, nil
}

func (l *Listener) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/auth/callback/{state}", l.handleCallback).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	return r
}

// RedirectURI is the URL to hand the backend as the provider redirect.
func (l *Listener) RedirectURI() string {
	return fmt.Sprintf("http://%s/auth/callback/%s", l.ln.Addr().String(), l.state)
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	if mux.Vars(r)["state"] != l.state {
		slog.Warn("oauthcallback: state mismatch", "remote", r.RemoteAddr)
		http.Error(w, "invalid state", http.StatusForbidden)
		return
	}
	q := r.URL.Query()
	res := Result{Token: q.Get("token"), Error: q.Get("error")}

	select {
	case l.results <- res:
	default:
		http.Error(w, "login already completed", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.Token == "" {
		msg := res.Error
		if msg == "" {
			msg = "Authentication failed"
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, pageHTML, "#f87171", html.EscapeString(msg)) //nolint:errcheck
		return
	}
	fmt.Fprintf(w, pageHTML, "#34d474", "Signed in. You can close this tab and return to your terminal.") //nolint:errcheck
}

// Wait blocks until the provider calls back or ctx is done.
func (l *Listener) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-l.results:
		return res, nil
	case <-ctx.Done():
		return Result{}, fmt.Errorf("oauthcallback.Wait: %w: %w", ErrTimeout, ctx.Err())
	}
}

// Close shuts the listener down.
func (l *Listener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>aide</title>
<style>
body{background:#0a0a10;color:#e4e4ec;font-family:'SF Mono','Consolas',monospace;
height:100vh;display:flex;align-items:center;justify-content:center;margin:0}
.msg{font-size:14px;color:%s;font-weight:600}
</style>
</head>
<body><div class="msg">%s</div></body>
</html>
`
