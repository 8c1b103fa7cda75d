// Package session is the single owner of "who is signed in": the resolved
// user, the persisted bearer token, and the credential lifecycle.
//
// State machine per process:
//
//	Unresolved -> Resolving -> {Authenticated, Anonymous}
//	Authenticated -> Anonymous      (logout, authorization failure)
//	Anonymous -> Authenticated      (login, register, OAuth callback)
//
// Token and user are always set and cleared together. Identity never
// changes without passing through Anonymous.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/naveenspark/aide/internal/tokenstore"
	"github.com/naveenspark/aide/pkg/client"
	"github.com/naveenspark/aide/pkg/domain"
)

var (
	// ErrOAuthFailed is returned when a provider callback carries an error
	// or neither a token nor an error.
	ErrOAuthFailed = errors.New("authentication failed")
	// ErrNoAccessToken is returned when the backend accepted credentials
	// but sent no token.
	ErrNoAccessToken = errors.New("response carried no access token")
	// ErrIdentityChanged is returned by Refresh when the stored token now
	// resolves to a different user. The session has been torn down.
	ErrIdentityChanged = errors.New("token resolves to a different user")
)

// Generic messages for failures the server did not describe.
const (
	msgLoginFailed    = "Login failed. Please try again."
	msgRegisterFailed = "Registration failed. Please try again."
	msgOAuthFailed    = "Authentication failed"
	msgResetSent      = "If the email exists, a reset link has been sent"
	msgResetDone      = "Password reset successfully"
	msgRequestFailed  = "Request failed. Please try again."
	msgVerified       = "Email verified"
)

// resolveTimeout bounds the startup "me" call. Resolution runs detached from
// the caller's cancellation: an interrupt must not be mistaken for a
// rejected token.
const resolveTimeout = 20 * time.Second

// API is the slice of the backend the store needs. *client.Client
// satisfies it.
type API interface {
	Me(ctx context.Context) (*domain.User, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
}

// Notifier surfaces transient success/failure messages (toasts).
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Cache is server-derived data that must not outlive the session.
type Cache interface {
	Clear()
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where notifications go. Defaults to the slog logger.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithCache registers the query cache cleared on sign-out.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// Store is the session store. The zero value is not usable; use New.
type Store struct {
	api    API
	tokens tokenstore.Store
	notify Notifier
	cache  Cache
	sf     singleflight.Group

	mu          sync.RWMutex
	state       State
	user        *domain.User
	token       string
	initialized bool
	refreshing  bool

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a Store in the Unresolved state.
func New(api API, tokens tokenstore.Store, opts ...Option) *Store {
	s := &Store{
		api:    api,
		tokens: tokens,
		notify: logNotifier{},
		subs:   make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Initialized: s.initialized,
		Refreshing:  s.refreshing,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Initialize resolves the stored token into a user, or into a confirmed
// absence of one. Concurrent callers share a single resolution. Any failure
// (network, rejected token, bad payload) clears the token and ends
// Anonymous; the call never leaves the store uninitialized.
func (s *Store) Initialize(ctx context.Context) Snapshot {
	if snap := s.Snapshot(); snap.Initialized {
		return snap
	}
	s.sf.Do("initialize", func() (any, error) { //nolint:errcheck // resolve reports through state
		s.resolve(ctx)
		return nil, nil
	})
	return s.Snapshot()
}

func (s *Store) resolve(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUnresolved {
		s.mu.Unlock()
		return
	}
	s.state = StateResolving
	s.mu.Unlock()

	token, err := s.tokens.Load()
	if err != nil {
		slog.Warn("session: load token", "err", err)
	}
	if token == "" {
		s.mu.Lock()
		s.finishAnonymousLocked()
		s.mu.Unlock()
		slog.Debug("session: no stored token")
		return
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	meCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
	defer cancel()
	user, err := s.api.Me(meCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolving || s.token != token {
		// An authorization failure already tore this resolution down.
		return
	}
	if err != nil {
		slog.Info("session: stored token rejected", "err", err)
		s.clearLocked()
		return
	}
	s.user = user
	s.state = StateAuthenticated
	s.initialized = true
	slog.Info("session: resolved", "user_id", user.ID)
}

// Login exchanges credentials for a session. On failure the server message
// (or a generic one) is surfaced and any existing session is left as is.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if err := creds.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, fmt.Errorf("session.Login: %w", err)
	}
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.notify.Error(client.UserMessage(err, msgLoginFailed))
		return nil, fmt.Errorf("session.Login: %w", err)
	}
	user, err := s.establish(resp.AccessToken, &resp.User)
	if err != nil {
		s.notify.Error(msgLoginFailed)
		return nil, fmt.Errorf("session.Login: %w", err)
	}
	s.notify.Success("Welcome back, " + user.DisplayName())
	return user, nil
}

// Register creates an account; success yields the same session shape as
// Login.
func (s *Store) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := reg.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, fmt.Errorf("session.Register: %w", err)
	}
	resp, err := s.api.Register(ctx, reg)
	if err != nil {
		s.notify.Error(client.UserMessage(err, msgRegisterFailed))
		return nil, fmt.Errorf("session.Register: %w", err)
	}
	user, err := s.establish(resp.AccessToken, &resp.User)
	if err != nil {
		s.notify.Error(msgRegisterFailed)
		return nil, fmt.Errorf("session.Register: %w", err)
	}
	s.notify.Success("Welcome, " + user.DisplayName())
	return user, nil
}

// CompleteOAuth handles the provider callback, which carries either a token
// or an error. A token is stored and resolved to a user; a failed resolution
// tears it down again.
func (s *Store) CompleteOAuth(ctx context.Context, token, errMsg string) (*domain.User, error) {
	switch {
	case errMsg != "":
		s.notify.Error(errMsg)
		return nil, fmt.Errorf("session.CompleteOAuth: %w: %s", ErrOAuthFailed, errMsg)
	case token == "":
		s.notify.Error(msgOAuthFailed)
		return nil, fmt.Errorf("session.CompleteOAuth: %w", ErrOAuthFailed)
	}

	s.leaveCurrentIdentity()
	if err := s.tokens.Save(token); err != nil {
		s.notify.Error(msgOAuthFailed)
		return nil, fmt.Errorf("session.CompleteOAuth: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.state = StateResolving
	s.mu.Unlock()

	user, err := s.api.Me(ctx)

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		s.notify.Error(msgOAuthFailed)
		return nil, fmt.Errorf("session.CompleteOAuth: %w", ErrOAuthFailed)
	}
	if err != nil {
		s.clearLocked()
		s.mu.Unlock()
		s.notify.Error(client.UserMessage(err, msgOAuthFailed))
		return nil, fmt.Errorf("session.CompleteOAuth: %w", err)
	}
	s.user = user
	s.state = StateAuthenticated
	s.initialized = true
	snapUser := *user
	s.mu.Unlock()

	s.publish(Event{Kind: EventAuthenticated, User: &snapUser})
	s.notify.Success("Signed in as " + user.DisplayName())
	return user, nil
}

// Logout tears the local session down whatever the backend says. The server
// call is best-effort; only a failure to remove the stored token is
// reported.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	hadToken := s.token != ""
	s.mu.RUnlock()

	if hadToken {
		if err := s.api.Logout(ctx); err != nil {
			slog.Warn("session: server logout failed", "err", err)
		}
	}

	s.mu.Lock()
	err := s.clearLocked()
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Clear()
	}
	s.publish(Event{Kind: EventLoggedOut})
	s.notify.Success("Signed out")
	if err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// ForgotPassword asks for a reset link. The session is not touched.
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		s.notify.Error("email is required")
		return fmt.Errorf("session.ForgotPassword: %w", domain.ErrMissingField)
	}
	msg, err := s.api.ForgotPassword(ctx, email)
	if err != nil {
		s.notify.Error(client.UserMessage(err, msgRequestFailed))
		return fmt.Errorf("session.ForgotPassword: %w", err)
	}
	s.notify.Success(orDefault(msg, msgResetSent))
	return nil
}

// VerifyEmail confirms an address with the mailed token. The session is
// not touched, so a signed-in user stays signed in either way.
func (s *Store) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		s.notify.Error("verification token is required")
		return fmt.Errorf("session.VerifyEmail: %w", domain.ErrMissingField)
	}
	msg, err := s.api.VerifyEmail(ctx, token)
	if err != nil {
		s.notify.Error(client.UserMessage(err, msgRequestFailed))
		return fmt.Errorf("session.VerifyEmail: %w", err)
	}
	s.notify.Success(orDefault(msg, msgVerified))
	return nil
}

// ResetPassword sets a new password with a reset token. The session is not
// touched.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		s.notify.Error("reset token and new password are required")
		return fmt.Errorf("session.ResetPassword: %w", domain.ErrMissingField)
	}
	msg, err := s.api.ResetPassword(ctx, token, newPassword)
	if err != nil {
		s.notify.Error(client.UserMessage(err, msgRequestFailed))
		return fmt.Errorf("session.ResetPassword: %w", err)
	}
	s.notify.Success(orDefault(msg, msgResetDone))
	return nil
}

// Invalidate is the teardown run on an authorization failure. It acts only
// when token is the current session token, so repeated or stale 401s are
// no-ops, and reports whether this call tore the session down.
func (s *Store) Invalidate(token string) bool {
	s.mu.Lock()
	if token == "" || token != s.token {
		s.mu.Unlock()
		return false
	}
	s.clearLocked() //nolint:errcheck // logged in clearLocked
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Clear()
	}
	s.publish(Event{Kind: EventInvalidated})
	slog.Info("session: invalidated by authorization failure")
	return true
}

// Refresh re-fetches the user while Authenticated. It flags Refreshing but
// never leaves Authenticated itself: a rejected token is handled by the
// pipeline, and a token that now names someone else is torn down through
// Invalidate like any other authorization failure.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAuthenticated || s.refreshing {
		s.mu.Unlock()
		return nil
	}
	s.refreshing = true
	token := s.token
	s.mu.Unlock()

	user, err := s.api.Me(ctx)

	s.mu.Lock()
	s.refreshing = false
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session.Refresh: %w", err)
	}
	if s.token != token || s.state != StateAuthenticated {
		s.mu.Unlock()
		return nil
	}
	if s.user != nil && user.ID != s.user.ID {
		old := s.user.ID
		s.mu.Unlock()
		slog.Warn("session: identity changed under token", "old", old, "new", user.ID)
		s.Invalidate(token)
		return ErrIdentityChanged
	}
	s.user = user
	s.mu.Unlock()
	return nil
}

// establish persists token and sets user. A different identity first passes
// through Anonymous.
func (s *Store) establish(token string, user *domain.User) (*domain.User, error) {
	if token == "" {
		return nil, ErrNoAccessToken
	}
	s.mu.RLock()
	sameUser := s.user != nil && s.user.ID == user.ID
	s.mu.RUnlock()
	if !sameUser {
		s.leaveCurrentIdentity()
	}

	if err := s.tokens.Save(token); err != nil {
		return nil, err
	}
	u := *user
	s.mu.Lock()
	s.token = token
	s.user = &u
	s.state = StateAuthenticated
	s.initialized = true
	s.mu.Unlock()

	evUser := u
	s.publish(Event{Kind: EventAuthenticated, User: &evUser})
	slog.Info("session: authenticated", "user_id", u.ID)
	return &u, nil
}

// leaveCurrentIdentity moves an Authenticated store to Anonymous.
func (s *Store) leaveCurrentIdentity() {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return
	}
	s.clearLocked() //nolint:errcheck
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Clear()
	}
	s.publish(Event{Kind: EventLoggedOut})
}

// clearLocked removes token and user together and marks the store
// initialized. Callers hold s.mu.
func (s *Store) clearLocked() error {
	err := s.tokens.Clear()
	if err != nil {
		slog.Error("session: clear stored token", "err", err)
	}
	s.token = ""
	s.finishAnonymousLocked()
	return err
}

func (s *Store) finishAnonymousLocked() {
	s.user = nil
	s.state = StateAnonymous
	s.initialized = true
	s.refreshing = false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type logNotifier struct{}

func (logNotifier) Success(msg string) { slog.Info("notify", "msg", msg) }

func (logNotifier) Error(msg string) { slog.Warn("notify", "msg", msg) }
