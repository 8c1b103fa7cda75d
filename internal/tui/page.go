package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/aide/internal/querycache"
	"github.com/naveenspark/aide/internal/session"
	"github.com/naveenspark/aide/pkg/client"
	"github.com/naveenspark/aide/pkg/domain"
)

// Session is the part of the session store the screens drive.
// *session.Store satisfies it.
type Session interface {
	Snapshot() session.Snapshot
	Initialize(ctx context.Context) session.Snapshot
	Login(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	CompleteOAuth(ctx context.Context, token, errMsg string) (*domain.User, error)
	Refresh(ctx context.Context) error
}

// page is one mounted screen.
type page interface {
	init() tea.Cmd
	update(msg tea.Msg) (page, tea.Cmd)
	view(width, height int) string
	help() string
	// editing reports whether the page owns every key (forms, inline input).
	editing() bool
}

// pageEnv is what a page gets when mounted. ctx is cancelled and mount
// retired when the page is navigated away from.
type pageEnv struct {
	ctx     context.Context
	mount   string
	api     *client.Client
	session Session
	cache   *querycache.Cache
	notify  session.Notifier
	user    *domain.User
	stripe  string
}

// fetchedMsg is the result of a page fetch. The App drops results whose
// mount is not the current page's.
type fetchedMsg struct {
	mount  string
	key    string
	value  any
	err    error
	cached bool
}

// refetchMsg triggers a page's periodic reload.
type refetchMsg struct {
	mount string
}

// mutatedMsg is the result of a page write.
type mutatedMsg struct {
	mount string
	key   string
	err   error
}

// navigateMsg asks the App to navigate.
type navigateMsg struct {
	path     string
	replace  bool
	provider string // OAuth provider for the callback screen
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

// fetch runs fn with the page context and caches a successful result
// under key. A result that arrives after the page was unmounted or the
// cache was cleared is not stored. Failures other than a cancel or a 401
// are also reported through notify.
func (e pageEnv) fetch(key string, fn func(ctx context.Context) (any, error)) tea.Cmd {
	ctx, mount, cache, notify := e.ctx, e.mount, e.cache, e.notify
	return func() tea.Msg {
		var gen uint64
		if cache != nil {
			gen = cache.Generation()
		}
		v, err := fn(ctx)
		switch {
		case err != nil:
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) && !client.IsUnauthorized(err) && notify != nil {
				notify.Error(client.UserMessage(err, "Could not reach the server."))
			}
		case ctx.Err() != nil:
		case cache != nil:
			cache.SetIn(gen, key, v)
		}
		return fetchedMsg{mount: mount, key: key, value: v, err: err}
	}
}

// load serves key from the cache when present, then fetches fresh data.
func (e pageEnv) load(key string, fn func(ctx context.Context) (any, error)) tea.Cmd {
	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			mount := e.mount
			hit := func() tea.Msg { return fetchedMsg{mount: mount, key: key, value: v, cached: true} }
			return tea.Sequence(hit, e.fetch(key, fn))
		}
	}
	return e.fetch(key, fn)
}

// refetchAfter schedules the next periodic reload.
func (e pageEnv) refetchAfter(d time.Duration) tea.Cmd {
	mount := e.mount
	return tea.Tick(d, func(time.Time) tea.Msg { return refetchMsg{mount: mount} })
}

// mutate runs a write. On success the cache entries under invalidate are
// dropped and okMsg (or the server's message) is shown; failures surface
// the server message.
func (e pageEnv) mutate(key, invalidate, okMsg string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx, mount, cache, notify := e.ctx, e.mount, e.cache, e.notify
	return func() tea.Msg {
		msg, err := fn(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !client.IsUnauthorized(err) {
				notify.Error(client.UserMessage(err, "Request failed. Please try again."))
			}
			return mutatedMsg{mount: mount, key: key, err: err}
		}
		if cache != nil && invalidate != "" {
			cache.Invalidate(invalidate)
		}
		if msg == "" {
			msg = okMsg
		}
		if msg != "" {
			notify.Success(msg)
		}
		return mutatedMsg{mount: mount, key: key}
	}
}

// fetchError renders the error state of a failed load: the server message
// or a generic line, plus the retry hint.
func fetchError(err error) string {
	msg := client.UserMessage(err, "Could not reach the server.")
	return "  " + errorStyle.Render(msg) + "\n  " + metaStyle.Render("press r to retry") + "\n"
}
