package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/aide/internal/authz"
	"github.com/naveenspark/aide/internal/browser"
	"github.com/naveenspark/aide/internal/config"
	"github.com/naveenspark/aide/internal/logger"
	"github.com/naveenspark/aide/internal/oauthcallback"
	"github.com/naveenspark/aide/internal/querycache"
	"github.com/naveenspark/aide/internal/session"
	"github.com/naveenspark/aide/internal/tokenstore"
	"github.com/naveenspark/aide/pkg/client"
)

// cacheTTL bounds how long page data is served before a refetch replaces it.
const cacheTTL = 5 * time.Minute

// errReported marks a failure the session store already showed the user.
var errReported = errors.New("reported")

// deps is the wired client: one token store, one authorized transport, one
// session store.
type deps struct {
	cfg    *config.Config
	tokens tokenstore.Store
	cache  *querycache.Cache
	client *client.Client
	store  *session.Store
	logs   io.Closer
}

// setup loads configuration and wires the client stack. The session store
// is the transport's invalidator, so any authorized 401 tears it down.
func setup(opts *rootOptions, notify session.Notifier) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = strings.TrimRight(opts.apiURL, "/")
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logs, err := logger.Init(cfg.LogPath(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	var tokens tokenstore.Store = tokenstore.NewFile(cfg.Home)
	if cfg.Token != "" {
		tokens = tokenstore.NewMemory(cfg.Token)
	}
	cache := querycache.New(cacheTTL)

	var store *session.Store
	inv := authz.InvalidatorFunc(func(token string) bool { return store.Invalidate(token) })
	c := client.New(cfg.APIURL,
		client.WithTransport(authz.NewTransport(tokens, inv, nil)),
		client.WithTimeout(cfg.HTTPTimeout),
	)
	store = session.New(c, tokens, session.WithNotifier(notify), session.WithCache(cache))

	return &deps{cfg: cfg, tokens: tokens, cache: cache, client: c, store: store, logs: logs}, nil
}

func (d *deps) Close() error {
	if d.logs == nil {
		return nil
	}
	return d.logs.Close()
}

// oauth runs a provider sign-in: a loopback listener receives the callback,
// the backend supplies the consent URL, and the browser is pointed at it.
// When no browser can be opened, announce is given the URL instead.
func (d *deps) oauth(announce func(url string)) func(ctx context.Context, provider string) (oauthcallback.Result, error) {
	return func(ctx context.Context, provider string) (oauthcallback.Result, error) {
		ln, err := oauthcallback.Listen("127.0.0.1:0")
		if err != nil {
			return oauthcallback.Result{}, err
		}
		defer ln.Close() //nolint:errcheck

		authURL, err := d.client.OAuthLoginURL(ctx, provider, ln.RedirectURI())
		if err != nil {
			return oauthcallback.Result{}, err
		}
		if err := browser.Open(authURL); err != nil {
			announce(authURL)
		}

		ctx, cancel := context.WithTimeout(ctx, oauthcallback.DefaultTimeout)
		defer cancel()
		return ln.Wait(ctx)
	}
}

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#34d474"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
)

// cliNotifier prints session notifications for one-shot commands.
type cliNotifier struct {
	out, errOut io.Writer

	mu     sync.Mutex
	failed bool
}

func (n *cliNotifier) Success(msg string) {
	fmt.Fprintln(n.out, okStyle.Render("✓ "+msg)) //nolint:errcheck
}

func (n *cliNotifier) Error(msg string) {
	n.mu.Lock()
	n.failed = true
	n.mu.Unlock()
	fmt.Fprintln(n.errOut, errStyle.Render("✗ "+msg)) //nolint:errcheck
}

// reported turns err into errReported when the user has already seen it.
func (n *cliNotifier) reported(err error) error {
	if err == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failed {
		return fmt.Errorf("%w: %w", errReported, err)
	}
	return err
}
