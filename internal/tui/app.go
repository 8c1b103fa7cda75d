package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/naveenspark/aide/internal/guard"
	"github.com/naveenspark/aide/internal/oauthcallback"
	"github.com/naveenspark/aide/internal/querycache"
	"github.com/naveenspark/aide/pkg/client"
)

// userRefreshInterval is how often the signed-in user is re-fetched in the
// background.
const userRefreshInterval = 5 * time.Minute

// OAuthFunc runs a provider sign-in up to the callback and returns what the
// provider sent back.
type OAuthFunc func(ctx context.Context, provider string) (oauthcallback.Result, error)

// Deps wires the App to the rest of the client.
type Deps struct {
	Client    *client.Client
	Session   Session
	Router    *guard.Router
	Cache     *querycache.Cache
	Toaster   *Toaster
	OAuth     OAuthFunc
	StripeKey string
	Version   string
}

// sessionReadyMsg is sent once the session store has initialized.
type sessionReadyMsg struct{}

// RouteMsg carries a navigation decided outside the App (session events).
type RouteMsg struct {
	Decision guard.Decision
}

type userRefreshMsg struct{}

type tab struct {
	key  string
	name string
	path string
}

var tabs = []tab{
	{"1", "Dashboard", guard.HomePath},
	{"2", "Emails", guard.EmailsPath},
	{"3", "Calendar", guard.CalendarPath},
	{"4", "Analytics", guard.AnalyticsPath},
	{"5", "Integrations", guard.IntegrationsPath},
	{"6", "Credits", guard.CreditsPath},
	{"7", "Settings", guard.SettingsPath},
}

// App is the root Bubbletea model. It owns which page is mounted; the
// Router decides which page that may be.
type App struct {
	deps     Deps
	decision guard.Decision
	current  page
	path     string
	mount    string
	cancel   context.CancelFunc
	provider string
	spinner  spinner.Model
	toast    toast
	release  releaseMsg
	width    int
	height   int
	frame    int
}

// NewApp creates the TUI. The session is initialized by Init, so the first
// frame is always the loading state.
func NewApp(d Deps) App {
	if d.Toaster == nil {
		d.Toaster = NewToaster()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle))
	return App{
		deps:     d,
		decision: guard.Decision{Action: guard.Loading, Path: d.Router.Current(), Target: d.Router.Current()},
		spinner:  sp,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		shimmerTickCmd(),
		a.deps.Toaster.wait(),
		a.initSession(),
		checkVersion(a.deps.Version),
		tea.Tick(userRefreshInterval, func(time.Time) tea.Msg { return userRefreshMsg{} }),
	)
}

func (a App) initSession() tea.Cmd {
	s := a.deps.Session
	return func() tea.Msg {
		s.Initialize(context.Background())
		return sessionReadyMsg{}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.forward(tea.WindowSizeMsg{Width: msg.Width, Height: a.bodyHeight()})

	case spinner.TickMsg:
		if a.decision.Action != guard.Loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case toastMsg:
		a.toast = toast{text: msg.text, isErr: msg.isErr, seq: a.toast.seq + 1}
		return a, tea.Batch(a.deps.Toaster.wait(), expireToast(a.toast.seq))

	case toastExpiredMsg:
		if msg.seq == a.toast.seq {
			a.toast.text = ""
		}
		return a, nil

	case releaseMsg:
		a.release = msg
		return a, nil

	case sessionReadyMsg:
		return a.apply(a.deps.Router.Resolve())

	case RouteMsg:
		return a.apply(msg.Decision)

	case navigateMsg:
		if msg.provider != "" {
			a.provider = msg.provider
		}
		if msg.replace {
			return a.apply(a.deps.Router.Replace(msg.path))
		}
		return a.apply(a.deps.Router.Navigate(msg.path))

	case userRefreshMsg:
		next := tea.Tick(userRefreshInterval, func(time.Time) tea.Msg { return userRefreshMsg{} })
		if !a.deps.Session.Snapshot().Authenticated() {
			return a, next
		}
		s := a.deps.Session
		return a, tea.Batch(next, func() tea.Msg {
			if err := s.Refresh(context.Background()); err != nil {
				slog.Debug("tui: user refresh", "err", err)
			}
			return nil
		})

	case fetchedMsg:
		if msg.mount != a.mount {
			slog.Debug("tui: dropped stale fetch", "key", msg.key)
			return a, nil
		}
		return a.forward(msg)

	case refetchMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		return a.forward(msg)

	case mutatedMsg:
		if msg.mount != a.mount {
			return a, nil
		}
		return a.forward(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a.forward(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.unmount()
		return a, tea.Quit
	}
	if a.current != nil && a.current.editing() {
		return a.forward(msg)
	}
	switch msg.String() {
	case "q":
		a.unmount()
		return a, tea.Quit
	case "backspace", "b":
		return a.apply(a.deps.Router.Back())
	}
	if a.signedIn() {
		for _, t := range tabs {
			if msg.String() == t.key {
				return a.apply(a.deps.Router.Navigate(t.path))
			}
		}
		if msg.String() == "L" {
			s := a.deps.Session
			return a, func() tea.Msg {
				if err := s.Logout(context.Background()); err != nil {
					slog.Error("tui: logout", "err", err)
				}
				return nil
			}
		}
	}
	return a.forward(msg)
}

func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.current == nil {
		return a, nil
	}
	var cmd tea.Cmd
	a.current, cmd = a.current.update(msg)
	return a, cmd
}

func (a App) signedIn() bool {
	return a.deps.Session.Snapshot().Authenticated()
}

// apply mounts the page a guard decision allows. Loading unmounts whatever
// was shown; a decision for the page already mounted is a no-op.
func (a App) apply(d guard.Decision) (App, tea.Cmd) {
	a.decision = d
	if d.Action == guard.Loading {
		a.unmount()
		return a, a.spinner.Tick
	}
	if a.current != nil && a.path == d.Target {
		return a, nil
	}
	a.unmount()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.mount = uuid.NewString()
	a.path = d.Target
	env := pageEnv{
		ctx:     ctx,
		mount:   a.mount,
		api:     a.deps.Client,
		session: a.deps.Session,
		cache:   a.deps.Cache,
		notify:  a.deps.Toaster,
		user:    a.deps.Session.Snapshot().User,
		stripe:  a.deps.StripeKey,
	}
	a.current = a.newPage(d.Target, env)
	a.provider = ""
	slog.Debug("tui: mounted", "path", d.Target, "mount", a.mount)

	return a, a.current.init()
}

// unmount cancels the mounted page's in-flight work and retires its mount id.
func (a *App) unmount() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.current = nil
	a.path = ""
	a.mount = ""
}

func (a App) newPage(path string, env pageEnv) page {
	switch path {
	case guard.LoginPath:
		return newLoginPage(env)
	case guard.RegisterPath:
		return newRegisterPage(env)
	case guard.ForgotPasswordPath:
		return newForgotPage(env)
	case guard.ResetPasswordPath:
		return newResetPage(env)
	case guard.CallbackPath:
		return newCallbackPage(env, a.provider, a.deps.OAuth)
	case guard.HomePath:
		return newDashboardPage(env)
	case guard.EmailsPath:
		return newEmailsPage(env)
	case guard.CalendarPath:
		return newCalendarPage(env)
	case guard.AnalyticsPath:
		return newAnalyticsPage(env)
	case guard.IntegrationsPath:
		return newIntegrationsPage(env)
	case guard.CreditsPath:
		return newCreditsPage(env)
	case guard.SettingsPath:
		return newSettingsPage(env)
	}
	return newNotFoundPage(path)
}

// Chrome: header(2) + tabs(1) + toast(1) + help(1).
const chromeLines = 5

func (a App) bodyHeight() int {
	return max(a.height-chromeLines, 1)
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	header := center(logo, a.width) + "\n" + center(a.statusLine(), a.width)

	var body, help string
	tabBar := ""
	switch {
	case a.decision.Action == guard.Loading || a.current == nil:
		body = "\n\n" + center(a.spinner.View()+" "+dimStyle.Render("loading"), a.width)
		help = helpBar("q", "quit")
	default:
		body = a.current.view(a.width, a.bodyHeight())
		help = a.current.help()
		if guard.DefaultTable().Zone(a.path) == guard.ZoneProtected {
			tabBar = a.renderTabs()
			if !a.current.editing() {
				help += "  " + helpEntry("1-7", "tabs") + "  " + helpEntry("L", "logout") + "  " + helpEntry("q", "quit")
			}
		}
	}

	body = strings.TrimRight(truncateToHeight(body, a.bodyHeight()), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar, body, a.toast.View(), help)
}

func (a App) statusLine() string {
	snap := a.deps.Session.Snapshot()
	var parts []string
	if snap.User != nil {
		parts = append(parts, snap.User.DisplayName())
		parts = append(parts, fmt.Sprintf("%d credits", snap.User.Credits.RemainingCredits))
	}
	if snap.Refreshing {
		parts = append(parts, "↻")
	}
	if a.release.latest != "" {
		parts = append(parts, warnStyle.Render(a.release.latest+" available"))
	}
	return metaStyle.Render(strings.Join(parts, " · "))
}

func (a App) renderTabs() string {
	colWidth := max(a.width/len(tabs), 1)
	var b strings.Builder
	for _, t := range tabs {
		var label string
		if t.path == a.path {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		w := lipgloss.Width(label)
		left := max((colWidth-w)/2, 0)
		right := max(colWidth-w-left, 0)
		b.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}
	return b.String()
}

func center(s string, width int) string {
	pad := max((width-lipgloss.Width(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}
