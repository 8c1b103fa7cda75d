package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/naveenspark/aide/internal/guard"
	"github.com/naveenspark/aide/internal/oauthcallback"
	"github.com/naveenspark/aide/pkg/domain"
)

const formWidth = 60

// formLink is a shortcut from a form screen to another route.
type formLink struct {
	key      string
	label    string
	path     string
	provider string
}

// formPage hosts a huh form. build is called on mount and again after a
// failed submit, so field values bound to it survive the rebuild. done runs
// after a successful submit; sign-in screens leave it nil and let the
// session event move them.
type formPage struct {
	env    pageEnv
	links  []formLink
	build  func() *huh.Form
	submit func() tea.Cmd
	done   func() tea.Cmd
	form   *huh.Form
	busy   bool
	status string
}

func newForm(title string, fields ...huh.Field) *huh.Form {
	return huh.NewForm(huh.NewGroup(fields...).Title(title)).
		WithTheme(formTheme()).
		WithShowHelp(false).
		WithWidth(formWidth)
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}

func (p *formPage) init() tea.Cmd {
	p.form = p.build()
	return p.form.Init()
}

func (p *formPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.busy {
			return p, nil
		}
		for _, l := range p.links {
			if msg.String() == l.key {
				nav := navigateMsg{path: l.path, provider: l.provider}
				return p, func() tea.Msg { return nav }
			}
		}
	case mutatedMsg:
		p.busy = false
		p.status = ""
		if msg.err == nil {
			if p.done != nil {
				return p, p.done()
			}
			return p, nil
		}
		p.form = p.build()
		return p, p.form.Init()
	}

	if p.busy {
		return p, nil
	}
	m, cmd := p.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State == huh.StateCompleted {
		p.busy = true
		p.status = "working…"
		return p, tea.Batch(cmd, p.submit())
	}
	return p, cmd
}

func (p *formPage) view(width, _ int) string {
	var b strings.Builder
	b.WriteString("\n")
	if p.busy {
		b.WriteString(center(accentStyle.Render(p.status), width))
		return b.String()
	}
	for _, line := range strings.Split(p.form.View(), "\n") {
		b.WriteString(center(line, width) + "\n")
	}
	return b.String()
}

func (p *formPage) help() string {
	pairs := []string{"enter", "next", "shift+tab", "prev"}
	for _, l := range p.links {
		pairs = append(pairs, l.key, l.label)
	}
	return helpBar(pairs...)
}

func (p *formPage) editing() bool { return true }

// run executes a session call for a form submit. The session store
// surfaces its own notifications.
func (e pageEnv) run(key string, fn func(ctx context.Context) error) tea.Cmd {
	ctx, mount := e.ctx, e.mount
	return func() tea.Msg {
		return mutatedMsg{mount: mount, key: key, err: fn(ctx)}
	}
}

func newLoginPage(env pageEnv) page {
	var email, password string
	p := &formPage{
		env: env,
		links: []formLink{
			{key: "ctrl+r", label: "register", path: guard.RegisterPath},
			{key: "ctrl+f", label: "forgot", path: guard.ForgotPasswordPath},
			{key: "ctrl+t", label: "reset", path: guard.ResetPasswordPath},
			{key: "ctrl+g", label: "google", path: guard.CallbackPath, provider: "google"},
			{key: "ctrl+o", label: "microsoft", path: guard.CallbackPath, provider: "microsoft"},
		},
	}
	p.build = func() *huh.Form {
		password = ""
		return newForm("Sign in",
			huh.NewInput().Title("Email").Value(&email).Validate(required("email")),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).Validate(required("password")),
		)
	}
	p.submit = func() tea.Cmd {
		creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
		return env.run("login", func(ctx context.Context) error {
			_, err := env.session.Login(ctx, creds)
			return err
		})
	}
	return p
}

func newRegisterPage(env pageEnv) page {
	var reg domain.Registration
	var confirm string
	p := &formPage{
		env: env,
		links: []formLink{
			{key: "ctrl+l", label: "sign in", path: guard.LoginPath},
		},
	}
	p.build = func() *huh.Form {
		reg.Password, confirm = "", ""
		return newForm("Create account",
			huh.NewInput().Title("Full name").Value(&reg.FullName).Validate(required("full name")),
			huh.NewInput().Title("Email").Value(&reg.Email).Validate(required("email")),
			huh.NewInput().Title("Job title").Placeholder("optional").Value(&reg.JobTitle),
			huh.NewInput().Title("Company").Placeholder("optional").Value(&reg.Company),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&reg.Password).Validate(required("password")),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm).
				Validate(func(s string) error {
					if s != reg.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		)
	}
	p.submit = func() tea.Cmd {
		r := reg
		r.Email = strings.TrimSpace(r.Email)
		return env.run("register", func(ctx context.Context) error {
			_, err := env.session.Register(ctx, r)
			return err
		})
	}
	return p
}

func newForgotPage(env pageEnv) page {
	var email string
	p := &formPage{
		env: env,
		links: []formLink{
			{key: "ctrl+l", label: "sign in", path: guard.LoginPath},
			{key: "ctrl+t", label: "have a token", path: guard.ResetPasswordPath},
		},
	}
	p.build = func() *huh.Form {
		return newForm("Forgot password",
			huh.NewInput().Title("Email").
				Description("We'll email you a reset token.").
				Value(&email).Validate(required("email")),
		)
	}
	p.submit = func() tea.Cmd {
		addr := strings.TrimSpace(email)
		return env.run("forgot", func(ctx context.Context) error {
			return env.session.ForgotPassword(ctx, addr)
		})
	}
	p.done = func() tea.Cmd { return navigate(guard.ResetPasswordPath) }
	return p
}

func newResetPage(env pageEnv) page {
	var token, password, confirm string
	p := &formPage{
		env: env,
		links: []formLink{
			{key: "ctrl+l", label: "sign in", path: guard.LoginPath},
		},
	}
	p.build = func() *huh.Form {
		password, confirm = "", ""
		return newForm("Reset password",
			huh.NewInput().Title("Reset token").Description("From the reset email (ctrl+v pastes).").
				Value(&token).Validate(required("token")),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&password).Validate(required("password")),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm).
				Validate(func(s string) error {
					if s != password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		)
	}
	p.submit = func() tea.Cmd {
		tok, pw := strings.TrimSpace(token), password
		return env.run("reset", func(ctx context.Context) error {
			return env.session.ResetPassword(ctx, tok, pw)
		})
	}
	p.done = func() tea.Cmd {
		return func() tea.Msg { return navigateMsg{path: guard.LoginPath, replace: true} }
	}
	return p
}

// callbackPage drives a provider sign-in: it waits for the browser round
// trip, then hands the result to the session. Success moves the screen via
// the session event; failure goes back to sign-in. When the backend finishes
// the flow on its own page instead, the user can paste the callback URL or
// token here.
type callbackPage struct {
	env      pageEnv
	provider string
	oauth    OAuthFunc

	stopWait context.CancelFunc
	pasted   string
	manual   bool
}

func newCallbackPage(env pageEnv, provider string, oauth OAuthFunc) page {
	return &callbackPage{env: env, provider: provider, oauth: oauth}
}

func (p *callbackPage) init() tea.Cmd {
	env := p.env
	if p.provider == "" || p.oauth == nil {
		return func() tea.Msg {
			env.notify.Error("Authentication failed")
			return navigateMsg{path: guard.LoginPath, replace: true}
		}
	}
	ctx, cancel := context.WithCancel(env.ctx)
	p.stopWait = cancel
	waitEnv := env
	waitEnv.ctx = ctx
	provider, oauth := p.provider, p.oauth
	return waitEnv.run("oauth", func(ctx context.Context) error {
		res, err := oauth(ctx, provider)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				env.notify.Error("Authentication failed")
			}
			return err
		}
		_, err = env.session.CompleteOAuth(ctx, res.Token, res.Error)
		return err
	})
}

func (p *callbackPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case mutatedMsg:
		if msg.key == "oauth" && p.manual {
			return p, nil
		}
		if msg.err != nil {
			return p, func() tea.Msg { return navigateMsg{path: guard.LoginPath, replace: true} }
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return p, func() tea.Msg { return navigateMsg{path: guard.LoginPath, replace: true} }
		case "enter":
			return p, p.completePasted()
		default:
			p.pasted = editKeyLimit(p.pasted, msg, maxPasteLen)
		}
	}
	return p, nil
}

// completePasted finishes sign-in from the pasted text and stops waiting
// for the browser.
func (p *callbackPage) completePasted() tea.Cmd {
	if p.manual {
		return nil
	}
	res, err := oauthcallback.ParsePasted(p.pasted)
	if err != nil {
		p.env.notify.Error("Paste the callback URL or token")
		return nil
	}
	p.manual = true
	if p.stopWait != nil {
		p.stopWait()
	}
	env := p.env
	return env.run("oauth-paste", func(ctx context.Context) error {
		_, err := env.session.CompleteOAuth(ctx, res.Token, res.Error)
		return err
	})
}

func (p *callbackPage) view(width, _ int) string {
	name := p.provider
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	field := p.pasted
	if field == "" {
		field = dimStyle.Render("callback URL or token")
	}
	return "\n\n" + center(accentStyle.Render("Waiting for "+name+" sign-in in your browser…"), width) +
		"\n" + center(metaStyle.Render("complete the sign-in there, or press esc to cancel"), width) +
		"\n\n" + center(metaStyle.Render("browser ended on another page? paste what it shows:"), width) +
		"\n" + center(normalStyle.Render(truncStr(field, formWidth))+accentStyle.Render("▏"), width)
}

func (p *callbackPage) help() string { return helpBar("enter", "use pasted", "esc", "cancel") }

func (p *callbackPage) editing() bool { return true }
