package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/naveenspark/aide/pkg/domain"
)

const (
	settingsRefresh = 2 * time.Minute
	keyProfile      = "users/profile"
	keySettings     = "users/settings"
)

type settingsPage struct {
	env      pageEnv
	profile  *domain.User
	settings *domain.Settings
	err      error

	form  *huh.Form
	draft *settingsDraft
}

// settingsDraft holds the values bound to the edit form.
type settingsDraft struct {
	profile domain.Profile
	prefs   domain.Preferences
}

func newSettingsPage(env pageEnv) page {
	return &settingsPage{env: env}
}

func (p *settingsPage) load() tea.Cmd {
	api := p.env.api
	return tea.Batch(
		p.env.load(keyProfile, func(ctx context.Context) (any, error) { return api.Profile(ctx) }),
		p.env.load(keySettings, func(ctx context.Context) (any, error) { return api.Settings(ctx) }),
	)
}

func (p *settingsPage) init() tea.Cmd {
	return tea.Batch(p.load(), p.env.refetchAfter(settingsRefresh))
}

func (p *settingsPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.err != nil {
			if !msg.cached {
				p.err = msg.err
			}
			return p, nil
		}
		p.err = nil
		switch v := msg.value.(type) {
		case *domain.User:
			p.profile = v
		case *domain.Settings:
			p.settings = v
		}
		return p, nil
	case refetchMsg:
		return p, tea.Batch(p.load(), p.env.refetchAfter(settingsRefresh))
	case mutatedMsg:
		if msg.err == nil && msg.key == "users/settings" {
			return p, p.load()
		}
		return p, nil
	}

	if p.form != nil {
		return p.updateForm(msg)
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "r":
			p.err = nil
			return p, p.load()
		case "e":
			if p.profile == nil {
				return p, nil
			}
			p.draft = &settingsDraft{profile: p.profile.Profile, prefs: p.profile.Preferences}
			if p.settings != nil {
				p.draft.prefs = p.settings.Preferences
			}
			p.form = p.editForm()
			return p, p.form.Init()
		}
	}
	return p, nil
}

func (p *settingsPage) updateForm(msg tea.Msg) (page, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		p.form, p.draft = nil, nil
		return p, nil
	}
	m, cmd := p.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State != huh.StateCompleted {
		return p, cmd
	}
	d := p.draft
	p.form, p.draft = nil, nil
	return p, tea.Batch(cmd, p.save(d))
}

// save writes the profile, then the preferences.
func (p *settingsPage) save(d *settingsDraft) tea.Cmd {
	api := p.env.api
	return tea.Sequence(
		p.env.mutate("users/profile", "users/", "", func(ctx context.Context) (string, error) {
			_, err := api.UpdateProfile(ctx, d.profile)
			return "", err
		}),
		p.env.mutate("users/settings", "users/", "Settings saved", func(ctx context.Context) (string, error) {
			_, err := api.UpdateSettings(ctx, domain.Settings{Preferences: d.prefs})
			return "", err
		}),
	)
}

func (p *settingsPage) editForm() *huh.Form {
	d := p.draft
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&d.profile.FullName).Validate(required("full name")),
			huh.NewInput().Title("Job title").Value(&d.profile.JobTitle),
			huh.NewInput().Title("Company").Value(&d.profile.Company),
			huh.NewInput().Title("Phone").Value(&d.profile.PhoneNumber),
		).Title("Profile"),
		huh.NewGroup(
			huh.NewInput().Title("Timezone").Placeholder("America/New_York").Value(&d.prefs.Timezone).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					_, err := time.LoadLocation(s)
					return err
				}),
			huh.NewInput().Title("Work day starts").Placeholder("09:00").Value(&d.prefs.WorkHoursStart).Validate(clockTime),
			huh.NewInput().Title("Work day ends").Placeholder("17:00").Value(&d.prefs.WorkHoursEnd).Validate(clockTime),
			huh.NewInput().Title("Quiet hours start").Placeholder("22:00").Value(&d.prefs.QuietHoursStart).Validate(clockTime),
			huh.NewInput().Title("Quiet hours end").Placeholder("07:00").Value(&d.prefs.QuietHoursEnd).Validate(clockTime),
		).Title("Preferences"),
	).WithTheme(formTheme()).WithShowHelp(false).WithWidth(formWidth)
}

func clockTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}

func (p *settingsPage) view(width, _ int) string {
	if p.form != nil {
		var b strings.Builder
		b.WriteString("\n")
		for _, line := range strings.Split(p.form.View(), "\n") {
			b.WriteString(center(line, width) + "\n")
		}
		return b.String()
	}
	if p.profile == nil {
		if p.err != nil {
			return fetchError(p.err)
		}
		return "  " + dimStyle.Render("loading settings…") + "\n"
	}

	u := p.profile
	prefs := u.Preferences
	if p.settings != nil {
		prefs = p.settings.Preferences
	}
	profile := map[string]any{
		"name":      u.Profile.FullName,
		"email":     u.Email,
		"job_title": u.Profile.JobTitle,
		"company":   u.Profile.Company,
		"phone":     u.Profile.PhoneNumber,
	}
	pm := map[string]any{
		"timezone":    prefs.Timezone,
		"work_hours":  prefs.WorkHoursStart + "-" + prefs.WorkHoursEnd,
		"work_days":   strings.Join(prefs.WorkDays, ", "),
		"quiet_hours": prefs.QuietHoursStart + "-" + prefs.QuietHoursEnd,
		"channels":    strings.Join(prefs.NotificationChannels, ", "),
	}
	conn := map[string]any{
		"google":    u.Connections.GoogleConnected,
		"microsoft": u.Connections.MicrosoftConnected,
	}
	return renderSection("Profile", profile) + "\n" + renderSection("Preferences", pm) + "\n" + renderSection("Connections", conn)
}

func (p *settingsPage) help() string {
	if p.form != nil {
		return helpBar("enter", "next", "esc", "cancel")
	}
	return helpBar("e", "edit", "r", "refresh")
}

func (p *settingsPage) editing() bool { return p.form != nil }

// notFoundPage renders an unknown route. Unknown routes are protected, so
// it is only ever shown to a signed-in user.
type notFoundPage struct {
	path string
}

func newNotFoundPage(path string) page {
	return notFoundPage{path: path}
}

func (p notFoundPage) init() tea.Cmd { return nil }

func (p notFoundPage) update(tea.Msg) (page, tea.Cmd) { return p, nil }

func (p notFoundPage) view(width, _ int) string {
	return "\n" + center(warnStyle.Render("Nothing at "+p.path), width) + "\n"
}

func (p notFoundPage) help() string { return helpBar("b", "back", "1", "dashboard") }

func (p notFoundPage) editing() bool { return false }
