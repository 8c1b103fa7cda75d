package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/aide/pkg/domain"
)

const dashboardRefresh = 60 * time.Second

const (
	keyDashboard    = "analytics/dashboard/7"
	keyProductivity = "analytics/productivity"
	keyBalance      = "payments/balance"
	keyActivity     = "users/activity"
)

// dashboardPage is the home screen: a week of activity, the productivity
// score and the credit balance.
type dashboardPage struct {
	env      pageEnv
	stats    *domain.DashboardAnalytics
	score    *domain.ProductivityScore
	balance  *domain.CreditBalance
	activity *domain.Activity
	err      error
	loaded   bool
}

func newDashboardPage(env pageEnv) page {
	return &dashboardPage{env: env}
}

func (p *dashboardPage) load() tea.Cmd {
	api := p.env.api
	return tea.Batch(
		p.env.load(keyDashboard, func(ctx context.Context) (any, error) { return api.Dashboard(ctx, 7) }),
		p.env.load(keyProductivity, func(ctx context.Context) (any, error) { return api.ProductivityScore(ctx) }),
		p.env.load(keyBalance, func(ctx context.Context) (any, error) { return api.CreditBalance(ctx) }),
		p.env.load(keyActivity, func(ctx context.Context) (any, error) { return api.UserActivity(ctx) }),
	)
}

func (p *dashboardPage) init() tea.Cmd {
	return tea.Batch(p.load(), p.env.refetchAfter(dashboardRefresh))
}

func (p *dashboardPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.err != nil {
			if !msg.cached {
				p.err = msg.err
			}
			return p, nil
		}
		p.loaded = true
		p.err = nil
		switch v := msg.value.(type) {
		case *domain.DashboardAnalytics:
			p.stats = v
		case *domain.ProductivityScore:
			p.score = v
		case *domain.CreditBalance:
			p.balance = v
		case *domain.Activity:
			p.activity = v
		}
	case refetchMsg:
		return p, tea.Batch(p.load(), p.env.refetchAfter(dashboardRefresh))
	case tea.KeyMsg:
		if msg.String() == "r" {
			p.err = nil
			return p, p.load()
		}
	}
	return p, nil
}

func (p *dashboardPage) view(width, _ int) string {
	if p.err != nil && !p.loaded {
		return fetchError(p.err)
	}
	if !p.loaded {
		return "  " + dimStyle.Render("loading dashboard…") + "\n"
	}

	var b strings.Builder
	name := p.env.user.DisplayName()
	if name != "" {
		b.WriteString("  " + titleStyle.Render("Welcome back, "+name) + "\n\n")
	}

	if p.score != nil {
		line := fmt.Sprintf("Productivity %.0f", p.score.Score)
		if p.score.Grade != "" {
			line += " (" + p.score.Grade + ")"
		}
		b.WriteString("  " + accentStyle.Render(line) + "\n")
	}
	if p.balance != nil {
		credits := fmt.Sprintf("%d credits left · %d used this month", p.balance.RemainingCredits, p.balance.UsageThisMonth)
		style := normalStyle
		if p.balance.NeedsRefill {
			style = warnStyle
			credits += " · running low"
		}
		b.WriteString("  " + style.Render(credits) + "\n")
	}
	if line := activityLine(p.activity, p.env.user); line != "" {
		b.WriteString("  " + metaStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	if p.stats != nil {
		b.WriteString(renderSection("Email", p.stats.EmailAnalytics))
		b.WriteString(renderSection("Calendar", p.stats.CalendarAnalytics))
		b.WriteString(renderSection("Productivity", p.stats.ProductivityMetrics))
	}
	if p.err != nil {
		b.WriteString("  " + errorStyle.Render("refresh failed; showing earlier data") + "\n")
	}
	return b.String()
}

func (p *dashboardPage) help() string { return helpBar("r", "refresh") }

func (p *dashboardPage) editing() bool { return false }

// activityLine prefers the fetched counters and falls back to the copy on
// the signed-in user.
func activityLine(a *domain.Activity, u *domain.User) string {
	if a == nil && u != nil {
		a = &u.Activity
	}
	if a == nil {
		return ""
	}
	var parts []string
	if a.EmailsProcessed > 0 {
		parts = append(parts, fmt.Sprintf("%d emails processed", a.EmailsProcessed))
	}
	if a.DraftsGenerated > 0 {
		parts = append(parts, fmt.Sprintf("%d drafts", a.DraftsGenerated))
	}
	if a.MeetingsScheduled > 0 {
		parts = append(parts, fmt.Sprintf("%d meetings scheduled", a.MeetingsScheduled))
	}
	if a.TotalTimeSavedMinutes > 0 {
		parts = append(parts, "time saved "+formatMinutes(a.TotalTimeSavedMinutes))
	}
	return strings.Join(parts, " · ")
}
