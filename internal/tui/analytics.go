package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/aide/pkg/domain"
)

const analyticsRefresh = 2 * time.Minute

var analyticsWindows = []int{7, 30, 90}

type analyticsPage struct {
	env    pageEnv
	window int // index into analyticsWindows
	stats  *domain.DashboardAnalytics
	score  *domain.ProductivityScore
	err    error
}

func newAnalyticsPage(env pageEnv) page {
	return &analyticsPage{env: env}
}

func (p *analyticsPage) days() int { return analyticsWindows[p.window] }

func (p *analyticsPage) statsKey() string { return fmt.Sprintf("analytics/dashboard/%d", p.days()) }

func (p *analyticsPage) load() tea.Cmd {
	api, days := p.env.api, p.days()
	return tea.Batch(
		p.env.load(p.statsKey(), func(ctx context.Context) (any, error) { return api.Dashboard(ctx, days) }),
		p.env.load(keyProductivity, func(ctx context.Context) (any, error) { return api.ProductivityScore(ctx) }),
	)
}

func (p *analyticsPage) init() tea.Cmd {
	return tea.Batch(p.load(), p.env.refetchAfter(analyticsRefresh))
}

func (p *analyticsPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.err != nil {
			if !msg.cached {
				p.err = msg.err
			}
			return p, nil
		}
		switch v := msg.value.(type) {
		case *domain.DashboardAnalytics:
			if msg.key == p.statsKey() {
				p.stats = v
				p.err = nil
			}
		case *domain.ProductivityScore:
			p.score = v
		}
	case refetchMsg:
		return p, tea.Batch(p.load(), p.env.refetchAfter(analyticsRefresh))
	case tea.KeyMsg:
		switch msg.String() {
		case "w":
			p.window = (p.window + 1) % len(analyticsWindows)
			p.stats = nil
			return p, p.load()
		case "r":
			p.err = nil
			return p, p.load()
		}
	}
	return p, nil
}

func (p *analyticsPage) view(_, _ int) string {
	if p.stats == nil {
		if p.err != nil {
			return fetchError(p.err)
		}
		return "  " + dimStyle.Render("loading analytics…") + "\n"
	}

	var b strings.Builder
	b.WriteString("  " + titleStyle.Render(fmt.Sprintf("Last %d days", p.days())) + "\n\n")
	if p.score != nil {
		b.WriteString(fmt.Sprintf("  %s %s\n", accentStyle.Render("Productivity"), normalStyle.Render(fmt.Sprintf("%.0f %s", p.score.Score, p.score.Grade))))
		names := make([]string, 0, len(p.score.Components))
		for k := range p.score.Components {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b.WriteString(fmt.Sprintf("    %s %.0f\n", dimStyle.Render(humanKey(k)), p.score.Components[k]))
		}
		b.WriteString("\n")
	}
	b.WriteString(renderSection("Email", p.stats.EmailAnalytics))
	b.WriteString(renderSection("Calendar", p.stats.CalendarAnalytics))
	b.WriteString(renderSection("AI", p.stats.AIAnalytics))
	b.WriteString(renderSection("Notifications", p.stats.NotificationAnalytics))
	b.WriteString(renderSection("Credits", p.stats.CreditAnalytics))
	return b.String()
}

func (p *analyticsPage) help() string {
	return helpBar("w", "window 7/30/90", "r", "refresh")
}

func (p *analyticsPage) editing() bool { return false }
