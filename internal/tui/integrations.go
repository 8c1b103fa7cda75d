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

const (
	integrationsRefresh = 30 * time.Second
	keyIntegrations     = "integrations/status"
)

type integrationsPage struct {
	env       pageEnv
	status    *domain.IntegrationStatus
	providers []string
	err       error
	cursor    int
}

func newIntegrationsPage(env pageEnv) page {
	return &integrationsPage{env: env}
}

func (p *integrationsPage) load() tea.Cmd {
	api := p.env.api
	return p.env.load(keyIntegrations, func(ctx context.Context) (any, error) { return api.IntegrationStatus(ctx) })
}

func (p *integrationsPage) init() tea.Cmd {
	return tea.Batch(p.load(), p.env.refetchAfter(integrationsRefresh))
}

func (p *integrationsPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.err != nil {
			if !msg.cached {
				p.err = msg.err
			}
			return p, nil
		}
		if st, ok := msg.value.(*domain.IntegrationStatus); ok {
			p.status = st
			p.err = nil
			p.providers = p.providers[:0]
			for name := range st.Integrations {
				p.providers = append(p.providers, name)
			}
			sort.Strings(p.providers)
			p.cursor = min(p.cursor, max(len(p.providers)-1, 0))
		}
	case refetchMsg:
		return p, tea.Batch(p.load(), p.env.refetchAfter(integrationsRefresh))
	case mutatedMsg:
		if msg.err == nil {
			return p, p.load()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			p.cursor = min(p.cursor+1, max(len(p.providers)-1, 0))
		case "k", "up":
			p.cursor = max(p.cursor-1, 0)
		case "r":
			p.err = nil
			return p, p.load()
		case "s":
			if name, ok := p.selected(); ok {
				api := p.env.api
				return p, p.env.mutate("integrations/sync", "integrations/", "Sync started for "+name, func(ctx context.Context) (string, error) {
					return api.SyncIntegration(ctx, name)
				})
			}
		case "w":
			if name, ok := p.selected(); ok {
				api := p.env.api
				return p, p.env.mutate("integrations/webhooks", "integrations/", "Webhooks removed for "+name, func(ctx context.Context) (string, error) {
					return "", api.RemoveWebhooks(ctx, name)
				})
			}
		}
	}
	return p, nil
}

func (p *integrationsPage) selected() (string, bool) {
	if p.cursor < 0 || p.cursor >= len(p.providers) {
		return "", false
	}
	return p.providers[p.cursor], true
}

func (p *integrationsPage) view(_, _ int) string {
	if p.status == nil {
		if p.err != nil {
			return fetchError(p.err)
		}
		return "  " + dimStyle.Render("loading integrations…") + "\n"
	}

	var b strings.Builder
	b.WriteString("  " + titleStyle.Render("Integrations") + "\n\n")
	for i, name := range p.providers {
		in := p.status.Integrations[name]
		state := "not connected"
		if in.Connected {
			state = "connected"
		}
		line := fmt.Sprintf("%-10s %s", name, statusStyle(in.Connected).Render(state))
		if len(in.Services) > 0 {
			line += " " + dimStyle.Render(strings.Join(in.Services, ", "))
		}
		if in.LastSync != nil && *in.LastSync != "" {
			if t, err := time.Parse(time.RFC3339, *in.LastSync); err == nil {
				line += " " + metaStyle.Render("synced "+formatTime(t))
			}
		}
		if i == p.cursor {
			b.WriteString(selectedRowBg.Render("› "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (p *integrationsPage) help() string {
	return helpBar("j/k", "move", "s", "sync", "w", "remove webhooks", "r", "refresh")
}

func (p *integrationsPage) editing() bool { return false }
