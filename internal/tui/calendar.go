package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/aide/pkg/domain"
)

const (
	calendarRefresh = 60 * time.Second
	calendarDays    = 7
	keyEvents       = "calendar/events/week"
)

type calendarPage struct {
	env        pageEnv
	events     []domain.CalendarEvent
	loaded     bool
	err        error
	cursor     int
	confirming bool
}

func newCalendarPage(env pageEnv) page {
	return &calendarPage{env: env}
}

func (p *calendarPage) load() tea.Cmd {
	api := p.env.api
	return p.env.load(keyEvents, func(ctx context.Context) (any, error) {
		start := time.Now().Truncate(24 * time.Hour)
		return api.ListEvents(ctx, start, start.AddDate(0, 0, calendarDays))
	})
}

func (p *calendarPage) init() tea.Cmd {
	return tea.Batch(p.load(), p.env.refetchAfter(calendarRefresh))
}

func (p *calendarPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.err != nil {
			if !msg.cached {
				p.err = msg.err
			}
			return p, nil
		}
		p.err = nil
		if evs, ok := msg.value.([]domain.CalendarEvent); ok {
			p.events = evs
			p.loaded = true
		}
		p.cursor = min(p.cursor, max(len(p.events)-1, 0))
	case refetchMsg:
		return p, tea.Batch(p.load(), p.env.refetchAfter(calendarRefresh))
	case mutatedMsg:
		if msg.err == nil {
			return p, p.load()
		}
	case tea.KeyMsg:
		if p.confirming {
			p.confirming = false
			if msg.String() != "y" || p.cursor >= len(p.events) {
				return p, nil
			}
			id, api := p.events[p.cursor].ID, p.env.api
			return p, p.env.mutate("calendar/delete", "calendar/", "Event deleted", func(ctx context.Context) (string, error) {
				return "", api.DeleteEvent(ctx, id)
			})
		}
		switch msg.String() {
		case "j", "down":
			p.cursor = min(p.cursor+1, max(len(p.events)-1, 0))
		case "k", "up":
			p.cursor = max(p.cursor-1, 0)
		case "d":
			if p.cursor < len(p.events) {
				p.confirming = true
			}
		case "r":
			p.err = nil
			return p, p.load()
		}
	}
	return p, nil
}

func (p *calendarPage) view(width, height int) string {
	if !p.loaded {
		if p.err != nil {
			return fetchError(p.err)
		}
		return "  " + dimStyle.Render("loading calendar…") + "\n"
	}

	var b strings.Builder
	b.WriteString("  " + titleStyle.Render(fmt.Sprintf("Next %d days · %d events", calendarDays, len(p.events))) + "\n\n")
	if len(p.events) == 0 {
		b.WriteString("  " + dimStyle.Render("Nothing scheduled.") + "\n")
		return b.String()
	}

	rows := max(height-4, 1)
	start := max(p.cursor-rows+1, 0)
	lastDay := ""
	for i := start; i < len(p.events) && i < start+rows; i++ {
		ev := p.events[i]
		day := ev.StartDateTime.Local().Format("Mon Jan 2")
		if day != lastDay {
			b.WriteString("  " + sectionHeaderStyle.Render(day) + "\n")
			lastDay = day
		}
		when := ev.StartDateTime.Local().Format("15:04")
		if ev.AllDay {
			when = "all day"
		}
		line := fmt.Sprintf("%-7s %s %s", when, truncStr(ev.Title, max(width-30, 10)),
			metaStyle.Render(formatMinutes(int(ev.Duration().Minutes()))))
		if ev.Location != nil && ev.Location.Name != "" {
			line += " " + dimStyle.Render("@ "+truncStr(ev.Location.Name, 20))
		}
		if i == p.cursor {
			b.WriteString(selectedRowBg.Render("  › "+line) + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}
	if p.confirming {
		b.WriteString("\n  " + warnStyle.Render("Delete this event? y to confirm") + "\n")
	}
	return b.String()
}

func (p *calendarPage) help() string {
	return helpBar("j/k", "move", "d", "delete", "r", "refresh")
}

func (p *calendarPage) editing() bool { return p.confirming }
