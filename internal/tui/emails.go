package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/aide/pkg/client"
	"github.com/naveenspark/aide/pkg/domain"
)

const emailsRefresh = 30 * time.Second

const keyDrafts = "emails/drafts"

var priorityCycle = []string{domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh, domain.PriorityUrgent}

type emailsPage struct {
	env        pageEnv
	list       *domain.EmailList
	err        error
	cursor     int
	unreadOnly bool
	searching  bool
	query      string

	showDrafts  bool
	drafts      []domain.Draft
	draftsErr   error
	draftCursor int
}

func newEmailsPage(env pageEnv) page {
	return &emailsPage{env: env}
}

func (p *emailsPage) key() string {
	return fmt.Sprintf("emails/list?unread=%t", p.unreadOnly)
}

func (p *emailsPage) load() tea.Cmd {
	api, f := p.env.api, client.EmailFilter{UnreadOnly: p.unreadOnly, Limit: pageSize}
	return p.env.load(p.key(), func(ctx context.Context) (any, error) { return api.ListEmails(ctx, f) })
}

func (p *emailsPage) loadDrafts() tea.Cmd {
	api := p.env.api
	return p.env.load(keyDrafts, func(ctx context.Context) (any, error) { return api.ListDrafts(ctx, 1, pageSize) })
}

// reload refreshes the inbox and, when open, the drafts list.
func (p *emailsPage) reload() tea.Cmd {
	if p.showDrafts {
		return tea.Batch(p.load(), p.loadDrafts())
	}
	return p.load()
}

func (p *emailsPage) init() tea.Cmd {
	return tea.Batch(p.load(), p.env.refetchAfter(emailsRefresh))
}

// visible returns the emails matching the search query.
func (p *emailsPage) visible() []domain.Email {
	if p.list == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(p.query))
	if q == "" {
		return p.list.Emails
	}
	var out []domain.Email
	for _, e := range p.list.Emails {
		if strings.Contains(strings.ToLower(e.Subject), q) ||
			strings.Contains(strings.ToLower(e.Sender.Email), q) ||
			strings.Contains(strings.ToLower(e.Sender.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

func (p *emailsPage) selected() (domain.Email, bool) {
	v := p.visible()
	if p.cursor < 0 || p.cursor >= len(v) {
		return domain.Email{}, false
	}
	return v[p.cursor], true
}

func (p *emailsPage) update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.key == keyDrafts {
			p.updateDrafts(msg)
			return p, nil
		}
		if msg.key != p.key() {
			return p, nil
		}
		if msg.err != nil {
			if !msg.cached {
				p.err = msg.err
			}
			return p, nil
		}
		p.err = nil
		if l, ok := msg.value.(*domain.EmailList); ok {
			p.list = l
		}
		p.cursor = min(p.cursor, max(len(p.visible())-1, 0))
	case refetchMsg:
		return p, tea.Batch(p.reload(), p.env.refetchAfter(emailsRefresh))
	case mutatedMsg:
		if msg.err == nil {
			return p, p.reload()
		}
	case tea.KeyMsg:
		if p.searching {
			return p.updateSearch(msg)
		}
		if p.showDrafts {
			return p.updateDraftKey(msg)
		}
		return p.updateKey(msg)
	}
	return p, nil
}

func (p *emailsPage) updateSearch(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "enter":
		p.searching = false
	case "esc":
		p.searching = false
		p.query = ""
	default:
		p.query = editKey(p.query, msg)
	}
	p.cursor = 0
	return p, nil
}

func (p *emailsPage) updateKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		p.cursor = min(p.cursor+1, max(len(p.visible())-1, 0))
	case "k", "up":
		p.cursor = max(p.cursor-1, 0)
	case "/":
		p.searching = true
	case "u":
		p.unreadOnly = !p.unreadOnly
		p.cursor = 0
		p.list = nil
		return p, p.load()
	case "r":
		p.err = nil
		return p, p.load()
	case "m":
		e, ok := p.selected()
		if !ok {
			return p, nil
		}
		status := domain.EmailStatusRead
		if e.Status == domain.EmailStatusRead {
			status = domain.EmailStatusUnread
		}
		api := p.env.api
		return p, p.env.mutate("emails/status", "emails/", "Marked "+status, func(ctx context.Context) (string, error) {
			return "", api.UpdateEmailStatus(ctx, e.ID, status)
		})
	case "a":
		e, ok := p.selected()
		if !ok {
			return p, nil
		}
		api := p.env.api
		return p, p.env.mutate("emails/status", "emails/", "Archived", func(ctx context.Context) (string, error) {
			return "", api.UpdateEmailStatus(ctx, e.ID, domain.EmailStatusArchived)
		})
	case "p":
		e, ok := p.selected()
		if !ok {
			return p, nil
		}
		next := nextPriority(e.Priority)
		api := p.env.api
		return p, p.env.mutate("emails/priority", "emails/", "Priority "+next, func(ctx context.Context) (string, error) {
			return "", api.UpdateEmailPriority(ctx, e.ID, next)
		})
	case "g":
		e, ok := p.selected()
		if !ok {
			return p, nil
		}
		api := p.env.api
		return p, p.env.mutate("emails/draft", keyDrafts, "Draft ready · press D to review", func(ctx context.Context) (string, error) {
			_, err := api.GenerateDraft(ctx, domain.DraftRequest{OriginalEmailID: e.ID})
			return "", err
		})
	case "D":
		p.showDrafts = true
		p.draftCursor = 0
		return p, p.loadDrafts()
	case "c":
		if e, ok := p.selected(); ok {
			if err := clipboard.WriteAll(e.Sender.Email); err != nil {
				p.env.notify.Error("Clipboard unavailable")
			} else {
				p.env.notify.Success("Copied " + e.Sender.Email)
			}
		}
	}
	return p, nil
}

func (p *emailsPage) updateDrafts(msg fetchedMsg) {
	if msg.err != nil {
		if !msg.cached {
			p.draftsErr = msg.err
		}
		return
	}
	p.draftsErr = nil
	if d, ok := msg.value.([]domain.Draft); ok {
		p.drafts = d
	}
	p.draftCursor = min(p.draftCursor, max(len(p.drafts)-1, 0))
}

func (p *emailsPage) selectedDraft() (domain.Draft, bool) {
	if p.draftCursor < 0 || p.draftCursor >= len(p.drafts) {
		return domain.Draft{}, false
	}
	return p.drafts[p.draftCursor], true
}

func (p *emailsPage) updateDraftKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		p.draftCursor = min(p.draftCursor+1, max(len(p.drafts)-1, 0))
	case "k", "up":
		p.draftCursor = max(p.draftCursor-1, 0)
	case "D", "esc":
		p.showDrafts = false
	case "r":
		p.draftsErr = nil
		return p, p.loadDrafts()
	case "s":
		d, ok := p.selectedDraft()
		if !ok {
			return p, nil
		}
		api := p.env.api
		return p, p.env.mutate("emails/drafts/send", "emails/", "Sent", func(ctx context.Context) (string, error) {
			res, err := api.SendDraft(ctx, d.ID)
			if err != nil {
				return "", err
			}
			return res.Message, nil
		})
	case "x":
		d, ok := p.selectedDraft()
		if !ok {
			return p, nil
		}
		api := p.env.api
		return p, p.env.mutate("emails/drafts/delete", keyDrafts, "Draft deleted", func(ctx context.Context) (string, error) {
			return "", api.DeleteDraft(ctx, d.ID)
		})
	}
	return p, nil
}

func nextPriority(cur string) string {
	for i, pr := range priorityCycle {
		if pr == cur {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return domain.PriorityNormal
}

func (p *emailsPage) view(width, height int) string {
	if p.showDrafts {
		return p.draftsView(width, height)
	}
	if p.list == nil {
		if p.err != nil {
			return fetchError(p.err)
		}
		return "  " + dimStyle.Render("loading emails…") + "\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("Inbox · %d unread of %d", p.list.UnreadCount, p.list.TotalCount)
	if p.unreadOnly {
		header += " · unread only"
	}
	b.WriteString("  " + titleStyle.Render(header) + "\n")
	if p.searching || p.query != "" {
		cursor := ""
		if p.searching {
			cursor = accentStyle.Render("▏")
		}
		b.WriteString("  " + metaStyle.Render("/") + " " + normalStyle.Render(p.query) + cursor + "\n")
	}
	b.WriteString("\n")

	emails := p.visible()
	if len(emails) == 0 {
		b.WriteString("  " + dimStyle.Render("No emails.") + "\n")
		return b.String()
	}

	rows := max(height-4, 1)
	start := max(p.cursor-rows+1, 0)
	subjectWidth := max(width-40, 10)
	for i := start; i < len(emails) && i < start+rows; i++ {
		e := emails[i]
		sender := e.Sender.Name
		if sender == "" {
			sender = e.Sender.Email
		}
		marker := " "
		if e.Status == domain.EmailStatusUnread {
			marker = accentStyle.Render("●")
		}
		line := fmt.Sprintf("%s %s %-18s %s %s",
			marker,
			PriorityStyle(e.Priority).Render(fmt.Sprintf("%-6s", e.Priority)),
			truncStr(sender, 18),
			truncStr(e.Subject, subjectWidth),
			metaStyle.Render(formatTime(e.ReceivedAt)))
		if i == p.cursor {
			b.WriteString(selectedRowBg.Render("› "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("  " + errorStyle.Render("refresh failed; showing earlier data") + "\n")
	}
	return b.String()
}

func (p *emailsPage) draftsView(width, height int) string {
	if p.drafts == nil {
		if p.draftsErr != nil {
			return fetchError(p.draftsErr)
		}
		return "  " + dimStyle.Render("loading drafts…") + "\n"
	}

	var b strings.Builder
	b.WriteString("  " + titleStyle.Render(fmt.Sprintf("Drafts · %d", len(p.drafts))) + "\n\n")
	if len(p.drafts) == 0 {
		b.WriteString("  " + dimStyle.Render("No drafts. Press g on an email to write one.") + "\n")
		return b.String()
	}

	rows := max(height-6, 1)
	start := max(p.draftCursor-rows+1, 0)
	subjectWidth := max(width-40, 10)
	for i := start; i < len(p.drafts) && i < start+rows; i++ {
		d := p.drafts[i]
		to := ""
		if len(d.To) > 0 {
			to = d.To[0].Email
		}
		line := fmt.Sprintf("%-22s %s %s", truncStr(to, 22), truncStr(d.Subject, subjectWidth), metaStyle.Render(formatTime(d.CreatedAt)))
		if i == p.draftCursor {
			b.WriteString(selectedRowBg.Render("› "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if d, ok := p.selectedDraft(); ok && d.BodyText != "" {
		b.WriteString("\n  " + dimStyle.Render(truncStr(strings.Join(strings.Fields(d.BodyText), " "), max(width-4, 10))) + "\n")
	}
	if p.draftsErr != nil {
		b.WriteString("  " + errorStyle.Render("refresh failed; showing earlier data") + "\n")
	}
	return b.String()
}

func (p *emailsPage) help() string {
	if p.searching {
		return helpBar("enter", "done", "esc", "clear")
	}
	if p.showDrafts {
		return helpBar("j/k", "move", "s", "send", "x", "delete", "r", "refresh", "esc", "inbox")
	}
	return helpBar("j/k", "move", "m", "read/unread", "a", "archive", "p", "priority", "g", "draft reply", "D", "drafts", "u", "unread only", "/", "search", "c", "copy sender", "r", "refresh")
}

func (p *emailsPage) editing() bool { return p.searching }
