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
	creditsRefresh = 60 * time.Second
	keyPackages    = "payments/packages"
	keyHistory     = "payments/history"
)

type creditsPage struct {
	env      pageEnv
	packages []domain.CreditPackage
	balance  *domain.CreditBalance
	history  *domain.PaymentHistory
	intent   *domain.PaymentIntent
	err      error
	cursor   int
	buying   bool
}

func newCreditsPage(env pageEnv) page {
	return &creditsPage{env: env}
}

func (p *creditsPage) load() tea.Cmd {
	api := p.env.api
	return tea.Batch(
		p.env.load(keyPackages, func(ctx context.Context) (any, error) { return api.CreditPackages(ctx) }),
		p.env.load(keyBalance, func(ctx context.Context) (any, error) { return api.CreditBalance(ctx) }),
		p.env.load(keyHistory, func(ctx context.Context) (any, error) { return api.PaymentHistory(ctx, 1, 10) }),
	)
}

func (p *creditsPage) init() tea.Cmd {
	return tea.Batch(p.load(), p.env.refetchAfter(creditsRefresh))
}

func (p *creditsPage) update(msg tea.Msg) (page, tea.Cmd) {
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
		case []domain.CreditPackage:
			p.packages = v
			p.cursor = min(p.cursor, max(len(v)-1, 0))
		case *domain.CreditBalance:
			p.balance = v
		case *domain.PaymentHistory:
			p.history = v
		case *domain.PaymentIntent:
			p.intent = v
		}
	case refetchMsg:
		return p, tea.Batch(p.load(), p.env.refetchAfter(creditsRefresh))
	case mutatedMsg:
		p.buying = false
		if msg.err == nil {
			return p, p.load()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			p.cursor = min(p.cursor+1, max(len(p.packages)-1, 0))
		case "k", "up":
			p.cursor = max(p.cursor-1, 0)
		case "r":
			p.err = nil
			return p, p.load()
		case "enter":
			if p.buying || p.cursor >= len(p.packages) {
				return p, nil
			}
			p.buying = true
			return p, p.purchase(p.packages[p.cursor].PackageType)
		}
	}
	return p, nil
}

// purchase starts a payment intent. The intent is delivered as a fetch so
// the view can show it; the write completes as a mutation.
func (p *creditsPage) purchase(packageType string) tea.Cmd {
	api, mount, ctx := p.env.api, p.env.mount, p.env.ctx
	var intent *domain.PaymentIntent
	return tea.Sequence(
		p.env.mutate("payments/intent", "payments/", "Payment started", func(ctx context.Context) (string, error) {
			var err error
			intent, err = api.CreatePaymentIntent(ctx, packageType)
			return "", err
		}),
		func() tea.Msg {
			if intent == nil || ctx.Err() != nil {
				return nil
			}
			return fetchedMsg{mount: mount, key: "payments/intent", value: intent}
		},
	)
}

func (p *creditsPage) view(_, _ int) string {
	if p.packages == nil && p.balance == nil {
		if p.err != nil {
			return fetchError(p.err)
		}
		return "  " + dimStyle.Render("loading credits…") + "\n"
	}

	var b strings.Builder
	if p.balance != nil {
		b.WriteString("  " + titleStyle.Render(fmt.Sprintf("%d credits", p.balance.RemainingCredits)) +
			metaStyle.Render(fmt.Sprintf("  %d used of %d", p.balance.UsedCredits, p.balance.TotalCredits)) + "\n")
		if p.balance.CreditExpiryDate != nil {
			b.WriteString("  " + dimStyle.Render("expires "+p.balance.CreditExpiryDate.Local().Format("Jan 2, 2006")) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("  " + sectionHeaderStyle.Render("Packages") + "\n")
	for i, pkg := range p.packages {
		line := fmt.Sprintf("%-12s %6d credits  $%.2f  %s", pkg.PackageType, pkg.Credits, pkg.PriceUSD, dimStyle.Render(pkg.Description))
		if i == p.cursor {
			b.WriteString(selectedRowBg.Render("  › "+line) + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}

	if p.intent != nil {
		b.WriteString("\n  " + accentStyle.Render(fmt.Sprintf("Payment %s · %d credits · $%.2f · %s",
			p.intent.PaymentIntentID, p.intent.Credits, p.intent.Amount, p.intent.Status)) + "\n")
		if p.env.stripe != "" {
			b.WriteString("  " + metaStyle.Render("complete checkout with key "+truncStr(p.env.stripe, 24)) + "\n")
		}
	}

	if p.history != nil && len(p.history.Payments) > 0 {
		b.WriteString("\n  " + sectionHeaderStyle.Render("Recent payments") + "\n")
		for _, pay := range p.history.Payments {
			b.WriteString(fmt.Sprintf("    %-10s %6d credits  $%.2f  %s %s\n",
				pay.PackageType, pay.CreditsPurchased, pay.AmountUSD,
				statusStyle(pay.Status == "succeeded").Render(pay.Status),
				metaStyle.Render(formatTime(pay.CreatedAt))))
		}
	}
	return b.String()
}

func (p *creditsPage) help() string {
	return helpBar("j/k", "move", "enter", "buy", "r", "refresh")
}

func (p *creditsPage) editing() bool { return false }
