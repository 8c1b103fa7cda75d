package main

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/aide/internal/guard"
	"github.com/naveenspark/aide/internal/tui"
)

// runTUI opens the interactive client. Session events drive navigation
// through the router while the program runs.
func runTUI(ctx context.Context, opts *rootOptions) error {
	toaster := tui.NewToaster()
	d, err := setup(opts, toaster)
	if err != nil {
		return err
	}
	defer d.Close() //nolint:errcheck

	router := guard.NewRouter(d.store, nil, guard.HomePath)
	app := tui.NewApp(tui.Deps{
		Client:  d.client,
		Session: d.store,
		Router:  router,
		Cache:   d.cache,
		Toaster: toaster,
		OAuth: d.oauth(func(url string) {
			if err := clipboard.WriteAll(url); err == nil {
				toaster.Success("No browser found; sign-in link copied to clipboard")
				return
			}
			toaster.Error("No browser found. Open: " + url)
		}),
		StripeKey: d.cfg.StripePublishableKey,
		Version:   version,
	})

	events, unsubscribe := d.store.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	go router.Watch(ctx, events, func(dec guard.Decision) {
		p.Send(tui.RouteMsg{Decision: dec})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
