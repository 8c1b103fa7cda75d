package tui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const toastTTL = 4 * time.Second

type toastMsg struct {
	text  string
	isErr bool
}

type toastExpiredMsg struct {
	seq int
}

// Toaster is a session.Notifier that feeds the TUI's toast line. It is
// safe to call from any goroutine; when nobody drains it, toasts are logged
// and dropped.
type Toaster struct {
	ch chan toastMsg
}

// NewToaster creates a Toaster.
func NewToaster() *Toaster {
	return &Toaster{ch: make(chan toastMsg, 16)}
}

func (t *Toaster) Success(msg string) { t.send(toastMsg{text: msg}) }

func (t *Toaster) Error(msg string) { t.send(toastMsg{text: msg, isErr: true}) }

func (t *Toaster) send(m toastMsg) {
	select {
	case t.ch <- m:
	default:
		slog.Debug("tui: toast dropped", "text", m.text)
	}
}

func (t *Toaster) wait() tea.Cmd {
	return func() tea.Msg { return <-t.ch }
}

// toast is the currently shown notification.
type toast struct {
	text  string
	isErr bool
	seq   int
}

func (t toast) View() string {
	if t.text == "" {
		return ""
	}
	if t.isErr {
		return " " + errorStyle.Render("✗ "+t.text)
	}
	return " " + successStyle.Render("✓ "+t.text)
}

func expireToast(seq int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}
