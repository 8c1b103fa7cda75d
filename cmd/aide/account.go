package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/aide/pkg/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24"))
)

// printAccount prints the signed-in user for whoami.
func printAccount(w io.Writer, u *domain.User) {
	fmt.Fprintf(w, "\n  %s\n\n", titleStyle.Render("A I D E")) //nolint:errcheck

	rows := [][2]string{
		{"name", u.DisplayName()},
		{"email", u.Email},
	}
	if u.Profile.JobTitle != "" || u.Profile.Company != "" {
		rows = append(rows, [2]string{"role", strings.Trim(u.Profile.JobTitle+" · "+u.Profile.Company, " ·")})
	}
	rows = append(rows, [2]string{"credits", fmt.Sprintf("%d remaining", u.Credits.RemainingCredits)})

	var linked []string
	if u.Connections.GoogleConnected {
		linked = append(linked, "google")
	}
	if u.Connections.MicrosoftConnected {
		linked = append(linked, "microsoft")
	}
	if len(linked) == 0 {
		linked = []string{"none"}
	}
	rows = append(rows, [2]string{"linked", strings.Join(linked, ", ")})

	for _, r := range rows {
		fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-8s", r[0])), valueStyle.Render(r[1])) //nolint:errcheck
	}
	if u.Credits.NeedsRefill {
		fmt.Fprintf(w, "\n  %s\n", warnStyle.Render("Credits are running low.")) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck
}
