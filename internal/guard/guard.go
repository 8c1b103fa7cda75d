// Package guard decides which screen a navigation may render given the
// session state, and keeps the navigation history those decisions act on.
package guard

import (
	"path"
	"strings"

	"github.com/naveenspark/aide/internal/session"
)

// Well-known routes.
const (
	LoginPath          = "/auth/login"
	RegisterPath       = "/auth/register"
	ForgotPasswordPath = "/auth/forgot-password"
	ResetPasswordPath  = "/auth/reset-password"
	CallbackPath       = "/auth/callback"

	HomePath         = "/dashboard"
	EmailsPath       = "/emails"
	CalendarPath     = "/calendar"
	AnalyticsPath    = "/analytics"
	IntegrationsPath = "/integrations"
	CreditsPath      = "/credits"
	SettingsPath     = "/settings"
)

// Zone classifies a route.
type Zone int

const (
	// ZoneProtected screens need a signed-in user.
	ZoneProtected Zone = iota
	// ZonePublic screens are for signed-out users only.
	ZonePublic
	// ZoneOpen screens render in either state.
	ZoneOpen
)

func (z Zone) String() string {
	switch z {
	case ZonePublic:
		return "public"
	case ZoneOpen:
		return "open"
	}
	return "protected"
}

// Table maps route paths to zones. Paths missing from the table are
// protected.
type Table map[string]Zone

// DefaultTable is the application's route table.
func DefaultTable() Table {
	return Table{
		LoginPath:          ZonePublic,
		RegisterPath:       ZonePublic,
		ForgotPasswordPath: ZonePublic,
		ResetPasswordPath:  ZonePublic,
		CallbackPath:       ZoneOpen,
		HomePath:           ZoneProtected,
		EmailsPath:         ZoneProtected,
		CalendarPath:       ZoneProtected,
		AnalyticsPath:      ZoneProtected,
		IntegrationsPath:   ZoneProtected,
		CreditsPath:        ZoneProtected,
		SettingsPath:       ZoneProtected,
	}
}

// Zone returns the zone of p.
func (t Table) Zone(p string) Zone {
	if z, ok := t[Clean(p)]; ok {
		return z
	}
	return ZoneProtected
}

// Clean normalizes a route: query stripped, leading slash, no trailing
// slash. The root maps to HomePath.
func Clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = path.Clean("/" + p)
	if p == "/" {
		return HomePath
	}
	return p
}

// Action is what the screen layer does with a navigation.
type Action int

const (
	Render Action = iota
	Loading
	Redirect
)

func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	}
	return "render"
}

// Decision is the guard's verdict for one path. Target is the path to show:
// the requested path for Render and Loading, the redirect destination for
// Redirect.
type Decision struct {
	Action  Action
	Path    string
	Target  string
	Replace bool
}

// Decide applies the guard to path. Before the session is initialized every
// route gets Loading, so neither a protected screen nor the login screen can
// flash before the session is known.
func (t Table) Decide(snap session.Snapshot, p string) Decision {
	p = Clean(p)
	if !snap.Initialized {
		return Decision{Action: Loading, Path: p, Target: p}
	}
	switch t.Zone(p) {
	case ZoneProtected:
		if !snap.Authenticated() {
			return Decision{Action: Redirect, Path: p, Target: LoginPath, Replace: true}
		}
	case ZonePublic:
		if snap.Authenticated() {
			return Decision{Action: Redirect, Path: p, Target: HomePath, Replace: true}
		}
	}
	return Decision{Action: Render, Path: p, Target: p}
}

// Decide applies DefaultTable.
func Decide(snap session.Snapshot, p string) Decision {
	return DefaultTable().Decide(snap, p)
}
