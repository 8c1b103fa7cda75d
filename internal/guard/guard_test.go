package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/aide/internal/session"
	"github.com/naveenspark/aide/pkg/domain"
)

var (
	unresolved = session.Snapshot{State: session.StateResolving}
	anonymous  = session.Snapshot{State: session.StateAnonymous, Initialized: true}
	signedIn   = session.Snapshot{
		State:       session.StateAuthenticated,
		Initialized: true,
		User:        &domain.User{ID: "u1", Email: "a@b.com"},
	}
)

// fixedSession is a Snapshotter whose state tests flip directly.
type fixedSession struct {
	mu   sync.Mutex
	snap session.Snapshot
}

func (f *fixedSession) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fixedSession) set(s session.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		snap    session.Snapshot
		path    string
		action  Action
		target  string
		replace bool
	}{
		{"loading protected", unresolved, HomePath, Loading, HomePath, false},
		{"loading public", unresolved, LoginPath, Loading, LoginPath, false},
		{"loading callback", unresolved, CallbackPath, Loading, CallbackPath, false},
		{"anonymous protected", anonymous, HomePath, Redirect, LoginPath, true},
		{"anonymous emails", anonymous, EmailsPath, Redirect, LoginPath, true},
		{"anonymous public", anonymous, RegisterPath, Render, RegisterPath, false},
		{"anonymous callback", anonymous, CallbackPath, Render, CallbackPath, false},
		{"anonymous unknown", anonymous, "/nope", Redirect, LoginPath, true},
		{"signed in protected", signedIn, CreditsPath, Render, CreditsPath, false},
		{"signed in public", signedIn, LoginPath, Redirect, HomePath, true},
		{"signed in forgot", signedIn, ForgotPasswordPath, Redirect, HomePath, true},
		{"signed in callback", signedIn, CallbackPath, Render, CallbackPath, false},
		{"root is home", signedIn, "/", Render, HomePath, false},
		{"query stripped", anonymous, "/auth/callback?token=abc", Render, CallbackPath, false},
		{"trailing slash", signedIn, "/settings/", Render, SettingsPath, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.snap, tt.path)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.target, d.Target)
			assert.Equal(t, tt.replace, d.Replace)
		})
	}
}

func TestDecide_RefreshingNeverBlocks(t *testing.T) {
	snap := signedIn
	snap.Refreshing = true
	assert.Equal(t, Render, Decide(snap, HomePath).Action)
}

func TestDecide_NeverRendersWrongZone(t *testing.T) {
	table := DefaultTable()
	for p, zone := range table {
		for _, snap := range []session.Snapshot{unresolved, anonymous, signedIn} {
			d := table.Decide(snap, p)
			if d.Action != Render {
				continue
			}
			require.True(t, snap.Initialized, "%s rendered before initialization", p)
			if zone == ZoneProtected {
				assert.True(t, snap.Authenticated(), "%s rendered without a user", p)
			}
			if zone == ZonePublic {
				assert.False(t, snap.Authenticated(), "%s rendered with a user", p)
			}
		}
	}
}

func TestRouter_LoadingThenRedirectReplaces(t *testing.T) {
	s := &fixedSession{snap: unresolved}
	r := NewRouter(s, nil, HomePath)

	d := r.Resolve()
	assert.Equal(t, Loading, d.Action)
	assert.Equal(t, HomePath, r.Current())

	s.set(anonymous)
	d = r.Resolve()
	assert.Equal(t, Render, d.Action)
	assert.Equal(t, LoginPath, d.Target)
	assert.Equal(t, []string{LoginPath}, r.History(), "dashboard must not remain in history")
}

func TestRouter_NavigateAndBack(t *testing.T) {
	s := &fixedSession{snap: signedIn}
	r := NewRouter(s, nil, HomePath)

	r.Navigate(EmailsPath)
	r.Navigate(CalendarPath)
	assert.Equal(t, []string{HomePath, EmailsPath, CalendarPath}, r.History())

	d := r.Back()
	assert.Equal(t, Render, d.Action)
	assert.Equal(t, EmailsPath, r.Current())

	r.Back()
	r.Back()
	assert.Equal(t, HomePath, r.Current(), "first entry is never popped")
}

func TestRouter_PublicRouteWhileSignedInRedirectsHome(t *testing.T) {
	s := &fixedSession{snap: signedIn}
	r := NewRouter(s, nil, EmailsPath)

	d := r.Navigate(LoginPath)
	assert.Equal(t, Render, d.Action)
	assert.Equal(t, HomePath, d.Target)
	assert.Equal(t, []string{EmailsPath, HomePath}, r.History())
}

func TestRouter_HandleEvent(t *testing.T) {
	s := &fixedSession{snap: signedIn}
	r := NewRouter(s, nil, HomePath)
	r.Navigate(EmailsPath)

	s.set(anonymous)
	d, changed := r.HandleEvent(session.Event{Kind: session.EventInvalidated})
	assert.True(t, changed)
	assert.Equal(t, LoginPath, d.Target)
	assert.Equal(t, []string{LoginPath}, r.History())

	_, changed = r.HandleEvent(session.Event{Kind: session.EventInvalidated})
	assert.False(t, changed, "already on the login screen")

	s.set(signedIn)
	d, changed = r.HandleEvent(session.Event{Kind: session.EventAuthenticated})
	assert.True(t, changed)
	assert.Equal(t, HomePath, d.Target)
}

func TestRouter_Watch(t *testing.T) {
	s := &fixedSession{snap: signedIn}
	r := NewRouter(s, nil, SettingsPath)

	events := make(chan session.Event, 2)
	got := make(chan Decision, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Watch(ctx, events, func(d Decision) { got <- d })
		close(done)
	}()

	s.set(anonymous)
	events <- session.Event{Kind: session.EventLoggedOut}
	select {
	case d := <-got:
		assert.Equal(t, LoginPath, d.Target)
	case <-time.After(time.Second):
		t.Fatal("no navigation after logout event")
	}

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after events closed")
	}
}

func TestRouter_HandleEvent_CallbackScreenSurvivesSignOut(t *testing.T) {
	s := &fixedSession{snap: anonymous}
	r := NewRouter(s, nil, LoginPath)
	r.Navigate(CallbackPath)

	_, changed := r.HandleEvent(session.Event{Kind: session.EventLoggedOut})
	assert.False(t, changed)
	assert.Equal(t, CallbackPath, r.Current())

	s.set(signedIn)
	d, changed := r.HandleEvent(session.Event{Kind: session.EventAuthenticated})
	assert.True(t, changed)
	assert.Equal(t, HomePath, d.Target)
	assert.Equal(t, []string{HomePath}, r.History())
}
