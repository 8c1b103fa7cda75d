package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/naveenspark/aide/internal/session"
)

// maxHops bounds redirect chains.
const maxHops = 4

// Snapshotter is the read side of the session store.
type Snapshotter interface {
	Snapshot() session.Snapshot
}

// Router is the navigation history. Every navigation is run through the
// guard; redirects replace the top entry so a disallowed route never stays
// in back-navigation.
type Router struct {
	table   Table
	session Snapshotter

	mu      sync.Mutex
	history []string
}

// NewRouter returns a Router positioned at start (not yet decided).
func NewRouter(s Snapshotter, table Table, start string) *Router {
	if table == nil {
		table = DefaultTable()
	}
	return &Router{table: table, session: s, history: []string{Clean(start)}}
}

// Current returns the top of history.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}

// History returns a copy of the history, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Navigate pushes p and applies the guard.
func (r *Router) Navigate(p string) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	p = Clean(p)
	if r.history[len(r.history)-1] != p {
		r.history = append(r.history, p)
	}
	return r.resolveLocked()
}

// Replace swaps the top of history for p and applies the guard.
func (r *Router) Replace(p string) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[len(r.history)-1] = Clean(p)
	return r.resolveLocked()
}

// Back pops one entry (the first entry is never popped) and applies the
// guard to what is left.
func (r *Router) Back() Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) > 1 {
		r.history = r.history[:len(r.history)-1]
	}
	return r.resolveLocked()
}

// Resolve re-applies the guard to the current route, for use when the
// session changes under it (initialization finishing).
func (r *Router) Resolve() Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked()
}

func (r *Router) resolveLocked() Decision {
	snap := r.session.Snapshot()
	top := len(r.history) - 1
	var d Decision
	for i := 0; i < maxHops; i++ {
		d = r.table.Decide(snap, r.history[top])
		if d.Action != Redirect {
			return d
		}
		slog.Debug("guard: redirect", "from", d.Path, "to", d.Target)
		r.history[top] = d.Target
		r.dedupeTopLocked()
		top = len(r.history) - 1
	}
	return d
}

// dedupeTopLocked drops a redirect target that equals the entry below it,
// so login -> dashboard -> (redirect) login does not stack two logins.
func (r *Router) dedupeTopLocked() {
	n := len(r.history)
	if n > 1 && r.history[n-1] == r.history[n-2] {
		r.history = r.history[:n-1]
	}
}

// HandleEvent applies a session transition to navigation: sign-out or
// invalidation sends a protected screen to the login screen, sign-in moves
// a public or open screen to home. History is reset either way. It reports
// whether navigation changed.
func (r *Router) HandleEvent(ev session.Event) (Decision, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.history[len(r.history)-1]
	zone := r.table.Zone(cur)
	switch ev.Kind {
	case session.EventLoggedOut, session.EventInvalidated:
		if zone != ZoneProtected {
			return r.resolveLocked(), false
		}
		r.history = []string{LoginPath}
	case session.EventAuthenticated:
		if zone == ZoneProtected {
			return r.resolveLocked(), false
		}
		r.history = []string{HomePath}
	}
	d := r.resolveLocked()
	return d, true
}

// Watch applies session events until ctx is done or events closes, calling
// onChange for every event that moved navigation.
func (r *Router) Watch(ctx context.Context, events <-chan session.Event, onChange func(Decision)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if d, changed := r.HandleEvent(ev); changed && onChange != nil {
				onChange(d)
			}
		}
	}
}
