package session

import (
	"log/slog"

	"github.com/naveenspark/aide/pkg/domain"
)

// State is the session lifecycle position.
type State int

const (
	StateUnresolved State = iota
	StateResolving
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Snapshot is a point-in-time copy of the store. Initialized stays true once
// the first resolution settles; Refreshing marks a background re-fetch that
// must not be shown as a blocking load.
type Snapshot struct {
	State       State
	User        *domain.User
	Initialized bool
	Refreshing  bool
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// EventKind names a session transition.
type EventKind int

const (
	EventAuthenticated EventKind = iota
	EventLoggedOut
	EventInvalidated
)

func (k EventKind) String() string {
	switch k {
	case EventAuthenticated:
		return "authenticated"
	case EventLoggedOut:
		return "logged_out"
	case EventInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// Event is published on every Authenticated/Anonymous transition.
type Event struct {
	Kind EventKind
	User *domain.User // set for EventAuthenticated
}

const subscriberBuffer = 8

// Subscribe returns a channel of session events and a func that
// unsubscribes and closes it. Slow subscribers drop events rather than
// block the store.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("session: subscriber full, dropping event", "sub", id, "event", ev.Kind)
		}
	}
}
