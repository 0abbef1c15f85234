// Package session implements the per-conversation response window
// timer. Each messaging platform allows free-form replies only for a
// limited time after the customer's last inbound message; sessions
// track that window as an explicit state machine and publish
// active/expired events so action nodes and display layers can react.
package session

import (
	"sync"
	"time"
)

// State is the lifecycle phase of a session window.
type State int

// Session lifecycle: Armed -> Active -> Expired. Active is
// re-entrant via re-arming; Expired is final for a given timer.
const (
	StateArmed State = iota
	StateActive
	StateExpired
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// WindowEvent is the payload of session.armed/active/expired events.
type WindowEvent struct {
	Key       Key           `json:"key"`
	Platform  Platform      `json:"platform"`
	Remaining time.Duration `json:"remaining"`
	Display   string        `json:"display"`
	EndsAt    time.Time     `json:"ends_at"`
}

// Session is one conversation's window timer. It is created by a
// Manager and owns no goroutine itself; the manager's loop drives it.
type Session struct {
	key         Key
	lastInbound time.Time
	window      time.Duration
	endTime     time.Time
	now         func() time.Time

	mu       sync.Mutex
	state    State
	disposed bool
	expired  bool // latch: expiry is reported exactly once
}

// Key returns the session's conversation key.
func (s *Session) Key() Key {
	return s.key
}

// Window returns the platform window applied at arm time.
func (s *Session) Window() time.Duration {
	return s.window
}

// LastInboundAt returns the inbound timestamp the window was armed from.
func (s *Session) LastInboundAt() time.Time {
	return s.lastInbound
}

// EndsAt returns when the window closes.
func (s *Session) EndsAt() time.Time {
	return s.endTime
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining recomputes the time left in the window. Negative values
// are clamped to zero.
func (s *Session) Remaining() time.Duration {
	remaining := s.endTime.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the window has closed. It consults the
// clock, not just the latched state, so callers get a correct answer
// even between ticks.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateExpired {
		return true
	}
	return !s.endTime.After(s.now())
}

// windowEvent builds an event payload snapshot.
func (s *Session) windowEvent(remaining time.Duration) WindowEvent {
	return WindowEvent{
		Key:       s.key,
		Platform:  s.key.Platform,
		Remaining: remaining,
		Display:   FormatRemaining(remaining),
		EndsAt:    s.endTime,
	}
}

// refresh advances the state machine by one tick. It returns the
// event to publish (nil for none) and whether the timer should keep
// ticking. The expired transition fires exactly once.
func (s *Session) refresh() (evt *WindowEvent, eventType string, keepTicking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || s.expired {
		return nil, "", false
	}

	remaining := s.endTime.Sub(s.now())
	if remaining > 0 {
		s.state = StateActive
		e := s.windowEvent(remaining)
		return &e, "active", true
	}

	s.state = StateExpired
	s.expired = true
	e := s.windowEvent(0)
	return &e, "expired", false
}

// dispose marks the session dead so an in-flight tick cannot publish
// after the manager replaced or removed it.
func (s *Session) dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}
