package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/waveline/chatflow/pkg/chatflow/event"
	"github.com/waveline/chatflow/pkg/chatflow/observability"
)

// DefaultTick is the timer granularity: remaining time is recomputed
// once per second.
const DefaultTick = time.Second

// Manager owns every active session timer. Each armed session gets
// its own tick loop goroutine; loops never share state, so one
// session expiring cannot disturb another's countdown.
type Manager struct {
	policy  Policy
	bus     *event.Bus
	tick    time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics observability.MetricsRecorder

	mu       sync.RWMutex
	sessions map[Key]*entry
	closed   bool
}

// entry pairs a session with its loop's stop channel.
type entry struct {
	session *Session
	stop    chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy overrides the platform window table.
func WithPolicy(p Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithBus sets the event bus session events are published on.
func WithBus(b *event.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithTick overrides the timer granularity. Tests use short ticks.
func WithTick(d time.Duration) Option {
	return func(m *Manager) { m.tick = d }
}

// WithClock injects the time source. Tests use a fake clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics recorder expiries are counted on.
func WithMetrics(rec observability.MetricsRecorder) Option {
	return func(m *Manager) { m.metrics = rec }
}

// NewManager creates a session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		policy:   DefaultPolicy(),
		tick:     DefaultTick,
		now:      time.Now,
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		sessions: make(map[Key]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Arm starts (or restarts) the window timer for a conversation.
// The window is computed from the platform policy and anchored at
// lastInboundAt; a zero lastInboundAt arms from "now" (first-ever
// contact). Re-arming atomically replaces the previous timer: the
// old loop is stopped before the new session becomes visible, so no
// two timers ever tick for the same key.
func (m *Manager) Arm(key Key, lastInboundAt time.Time) *Session {
	if lastInboundAt.IsZero() {
		lastInboundAt = m.now()
	}
	window := m.policy.Window(key.Platform)

	s := &Session{
		key:         key,
		lastInbound: lastInboundAt,
		window:      window,
		endTime:     lastInboundAt.Add(window),
		now:         m.now,
		state:       StateArmed,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	if prev, ok := m.sessions[key]; ok {
		prev.session.dispose()
		close(prev.stop)
	}
	e := &entry{session: s, stop: make(chan struct{})}
	m.sessions[key] = e
	m.mu.Unlock()

	m.logger.Debug("session armed",
		slog.String("session", key.String()),
		slog.Duration("window", window),
		slog.Time("ends_at", s.endTime),
	)
	m.publish(event.TypeSessionArmed, s.windowEvent(s.Remaining()))

	go m.loop(e)
	return s
}

// Get returns the session for a key, if one is armed.
func (m *Manager) Get(key Key) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[key]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Dispose stops a session's timer and removes it. Used when the
// conversation is archived.
func (m *Manager) Dispose(key Key) {
	m.mu.Lock()
	e, ok := m.sessions[key]
	if ok {
		e.session.dispose()
		close(e.stop)
		delete(m.sessions, key)
	}
	m.mu.Unlock()
}

// Close disposes every session. The manager is unusable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for key, e := range m.sessions {
		e.session.dispose()
		close(e.stop)
		delete(m.sessions, key)
	}
}

// loop drives one session's countdown at tick granularity until the
// window expires or the session is disposed.
func (m *Manager) loop(e *entry) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			evt, kind, keep := e.session.refresh()
			if evt != nil {
				switch kind {
				case "active":
					m.publish(event.TypeSessionActive, *evt)
				case "expired":
					m.logger.Info("session window expired",
						slog.String("session", e.session.key.String()),
					)
					m.metrics.RecordSessionExpired(context.Background(), string(e.session.key.Platform))
					m.publish(event.TypeSessionExpired, *evt)
				}
			}
			if !keep {
				// An expired session stays in the map so callers can
				// still observe its state; it is destroyed only by a
				// re-arm or an explicit Dispose.
				return
			}
		}
	}
}

func (m *Manager) publish(eventType string, payload WindowEvent) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(event.New(eventType, payload))
}
