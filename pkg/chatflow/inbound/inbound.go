// Package inbound feeds customer messages into the flow engine.
//
// Every inbound message does two things at once: it re-arms the
// session window timer (the platform clock restarts from the
// customer's last message) and, when the flow is parked on a Button
// or List node, it resumes the interpreter with the customer's
// choice. The Dispatcher couples those so callers wire one entry
// point per transport (webhook handler, queue consumer) and nothing
// else.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waveline/chatflow/pkg/chatflow"
	"github.com/waveline/chatflow/pkg/chatflow/session"
)

// Event is one inbound customer message, reduced to what the engine
// needs. Platform payload parsing happens upstream.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// SessionKey identifies the conversation.
	SessionKey session.Key `json:"session_key"`

	// InboundAt is when the customer's message arrived. The session
	// window re-arms from this instant.
	InboundAt time.Time `json:"inbound_at"`

	// Choice carries the label the customer picked on a Button or
	// List message. Empty for plain messages.
	Choice string `json:"choice,omitempty"`
}

// NewEvent creates an inbound event for a session.
func NewEvent(key session.Key, inboundAt time.Time) Event {
	return Event{
		ID:         fmt.Sprintf("in-%s", uuid.New().String()[:8]),
		SessionKey: key,
		InboundAt:  inboundAt,
	}
}

// WithChoice sets the customer's choice on the event.
func (e Event) WithChoice(choice string) Event {
	e.Choice = choice
	return e
}

// Dispatcher errors.
var (
	// ErrAlreadyAttached is returned when a session already has a cursor.
	ErrAlreadyAttached = errors.New("session already attached")

	// ErrNotAttached is returned when no cursor exists for a session.
	ErrNotAttached = errors.New("session not attached")
)

// Dispatcher routes inbound events to the session manager and the
// interpreter. Safe for concurrent use; per-session ordering is
// guaranteed by the cursor's own serialization.
type Dispatcher struct {
	manager *session.Manager
	interp  *chatflow.Interpreter
	logger  *slog.Logger

	mu      sync.RWMutex
	cursors map[session.Key]*chatflow.Cursor
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger enables structured logging of dispatches.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher builds a dispatcher over a session manager and an
// interpreter.
func NewDispatcher(manager *session.Manager, interp *chatflow.Interpreter, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		manager: manager,
		interp:  interp,
		cursors: make(map[session.Key]*chatflow.Cursor),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Attach binds a conversation to a flow. The graph must be valid; the
// cursor starts at its Start node and first advances on the next
// inbound event.
func (d *Dispatcher) Attach(key session.Key, g *chatflow.Graph) (*chatflow.Cursor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.cursors[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAttached, key)
	}

	cur, err := chatflow.NewCursor(g, nil)
	if err != nil {
		return nil, err
	}
	d.cursors[key] = cur
	return cur, nil
}

// Detach releases a conversation: the cursor is disposed and the
// session timer stopped. Used when the conversation is archived.
func (d *Dispatcher) Detach(key session.Key) {
	d.mu.Lock()
	cur, ok := d.cursors[key]
	delete(d.cursors, key)
	d.mu.Unlock()

	if ok {
		cur.Dispose()
	}
	d.manager.Dispose(key)
}

// Cursor returns the cursor attached to a session.
func (d *Dispatcher) Cursor(key session.Key) (*chatflow.Cursor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cur, ok := d.cursors[key]
	return cur, ok
}

// Dispatch handles one inbound event: re-arms the session window,
// resumes the flow if it was parked on a choice, and runs the
// interpreter until it parks or halts. It returns the node the flow
// rests on, or "" after a clean halt.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) (chatflow.NodeID, error) {
	d.mu.RLock()
	cur, ok := d.cursors[evt.SessionKey]
	d.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotAttached, evt.SessionKey)
	}

	// Every inbound message restarts the platform window, whatever
	// the flow is doing.
	sess := d.manager.Arm(evt.SessionKey, evt.InboundAt)
	cur.SetSession(sess)

	if cur.Status() == chatflow.StatusParked {
		if evt.Choice == "" {
			// A free-text message while waiting for a tap; stay
			// parked, the window re-arm above still counts.
			d.log("inbound without choice while parked", evt)
			return cur.Current(), nil
		}
		if _, err := d.interp.Resume(ctx, cur, evt.Choice); err != nil {
			return "", err
		}
	}

	return d.interp.Run(ctx, cur)
}

// Close detaches every conversation.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	cursors := d.cursors
	d.cursors = make(map[session.Key]*chatflow.Cursor)
	d.mu.Unlock()

	for key, cur := range cursors {
		cur.Dispose()
		d.manager.Dispose(key)
	}
}

func (d *Dispatcher) log(msg string, evt Event) {
	if d.logger == nil {
		return
	}
	d.logger.Debug(msg,
		slog.String("event_id", evt.ID),
		slog.String("session", evt.SessionKey.String()),
	)
}
