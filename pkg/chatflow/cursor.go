package chatflow

import (
	"fmt"
	"sync"

	"github.com/waveline/chatflow/pkg/chatflow/session"
)

// CursorStatus tracks where a cursor is in its lifecycle.
type CursorStatus int

const (
	// StatusRunning means the cursor can be advanced.
	StatusRunning CursorStatus = iota
	// StatusParked means the cursor waits at a Button or List node for
	// the customer's choice; use Interpreter.Resume to continue.
	StatusParked
	// StatusHalted means the flow reached a terminal node, ran out of
	// edges, or hit a fatal error. The cursor cannot move again.
	StatusHalted
)

// String returns the status name.
func (s CursorStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusParked:
		return "parked"
	case StatusHalted:
		return "halted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Cursor is one session's position in a flow graph, together with the
// variables collected along the way. Each session owns exactly one
// cursor; the embedded mutex serializes Advance and Resume so node
// transitions within a session are strictly sequential. Cursors for
// different sessions share nothing and run fully concurrently.
type Cursor struct {
	mu sync.Mutex

	graph   *Graph
	session *session.Session

	current  NodeID
	vars     map[string]any
	status   CursorStatus
	haltErr  error
	disposed bool
}

// NewCursor positions a cursor at the graph's Start node for the given
// session. The graph must have a Start node.
func NewCursor(g *Graph, sess *session.Session) (*Cursor, error) {
	start, ok := g.Start()
	if !ok {
		return nil, ErrStartRequired
	}
	return &Cursor{
		graph:   g,
		session: sess,
		current: start,
		vars:    make(map[string]any),
	}, nil
}

// Current returns the node the cursor sits on.
func (c *Cursor) Current() NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Status returns the cursor's lifecycle status.
func (c *Cursor) Status() CursorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// HaltError returns the error that halted the cursor, if any. A clean
// halt on a terminal node returns nil.
func (c *Cursor) HaltError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.haltErr
}

// Session returns the session this cursor belongs to.
func (c *Cursor) Session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSession swaps in a fresh session after a re-arm. The old session
// object is disposed by the session manager; the cursor must follow the
// replacement to keep its expiry checks accurate.
func (c *Cursor) SetSession(sess *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
}

// Var returns one collected variable.
func (c *Cursor) Var(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vars[key]
	return v, ok
}

// Vars returns a copy of the collected variables.
func (c *Cursor) Vars() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}

// SetVar records a conversation variable, e.g. context fed in by the
// caller before evaluation of a Condition node.
func (c *Cursor) SetVar(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[key] = value
}

// Dispose releases the cursor when its conversation is archived. A
// disposed cursor refuses further Advance and Resume calls, and results
// of in-flight external calls are discarded.
func (c *Cursor) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.status = StatusHalted
}

// halt transitions to StatusHalted. Caller holds c.mu.
func (c *Cursor) halt(err error) {
	c.status = StatusHalted
	c.haltErr = err
}
