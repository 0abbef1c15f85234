package chatflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/waveline/chatflow/pkg/chatflow/schema"
	"github.com/waveline/chatflow/pkg/chatflow/session"
)

// ErrUnknownKind indicates a node kind outside the closed enumeration.
// Re-exported from the schema package so callers handle one sentinel.
var ErrUnknownKind = schema.ErrUnknownKind

// Sentinel errors for graph authoring.
var (
	// ErrNodeNotFound indicates an operation referenced a node that is
	// not part of the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSelfLoop indicates an edge with identical source and target.
	ErrSelfLoop = errors.New("self-loop edge")

	// ErrStartTarget indicates an edge from Start to a kind that does
	// not produce a message.
	ErrStartTarget = errors.New("start may only lead to a message node")

	// ErrTerminalSource indicates an edge out of a terminal node.
	ErrTerminalSource = errors.New("terminal node cannot have outgoing edges")

	// ErrCycle indicates the edge would close a cycle among
	// non-terminal nodes.
	ErrCycle = errors.New("edge would create a cycle")

	// ErrDuplicateEdge indicates the (source, target) pair already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrStartRequired indicates a graph without exactly one Start node.
	ErrStartRequired = errors.New("graph requires exactly one start node")

	// ErrStartIncoming indicates an edge targeting the Start node.
	ErrStartIncoming = errors.New("start node cannot have incoming edges")

	// ErrRemoveStart indicates an attempt to remove the sole Start node.
	ErrRemoveStart = errors.New("cannot remove the start node")

	// ErrConditionDefault indicates a Condition node without a default
	// edge. Rejected at authoring time so runtime never reaches an
	// ambiguous no-match state.
	ErrConditionDefault = errors.New("condition node requires a default edge")

	// ErrSingleEdge indicates a second outgoing edge on a linear kind.
	// Only branching kinds (Button, List, Condition) select among
	// labeled edges; everything else follows exactly one.
	ErrSingleEdge = errors.New("node permits only one outgoing edge")
)

// Sentinel errors for interpretation.
var (
	// ErrNoOutgoingEdge indicates a non-terminal node with nowhere to go.
	ErrNoOutgoingEdge = errors.New("no outgoing edge")

	// ErrNoMatchingEdge indicates a branch selected a label with no edge.
	ErrNoMatchingEdge = errors.New("no edge matches label")

	// ErrCursorParked indicates Advance was called while the cursor is
	// waiting for a choice event; Resume must be used instead.
	ErrCursorParked = errors.New("cursor is parked waiting for a choice")

	// ErrSessionRequired indicates a window-gated node was reached on a
	// cursor with no session bound yet. Bind one with NewCursor or
	// SetSession before advancing into message or action nodes.
	ErrSessionRequired = errors.New("cursor has no session")

	// ErrCursorHalted indicates the cursor already reached a terminal
	// node or a fatal error.
	ErrCursorHalted = errors.New("cursor is halted")
)

// EdgeError reports a rejected edge together with the rule it broke.
// The graph is never partially mutated: a rejected edge leaves the
// graph exactly as it was.
type EdgeError struct {
	// Source and Target identify the candidate edge.
	Source NodeID
	Target NodeID
	// Rule is the sentinel rule error that rejected the edge.
	Rule error
}

// Error implements the error interface.
func (e *EdgeError) Error() string {
	return fmt.Sprintf("edge %s -> %s: %v", e.Source, e.Target, e.Rule)
}

// Unwrap returns the broken rule for errors.Is support.
func (e *EdgeError) Unwrap() error {
	return e.Rule
}

// SchemaError reports an invalid node configuration. It wraps the
// field-level detail from the schema registry.
type SchemaError struct {
	// Kind is the node kind whose config was rejected.
	Kind NodeKind
	// Err is the underlying field error or ErrUnknownKind.
	Err error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s config: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// SessionExpiredError halts execution of a time-gated action after the
// platform response window closed. This is a policy outcome, not a
// failure: callers should treat it as a normal halt.
type SessionExpiredError struct {
	// Key identifies the session whose window expired.
	Key session.Key
	// NodeID is the action node that was blocked.
	NodeID NodeID
	// ExpiredAt is when the window closed.
	ExpiredAt time.Time
}

// Error implements the error interface.
func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session %s expired at %s: node %s blocked",
		e.Key, e.ExpiredAt.Format(time.RFC3339), e.NodeID)
}

// SinkError reports a failed external call after retries were
// exhausted. It halts the owning session's traversal only; other
// sessions are unaffected.
type SinkError struct {
	// Op is the sink operation that failed ("send", "http", "assign").
	Op string
	// NodeID is the node whose action failed.
	NodeID NodeID
	// Attempts is how many attempts were made.
	Attempts int
	// Err is the final underlying error.
	Err error
}

// Error implements the error interface.
func (e *SinkError) Error() string {
	return fmt.Sprintf("action sink %s at node %s failed after %d attempt(s): %v",
		e.Op, e.NodeID, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SinkError) Unwrap() error {
	return e.Err
}
