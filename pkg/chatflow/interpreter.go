package chatflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/waveline/chatflow/pkg/chatflow/expr"
	"github.com/waveline/chatflow/pkg/chatflow/observability"
	"github.com/waveline/chatflow/pkg/chatflow/retry"
)

// Interpreter walks a compiled flow graph one node at a time, asking
// the ActionSink to perform real side effects. One interpreter serves
// any number of cursors concurrently; per-session ordering comes from
// the cursor's own lock.
type Interpreter struct {
	sink ActionSink
	cfg  interpreterConfig
}

// NewInterpreter builds an interpreter around an action sink.
func NewInterpreter(sink ActionSink, opts ...InterpreterOption) *Interpreter {
	cfg := defaultInterpreterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Interpreter{sink: sink, cfg: cfg}
}

// Advance executes the cursor's current node and moves to the next.
//
// The return value depends on what the node did:
//   - a node id: the cursor moved there; call Advance again to run it
//   - "" with nil error: the flow halted cleanly (terminal node or no
//     outgoing edge) or parked waiting for a choice (check Status)
//   - an error: the step failed; the cursor is halted unless the error
//     was a cancelled context
//
// Within one session Advance calls are strictly sequential; calling it
// concurrently for the same cursor blocks, never interleaves.
func (it *Interpreter) Advance(ctx context.Context, c *Cursor) (next NodeID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return "", ErrCursorHalted
	}
	switch c.status {
	case StatusParked:
		return "", ErrCursorParked
	case StatusHalted:
		return "", ErrCursorHalted
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	node, ok := c.graph.Node(c.current)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNodeNotFound, c.current)
		c.halt(err)
		return "", err
	}

	sessionKey := ""
	if c.session != nil {
		sessionKey = c.session.Key().String()
	}
	logger := it.cfg.logger
	observability.LogAdvanceStart(logger, sessionKey, string(node.ID), node.Kind.String())

	spanCtx, span := it.cfg.spans.StartAdvanceSpan(ctx, sessionKey, string(node.ID))
	elapsed := observability.TimedOperation()

	next, err = it.step(spanCtx, c, node)

	duration := time.Duration(elapsed() * float64(time.Millisecond))
	it.cfg.metrics.RecordNodeStep(ctx, node.Kind.String(), duration, err)
	it.cfg.spans.EndSpanWithError(span, err)

	switch {
	case err != nil:
		if _, expired := err.(*SessionExpiredError); expired {
			// A policy halt, not a failure.
			observability.LogSessionBlocked(logger, sessionKey, string(node.ID))
		} else {
			observability.LogAdvanceError(logger, sessionKey, string(node.ID), err)
		}
		// A missing session is a caller-ordering mistake, not a dead
		// conversation: the cursor stays runnable for when one is bound.
		if ctx.Err() == nil && !errors.Is(err, ErrSessionRequired) {
			c.halt(err)
		}
		return "", err
	case c.status == StatusParked:
		observability.LogParked(logger, sessionKey, string(node.ID))
	default:
		observability.LogAdvanceComplete(logger, sessionKey, string(node.ID), string(next), elapsed())
	}
	return next, nil
}

// Run advances the cursor until it parks, halts, or fails. It returns
// the node the cursor rests on, or "" after a clean halt.
func (it *Interpreter) Run(ctx context.Context, c *Cursor) (NodeID, error) {
	for {
		next, err := it.Advance(ctx, c)
		if err != nil {
			return "", err
		}
		if next == "" {
			if c.Status() == StatusParked {
				return c.Current(), nil
			}
			return "", nil
		}
	}
}

// Resume delivers the customer's choice to a parked cursor and follows
// the matching labeled edge. It returns the node the cursor moved to;
// call Advance (or Run) to execute it.
func (it *Interpreter) Resume(ctx context.Context, c *Cursor, choice string) (NodeID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return "", ErrCursorHalted
	}
	if c.status != StatusParked {
		return "", fmt.Errorf("resume on %s cursor: %w", c.status, ErrCursorHalted)
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	for _, e := range c.graph.Outgoing(c.current) {
		if e.Label == choice {
			c.current = e.Target
			c.status = StatusRunning
			return e.Target, nil
		}
	}
	return "", fmt.Errorf("%w: %q at node %s", ErrNoMatchingEdge, choice, c.current)
}

// step runs one node. Caller holds c.mu.
func (it *Interpreter) step(ctx context.Context, c *Cursor, node *Node) (NodeID, error) {
	switch cfg := node.Config.(type) {
	case StartConfig:
		return it.follow(c)

	case TextConfig:
		if err := it.send(ctx, c, node, MessagePayload{Kind: node.Kind, Body: cfg.Body}); err != nil {
			return "", err
		}
		return it.follow(c)

	case MediaConfig:
		if err := it.send(ctx, c, node, MessagePayload{Kind: node.Kind, URL: cfg.URL, Caption: cfg.Caption}); err != nil {
			return "", err
		}
		return it.follow(c)

	case ButtonConfig:
		choices := make([]Choice, len(cfg.Buttons))
		for i, b := range cfg.Buttons {
			choices[i] = Choice{Label: b.Label}
		}
		if err := it.send(ctx, c, node, MessagePayload{Kind: node.Kind, Prompt: cfg.Prompt, Choices: choices}); err != nil {
			return "", err
		}
		c.status = StatusParked
		return "", nil

	case ListConfig:
		choices := make([]Choice, len(cfg.Items))
		for i, item := range cfg.Items {
			choices[i] = Choice{Label: item.Title, Description: item.Description}
		}
		if err := it.send(ctx, c, node, MessagePayload{Kind: node.Kind, Prompt: cfg.Prompt, Choices: choices}); err != nil {
			return "", err
		}
		c.status = StatusParked
		return "", nil

	case AssignAgentConfig:
		if err := it.checkWindow(c, node); err != nil {
			return "", err
		}
		convContext := make(map[string]any, len(c.vars))
		for k, v := range c.vars {
			convContext[k] = v
		}
		if err := it.sink.AssignToAgent(ctx, cfg.AgentID, convContext); err != nil {
			return "", &SinkError{Op: "assign", NodeID: node.ID, Attempts: 1, Err: err}
		}
		c.halt(nil)
		return "", nil

	case DisableChatConfig:
		if err := it.checkWindow(c, node); err != nil {
			return "", err
		}
		key := c.session.Key()
		if err := it.sink.DisableChat(ctx, key.Platform, key.Counterpart, cfg.Duration, string(cfg.ResumePolicy)); err != nil {
			return "", &SinkError{Op: "disable", NodeID: node.ID, Attempts: 1, Err: err}
		}
		c.halt(nil)
		return "", nil

	case APIRequestConfig:
		if err := it.callAPI(ctx, c, node, cfg); err != nil {
			return "", err
		}
		return it.follow(c)

	case ConditionConfig:
		return it.branch(c, node, cfg)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, node.Kind)
	}
}

// send delivers a message payload, gated on the session window. Only
// approved template messages may go out after expiry, and those travel
// outside this engine.
func (it *Interpreter) send(ctx context.Context, c *Cursor, node *Node, payload MessagePayload) error {
	if err := it.checkWindow(c, node); err != nil {
		return err
	}
	key := c.session.Key()
	if err := it.sink.Send(ctx, key.Platform, key.Counterpart, payload); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SinkError{Op: "send", NodeID: node.ID, Attempts: 1, Err: err}
	}
	return nil
}

// checkWindow rejects time-gated actions once the session window has
// closed. Every node that needs the session key passes through here
// first, so a cursor without a session fails cleanly instead of
// panicking mid-conversation. Caller holds c.mu.
func (it *Interpreter) checkWindow(c *Cursor, node *Node) error {
	if c.session == nil {
		return fmt.Errorf("node %s: %w", node.ID, ErrSessionRequired)
	}
	if c.session.Expired() {
		return &SessionExpiredError{
			Key:       c.session.Key(),
			NodeID:    node.ID,
			ExpiredAt: c.session.EndsAt(),
		}
	}
	return nil
}

// callAPI performs the outbound call with a bounded per-attempt timeout
// and retries transient failures. Response fields named in the mapping
// land in the cursor's variables for later Condition nodes.
func (it *Interpreter) callAPI(ctx context.Context, c *Cursor, node *Node, cfg APIRequestConfig) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = it.cfg.httpTimeout
	}

	req := HTTPRequest{
		Method:  cfg.Method,
		URL:     cfg.URL,
		Headers: cfg.Headers,
		Body:    cfg.Body,
	}

	result := retry.Do(ctx, it.cfg.retry, func(ctx context.Context) (HTTPResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return it.sink.CallHTTP(callCtx, req)
	})
	if result.Err != nil {
		if ctx.Err() != nil {
			// Session cancelled mid-call; discard the outcome.
			return ctx.Err()
		}
		return &SinkError{Op: "http", NodeID: node.ID, Attempts: result.Attempts, Err: result.Err}
	}

	for varName, field := range cfg.ResponseMapping {
		c.vars[varName] = responseField(result.Value.Fields, field)
	}
	c.vars["status"] = result.Value.Status
	return nil
}

// branch evaluates Condition predicates in order and follows the first
// matching labeled edge, or the default edge when none match.
func (it *Interpreter) branch(c *Cursor, node *Node, cfg ConditionConfig) (NodeID, error) {
	label := cfg.DefaultLabel
	for _, cs := range cfg.Cases {
		matched, err := expr.Eval(cs.When, c.vars)
		if err != nil {
			// A predicate that cannot be parsed never matches.
			continue
		}
		if matched {
			label = cs.Label
			break
		}
	}

	for _, e := range c.graph.Outgoing(node.ID) {
		if e.Label == label {
			c.current = e.Target
			return e.Target, nil
		}
	}
	return "", fmt.Errorf("%w: %q at node %s", ErrNoMatchingEdge, label, node.ID)
}

// follow moves along the node's single outgoing edge. A node with no
// outgoing edge ends the flow cleanly. Validation admits at most one
// outgoing edge for linear kinds.
func (it *Interpreter) follow(c *Cursor) (NodeID, error) {
	edges := c.graph.Outgoing(c.current)
	if len(edges) == 0 {
		c.halt(nil)
		return "", nil
	}
	c.current = edges[0].Target
	return edges[0].Target, nil
}

// responseField resolves a dotted path inside the decoded response.
func responseField(fields map[string]any, path string) any {
	var cur any = fields
	for path != "" {
		head := path
		if i := strings.IndexByte(path, '.'); i >= 0 {
			head, path = path[:i], path[i+1:]
		} else {
			path = ""
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[head]
	}
	return cur
}
