package chatflow

import (
	"errors"
	"fmt"
	"log/slog"
)

// CanConnect reports whether the candidate edge may be added to the
// graph as it is currently committed. The rules are applied in order:
//
//  1. Both endpoints must exist.
//  2. No self-loops.
//  3. Edges out of Start may only target message-producing kinds.
//  4. Terminal kinds (AssignAgent, DisableChat) permit no outgoing edges.
//  5. Linear kinds permit one outgoing edge; only branching kinds
//     (Button, List, Condition) fan out over labels.
//  6. The edge must not close a cycle among non-terminal nodes.
//
// A nil return means the edge is legal; otherwise the *EdgeError
// carries the first rule broken.
func CanConnect(g *Graph, candidate Edge) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.canConnect(candidate)
}

// canConnect assumes the graph lock is held.
func (g *Graph) canConnect(e Edge) error {
	reject := func(rule error) error {
		return &EdgeError{Source: e.Source, Target: e.Target, Rule: rule}
	}

	src, ok := g.nodes[e.Source]
	if !ok {
		return reject(fmt.Errorf("%w: source %s", ErrNodeNotFound, e.Source))
	}
	dst, ok := g.nodes[e.Target]
	if !ok {
		return reject(fmt.Errorf("%w: target %s", ErrNodeNotFound, e.Target))
	}

	if e.Source == e.Target {
		return reject(ErrSelfLoop)
	}

	for _, existing := range g.edges {
		if existing.Source == e.Source && existing.Target == e.Target {
			return reject(ErrDuplicateEdge)
		}
	}

	if dst.Kind == KindStart {
		return reject(ErrStartIncoming)
	}
	if src.Kind == KindStart && !dst.Kind.MessageProducing() {
		return reject(ErrStartTarget)
	}
	if src.Kind.Terminal() {
		return reject(ErrTerminalSource)
	}
	if !src.Kind.Branching() && len(g.outgoing(e.Source)) > 0 {
		return reject(ErrSingleEdge)
	}

	// Simulate the committed graph plus the candidate and look for a
	// cycle restricted to non-terminal nodes.
	if path := g.detectCycle(append(append([]Edge(nil), g.edges...), e)); path != nil {
		return reject(fmt.Errorf("%w: %v", ErrCycle, path))
	}
	return nil
}

// DetectCycle looks for a cycle among non-terminal nodes and returns
// the node path that closes it, or nil when the graph is acyclic.
// Usable standalone for offline audits of imported flows.
func DetectCycle(g *Graph) []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.detectCycle(g.edges)
}

// detectCycle runs a depth-first walk over the given edge set,
// tracking an on-stack set. Terminal nodes are excluded: they cannot
// continue a walk, so a cycle through them is impossible anyway.
// Assumes the graph lock is held.
func (g *Graph) detectCycle(edges []Edge) []NodeID {
	adjacent := make(map[NodeID][]NodeID)
	for _, e := range edges {
		if src, ok := g.nodes[e.Source]; !ok || src.Kind.Terminal() {
			continue
		}
		if dst, ok := g.nodes[e.Target]; !ok || dst.Kind.Terminal() {
			continue
		}
		adjacent[e.Source] = append(adjacent[e.Source], e.Target)
	}

	visited := make(map[NodeID]bool)
	onStack := make(map[NodeID]bool)
	var stack []NodeID

	var walk func(id NodeID) []NodeID
	walk = func(id NodeID) []NodeID {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, next := range adjacent[id] {
			if onStack[next] {
				// Back-edge: slice the stack from the repeated node.
				for i, n := range stack {
					if n == next {
						return append(append([]NodeID(nil), stack[i:]...), next)
					}
				}
			}
			if !visited[next] {
				if path := walk(next); path != nil {
					return path
				}
			}
		}

		onStack[id] = false
		stack = stack[:len(stack)-1]
		return nil
	}

	for id := range adjacent {
		if !visited[id] {
			if path := walk(id); path != nil {
				return path
			}
		}
	}
	return nil
}

// Audit checks every whole-graph invariant and returns all violations.
// An empty result means the graph is valid. Unlike CanConnect, Audit
// sees the graph as a whole, so it also enforces the invariants no
// single edge can break: exactly one Start node, and a default edge
// on every Condition node.
func Audit(g *Graph) []error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.audit()
}

// audit assumes the graph lock is held.
func (g *Graph) audit() []error {
	var errs []error

	var start *Node
	starts := 0
	for _, n := range g.nodes {
		if !n.Kind.Known() {
			errs = append(errs, fmt.Errorf("%w: node %s has kind %q", ErrUnknownKind, n.ID, n.Kind))
		}
		if n.Kind == KindStart {
			starts++
			start = n
		}
	}
	if starts != 1 {
		errs = append(errs, fmt.Errorf("%w (found %d)", ErrStartRequired, starts))
	}
	if start != nil && len(g.incoming(start.ID)) > 0 {
		errs = append(errs, ErrStartIncoming)
	}

	seen := make(map[[2]NodeID]bool)
	for _, e := range g.edges {
		src, srcOK := g.nodes[e.Source]
		dst, dstOK := g.nodes[e.Target]
		switch {
		case !srcOK:
			errs = append(errs, &EdgeError{Source: e.Source, Target: e.Target,
				Rule: fmt.Errorf("%w: source %s", ErrNodeNotFound, e.Source)})
			continue
		case !dstOK:
			errs = append(errs, &EdgeError{Source: e.Source, Target: e.Target,
				Rule: fmt.Errorf("%w: target %s", ErrNodeNotFound, e.Target)})
			continue
		}

		if e.Source == e.Target {
			errs = append(errs, &EdgeError{Source: e.Source, Target: e.Target, Rule: ErrSelfLoop})
		}
		if key := [2]NodeID{e.Source, e.Target}; seen[key] {
			errs = append(errs, &EdgeError{Source: e.Source, Target: e.Target, Rule: ErrDuplicateEdge})
		} else {
			seen[key] = true
		}
		if src.Kind == KindStart && !dst.Kind.MessageProducing() {
			errs = append(errs, &EdgeError{Source: e.Source, Target: e.Target, Rule: ErrStartTarget})
		}
		if src.Kind.Terminal() {
			errs = append(errs, &EdgeError{Source: e.Source, Target: e.Target, Rule: ErrTerminalSource})
		}
	}

	for _, n := range g.nodes {
		if !n.Kind.Branching() && !n.Kind.Terminal() {
			if out := g.outgoing(n.ID); len(out) > 1 {
				errs = append(errs, fmt.Errorf("%w: node %s has %d", ErrSingleEdge, n.ID, len(out)))
			}
		}
		if n.Kind != KindCondition {
			continue
		}
		hasDefault := false
		for _, e := range g.outgoing(n.ID) {
			if e.Label == DefaultLabel {
				hasDefault = true
				break
			}
		}
		if !hasDefault {
			errs = append(errs, fmt.Errorf("%w: node %s", ErrConditionDefault, n.ID))
		}
	}

	if path := g.detectCycle(g.edges); path != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrCycle, path))
	}

	if start != nil {
		g.warnUnreachable(start.ID)
	}

	return errs
}

// warnUnreachable logs nodes not reachable from Start. Unreachable
// nodes are legal (an author may still be wiring them up) but worth
// surfacing. Assumes the graph lock is held.
func (g *Graph) warnUnreachable(start NodeID) {
	reachable := map[NodeID]bool{start: true}
	queue := []NodeID{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range g.edges {
			if e.Source == current && !reachable[e.Target] {
				reachable[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	for id := range g.nodes {
		if !reachable[id] {
			slog.Warn("node is unreachable from start", "node_id", string(id))
		}
	}
}

// ValidateGraph deserializes a flow document and audits it, returning
// every violation found. A syntactically broken document yields its
// parse error alone. Suitable for wrapping in any transport.
func ValidateGraph(data []byte) []error {
	g, err := Deserialize(data)
	if err != nil {
		// Deserialize already fails closed on invariant violations;
		// unwrap joined audit errors so callers see each one.
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			return joined.Unwrap()
		}
		return []error{err}
	}
	return Audit(g)
}

// joinAudit converts an audit result into a single error, or nil.
func joinAudit(violations []error) error {
	if len(violations) == 0 {
		return nil
	}
	return errors.Join(violations...)
}
