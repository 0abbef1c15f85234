package chatflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waveline/chatflow/pkg/chatflow/schema"
)

// Graph is the directed flow definition: nodes, labeled edges and
// authoring metadata. Every mutation is validated before it commits;
// a rejected mutation leaves the graph unchanged.
//
// Graph is safe for concurrent use, but authoring is typically a
// single-editor activity; the lock exists so a running interpreter
// can read a graph while an author inspects it.
type Graph struct {
	mu      sync.RWMutex
	name    string
	desc    string
	created time.Time

	nodes   map[NodeID]*Node
	edges   []Edge
	schemas *schema.Registry
}

// GraphOption configures a new graph.
type GraphOption func(*Graph)

// WithSchemaRegistry overrides the schema registry used to validate
// node configurations. Defaults to schema.Default().
func WithSchemaRegistry(r *schema.Registry) GraphOption {
	return func(g *Graph) {
		g.schemas = r
	}
}

// WithCreatedAt overrides the creation timestamp. Used when loading
// persisted graphs.
func WithCreatedAt(t time.Time) GraphOption {
	return func(g *Graph) {
		g.created = t
	}
}

// NewGraph creates an empty graph with the given metadata.
func NewGraph(name, description string, opts ...GraphOption) *Graph {
	g := &Graph{
		name:    name,
		desc:    description,
		created: time.Now().UTC(),
		nodes:   make(map[NodeID]*Node),
		schemas: schema.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the flow name.
func (g *Graph) Name() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.name
}

// Description returns the flow description.
func (g *Graph) Description() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.desc
}

// CreatedAt returns the creation timestamp.
func (g *Graph) CreatedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.created
}

// AddNode validates config against the kind's schema, assigns a fresh
// node ID and adds the node. A config failing the schema is rejected
// with *SchemaError and the graph is unchanged.
func (g *Graph) AddNode(kind NodeKind, config map[string]any, pos Position) (NodeID, error) {
	id := NodeID(uuid.New().String())
	if err := g.addNode(id, kind, config, pos); err != nil {
		return "", err
	}
	return id, nil
}

// addNode inserts a node under a caller-chosen ID. Used by AddNode
// and by deserialization, which must preserve persisted IDs.
func (g *Graph) addNode(id NodeID, kind NodeKind, config map[string]any, pos Position) error {
	if !kind.Known() {
		return &SchemaError{Kind: kind, Err: fmt.Errorf("%w: %s", ErrUnknownKind, kind)}
	}
	if err := g.schemas.Validate(string(kind), config); err != nil {
		return &SchemaError{Kind: kind, Err: err}
	}

	cfg, err := decodeConfig(kind, config)
	if err != nil {
		return &SchemaError{Kind: kind, Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("duplicate node ID: %s", id)
	}
	if kind == KindStart {
		for _, n := range g.nodes {
			if n.Kind == KindStart {
				return ErrStartRequired
			}
		}
	}

	g.nodes[id] = &Node{ID: id, Kind: kind, Config: cfg, Position: pos}
	return nil
}

// RemoveNode deletes a node and cascades: every edge touching it is
// removed too. Removing the sole Start node is rejected; discard the
// whole graph instead.
func (g *Graph) RemoveNode(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if node.Kind == KindStart {
		return ErrRemoveStart
	}

	delete(g.nodes, id)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	return nil
}

// AddEdge validates the candidate edge against the committed graph and
// commits it if legal. Rejection returns *EdgeError and leaves the
// graph unchanged, with no partial mutation.
func (g *Graph) AddEdge(source, target NodeID, label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge := Edge{Source: source, Target: target, Label: label}
	if err := g.canConnect(edge); err != nil {
		return err
	}
	g.edges = append(g.edges, edge)
	return nil
}

// RemoveEdge deletes the edge for a (source, target) pair.
func (g *Graph) RemoveEdge(source, target NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, e := range g.edges {
		if e.Source == source && e.Target == target {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return nil
		}
	}
	return &EdgeError{Source: source, Target: target, Rule: ErrNodeNotFound}
}

// Node returns the node for an ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	cp := *n
	return &cp, true
}

// Nodes returns a snapshot of all nodes. Order is not guaranteed.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, *n)
	}
	return out
}

// Edges returns a snapshot of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.edges...)
}

// Outgoing returns the edges leaving a node, in insertion order.
func (g *Graph) Outgoing(id NodeID) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.outgoing(id)
}

// outgoing assumes the lock is held.
func (g *Graph) outgoing(id NodeID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// incoming assumes the lock is held.
func (g *Graph) incoming(id NodeID) []Edge {
	var in []Edge
	for _, e := range g.edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}

// Start returns the Start node's ID, if the graph has one.
func (g *Graph) Start() (NodeID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for id, n := range g.nodes {
		if n.Kind == KindStart {
			return id, true
		}
	}
	return "", false
}

// Clone returns a deep copy sharing nothing with the receiver.
// Loaded templates use this so edits to the copy never reach the
// stored snapshot.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cp := &Graph{
		name:    g.name,
		desc:    g.desc,
		created: g.created,
		nodes:   make(map[NodeID]*Node, len(g.nodes)),
		edges:   append([]Edge(nil), g.edges...),
		schemas: g.schemas,
	}
	for id, n := range g.nodes {
		node := *n
		cp.nodes[id] = &node
	}
	return cp
}
