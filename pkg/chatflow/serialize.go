package chatflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DocumentVersion is the current flow document format version.
const DocumentVersion = 1

// flowDoc is the structural wire form of a graph: node list, edge
// list and metadata. Configs travel as raw maps so the document is
// stable against config struct evolution.
type flowDoc struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Nodes       []nodeDoc `json:"nodes"`
	Edges       []Edge    `json:"edges"`
}

type nodeDoc struct {
	ID       NodeID         `json:"id"`
	Kind     NodeKind       `json:"kind"`
	Config   map[string]any `json:"config,omitempty"`
	Position Position       `json:"position"`
}

// Serialize encodes the graph into its structural JSON document.
// The encoding is lossless: Deserialize(Serialize(g)) reproduces g.
// Nodes are emitted in ID order so output is deterministic.
func Serialize(g *Graph) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := flowDoc{
		Version:     DocumentVersion,
		Name:        g.name,
		Description: g.desc,
		CreatedAt:   g.created,
		Nodes:       make([]nodeDoc, 0, len(g.nodes)),
		Edges:       append([]Edge(nil), g.edges...),
	}

	for _, n := range g.nodes {
		doc.Nodes = append(doc.Nodes, nodeDoc{
			ID:       n.ID,
			Kind:     n.Kind,
			Config:   encodeConfig(n.Config),
			Position: n.Position,
		})
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })

	return json.Marshal(doc)
}

// Deserialize decodes a flow document and rebuilds the graph,
// re-validating every node config and every structural invariant.
// An invalid document fails closed with a descriptive error; it is
// never repaired. The load is transactional: either the whole graph
// is legal or nothing is returned.
func Deserialize(data []byte) (*Graph, error) {
	var doc flowDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse flow document: %w", err)
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("unsupported flow document version %d", doc.Version)
	}

	g := NewGraph(doc.Name, doc.Description, WithCreatedAt(doc.CreatedAt))

	for _, n := range doc.Nodes {
		if err := g.addNode(n.ID, n.Kind, n.Config, n.Position); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}

	// Edges are installed raw, then the whole graph is audited, so a
	// bad document reports every violation instead of only the first.
	g.mu.Lock()
	g.edges = append([]Edge(nil), doc.Edges...)
	violations := g.audit()
	g.mu.Unlock()

	if err := joinAudit(violations); err != nil {
		return nil, err
	}
	return g, nil
}

// encodeConfig converts a typed config back into its raw authoring
// map, the exact inverse of decodeConfig. Durations are encoded as
// Go duration strings.
func encodeConfig(cfg NodeConfig) map[string]any {
	switch c := cfg.(type) {
	case StartConfig:
		return nil

	case TextConfig:
		return map[string]any{"body": c.Body}

	case MediaConfig:
		m := map[string]any{"url": c.URL}
		if c.Caption != "" {
			m["caption"] = c.Caption
		}
		return m

	case ButtonConfig:
		buttons := make([]any, 0, len(c.Buttons))
		for _, b := range c.Buttons {
			buttons = append(buttons, map[string]any{
				"label":        b.Label,
				"target_kind":  b.TargetKind,
				"target_value": b.TargetValue,
			})
		}
		return map[string]any{"prompt": c.Prompt, "buttons": buttons}

	case ListConfig:
		items := make([]any, 0, len(c.Items))
		for _, it := range c.Items {
			item := map[string]any{"title": it.Title}
			if it.Description != "" {
				item["description"] = it.Description
			}
			items = append(items, item)
		}
		return map[string]any{"prompt": c.Prompt, "items": items}

	case AssignAgentConfig:
		m := map[string]any{}
		if c.AgentID != "" {
			m["agent_id"] = c.AgentID
		}
		if c.Note != "" {
			m["note"] = c.Note
		}
		return m

	case DisableChatConfig:
		return map[string]any{
			"duration":      c.Duration.String(),
			"resume_policy": string(c.ResumePolicy),
		}

	case APIRequestConfig:
		m := map[string]any{"method": c.Method, "url": c.URL}
		if len(c.Headers) > 0 {
			m["headers"] = stringMapToAny(c.Headers)
		}
		if c.Body != "" {
			m["body"] = c.Body
		}
		if len(c.ResponseMapping) > 0 {
			m["response_mapping"] = stringMapToAny(c.ResponseMapping)
		}
		if c.Timeout > 0 {
			m["timeout"] = c.Timeout.String()
		}
		return m

	case ConditionConfig:
		cases := make([]any, 0, len(c.Cases))
		for _, cc := range c.Cases {
			cases = append(cases, map[string]any{"when": cc.When, "label": cc.Label})
		}
		return map[string]any{"cases": cases, "default_label": c.DefaultLabel}
	}

	return nil
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
