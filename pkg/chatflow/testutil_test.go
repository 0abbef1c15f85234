package chatflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mustAddNode adds a node or fails the test.
func mustAddNode(t *testing.T, g *Graph, kind NodeKind, cfg map[string]any) NodeID {
	t.Helper()
	id, err := g.AddNode(kind, cfg, Position{})
	require.NoError(t, err)
	return id
}

// mustAddEdge adds an edge or fails the test.
func mustAddEdge(t *testing.T, g *Graph, source, target NodeID, label string) {
	t.Helper()
	require.NoError(t, g.AddEdge(source, target, label))
}

// textConfig returns a minimal valid Text config.
func textConfig(body string) map[string]any {
	return map[string]any{"body": body}
}

// buttonConfig returns a valid Button config with the given labels.
func buttonConfig(prompt string, labels ...string) map[string]any {
	buttons := make([]any, len(labels))
	for i, l := range labels {
		buttons[i] = map[string]any{
			"label":        l,
			"target_kind":  "node",
			"target_value": "",
		}
	}
	return map[string]any{"prompt": prompt, "buttons": buttons}
}

// agentConfig returns a valid AssignAgent config.
func agentConfig(agentID string) map[string]any {
	return map[string]any{"agent_id": agentID}
}

// linearGraph builds Start -> Text("Hi") -> AssignAgent and returns
// the graph and the three node ids.
func linearGraph(t *testing.T) (*Graph, NodeID, NodeID, NodeID) {
	t.Helper()
	g := NewGraph("welcome", "greets new customers")
	start := mustAddNode(t, g, KindStart, nil)
	hi := mustAddNode(t, g, KindText, textConfig("Hi"))
	agent := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-1"))
	mustAddEdge(t, g, start, hi, DefaultLabel)
	mustAddEdge(t, g, hi, agent, DefaultLabel)
	return g, start, hi, agent
}
