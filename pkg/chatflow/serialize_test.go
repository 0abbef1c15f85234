package chatflow

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullGraph builds a graph exercising every node kind.
func fullGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("everything", "one of each kind")

	start := mustAddNode(t, g, KindStart, nil)
	text := mustAddNode(t, g, KindText, textConfig("welcome"))
	image := mustAddNode(t, g, KindImage, map[string]any{
		"url":     "https://cdn.example/logo.png",
		"caption": "our logo",
	})
	button := mustAddNode(t, g, KindButton, buttonConfig("pick", "Sales", "Docs"))
	list := mustAddNode(t, g, KindList, map[string]any{
		"prompt": "browse",
		"items": []any{
			map[string]any{"title": "Pricing", "description": "plans and costs"},
			map[string]any{"title": "Features"},
		},
	})
	api := mustAddNode(t, g, KindAPIRequest, map[string]any{
		"method":           "POST",
		"url":              "https://api.example/lookup",
		"headers":          map[string]any{"Authorization": "Bearer t"},
		"body":             `{"q":"{{phone}}"}`,
		"response_mapping": map[string]any{"tier": "customer.tier"},
		"timeout":          "3s",
	})
	cond := mustAddNode(t, g, KindCondition, map[string]any{
		"cases":         []any{map[string]any{"when": `tier == "vip"`, "label": "vip"}},
		"default_label": DefaultLabel,
	})
	vip := mustAddNode(t, g, KindAssignAgent, agentConfig("vip-team"))
	disable := mustAddNode(t, g, KindDisableChat, map[string]any{
		"duration":      "2h",
		"resume_policy": "notify",
	})
	doc := mustAddNode(t, g, KindDocument, map[string]any{"url": "https://cdn.example/terms.pdf"})

	mustAddEdge(t, g, start, text, DefaultLabel)
	mustAddEdge(t, g, text, button, DefaultLabel)
	mustAddEdge(t, g, button, image, "Sales")
	mustAddEdge(t, g, button, doc, "Docs")
	mustAddEdge(t, g, image, list, DefaultLabel)
	mustAddEdge(t, g, list, api, "Pricing")
	mustAddEdge(t, g, api, cond, DefaultLabel)
	mustAddEdge(t, g, cond, vip, "vip")
	mustAddEdge(t, g, cond, disable, DefaultLabel)
	return g
}

// sortedNodes returns nodes ordered by ID for comparison.
func sortedNodes(g *Graph) []Node {
	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// TestSerialize_RoundTrip tests Deserialize(Serialize(g)) reproduces g.
func TestSerialize_RoundTrip(t *testing.T) {
	g := fullGraph(t)

	data, err := Serialize(g)
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, g.Name(), got.Name())
	assert.Equal(t, g.Description(), got.Description())
	assert.True(t, g.CreatedAt().Equal(got.CreatedAt()))
	assert.Equal(t, sortedNodes(g), sortedNodes(got))
	assert.Equal(t, g.Edges(), got.Edges())
}

// TestSerialize_Deterministic tests repeated serialization is stable.
func TestSerialize_Deterministic(t *testing.T) {
	g := fullGraph(t)

	first, err := Serialize(g)
	require.NoError(t, err)
	second, err := Serialize(g)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestDeserialize_VersionMismatch tests unknown document versions are
// rejected, not guessed at.
func TestDeserialize_VersionMismatch(t *testing.T) {
	_, err := Deserialize([]byte(`{"version":99,"name":"g","nodes":[],"edges":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

// TestDeserialize_FailsClosed tests a document breaking several
// invariants reports them all and yields no graph.
func TestDeserialize_FailsClosed(t *testing.T) {
	g, _, hi, agent := linearGraph(t)
	data, err := Serialize(g)
	require.NoError(t, err)

	// Tack on an edge out of the terminal node and a duplicate.
	doc := string(data)
	extra := `{"source":"` + string(agent) + `","target":"` + string(hi) + `","label":"default"},` +
		`{"source":"` + string(hi) + `","target":"` + string(agent) + `","label":"default"},`
	doc = strings.Replace(doc, `"edges":[`, `"edges":[`+extra, 1)

	_, err = Deserialize([]byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminalSource)
	assert.ErrorIs(t, err, ErrDuplicateEdge)
}

// TestDeserialize_BadConfig tests node configs are re-validated on load.
func TestDeserialize_BadConfig(t *testing.T) {
	g := NewGraph("g", "")
	start := mustAddNode(t, g, KindStart, nil)
	hi := mustAddNode(t, g, KindText, textConfig("hi"))
	mustAddEdge(t, g, start, hi, DefaultLabel)

	data, err := Serialize(g)
	require.NoError(t, err)

	doc := strings.Replace(string(data), `"body":"hi"`, `"smiley":"yes"`, 1)
	_, err = Deserialize([]byte(doc))
	require.Error(t, err)

	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}
