package chatflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCanConnect_StartTargets tests that Start may only lead to
// message-producing kinds, for every kind.
func TestCanConnect_StartTargets(t *testing.T) {
	targets := []struct {
		kind   NodeKind
		config map[string]any
		legal  bool
	}{
		{KindText, textConfig("hi"), true},
		{KindImage, map[string]any{"url": "https://cdn.example/pic.png"}, true},
		{KindAudio, map[string]any{"url": "https://cdn.example/a.ogg"}, true},
		{KindVideo, map[string]any{"url": "https://cdn.example/v.mp4"}, true},
		{KindDocument, map[string]any{"url": "https://cdn.example/d.pdf"}, true},
		{KindButton, buttonConfig("pick one", "A"), true},
		{KindList, map[string]any{"prompt": "pick", "items": []any{
			map[string]any{"title": "A"},
		}}, true},
		{KindAssignAgent, agentConfig("agent-1"), false},
		{KindDisableChat, map[string]any{"duration": "1h", "resume_policy": "notify"}, false},
		{KindAPIRequest, map[string]any{"method": "GET", "url": "https://api.example"}, false},
		{KindCondition, map[string]any{
			"cases":         []any{map[string]any{"when": "x == 1", "label": "yes"}},
			"default_label": DefaultLabel,
		}, false},
	}

	for _, tc := range targets {
		t.Run(string(tc.kind), func(t *testing.T) {
			g := NewGraph("g", "")
			start := mustAddNode(t, g, KindStart, nil)
			target := mustAddNode(t, g, tc.kind, tc.config)

			err := g.AddEdge(start, target, DefaultLabel)
			if tc.legal {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrStartTarget)
			}
		})
	}
}

// TestCanConnect_TerminalSource tests that AssignAgent and DisableChat
// never grow outgoing edges.
func TestCanConnect_TerminalSource(t *testing.T) {
	for _, kind := range []NodeKind{KindAssignAgent, KindDisableChat} {
		t.Run(string(kind), func(t *testing.T) {
			g := NewGraph("g", "")
			cfg := agentConfig("agent-1")
			if kind == KindDisableChat {
				cfg = map[string]any{"duration": "1h", "resume_policy": "continue"}
			}
			terminal := mustAddNode(t, g, kind, cfg)
			text := mustAddNode(t, g, KindText, textConfig("hi"))

			err := g.AddEdge(terminal, text, DefaultLabel)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTerminalSource)
		})
	}
}

// TestCanConnect_SelfLoop tests self-loop rejection.
func TestCanConnect_SelfLoop(t *testing.T) {
	g := NewGraph("g", "")
	text := mustAddNode(t, g, KindText, textConfig("hi"))

	err := g.AddEdge(text, text, DefaultLabel)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelfLoop)
}

// TestCanConnect_MissingEndpoints tests both endpoints must exist.
func TestCanConnect_MissingEndpoints(t *testing.T) {
	g := NewGraph("g", "")
	text := mustAddNode(t, g, KindText, textConfig("hi"))

	assert.ErrorIs(t, g.AddEdge("ghost", text, DefaultLabel), ErrNodeNotFound)
	assert.ErrorIs(t, g.AddEdge(text, "ghost", DefaultLabel), ErrNodeNotFound)
}

// TestCanConnect_DuplicateEdge tests one edge per (source, target) pair.
func TestCanConnect_DuplicateEdge(t *testing.T) {
	g := NewGraph("g", "")
	a := mustAddNode(t, g, KindText, textConfig("a"))
	b := mustAddNode(t, g, KindText, textConfig("b"))
	mustAddEdge(t, g, a, b, DefaultLabel)

	err := g.AddEdge(a, b, "other")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEdge)
}

// TestCanConnect_SingleEdge tests that linear kinds never grow a
// second outgoing edge while branching kinds fan out freely.
func TestCanConnect_SingleEdge(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		g := NewGraph("g", "")
		hi := mustAddNode(t, g, KindText, textConfig("hi"))
		first := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-1"))
		second := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-2"))
		mustAddEdge(t, g, hi, first, DefaultLabel)

		err := g.AddEdge(hi, second, "other")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSingleEdge)
		assert.Len(t, g.Edges(), 1)
	})

	t.Run("button fans out", func(t *testing.T) {
		g := NewGraph("g", "")
		button := mustAddNode(t, g, KindButton, buttonConfig("pick", "A", "B"))
		a := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-a"))
		b := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-b"))

		mustAddEdge(t, g, button, a, "A")
		assert.NoError(t, g.AddEdge(button, b, "B"))
	})
}

// TestAudit_SingleEdge tests the whole-graph sweep catches a linear
// node with two outgoing edges, e.g. in a hand-edited document.
func TestAudit_SingleEdge(t *testing.T) {
	g := NewGraph("g", "")
	start := mustAddNode(t, g, KindStart, nil)
	hi := mustAddNode(t, g, KindText, textConfig("hi"))
	first := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-1"))
	second := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-2"))
	mustAddEdge(t, g, start, hi, DefaultLabel)
	mustAddEdge(t, g, hi, first, DefaultLabel)

	// AddEdge refuses this, so splice the edge in as a loaded document
	// would carry it.
	g.edges = append(g.edges, Edge{Source: hi, Target: second, Label: "other"})

	violations := Audit(g)
	require.Len(t, violations, 1)
	assert.ErrorIs(t, violations[0], ErrSingleEdge)
}

// TestCanConnect_StartIncoming tests no edge may target Start.
func TestCanConnect_StartIncoming(t *testing.T) {
	g := NewGraph("g", "")
	start := mustAddNode(t, g, KindStart, nil)
	text := mustAddNode(t, g, KindText, textConfig("hi"))

	err := g.AddEdge(text, start, DefaultLabel)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartIncoming)
}

// TestCanConnect_Cycle tests cycle rejection among non-terminal nodes.
func TestCanConnect_Cycle(t *testing.T) {
	g := NewGraph("g", "")
	a := mustAddNode(t, g, KindText, textConfig("a"))
	b := mustAddNode(t, g, KindText, textConfig("b"))
	c := mustAddNode(t, g, KindText, textConfig("c"))
	mustAddEdge(t, g, a, b, DefaultLabel)
	mustAddEdge(t, g, b, c, DefaultLabel)

	err := g.AddEdge(c, a, DefaultLabel)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)

	// The rejection left the graph acyclic.
	assert.Nil(t, DetectCycle(g))
	assert.Len(t, g.Edges(), 2)
}

// TestCanConnect_RejectionIsAtomic tests a rejected edge never
// partially mutates the graph.
func TestCanConnect_RejectionIsAtomic(t *testing.T) {
	g, _, hi, agent := linearGraph(t)
	before := g.Edges()

	require.Error(t, g.AddEdge(agent, hi, DefaultLabel))
	assert.Equal(t, before, g.Edges())
}

// TestDetectCycle_NeverCreatable tests that no sequence of legal
// AddEdge calls can produce a cycle.
func TestDetectCycle_NeverCreatable(t *testing.T) {
	g := NewGraph("g", "")
	var ids []NodeID
	for i := 0; i < 6; i++ {
		ids = append(ids, mustAddNode(t, g, KindText, textConfig("n")))
	}

	// Try every ordered pair; keep whatever the validator lets through.
	for _, src := range ids {
		for _, dst := range ids {
			_ = g.AddEdge(src, dst, DefaultLabel)
		}
	}

	assert.Nil(t, DetectCycle(g))
}

// TestValidation_ButtonScenario walks the spec's button flow: two
// labeled edges into terminal nodes succeed, an edge out of a terminal
// node is rejected.
func TestValidation_ButtonScenario(t *testing.T) {
	g := NewGraph("support", "")
	start := mustAddNode(t, g, KindStart, nil)
	hi := mustAddNode(t, g, KindText, textConfig("Hi"))
	button := mustAddNode(t, g, KindButton, buttonConfig("How can we help?", "Sales", "Support"))
	sales := mustAddNode(t, g, KindAssignAgent, agentConfig("sales-team"))
	support := mustAddNode(t, g, KindAssignAgent, agentConfig("support-team"))

	mustAddEdge(t, g, start, hi, DefaultLabel)
	mustAddEdge(t, g, hi, button, DefaultLabel)
	mustAddEdge(t, g, button, sales, "Sales")
	mustAddEdge(t, g, button, support, "Support")

	text := mustAddNode(t, g, KindText, textConfig("anything else?"))
	err := g.AddEdge(sales, text, DefaultLabel)
	require.Error(t, err)

	var edgeErr *EdgeError
	require.ErrorAs(t, err, &edgeErr)
	assert.ErrorIs(t, edgeErr, ErrTerminalSource)
}

// TestAudit_ConditionDefaultEdge tests the whole-graph invariant that
// every Condition node carries a default edge.
func TestAudit_ConditionDefaultEdge(t *testing.T) {
	g := NewGraph("g", "")
	start := mustAddNode(t, g, KindStart, nil)
	hi := mustAddNode(t, g, KindText, textConfig("hi"))
	cond := mustAddNode(t, g, KindCondition, map[string]any{
		"cases":         []any{map[string]any{"when": "vip == true", "label": "vip"}},
		"default_label": DefaultLabel,
	})
	vip := mustAddNode(t, g, KindAssignAgent, agentConfig("vip-team"))

	mustAddEdge(t, g, start, hi, DefaultLabel)
	mustAddEdge(t, g, hi, cond, DefaultLabel)
	mustAddEdge(t, g, cond, vip, "vip")

	violations := Audit(g)
	require.Len(t, violations, 1)
	assert.ErrorIs(t, violations[0], ErrConditionDefault)

	fallback := mustAddNode(t, g, KindAssignAgent, agentConfig("agent-1"))
	mustAddEdge(t, g, cond, fallback, DefaultLabel)
	assert.Empty(t, Audit(g))
}

// TestAudit_StartRequired tests a graph needs exactly one Start node.
func TestAudit_StartRequired(t *testing.T) {
	g := NewGraph("g", "")
	mustAddNode(t, g, KindText, textConfig("hi"))

	violations := Audit(g)
	require.NotEmpty(t, violations)
	assert.ErrorIs(t, violations[0], ErrStartRequired)
}

// TestValidateGraph tests the bytes-in validation surface.
func TestValidateGraph(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		g, _, _, _ := linearGraph(t)
		data, err := Serialize(g)
		require.NoError(t, err)

		assert.Empty(t, ValidateGraph(data))
	})

	t.Run("broken json", func(t *testing.T) {
		errs := ValidateGraph([]byte("{nope"))
		require.Len(t, errs, 1)
	})

	t.Run("missing start", func(t *testing.T) {
		g := NewGraph("g", "")
		start := mustAddNode(t, g, KindStart, nil)
		hi := mustAddNode(t, g, KindText, textConfig("hi"))
		mustAddEdge(t, g, start, hi, DefaultLabel)

		data, err := Serialize(g)
		require.NoError(t, err)

		// Corrupt the document by renaming the start kind.
		corrupted := strings.Replace(string(data), `"kind":"start"`, `"kind":"carousel"`, 1)
		errs := ValidateGraph([]byte(corrupted))
		assert.NotEmpty(t, errs)
	})
}
