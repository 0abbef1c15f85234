package chatflow

import (
	"fmt"
	"time"
)

// NodeID is the opaque identifier of a node within one graph.
type NodeID string

// Position is the canvas placement of a node. Presentation only;
// it never influences validation or execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one step in a flow. Its Config is the tagged variant for
// Kind: exactly one config struct exists per kind, decoded from the
// raw authoring map only after schema validation has accepted it.
type Node struct {
	ID       NodeID     `json:"id"`
	Kind     NodeKind   `json:"kind"`
	Config   NodeConfig `json:"config"`
	Position Position   `json:"position"`
}

// Edge is a directed transition between two nodes. Label selects the
// edge when the source node branches (button index, list item title,
// condition case label, or "default").
type Edge struct {
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
	Label  string `json:"label,omitempty"`
}

// DefaultLabel marks the fallback edge of a Condition node.
const DefaultLabel = "default"

// NodeConfig is implemented by every kind-specific config struct.
type NodeConfig interface {
	// ConfigKind returns the node kind this config belongs to.
	ConfigKind() NodeKind
}

// StartConfig is the (empty) configuration of the Start node.
type StartConfig struct{}

// TextConfig configures a free-form text message.
type TextConfig struct {
	Body string `json:"body"`
}

// MediaConfig configures Image, Audio, Video and Document nodes.
type MediaConfig struct {
	kind    NodeKind
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// ButtonOption is one choice in a Button node.
type ButtonOption struct {
	Label       string `json:"label"`
	TargetKind  string `json:"target_kind"`
	TargetValue string `json:"target_value"`
}

// ButtonConfig configures a Button node. Each option corresponds to
// one labeled outgoing edge.
type ButtonConfig struct {
	Prompt  string         `json:"prompt"`
	Buttons []ButtonOption `json:"buttons"`
}

// ListItem is one row in a List node.
type ListItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListConfig configures a List node.
type ListConfig struct {
	Prompt string     `json:"prompt"`
	Items  []ListItem `json:"items"`
}

// AssignAgentConfig configures handover to a human agent.
// An empty AgentID means routing is decided by the agent pool.
type AssignAgentConfig struct {
	AgentID string `json:"agent_id,omitempty"`
	Note    string `json:"note,omitempty"`
}

// ResumePolicy controls what happens when a disabled chat re-opens.
type ResumePolicy string

// Resume policies.
const (
	ResumeNotify   ResumePolicy = "notify"
	ResumeContinue ResumePolicy = "continue"
)

// DisableChatConfig configures chat suspension.
type DisableChatConfig struct {
	Duration     time.Duration `json:"duration"`
	ResumePolicy ResumePolicy  `json:"resume_policy"`
}

// APIRequestConfig configures an outbound HTTP call. ResponseMapping
// maps session variable names to dotted response paths.
type APIRequestConfig struct {
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body,omitempty"`
	ResponseMapping map[string]string `json:"response_mapping,omitempty"`
	Timeout         time.Duration     `json:"timeout,omitempty"`
}

// ConditionCase is one predicate of a Condition node. When the
// expression evaluates truthy, the edge labeled Label is followed.
type ConditionCase struct {
	When  string `json:"when"`
	Label string `json:"label"`
}

// ConditionConfig configures a Condition node. Cases are evaluated
// in order; DefaultLabel names the edge taken when none match.
type ConditionConfig struct {
	Cases        []ConditionCase `json:"cases"`
	DefaultLabel string          `json:"default_label"`
}

// ConfigKind implementations.
func (StartConfig) ConfigKind() NodeKind { return KindStart }
func (TextConfig) ConfigKind() NodeKind { return KindText }
func (c MediaConfig) ConfigKind() NodeKind { return c.kind }
func (ButtonConfig) ConfigKind() NodeKind { return KindButton }
func (ListConfig) ConfigKind() NodeKind { return KindList }
func (AssignAgentConfig) ConfigKind() NodeKind { return KindAssignAgent }
func (DisableChatConfig) ConfigKind() NodeKind { return KindDisableChat }
func (c APIRequestConfig) ConfigKind() NodeKind { return KindAPIRequest }
func (ConditionConfig) ConfigKind() NodeKind { return KindCondition }

// decodeConfig builds the typed config for a kind from a raw map that
// has already passed schema validation. The raw map is the authoring
// representation (JSON object); decode is total for validated input.
func decodeConfig(kind NodeKind, raw map[string]any) (NodeConfig, error) {
	switch kind {
	case KindStart:
		return StartConfig{}, nil

	case KindText:
		return TextConfig{Body: rawString(raw, "body")}, nil

	case KindImage, KindAudio, KindVideo, KindDocument:
		return MediaConfig{
			kind:    kind,
			URL:     rawString(raw, "url"),
			Caption: rawString(raw, "caption"),
		}, nil

	case KindButton:
		cfg := ButtonConfig{Prompt: rawString(raw, "prompt")}
		for _, item := range rawObjects(raw, "buttons") {
			cfg.Buttons = append(cfg.Buttons, ButtonOption{
				Label:       rawString(item, "label"),
				TargetKind:  rawString(item, "target_kind"),
				TargetValue: rawString(item, "target_value"),
			})
		}
		return cfg, nil

	case KindList:
		cfg := ListConfig{Prompt: rawString(raw, "prompt")}
		for _, item := range rawObjects(raw, "items") {
			cfg.Items = append(cfg.Items, ListItem{
				Title:       rawString(item, "title"),
				Description: rawString(item, "description"),
			})
		}
		return cfg, nil

	case KindAssignAgent:
		return AssignAgentConfig{
			AgentID: rawString(raw, "agent_id"),
			Note:    rawString(raw, "note"),
		}, nil

	case KindDisableChat:
		return DisableChatConfig{
			Duration:     rawDuration(raw, "duration"),
			ResumePolicy: ResumePolicy(rawString(raw, "resume_policy")),
		}, nil

	case KindAPIRequest:
		return APIRequestConfig{
			Method:          rawString(raw, "method"),
			URL:             rawString(raw, "url"),
			Headers:         rawStringMap(raw, "headers"),
			Body:            rawString(raw, "body"),
			ResponseMapping: rawStringMap(raw, "response_mapping"),
			Timeout:         rawDuration(raw, "timeout"),
		}, nil

	case KindCondition:
		cfg := ConditionConfig{DefaultLabel: rawString(raw, "default_label")}
		for _, item := range rawObjects(raw, "cases") {
			cfg.Cases = append(cfg.Cases, ConditionCase{
				When:  rawString(item, "when"),
				Label: rawString(item, "label"),
			})
		}
		return cfg, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func rawString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func rawDuration(m map[string]any, key string) time.Duration {
	switch v := m[key].(type) {
	case string:
		d, _ := time.ParseDuration(v)
		return d
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return 0
}

func rawStringMap(m map[string]any, key string) map[string]string {
	obj, ok := m[key].(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func rawObjects(m map[string]any, key string) []map[string]any {
	list, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
