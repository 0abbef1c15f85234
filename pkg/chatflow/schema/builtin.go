package schema

import "sync"

// Kind names understood by the built-in registry. These mirror the
// engine's closed node taxonomy; the registry itself is string-keyed
// so it can be extended at deploy time without touching the engine.
const (
	KindStart       = "start"
	KindText        = "text"
	KindImage       = "image"
	KindAudio       = "audio"
	KindVideo       = "video"
	KindDocument    = "document"
	KindButton      = "button"
	KindList        = "list"
	KindAssignAgent = "assign_agent"
	KindDisableChat = "disable_chat"
	KindAPIRequest  = "api_request"
	KindCondition   = "condition"
)

// Resume policy wire values for disable_chat. The typed constants
// live with the node configs; these only feed the enum spec.
const (
	resumeNotify   = "notify"
	resumeContinue = "continue"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry preloaded with every built-in kind.
// The same instance is returned on every call.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// Validate checks a configuration against the default registry.
func Validate(kind string, config map[string]any) error {
	return Default().Validate(kind, config)
}

func registerBuiltins(r *Registry) {
	mediaSpec := []FieldSpec{
		{Name: "url", Type: TypeString, Required: true},
		{Name: "caption", Type: TypeString},
	}

	r.Register(KindStart, nil)

	r.Register(KindText, []FieldSpec{
		{Name: "body", Type: TypeString, Required: true},
	})

	r.Register(KindImage, mediaSpec)
	r.Register(KindAudio, mediaSpec)
	r.Register(KindVideo, mediaSpec)
	r.Register(KindDocument, mediaSpec)

	r.Register(KindButton, []FieldSpec{
		{Name: "prompt", Type: TypeString, Required: true},
		{Name: "buttons", Type: TypeObjectList, Required: true, Elem: []FieldSpec{
			{Name: "label", Type: TypeString, Required: true},
			{Name: "target_kind", Type: TypeString, Required: true},
			{Name: "target_value", Type: TypeString, Required: true},
		}},
	})

	r.Register(KindList, []FieldSpec{
		{Name: "prompt", Type: TypeString, Required: true},
		{Name: "items", Type: TypeObjectList, Required: true, Elem: []FieldSpec{
			{Name: "title", Type: TypeString, Required: true},
			{Name: "description", Type: TypeString},
		}},
	})

	r.Register(KindAssignAgent, []FieldSpec{
		{Name: "agent_id", Type: TypeString},
		{Name: "note", Type: TypeString},
	})

	r.Register(KindDisableChat, []FieldSpec{
		{Name: "duration", Type: TypeDuration, Required: true},
		{Name: "resume_policy", Type: TypeEnum, Required: true, Allowed: []string{resumeNotify, resumeContinue}},
	})

	r.Register(KindAPIRequest, []FieldSpec{
		{Name: "method", Type: TypeEnum, Required: true, Allowed: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
		{Name: "url", Type: TypeString, Required: true},
		{Name: "headers", Type: TypeStringMap},
		{Name: "body", Type: TypeString},
		{Name: "response_mapping", Type: TypeStringMap},
		{Name: "timeout", Type: TypeDuration},
	})

	r.Register(KindCondition, []FieldSpec{
		{Name: "cases", Type: TypeObjectList, Required: true, Elem: []FieldSpec{
			{Name: "when", Type: TypeString, Required: true},
			{Name: "label", Type: TypeString, Required: true},
		}},
		{Name: "default_label", Type: TypeString, Required: true},
	})
}
