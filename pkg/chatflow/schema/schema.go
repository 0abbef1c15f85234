package schema

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// FieldType is the expected type of a configuration field.
type FieldType string

// Supported field types.
const (
	TypeString     FieldType = "string"
	TypeNumber     FieldType = "number"
	TypeBool       FieldType = "bool"
	TypeDuration   FieldType = "duration"
	TypeStringMap  FieldType = "string_map"
	TypeObjectList FieldType = "object_list"
	TypeEnum       FieldType = "enum"
)

// FieldSpec describes one recognized configuration key.
type FieldSpec struct {
	// Name is the configuration key.
	Name string

	// Type is the expected value type.
	Type FieldType

	// Required marks the field as mandatory.
	Required bool

	// Allowed lists legal values for TypeEnum fields.
	Allowed []string

	// Elem describes the object shape for TypeObjectList fields.
	Elem []FieldSpec
}

// ErrUnknownKind indicates a kind outside the registered enumeration.
// Unknown kinds are always rejected, never silently ignored.
var ErrUnknownKind = errors.New("unknown node kind")

// Reason classifies a field validation failure.
type Reason string

// Field failure reasons.
const (
	ReasonMissingField Reason = "missing_field"
	ReasonTypeMismatch Reason = "type_mismatch"
	ReasonUnknownField Reason = "unknown_field"
)

// FieldError reports a single invalid configuration field.
type FieldError struct {
	// Kind is the node kind being validated.
	Kind string
	// Field is the offending key, using dotted/indexed paths for
	// nested fields (e.g. "buttons[1].label").
	Field string
	// Reason is why the field failed.
	Reason Reason
	// Want is the expected type.
	Want FieldType
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	switch e.Reason {
	case ReasonMissingField:
		return fmt.Sprintf("config for %s: missing field %q", e.Kind, e.Field)
	case ReasonUnknownField:
		return fmt.Sprintf("config for %s: unknown field %q", e.Kind, e.Field)
	}
	return fmt.Sprintf("config for %s: field %q must be %s", e.Kind, e.Field, e.Want)
}

// Registry maps node kinds to their field specifications.
// All methods are safe for concurrent use; mutation swaps a
// copy-on-write snapshot so readers never block or observe
// partial updates.
type Registry struct {
	mu    sync.Mutex
	specs map[string][]FieldSpec // current snapshot, replaced wholesale
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string][]FieldSpec)}
}

// Register adds or replaces the field specification for a kind.
func (r *Registry) Register(kind string, spec []FieldSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string][]FieldSpec, len(r.specs)+1)
	for k, v := range r.specs {
		next[k] = v
	}
	next[kind] = append([]FieldSpec(nil), spec...)
	r.specs = next
}

// Schema returns the field specification for a kind.
// Returns ErrUnknownKind for kinds outside the registry.
func (r *Registry) Schema(kind string) ([]FieldSpec, error) {
	r.mu.Lock()
	specs := r.specs
	r.mu.Unlock()

	spec, ok := specs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return spec, nil
}

// Kinds returns all registered kinds. Order is not guaranteed.
func (r *Registry) Kinds() []string {
	r.mu.Lock()
	specs := r.specs
	r.mu.Unlock()

	kinds := make([]string, 0, len(specs))
	for k := range specs {
		kinds = append(kinds, k)
	}
	return kinds
}

// Validate checks a raw configuration map against the kind's
// specification. It returns ErrUnknownKind for unregistered kinds,
// a *FieldError for the first invalid field, or nil.
//
// Unrecognized keys are rejected as well: the key set per kind is
// closed, so a typoed key fails loudly instead of being ignored.
func (r *Registry) Validate(kind string, config map[string]any) error {
	spec, err := r.Schema(kind)
	if err != nil {
		return err
	}
	return validateObject(kind, "", spec, config)
}

// validateObject validates one object level against a field spec list.
// prefix carries the dotted path for nested error reporting.
func validateObject(kind, prefix string, spec []FieldSpec, config map[string]any) error {
	known := make(map[string]FieldSpec, len(spec))
	for _, f := range spec {
		known[f.Name] = f
	}

	for key := range config {
		if _, ok := known[key]; !ok {
			return &FieldError{Kind: kind, Field: prefix + key, Reason: ReasonUnknownField}
		}
	}

	for _, f := range spec {
		val, present := config[f.Name]
		if !present || val == nil {
			if f.Required {
				return &FieldError{Kind: kind, Field: prefix + f.Name, Reason: ReasonMissingField, Want: f.Type}
			}
			continue
		}
		if err := validateValue(kind, prefix+f.Name, f, val); err != nil {
			return err
		}
	}
	return nil
}

// validateValue checks a single value against its field spec.
func validateValue(kind, path string, f FieldSpec, val any) error {
	mismatch := &FieldError{Kind: kind, Field: path, Reason: ReasonTypeMismatch, Want: f.Type}

	switch f.Type {
	case TypeString:
		if _, ok := val.(string); !ok {
			return mismatch
		}

	case TypeNumber:
		switch val.(type) {
		case int, int64, float64:
		default:
			return mismatch
		}

	case TypeBool:
		if _, ok := val.(bool); !ok {
			return mismatch
		}

	case TypeDuration:
		// Accepts a Go duration string or a number of seconds.
		switch v := val.(type) {
		case string:
			if _, err := time.ParseDuration(v); err != nil {
				return mismatch
			}
		case int, int64, float64:
		case time.Duration:
		default:
			return mismatch
		}

	case TypeStringMap:
		m, ok := val.(map[string]any)
		if !ok {
			return mismatch
		}
		for k, v := range m {
			if _, ok := v.(string); !ok {
				return &FieldError{Kind: kind, Field: path + "." + k, Reason: ReasonTypeMismatch, Want: TypeString}
			}
		}

	case TypeEnum:
		s, ok := val.(string)
		if !ok {
			return mismatch
		}
		for _, allowed := range f.Allowed {
			if s == allowed {
				return nil
			}
		}
		return mismatch

	case TypeObjectList:
		list, ok := val.([]any)
		if !ok {
			return mismatch
		}
		for i, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				return &FieldError{Kind: kind, Field: fmt.Sprintf("%s[%d]", path, i), Reason: ReasonTypeMismatch, Want: f.Type}
			}
			if err := validateObject(kind, fmt.Sprintf("%s[%d].", path, i), f.Elem, obj); err != nil {
				return err
			}
		}

	default:
		return mismatch
	}
	return nil
}
