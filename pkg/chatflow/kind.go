package chatflow

// NodeKind identifies the behavior of a flow node.
// The set of kinds is closed: graphs referencing a kind outside this
// enumeration fail validation with ErrUnknownKind.
type NodeKind string

// The full node taxonomy.
const (
	// KindStart is the single entry point of every flow.
	KindStart NodeKind = "start"

	// Message-producing kinds. These send content to the customer and
	// have exactly one outgoing edge (Button and List branch by label).
	KindText     NodeKind = "text"
	KindImage    NodeKind = "image"
	KindAudio    NodeKind = "audio"
	KindVideo    NodeKind = "video"
	KindDocument NodeKind = "document"
	KindButton   NodeKind = "button"
	KindList     NodeKind = "list"

	// Terminal action kinds. No outgoing edges are permitted.
	KindAssignAgent NodeKind = "assign_agent"
	KindDisableChat NodeKind = "disable_chat"

	// Non-terminal action kinds.
	KindAPIRequest NodeKind = "api_request"
	KindCondition  NodeKind = "condition"
)

// allKinds is the closed enumeration, used for membership checks.
var allKinds = map[NodeKind]bool{
	KindStart:       true,
	KindText:        true,
	KindImage:       true,
	KindAudio:       true,
	KindVideo:       true,
	KindDocument:    true,
	KindButton:      true,
	KindList:        true,
	KindAssignAgent: true,
	KindDisableChat: true,
	KindAPIRequest:  true,
	KindCondition:   true,
}

// Known reports whether k is part of the closed enumeration.
func (k NodeKind) Known() bool {
	return allKinds[k]
}

// MessageProducing reports whether k sends content to the customer.
// Only message-producing kinds are legal targets of the Start node.
func (k NodeKind) MessageProducing() bool {
	switch k {
	case KindText, KindImage, KindAudio, KindVideo, KindDocument, KindButton, KindList:
		return true
	}
	return false
}

// Terminal reports whether k permits no outgoing edges.
func (k NodeKind) Terminal() bool {
	return k == KindAssignAgent || k == KindDisableChat
}

// Branching reports whether k selects among multiple labeled edges
// instead of following a single unconditional edge.
func (k NodeKind) Branching() bool {
	return k == KindButton || k == KindList || k == KindCondition
}

// String implements fmt.Stringer.
func (k NodeKind) String() string {
	return string(k)
}
