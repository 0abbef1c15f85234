package chatflow

import (
	"context"
	"time"

	"github.com/waveline/chatflow/pkg/chatflow/session"
)

// MessagePayload is the platform-agnostic message the interpreter asks
// the sink to deliver. Which fields are set depends on Kind.
type MessagePayload struct {
	// Kind is the node kind that produced the message.
	Kind NodeKind

	// Body is the text of a Text message.
	Body string

	// URL and Caption carry media messages (Image, Audio, Video,
	// Document).
	URL     string
	Caption string

	// Prompt and Choices carry interactive messages (Button, List).
	Prompt  string
	Choices []Choice
}

// Choice is one selectable option on a Button or List message. Label
// doubles as the edge label the flow follows once the customer picks.
type Choice struct {
	Label       string
	Description string
}

// HTTPRequest describes the outbound call of an ApiRequest node.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// HTTPResponse is the sink's view of the call result. Fields holds the
// decoded response body for responseMapping lookups.
type HTTPResponse struct {
	Status int
	Fields map[string]any
}

// ActionSink performs the real side effects the engine decides on. The
// engine never speaks platform wire protocols itself; it calls these.
//
// Implementations must be safe for concurrent use: distinct sessions
// advance concurrently and share one sink.
type ActionSink interface {
	// Send delivers a message to a recipient on a platform.
	Send(ctx context.Context, platform session.Platform, recipient string, payload MessagePayload) error

	// CallHTTP performs the outbound call of an ApiRequest node.
	CallHTTP(ctx context.Context, req HTTPRequest) (HTTPResponse, error)

	// AssignToAgent hands the conversation to a human agent, passing
	// the collected conversation variables as context.
	AssignToAgent(ctx context.Context, agentID string, convContext map[string]any) error

	// DisableChat suspends automated replies for the recipient for
	// the given duration. The resume policy names what happens when
	// the duration elapses (see ResumeNotify and ResumeContinue).
	DisableChat(ctx context.Context, platform session.Platform, recipient string, duration time.Duration, resumePolicy string) error
}
