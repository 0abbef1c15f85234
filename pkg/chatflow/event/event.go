// Package event distributes session lifecycle events to subscribers.
//
// The session window timer publishes session.active ticks and a
// single session.expired per window; display layers and transport
// adapters subscribe without touching timer internals. Delivery is
// asynchronous: a slow subscriber drops events rather than stalling
// a timer loop.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Well-known event types.
const (
	// TypeSessionActive carries the remaining window duration, once
	// per tick while the session is inside its response window.
	TypeSessionActive = "session.active"

	// TypeSessionExpired is published exactly once when a session's
	// window closes.
	TypeSessionExpired = "session.expired"

	// TypeSessionArmed is published when a session (re-)arms.
	TypeSessionArmed = "session.armed"
)

// Event is an immutable occurrence published on the bus.
type Event interface {
	// ID uniquely identifies this event instance.
	ID() string
	// Type is the event type string (e.g. "session.expired").
	Type() string
	// Timestamp is when the event occurred.
	Timestamp() time.Time
	// Data is the payload.
	Data() any
}

// BaseEvent is the generic Event implementation.
type BaseEvent[T any] struct {
	EventID   string    `json:"id"`
	EventType string    `json:"type"`
	At        time.Time `json:"timestamp"`
	Payload   T         `json:"payload"`
}

// New creates an event of the given type.
func New[T any](eventType string, payload T) *BaseEvent[T] {
	return &BaseEvent[T]{
		EventID:   uuid.New().String(),
		EventType: eventType,
		At:        time.Now().UTC(),
		Payload:   payload,
	}
}

// ID returns the event identifier.
func (e *BaseEvent[T]) ID() string { return e.EventID }

// Type returns the event type.
func (e *BaseEvent[T]) Type() string { return e.EventType }

// Timestamp returns when the event occurred.
func (e *BaseEvent[T]) Timestamp() time.Time { return e.At }

// Data returns the payload.
func (e *BaseEvent[T]) Data() any { return e.Payload }

// TypedData returns the strongly-typed payload.
func (e *BaseEvent[T]) TypedData() T { return e.Payload }
