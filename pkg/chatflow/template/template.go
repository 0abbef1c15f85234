// Package template persists named snapshots of flow graphs for reuse.
//
// Templates are immutable once saved and valid by construction: Save
// audits the graph and rejects anything that violates a structural
// invariant. Load rebuilds a fresh graph from the stored document, so
// edits to a loaded graph can never reach the stored snapshot.
package template

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waveline/chatflow/pkg/chatflow"
	"github.com/waveline/chatflow/pkg/chatflow/observability"
)

// Template is the stored snapshot's metadata.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists flow templates. Implementations must be safe for
// unlimited concurrent readers.
type Store interface {
	// Save audits and snapshots the graph, returning the template ID.
	// An invalid graph is rejected with ErrInvalidGraph.
	Save(ctx context.Context, g *chatflow.Graph) (string, error)

	// Load rebuilds a deep copy of the stored graph.
	// Returns ErrNotFound if the template doesn't exist.
	Load(ctx context.Context, id string) (*chatflow.Graph, error)

	// Delete removes a template. Deleting a missing template is not
	// an error.
	Delete(ctx context.Context, id string) error

	// List returns all templates ordered by creation time.
	List(ctx context.Context) ([]Template, error)

	// Close releases any resources.
	Close() error
}

// StoreOption configures a store constructor. Options are shared by
// every Store implementation.
type StoreOption func(*storeConfig)

type storeConfig struct {
	metrics observability.MetricsRecorder
}

func newStoreConfig(opts []StoreOption) storeConfig {
	cfg := storeConfig{metrics: observability.NoopMetrics{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMetrics sets the metrics recorder snapshot sizes are recorded on.
func WithMetrics(rec observability.MetricsRecorder) StoreOption {
	return func(c *storeConfig) { c.metrics = rec }
}

// Sentinel errors for template operations.
var (
	// ErrNotFound indicates the template doesn't exist.
	ErrNotFound = errors.New("template not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("template store closed")

	// ErrInvalidGraph indicates Save was given a graph violating a
	// structural invariant. Templates are always valid by construction.
	ErrInvalidGraph = errors.New("graph is not valid")
)

// snapshot audits and serializes a graph for storage.
func snapshot(g *chatflow.Graph) ([]byte, error) {
	if violations := chatflow.Audit(g); len(violations) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(violations...))
	}
	data, err := chatflow.Serialize(g)
	if err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}
	return data, nil
}
