package template

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waveline/chatflow/pkg/chatflow"
	"github.com/waveline/chatflow/pkg/chatflow/observability"
)

// MemoryStore is an in-memory template store for tests and
// single-process setups. Data is lost when the process exits.
type MemoryStore struct {
	metrics observability.MetricsRecorder

	mu     sync.RWMutex
	items  map[string]memoryTemplate
	closed bool
}

// memoryTemplate holds metadata plus the serialized snapshot.
type memoryTemplate struct {
	meta Template
	data []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	cfg := newStoreConfig(opts)
	return &MemoryStore{metrics: cfg.metrics, items: make(map[string]memoryTemplate)}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, g *chatflow.Graph) (string, error) {
	data, err := snapshot(g)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrStoreClosed
	}

	id := uuid.New().String()
	m.items[id] = memoryTemplate{
		meta: Template{
			ID:          id,
			Name:        g.Name(),
			Description: g.Description(),
			CreatedAt:   time.Now().UTC(),
		},
		data: data,
	}
	m.metrics.RecordTemplateSave(ctx, int64(len(data)))
	return id, nil
}

// Load implements Store. The returned graph is rebuilt from the
// stored document on every call, so edits to it never reach the
// stored template.
func (m *MemoryStore) Load(_ context.Context, id string) (*chatflow.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return chatflow.Deserialize(item.data)
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.items, id)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	out := make([]Template, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item.meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
