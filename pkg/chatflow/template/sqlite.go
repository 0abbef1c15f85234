package template

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/waveline/chatflow/pkg/chatflow"
	"github.com/waveline/chatflow/pkg/chatflow/observability"
)

// SQLiteStore persists templates to SQLite. Suitable for
// single-process production use.
type SQLiteStore struct {
	db      *sql.DB
	metrics observability.MetricsRecorder

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (and if needed initializes) a template store.
// The path is a file path or ":memory:" for testing.
func NewSQLiteStore(path string, opts ...StoreOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL gives better concurrent read behavior.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_flow_templates_created_at
		ON flow_templates(created_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	cfg := newStoreConfig(opts)
	return &SQLiteStore{db: db, metrics: cfg.metrics}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, g *chatflow.Graph) (string, error) {
	data, err := snapshot(g)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_templates (id, name, description, created_at, data)
		VALUES (?, ?, ?, ?, ?)
	`, id, g.Name(), g.Description(), time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return "", fmt.Errorf("save template: %w", err)
	}
	s.metrics.RecordTemplateSave(ctx, int64(len(data)))
	return id, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*chatflow.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM flow_templates WHERE id = ?
	`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	return chatflow.Deserialize(data)
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM flow_templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM flow_templates
		ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			t.CreatedAt = ts
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
