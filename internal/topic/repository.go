// Package topic provides the fixed interest-topic vocabulary used for
// event categorization and user subscriptions.
package topic

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/lib/pq"
)

// Topic is a fixed-vocabulary interest tag.
type Topic struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// Repository defines topic lookups.
type Repository interface {
	// List returns the full topic vocabulary.
	List(ctx context.Context) ([]*Topic, error)

	// Exists reports whether every given topic id is in the
	// vocabulary.
	Exists(ctx context.Context, ids []int64) (bool, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	topics map[int64]*Topic
}

// NewInMemoryRepository creates a new in-memory topic repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{topics: make(map[int64]*Topic)}
}

// Add registers a topic.
func (r *InMemoryRepository) Add(t *Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.topics[cp.ID] = &cp
}

// List returns the full topic vocabulary.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Topic, 0, len(r.topics))
	for _, t := range r.topics {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Exists reports whether every given topic id is in the vocabulary.
func (r *InMemoryRepository) Exists(ctx context.Context, ids []int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range ids {
		if _, ok := r.topics[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the full topic vocabulary.
func (r *PostgresRepository) List(ctx context.Context) ([]*Topic, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nombre FROM temas ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []*Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Nombre); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// Exists reports whether every given topic id is in the vocabulary.
func (r *PostgresRepository) Exists(ctx context.Context, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT count(*) FROM temas WHERE id = ANY($1)", pq.Array(ids)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count topics: %w", err)
	}
	return count == len(distinct(ids)), nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
