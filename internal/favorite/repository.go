// Package favorite provides the user-event favorite relation with
// idempotent, conflict-safe toggle semantics.
package favorite

import (
	"context"
	"sort"
	"sync"

	"github.com/eventosumss/api/internal/event"
)

// ToggleResult reports what a toggle call did.
type ToggleResult string

const (
	// Created means the favorite row was inserted.
	Created ToggleResult = "created"

	// Removed means the favorite row was deleted.
	Removed ToggleResult = "removed"
)

// Repository defines favorite data operations. All operations are
// idempotent: a duplicate insert and a zero-row delete are successful
// no-ops, which makes concurrent toggles on the same pair safe.
type Repository interface {
	// Toggle removes the (userID, eventID) pair if present, otherwise
	// inserts it, and reports which happened.
	Toggle(ctx context.Context, userID, eventID int64) (ToggleResult, error)

	// Add inserts the pair. Reports true if the row was created, false
	// if it already existed.
	Add(ctx context.Context, userID, eventID int64) (bool, error)

	// Remove deletes the pair. Reports true if a row was deleted,
	// false if it was already absent.
	Remove(ctx context.Context, userID, eventID int64) (bool, error)

	// ListEvents returns the events the user has favorited.
	ListEvents(ctx context.Context, userID int64) ([]*event.Event, error)
}

type pair struct {
	userID  int64
	eventID int64
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development.
type InMemoryRepository struct {
	mu        sync.Mutex
	favorites map[pair]bool
	events    *event.InMemoryRepository
}

// NewInMemoryRepository creates an in-memory favorite repository that
// resolves events through the given event repository.
func NewInMemoryRepository(events *event.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{
		favorites: make(map[pair]bool),
		events:    events,
	}
}

// Toggle removes the pair if present, otherwise inserts it.
func (r *InMemoryRepository) Toggle(ctx context.Context, userID, eventID int64) (ToggleResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := pair{userID, eventID}
	if r.favorites[p] {
		delete(r.favorites, p)
		return Removed, nil
	}
	r.favorites[p] = true
	return Created, nil
}

// Add inserts the pair, treating a duplicate as a no-op.
func (r *InMemoryRepository) Add(ctx context.Context, userID, eventID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := pair{userID, eventID}
	if r.favorites[p] {
		return false, nil
	}
	r.favorites[p] = true
	return true, nil
}

// Remove deletes the pair, treating absence as a no-op.
func (r *InMemoryRepository) Remove(ctx context.Context, userID, eventID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := pair{userID, eventID}
	if !r.favorites[p] {
		return false, nil
	}
	delete(r.favorites, p)
	return true, nil
}

// ListEvents returns the events the user has favorited.
func (r *InMemoryRepository) ListEvents(ctx context.Context, userID int64) ([]*event.Event, error) {
	r.mu.Lock()
	ids := make([]int64, 0)
	for p := range r.favorites {
		if p.userID == userID {
			ids = append(ids, p.eventID)
		}
	}
	r.mu.Unlock()

	var out []*event.Event
	for _, id := range ids {
		e, err := r.events.GetByID(ctx, id)
		if err != nil {
			// Favorite pointing at a deleted event is skipped.
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
