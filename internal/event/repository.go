package event

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eventosumss/api/internal/geo"
)

// Repository defines event data operations.
type Repository interface {
	// List returns every event.
	List(ctx context.Context) ([]*Event, error)

	// GetByID retrieves an event by id.
	GetByID(ctx context.Context, id int64) (*Event, error)

	// Insert stores a new event and fills in its assigned id.
	Insert(ctx context.Context, e *Event) error

	// Search returns events matching the AND-combined filters, joined
	// with their location, newest first.
	Search(ctx context.Context, f Filter) ([]*FilteredEvent, error)

	// Nearby returns the limit events closest to the query point,
	// ascending by great-circle distance. Events without a location
	// are excluded.
	Nearby(ctx context.Context, lat, lon float64, limit int) ([]*NearbyEvent, error)

	// Recommended returns up to limit upcoming events ranked by topic
	// relevance for the user: subscribed-topic events first, then up
	// to FallbackLimit others, ordered by (priority, date).
	Recommended(ctx context.Context, userID int64, limit int) ([]*RecommendedEvent, error)
}

// LocationRepository defines location lookups.
type LocationRepository interface {
	// List returns every location.
	List(ctx context.Context) ([]*Location, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development.
type InMemoryRepository struct {
	mu         sync.RWMutex
	nextID     int64
	events     map[int64]*Event
	locations  map[int64]*Location
	topicNames map[int64]string
	userTopics map[int64][]int64
	now        func() time.Time
}

// NewInMemoryRepository creates a new in-memory event repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:     1,
		events:     make(map[int64]*Event),
		locations:  make(map[int64]*Location),
		topicNames: make(map[int64]string),
		userTopics: make(map[int64][]int64),
		now:        time.Now,
	}
}

// SetNow overrides the clock used for "upcoming" checks. For tests.
func (r *InMemoryRepository) SetNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// AddLocation registers a location events can reference.
func (r *InMemoryRepository) AddLocation(loc *Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *loc
	r.locations[cp.ID] = &cp
}

// AddTopic registers a topic name for filter matching.
func (r *InMemoryRepository) AddTopic(id int64, nombre string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topicNames[id] = nombre
}

// SetUserTopics sets a user's subscribed topic ids.
func (r *InMemoryRepository) SetUserTopics(userID int64, topicIDs []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userTopics[userID] = append([]int64(nil), topicIDs...)
}

// List returns every event.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Event, 0, len(r.events))
	for _, e := range r.events {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID retrieves an event by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

// Insert stores a new event and assigns its id.
func (r *InMemoryRepository) Insert(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == 0 {
		e.ID = r.nextID
		r.nextID++
	} else if e.ID >= r.nextID {
		r.nextID = e.ID + 1
	}
	cp := *e
	r.events[cp.ID] = &cp
	return nil
}

// Search returns events matching the filters, joined with their
// location, ordered by date then time descending.
func (r *InMemoryRepository) Search(ctx context.Context, f Filter) ([]*FilteredEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*FilteredEvent
	for _, e := range r.events {
		if e.UbicacionID == nil {
			continue
		}
		loc, ok := r.locations[*e.UbicacionID]
		if !ok {
			continue
		}
		if f.ubicacionSet() && loc.Nombre != f.Ubicacion {
			continue
		}
		if f.categoriaSet() && e.Category != f.Categoria {
			continue
		}
		var temaNombre *string
		if e.TemaID != nil {
			if name, ok := r.topicNames[*e.TemaID]; ok {
				temaNombre = &name
			}
		}
		if f.interesSet() {
			if temaNombre == nil || *temaNombre != f.Interes {
				continue
			}
		}
		out = append(out, &FilteredEvent{
			Event:           *e,
			UbicacionNombre: loc.Nombre,
			Latitud:         loc.Latitud,
			Longitud:        loc.Longitud,
			TemaNombre:      temaNombre,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return strings.Compare(out[i].Time, out[j].Time) > 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Nearby returns the limit closest events, ascending by distance.
func (r *InMemoryRepository) Nearby(ctx context.Context, lat, lon float64, limit int) ([]*NearbyEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*NearbyEvent
	for _, e := range r.events {
		if e.UbicacionID == nil {
			continue
		}
		loc, ok := r.locations[*e.UbicacionID]
		if !ok {
			continue
		}
		out = append(out, &NearbyEvent{
			Event:    *e,
			Latitud:  loc.Latitud,
			Longitud: loc.Longitud,
			Distance: geo.DistanceKm(lat, lon, loc.Latitud, loc.Longitud),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recommended returns up to limit upcoming events ranked by topic
// relevance for the user.
func (r *InMemoryRepository) Recommended(ctx context.Context, userID int64, limit int) ([]*RecommendedEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribed := make(map[int64]bool)
	for _, id := range r.userTopics[userID] {
		subscribed[id] = true
	}

	now := r.now()
	var tierA, tierB []*RecommendedEvent
	for _, e := range r.events {
		if !e.Upcoming(now) {
			continue
		}
		switch {
		case e.TemaID != nil && subscribed[*e.TemaID]:
			tierA = append(tierA, &RecommendedEvent{Event: *e, Priority: PrioritySubscribed})
		case e.TemaID == nil && len(subscribed) > 0:
			// SQL NOT IN over a non-empty subscription set is NULL for
			// a NULL topic, so the store drops these rows. Only a user
			// with no subscriptions sees topicless events.
		default:
			tierB = append(tierB, &RecommendedEvent{Event: *e, Priority: PriorityFallback})
		}
	}

	// The fallback cap applies to tier B alone, before the merge, and
	// picks the soonest events.
	sort.Slice(tierB, func(i, j int) bool {
		if !tierB[i].Date.Equal(tierB[j].Date) {
			return tierB[i].Date.Before(tierB[j].Date)
		}
		return tierB[i].ID < tierB[j].ID
	})
	if len(tierB) > FallbackLimit {
		tierB = tierB[:FallbackLimit]
	}

	out := append(tierA, tierB...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InMemoryLocationRepository is an in-memory LocationRepository backed
// by the same data as an InMemoryRepository.
type InMemoryLocationRepository struct {
	repo *InMemoryRepository
}

// NewInMemoryLocationRepository exposes the locations registered on an
// InMemoryRepository.
func NewInMemoryLocationRepository(repo *InMemoryRepository) *InMemoryLocationRepository {
	return &InMemoryLocationRepository{repo: repo}
}

// List returns every registered location.
func (r *InMemoryLocationRepository) List(ctx context.Context) ([]*Location, error) {
	r.repo.mu.RLock()
	defer r.repo.mu.RUnlock()

	out := make([]*Location, 0, len(r.repo.locations))
	for _, loc := range r.repo.locations {
		cp := *loc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
