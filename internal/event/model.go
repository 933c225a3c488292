// Package event provides models and repositories for campus events,
// including proximity and topic-relevance ranked retrieval.
package event

import (
	"errors"
	"time"
)

// Result caps for the ranked retrieval modes.
const (
	// NearbyLimit is the number of events returned by proximity ranking.
	NearbyLimit = 5

	// RecommendedLimit caps the merged recommendation result.
	RecommendedLimit = 10

	// FallbackLimit caps the non-subscribed tier of recommendations.
	// Applied to that tier in isolation, before the union: enlarging it
	// to the merged result would change output when the subscribed tier
	// is large.
	FallbackLimit = 3
)

// Recommendation priorities. Lower sorts first.
const (
	PrioritySubscribed = 1
	PriorityFallback   = 2
)

// ErrEventNotFound is returned when an event does not exist.
var ErrEventNotFound = errors.New("event not found")

// Event is a campus event. Date and Time are stored as separate
// columns; together they form the ordering key for "upcoming".
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	TemaID      *int64    `json:"tema_id,omitempty"`
	UbicacionID *int64    `json:"ubicacion_id,omitempty"`
	UsuarioID   int64     `json:"usuario_id"`
}

// Upcoming reports whether the event's date is on or after the given
// calendar day. Comparison is by date only, matching the store's
// date >= CURRENT_DATE predicate.
func (e *Event) Upcoming(now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := e.Date
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	return !day.Before(today)
}

// Location is a named campus coordinate referenced by events.
type Location struct {
	ID       int64   `json:"id"`
	Nombre   string  `json:"nombre"`
	Latitud  float64 `json:"latitud"`
	Longitud float64 `json:"longitud"`
}

// NearbyEvent is an event joined with its location and annotated with
// the great-circle distance (km) from the query point.
type NearbyEvent struct {
	Event
	Latitud  float64 `json:"latitud"`
	Longitud float64 `json:"longitud"`
	Distance float64 `json:"distance"`
}

// RecommendedEvent is an event annotated with its recommendation tier.
type RecommendedEvent struct {
	Event
	Priority int `json:"priority"`
}

// FilteredEvent is an event joined with location and topic names for
// the filter listing.
type FilteredEvent struct {
	Event
	UbicacionNombre string  `json:"ubicacion_nombre"`
	Latitud         float64 `json:"latitud"`
	Longitud        float64 `json:"longitud"`
	TemaNombre      *string `json:"tema_nombre,omitempty"`
}
