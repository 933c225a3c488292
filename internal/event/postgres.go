package event

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/eventosumss/api/internal/tracing"
)

// eventColumns are the evento columns selected by every query, in scan
// order.
const eventColumns = "e.id, e.title, e.category, e.date, e.time, e.location, e.description, e.image, e.tema_id, e.ubicacion_id, e.usuario_id"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// List returns every event.
func (r *PostgresRepository) List(ctx context.Context) ([]*Event, error) {
	query := fmt.Sprintf("SELECT %s FROM evento e ORDER BY e.id", eventColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID retrieves an event by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Event, error) {
	query := fmt.Sprintf("SELECT %s FROM evento e WHERE e.id = $1", eventColumns)
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return e, nil
}

// Insert stores a new event and fills in its assigned id.
func (r *PostgresRepository) Insert(ctx context.Context, e *Event) error {
	const query = `
		INSERT INTO evento (title, category, date, time, location, description, image, tema_id, ubicacion_id, usuario_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Category, e.Date, e.Time, e.Location, e.Description, e.Image,
		nullableID(e.TemaID), nullableID(e.UbicacionID), e.UsuarioID,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Search returns events matching the AND-combined filters, joined with
// their location, newest first. Absent filters contribute no
// predicate; all values travel as query parameters.
func (r *PostgresRepository) Search(ctx context.Context, f Filter) ([]*FilteredEvent, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT %s, u.nombre AS ubicacion_nombre, u.latitud, u.longitud, t.nombre AS tema_nombre
		FROM evento e
		JOIN ubicaciones u ON e.ubicacion_id = u.id
		LEFT JOIN temas t ON e.tema_id = t.id
		%s
		ORDER BY e.date DESC, e.time DESC
	`, eventColumns, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	var out []*FilteredEvent
	for rows.Next() {
		var fe FilteredEvent
		var temaID, ubicacionID sql.NullInt64
		var temaNombre sql.NullString
		err := rows.Scan(
			&fe.ID, &fe.Title, &fe.Category, &fe.Date, &fe.Time, &fe.Location,
			&fe.Description, &fe.Image, &temaID, &ubicacionID, &fe.UsuarioID,
			&fe.UbicacionNombre, &fe.Latitud, &fe.Longitud, &temaNombre,
		)
		if err != nil {
			return nil, fmt.Errorf("scan filtered event: %w", err)
		}
		fe.TemaID = int64Ptr(temaID)
		fe.UbicacionID = int64Ptr(ubicacionID)
		if temaNombre.Valid {
			fe.TemaNombre = &temaNombre.String
		}
		out = append(out, &fe)
	}
	return out, rows.Err()
}

// Nearby returns the limit events closest to the query point using the
// spherical law of cosines evaluated in SQL. The acos argument is
// clamped to [-1, 1]: when the query point coincides with an event
// location, rounding can push it past 1 and acos would return NaN.
func (r *PostgresRepository) Nearby(ctx context.Context, lat, lon float64, limit int) (result []*NearbyEvent, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "evento", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := fmt.Sprintf(`
		WITH event_distances AS (
			SELECT
				%s,
				u.latitud,
				u.longitud,
				6371 * acos(LEAST(1.0, GREATEST(-1.0,
					cos(radians($1)) *
					cos(radians(u.latitud)) *
					cos(radians(u.longitud) - radians($2)) +
					sin(radians($1)) *
					sin(radians(u.latitud))
				))) AS distance
			FROM evento e
			JOIN ubicaciones u ON e.ubicacion_id = u.id
		)
		SELECT * FROM event_distances
		ORDER BY distance ASC
		LIMIT $3
	`, eventColumns)

	rows, err := r.db.QueryContext(ctx, query, lat, lon, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby events: %w", err)
	}
	defer rows.Close()

	var out []*NearbyEvent
	for rows.Next() {
		var ne NearbyEvent
		var temaID, ubicacionID sql.NullInt64
		err := rows.Scan(
			&ne.ID, &ne.Title, &ne.Category, &ne.Date, &ne.Time, &ne.Location,
			&ne.Description, &ne.Image, &temaID, &ubicacionID, &ne.UsuarioID,
			&ne.Latitud, &ne.Longitud, &ne.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan nearby event: %w", err)
		}
		ne.TemaID = int64Ptr(temaID)
		ne.UbicacionID = int64Ptr(ubicacionID)
		out = append(out, &ne)
	}
	return out, rows.Err()
}

// Recommended returns up to limit upcoming events ranked by topic
// relevance: subscribed-topic matches first (priority 1), then up to
// FallbackLimit of the soonest events outside the subscribed set
// (priority 2). The fallback LIMIT sits inside the tier-2 subquery,
// before the union. NOT IN over a non-empty subscription set is NULL
// for a NULL tema_id, so topicless events only reach users with no
// subscriptions.
func (r *PostgresRepository) Recommended(ctx context.Context, userID int64, limit int) (result []*RecommendedEvent, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "evento", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := fmt.Sprintf(`
		WITH user_topics AS (
			SELECT tema_id
			FROM temas_usuario
			WHERE usuario_id = $1
		),
		recommended_events AS (
			SELECT %s, 1 AS priority
			FROM evento e
			WHERE e.tema_id IN (SELECT tema_id FROM user_topics)
			AND e.date >= CURRENT_DATE

			UNION

			(SELECT %s, 2 AS priority
			FROM evento e
			WHERE e.tema_id NOT IN (SELECT tema_id FROM user_topics)
			AND e.date >= CURRENT_DATE
			ORDER BY e.date ASC, e.id ASC
			LIMIT %d)
		)
		SELECT DISTINCT * FROM recommended_events
		ORDER BY priority ASC, date ASC
		LIMIT $2
	`, eventColumns, eventColumns, FallbackLimit)

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recommended events: %w", err)
	}
	defer rows.Close()

	var out []*RecommendedEvent
	for rows.Next() {
		var re RecommendedEvent
		var temaID, ubicacionID sql.NullInt64
		err := rows.Scan(
			&re.ID, &re.Title, &re.Category, &re.Date, &re.Time, &re.Location,
			&re.Description, &re.Image, &temaID, &ubicacionID, &re.UsuarioID,
			&re.Priority,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recommended event: %w", err)
		}
		re.TemaID = int64Ptr(temaID)
		re.UbicacionID = int64Ptr(ubicacionID)
		out = append(out, &re)
	}
	return out, rows.Err()
}

// PostgresLocationRepository implements LocationRepository using
// PostgreSQL.
type PostgresLocationRepository struct {
	db *sql.DB
}

// NewPostgresLocationRepository creates a new PostgresLocationRepository.
func NewPostgresLocationRepository(db *sql.DB) *PostgresLocationRepository {
	return &PostgresLocationRepository{db: db}
}

// List returns every location.
func (r *PostgresLocationRepository) List(ctx context.Context) ([]*Location, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nombre, latitud, longitud FROM ubicaciones ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []*Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.Nombre, &loc.Latitud, &loc.Longitud); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, &loc)
	}
	return out, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*Event, error) {
	var e Event
	var temaID, ubicacionID sql.NullInt64
	err := s.Scan(
		&e.ID, &e.Title, &e.Category, &e.Date, &e.Time, &e.Location,
		&e.Description, &e.Image, &temaID, &ubicacionID, &e.UsuarioID,
	)
	if err != nil {
		return nil, err
	}
	e.TemaID = int64Ptr(temaID)
	e.UbicacionID = int64Ptr(ubicacionID)
	return &e, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullableID(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
