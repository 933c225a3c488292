package favorite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/eventosumss/api/internal/event"
)

// PostgresRepository implements Repository using PostgreSQL. The
// favoritos table carries a composite primary key on
// (usuario_id, evento_id); inserts ride ON CONFLICT DO NOTHING so two
// concurrent adds leave exactly one row and both report success.
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

// Toggle removes the pair if present, otherwise inserts it. The delete
// runs first: when it removed a row the toggle is done, otherwise the
// insert takes over. A concurrent duplicate insert collapses into the
// conflict clause and still reports Created.
func (r *PostgresRepository) Toggle(ctx context.Context, userID, eventID int64) (ToggleResult, error) {
	removed, err := r.Remove(ctx, userID, eventID)
	if err != nil {
		return "", err
	}
	if removed {
		return Removed, nil
	}
	if _, err := r.Add(ctx, userID, eventID); err != nil {
		return "", err
	}
	return Created, nil
}

// Add inserts the pair; a duplicate is a successful no-op.
func (r *PostgresRepository) Add(ctx context.Context, userID, eventID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO favoritos (usuario_id, evento_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, eventID)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add favorite rows: %w", err)
	}
	return n > 0, nil
}

// Remove deletes the pair; an absent row is a successful no-op.
func (r *PostgresRepository) Remove(ctx context.Context, userID, eventID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM favoritos WHERE usuario_id = $1 AND evento_id = $2",
		userID, eventID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove favorite rows: %w", err)
	}
	return n > 0, nil
}

// ListEvents returns the events the user has favorited, via a join on
// the favoritos relation.
func (r *PostgresRepository) ListEvents(ctx context.Context, userID int64) ([]*event.Event, error) {
	const query = `
		SELECT e.id, e.title, e.category, e.date, e.time, e.location, e.description, e.image, e.tema_id, e.ubicacion_id, e.usuario_id
		FROM favoritos f
		JOIN evento e ON e.id = f.evento_id
		WHERE f.usuario_id = $1
		ORDER BY e.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		var e event.Event
		var temaID, ubicacionID sql.NullInt64
		err := rows.Scan(
			&e.ID, &e.Title, &e.Category, &e.Date, &e.Time, &e.Location,
			&e.Description, &e.Image, &temaID, &ubicacionID, &e.UsuarioID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan favorite event: %w", err)
		}
		if temaID.Valid {
			e.TemaID = &temaID.Int64
		}
		if ubicacionID.Valid {
			e.UbicacionID = &ubicacionID.Int64
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
