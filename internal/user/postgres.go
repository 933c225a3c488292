package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
)

// errSubscriptionFailure stands in for a failed subscription insert.
var errSubscriptionFailure = errors.New("failed to insert topic subscriptions")

// uniqueViolation is the Postgres error code for unique constraint
// violations.
const uniqueViolation = "23505"

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

// Register creates the user row and its topic subscription rows inside
// one transaction. Any failure rolls back both: no partial user may
// persist.
func (r *PostgresRepository) Register(ctx context.Context, reg *Registration) (int64, error) {
	if err := reg.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("begin registration: %w", err)
	}

	// Rollback is a no-op after a successful commit.
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.logger.Warn("failed to rollback registration", slog.String("error", err.Error()))
		}
	}()

	var userID int64
	err = tx.QueryRowContext(ctx,
		"INSERT INTO usuario (nombre, email, password) VALUES ($1, $2, $3) RETURNING id",
		reg.Nombre, strings.ToLower(reg.Email), reg.Password,
	).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO temas_usuario (usuario_id, tema_id) VALUES ($1, $2), ($1, $3), ($1, $4)",
		userID, reg.TopicIDs[0], reg.TopicIDs[1], reg.TopicIDs[2],
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errSubscriptionFailure, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit registration: %w", err)
	}
	return userID, nil
}

// GetByEmail retrieves a user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	var role sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nombre, email, password, rol FROM usuario WHERE email = $1",
		strings.ToLower(email),
	).Scan(&u.ID, &u.Nombre, &u.Email, &u.Password, &role)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if role.Valid {
		u.Role = role.String
	}
	return &u, nil
}

// TopicIDs returns the user's subscribed topic ids.
func (r *PostgresRepository) TopicIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT tema_id FROM temas_usuario WHERE usuario_id = $1 ORDER BY tema_id", userID)
	if err != nil {
		return nil, fmt.Errorf("user topics: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan topic id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
