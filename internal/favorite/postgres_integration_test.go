package favorite

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/eventosumss/api/internal/db"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("eventos"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	conn, err := db.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ddl, err := os.ReadFile("../../migrations/000001_init_schema.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := conn.ExecContext(ctx, string(ddl)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	return conn
}

// seedUserAndEvent inserts one user and one event and returns their ids.
func seedUserAndEvent(t *testing.T, conn *sql.DB) (int64, int64) {
	t.Helper()
	var userID int64
	err := conn.QueryRow(
		"INSERT INTO usuario (nombre, email, password) VALUES ('Ana', 'ana@umss.edu.bo', 'x') RETURNING id",
	).Scan(&userID)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	var eventID int64
	err = conn.QueryRow(
		"INSERT INTO evento (title, category, date, time, usuario_id) VALUES ('Feria', 'general', CURRENT_DATE, '10:00', $1) RETURNING id",
		userID,
	).Scan(&eventID)
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return userID, eventID
}

func TestPostgresToggle_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	repo := NewPostgresRepository(conn, nil)
	userID, eventID := seedUserAndEvent(t, conn)

	res, err := repo.Toggle(ctx, userID, eventID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if res != Created {
		t.Fatalf("first toggle = %q, want created", res)
	}

	events, err := repo.ListEvents(ctx, userID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != eventID {
		t.Fatalf("favorites = %+v", events)
	}

	res, err = repo.Toggle(ctx, userID, eventID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if res != Removed {
		t.Fatalf("second toggle = %q, want removed", res)
	}

	events, err = repo.ListEvents(ctx, userID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("favorites after removal = %+v", events)
	}
}

func TestPostgresAdd_ConcurrentDuplicates_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	repo := NewPostgresRepository(conn, nil)
	userID, eventID := seedUserAndEvent(t, conn)

	// Racing inserts of the same pair collapse into the conflict clause;
	// none may error and exactly one row may remain.
	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.Add(ctx, userID, eventID)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}

	var count int
	if err := conn.QueryRow("SELECT count(*) FROM favoritos").Scan(&count); err != nil {
		t.Fatalf("count favorites: %v", err)
	}
	if count != 1 {
		t.Errorf("favorite rows = %d, want 1", count)
	}
}

func TestPostgresRemove_Absent_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	repo := NewPostgresRepository(conn, nil)
	userID, eventID := seedUserAndEvent(t, conn)

	removed, err := repo.Remove(ctx, userID, eventID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed {
		t.Error("Remove reported a deletion for an absent pair")
	}
}
