package topic

import (
	"context"
	"testing"
)

func seeded() *InMemoryRepository {
	repo := NewInMemoryRepository()
	repo.Add(&Topic{ID: 1, Nombre: "Tecnología"})
	repo.Add(&Topic{ID: 2, Nombre: "Música"})
	repo.Add(&Topic{ID: 3, Nombre: "Deportes"})
	return repo
}

func TestList(t *testing.T) {
	got, err := seeded().List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Nombre != "Tecnología" || got[2].Nombre != "Deportes" {
		t.Errorf("unexpected order: %v, %v", got[0].Nombre, got[2].Nombre)
	}
}

func TestExists(t *testing.T) {
	repo := seeded()

	ok, err := repo.Exists(context.Background(), []int64{1, 2, 3})
	if err != nil || !ok {
		t.Errorf("Exists(1,2,3) = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = repo.Exists(context.Background(), []int64{1, 99})
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if ok {
		t.Error("Exists() with unknown id = true, want false")
	}
}
