package user

import (
	"context"
	"errors"
	"testing"
)

func validRegistration() *Registration {
	return &Registration{
		Nombre:   "Ana",
		Email:    "Ana@est.umss.edu",
		Password: "$2a$10$fakehash",
		TopicIDs: []int64{1, 2, 3},
	}
}

func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name   string
		topics []int64
		wantOK bool
	}{
		{"three distinct", []int64{1, 2, 3}, true},
		{"too few", []int64{1, 2}, false},
		{"too many", []int64{1, 2, 3, 4}, false},
		{"duplicate", []int64{1, 2, 2}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			reg.TopicIDs = tt.topics
			err := reg.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("Validate() error: %v", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrTopicCount) {
				t.Errorf("Validate() = %v, want ErrTopicCount", err)
			}
		})
	}
}

func TestRegister_AndLookup(t *testing.T) {
	repo := NewInMemoryRepository()

	id, err := repo.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if id == 0 {
		t.Fatal("Register() returned zero id")
	}

	// Email is normalized to lowercase on both write and read.
	u, err := repo.GetByEmail(context.Background(), "ANA@est.umss.edu")
	if err != nil {
		t.Fatalf("GetByEmail() error: %v", err)
	}
	if u.ID != id || u.Email != "ana@est.umss.edu" {
		t.Errorf("got user %+v", u)
	}

	topics, err := repo.TopicIDs(context.Background(), id)
	if err != nil {
		t.Fatalf("TopicIDs() error: %v", err)
	}
	if len(topics) != SubscriptionCount {
		t.Errorf("topics = %v, want 3 entries", topics)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, err := repo.Register(context.Background(), validRegistration()); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second Register() = %v, want ErrEmailTaken", err)
	}
}

func TestRegister_SubscriptionFailureLeavesNoUser(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.FailSubscriptions = true

	if _, err := repo.Register(context.Background(), validRegistration()); err == nil {
		t.Fatal("expected registration failure")
	}
	// Atomicity: no user row survives a failed subscription insert.
	if repo.Count() != 0 {
		t.Errorf("user count = %d after failed registration, want 0", repo.Count())
	}
	if _, err := repo.GetByEmail(context.Background(), "ana@est.umss.edu"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail() = %v, want ErrUserNotFound", err)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.GetByEmail(context.Background(), "nadie@umss.edu"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail() = %v, want ErrUserNotFound", err)
	}
}
