package user

import (
	"context"
	"strings"
	"sync"
)

// Repository defines user data operations.
type Repository interface {
	// Register atomically creates the user and their topic
	// subscriptions, returning the new user id. Both the user row and
	// the subscription rows persist, or neither does.
	Register(ctx context.Context, reg *Registration) (int64, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// TopicIDs returns the user's subscribed topic ids.
	TopicIDs(ctx context.Context, userID int64) ([]int64, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*User
	emails map[string]int64
	topics map[int64][]int64

	// FailSubscriptions forces the subscription step to fail, for
	// exercising rollback behavior in tests.
	FailSubscriptions bool
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID: 1,
		users:  make(map[int64]*User),
		emails: make(map[string]int64),
		topics: make(map[int64][]int64),
	}
}

// Register atomically creates the user and their subscriptions.
func (r *InMemoryRepository) Register(ctx context.Context, reg *Registration) (int64, error) {
	if err := reg.Validate(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(reg.Email)
	if _, exists := r.emails[email]; exists {
		return 0, ErrEmailTaken
	}
	if r.FailSubscriptions {
		// Nothing persisted: mirrors a rolled-back transaction.
		return 0, errSubscriptionFailure
	}

	id := r.nextID
	r.nextID++
	r.users[id] = &User{ID: id, Nombre: reg.Nombre, Email: email, Password: reg.Password}
	r.emails[email] = id
	r.topics[id] = append([]int64(nil), reg.TopicIDs...)
	return id, nil
}

// GetByEmail retrieves a user by email.
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

// TopicIDs returns the user's subscribed topic ids.
func (r *InMemoryRepository) TopicIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int64(nil), r.topics[userID]...), nil
}

// Count reports how many users exist. For tests.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
