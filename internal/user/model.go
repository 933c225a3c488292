// Package user provides the user model and registration/lookup
// repositories. Registration atomically creates the user row and its
// topic subscriptions.
package user

import "errors"

// SubscriptionCount is how many topic subscriptions a user declares at
// registration.
const SubscriptionCount = 3

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrTopicCount is returned when registration does not carry
	// exactly SubscriptionCount distinct topics.
	ErrTopicCount = errors.New("registration requires exactly 3 distinct topics")
)

// User is a registered account. Password holds only the bcrypt hash.
type User struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     string `json:"rol,omitempty"`
}

// Registration is the input for creating a user with their topic
// subscriptions.
type Registration struct {
	Nombre   string
	Email    string
	Password string // already hashed
	TopicIDs []int64
}

// Validate checks the subscription invariant: exactly three distinct
// topic ids.
func (r *Registration) Validate() error {
	if len(r.TopicIDs) != SubscriptionCount {
		return ErrTopicCount
	}
	seen := make(map[int64]bool, SubscriptionCount)
	for _, id := range r.TopicIDs {
		if seen[id] {
			return ErrTopicCount
		}
		seen[id] = true
	}
	return nil
}
