// Package auth provides bearer token issuance and password hashing
// for the EventosUMSS API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenExpiry is how long an issued bearer token stays valid.
	TokenExpiry = 24 * time.Hour

	// DefaultLeeway absorbs clock skew during validation.
	DefaultLeeway = 30 * time.Second
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptyUserID  = errors.New("userID cannot be empty")
)

// Claims are the bearer token claims: user id as subject, plus email
// and optional role.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"rol,omitempty"`
}

// TokenService signs and validates HS256 bearer tokens. With a
// previous secret set, validation accepts tokens signed under either
// secret while new tokens always use the current one, so secrets can
// rotate without invalidating live sessions.
type TokenService struct {
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{currentSecret: []byte(secret), leeway: DefaultLeeway}
}

// NewTokenServiceWithRotation creates a TokenService that also accepts
// tokens signed with previousSecret. Pass an empty previousSecret when
// no rotation is in progress.
func NewTokenServiceWithRotation(currentSecret, previousSecret string) *TokenService {
	svc := NewTokenService(currentSecret)
	if previousSecret != "" {
		svc.previousSecret = []byte(previousSecret)
	}
	return svc
}

// Generate creates a signed bearer token for the given user.
func (s *TokenService) Generate(userID, email, role string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
		Email: email,
		Role:  role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.currentSecret)
}

// Validate parses the token and returns its claims. The current secret
// is tried first, then the previous one when rotation is active.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, s.currentSecret)
	if err == nil {
		return claims, nil
	}

	if s.previousSecret != nil {
		if claims, prevErr := s.parse(tokenString, s.previousSecret); prevErr == nil {
			return claims, nil
		}
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	return nil, ErrInvalidToken
}

func (s *TokenService) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithLeeway(s.leeway))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
