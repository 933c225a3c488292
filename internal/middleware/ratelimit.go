package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig is a fixed-window limit: at most RequestsPerWindow
// requests per key per WindowDuration.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// Validate rejects non-positive limits and windows.
func (c RateLimitConfig) Validate() error {
	if c.RequestsPerWindow <= 0 {
		return fmt.Errorf("RequestsPerWindow must be > 0 (got %d)", c.RequestsPerWindow)
	}
	if c.WindowDuration <= 0 {
		return fmt.Errorf("WindowDuration must be > 0 (got %s)", c.WindowDuration)
	}
	return nil
}

// DefaultGlobalLimit is the limit applied to all traffic per client.
func DefaultGlobalLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerWindow: 100, WindowDuration: time.Minute}
}

// DefaultAuthLimit is the tighter limit for login and registration,
// which face credential-guessing traffic.
func DefaultAuthLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute}
}

// RateLimitStore tracks request counts per key. Allow reports whether
// the request fits the limit; when it does not, retryAfter is the
// number of seconds until the window resets.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (allowed bool, retryAfter int)
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// InMemoryRateLimitStore is a per-process fixed-window counter. Safe
// for concurrent use. Counts are not shared across instances; use the
// redis store when running more than one.
type InMemoryRateLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewInMemoryRateLimitStore() *InMemoryRateLimitStore {
	return &InMemoryRateLimitStore{buckets: make(map[string]*bucket)}
}

func (s *InMemoryRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.buckets[key]
	if !ok || now.After(b.windowEnd) {
		s.buckets[key] = &bucket{count: 1, windowEnd: now.Add(config.WindowDuration)}
		return true, 0
	}
	if b.count < config.RequestsPerWindow {
		b.count++
		return true, 0
	}

	retryAfter := int(b.windowEnd.Sub(now).Seconds())
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, retryAfter
}

// Cleanup drops expired buckets. Run it periodically; any interval of
// a few window lengths keeps the map bounded.
func (s *InMemoryRateLimitStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, b := range s.buckets {
		if now.After(b.windowEnd) {
			delete(s.buckets, key)
		}
	}
}

// KeyFunc derives the rate-limit key from a request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc keys by client IP, honoring X-Forwarded-For (first hop)
// and X-Real-IP before falling back to the socket address.
func IPKeyFunc() KeyFunc {
	return func(r *http.Request) string {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// UserKeyFunc keys by authenticated user id when present, by client IP
// otherwise. The prefixes keep the two namespaces from colliding.
func UserKeyFunc() KeyFunc {
	byIP := IPKeyFunc()
	return func(r *http.Request) string {
		if id := GetUserID(r.Context()); id != 0 {
			return "user:" + strconv.FormatInt(id, 10)
		}
		return "ip:" + byIP(r)
	}
}

// RateLimiter rejects over-limit requests with 429, a Retry-After
// header, and an X-RateLimit-Reset epoch timestamp.
func RateLimiter(store RateLimitStore, config RateLimitConfig, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := store.Allow(r.Context(), keyFunc(r), config)
			if !allowed {
				ctx := SetErrorCode(r.Context(), "rate_limited")
				r = r.WithContext(ctx)
				UpdateResponseContext(w, ctx)

				reset := time.Now().Add(time.Duration(retryAfter) * time.Second).Unix()
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
