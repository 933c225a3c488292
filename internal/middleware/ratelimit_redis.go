package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore on Redis so limits
// hold across multiple API instances. Uses a fixed window counter:
// INCR on a per-key-per-window counter with an expiry of one window.
//
// Redis errors fail open: an unavailable limiter must not take the API
// down with it.
type RedisRateLimitStore struct {
	client *redis.Client
	logger *slog.Logger

	// onError is invoked on Redis failures, for metrics. May be nil.
	onError func()
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client, logger *slog.Logger) *RedisRateLimitStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRateLimitStore{client: client, logger: logger}
}

// OnError registers a callback invoked whenever a Redis operation
// fails and the store fails open.
func (s *RedisRateLimitStore) OnError(fn func()) {
	s.onError = fn
}

// Allow checks if a request from the given key should be allowed.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	window := time.Now().Unix() / int64(config.WindowDuration.Seconds())
	redisKey := "ratelimit:" + key + ":" + strconv.FormatInt(window, 10)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("rate limit redis error, failing open", "error", err, "key", key)
		if s.onError != nil {
			s.onError()
		}
		return true, 0
	}

	if incr.Val() <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = config.WindowDuration
	}
	retryAfter := int(ttl.Seconds())
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, retryAfter
}
