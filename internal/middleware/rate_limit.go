package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// RateLimit creates a per-user rate limiter middleware instance. When storage
// is nil the limiter falls back to its in-memory store.
func RateLimit(identifier string, max int, window time.Duration, storage fiber.Storage) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	cfg := limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID := fmt.Sprintf("%v", c.Locals("user_id"))
			if userID == "" || userID == "0" || userID == "<nil>" {
				userID = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, userID)
		},
	}
	if storage != nil {
		cfg.Storage = storage
	}

	return limiter.New(cfg)
}

const limiterKeyPrefix = "ratelimit:"

// RedisLimiterStorage adapts a Redis client to fiber.Storage so rate-limit
// counters survive process restarts and are shared across replicas.
type RedisLimiterStorage struct {
	client *redis.Client
}

// NewRedisLimiterStorage wraps the provided client.
func NewRedisLimiterStorage(client *redis.Client) *RedisLimiterStorage {
	return &RedisLimiterStorage{client: client}
}

// Get returns the stored value, or nil when the key is absent or expired.
func (s *RedisLimiterStorage) Get(key string) ([]byte, error) {
	value, err := s.client.Get(context.Background(), limiterKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores the value under the key with the supplied expiration.
func (s *RedisLimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.client.Set(context.Background(), limiterKeyPrefix+key, val, exp).Err()
}

// Delete removes the key.
func (s *RedisLimiterStorage) Delete(key string) error {
	return s.client.Del(context.Background(), limiterKeyPrefix+key).Err()
}

// Reset removes every limiter key without touching unrelated data.
func (s *RedisLimiterStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, limiterKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client's lifecycle belongs to the caller.
func (s *RedisLimiterStorage) Close() error {
	return nil
}
