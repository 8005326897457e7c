package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Kind names which uniqueness check a cache entry belongs to.
type Kind string

const (
	KindUsername Kind = "username"
	KindEmail    Kind = "email"

	defaultAvailabilityPrefix = "agu"
	takenMarker               = "1"
)

var (
	ErrAvailabilityRedisUnavailable = errors.New("availability cache redis unavailable")
	ErrInvalidKind                  = errors.New("invalid availability kind")
)

// AvailabilityCache remembers identifiers the backend reported as taken.
type AvailabilityCache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewAvailabilityCache creates a cache. An empty prefix selects the default.
func NewAvailabilityCache(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *AvailabilityCache {
	if prefix == "" {
		prefix = defaultAvailabilityPrefix
	}
	return &AvailabilityCache{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Taken reports whether value is cached as taken. A miss returns false, nil.
func (c *AvailabilityCache) Taken(ctx context.Context, kind Kind, value string) (bool, error) {
	key, err := c.key(kind, value)
	if err != nil {
		return false, err
	}

	_, err = c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrAvailabilityRedisUnavailable, err)
	}
	return true, nil
}

// MarkTaken records value as taken for the configured TTL.
func (c *AvailabilityCache) MarkTaken(ctx context.Context, kind Kind, value string) error {
	key, err := c.key(kind, value)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, key, takenMarker, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAvailabilityRedisUnavailable, err)
	}
	return nil
}

// Forget drops a cached entry. Used when the backend later reports the
// value free, which can happen after an account is deleted.
func (c *AvailabilityCache) Forget(ctx context.Context, kind Kind, value string) error {
	key, err := c.key(kind, value)
	if err != nil {
		return err
	}
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAvailabilityRedisUnavailable, err)
	}
	return nil
}

// TTL returns the configured entry lifetime.
func (c *AvailabilityCache) TTL() time.Duration {
	return c.ttl
}

func (c *AvailabilityCache) key(kind Kind, value string) (string, error) {
	switch kind {
	case KindUsername, KindEmail:
	default:
		return "", ErrInvalidKind
	}
	return c.prefix + ":" + string(kind) + ":" + strings.ToLower(strings.TrimSpace(value)), nil
}
