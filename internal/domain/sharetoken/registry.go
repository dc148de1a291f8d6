package sharetoken

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// StaticRegistry is an in-process token registry.
type StaticRegistry struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewStaticRegistry(tokens map[string]time.Time) *StaticRegistry {
	r := &StaticRegistry{tokens: make(map[string]time.Time, len(tokens))}
	for k, v := range tokens {
		r.tokens[k] = v
	}
	return r
}

func (r *StaticRegistry) Lookup(_ context.Context, token string) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.tokens[token]
	return exp, ok, nil
}

func (r *StaticRegistry) Register(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = expiresAt
	return nil
}

// KeyPrefix namespaces token keys in Redis.
const KeyPrefix = "share-token:"

// RedisRegistry reads tokens populated by other services. Each key holds the
// RFC 3339 expiry instant.
type RedisRegistry struct {
	c *redis.Client
}

func NewRedisRegistry(c *redis.Client) *RedisRegistry { return &RedisRegistry{c: c} }

func (r *RedisRegistry) Lookup(ctx context.Context, token string) (time.Time, bool, error) {
	val, err := r.c.Get(ctx, KeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	exp, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("token %s: bad expiry %q: %w", token, val, err)
	}
	return exp, true, nil
}

// Register stores the token without a Redis TTL so expired tokens keep
// reporting expired rather than invalid.
func (r *RedisRegistry) Register(ctx context.Context, token string, expiresAt time.Time) error {
	return r.c.Set(ctx, KeyPrefix+token, expiresAt.UTC().Format(time.RFC3339), 0).Err()
}
