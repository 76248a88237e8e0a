package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// ProfileCache stores derived customer profiles with a TTL. Cache failures
// are advisory; callers rebuild the profile from ticket history on a miss.
type ProfileCache interface {
	Get(ctx context.Context, customerID string) (*domain.CustomerProfile, error)
	Set(ctx context.Context, profile *domain.CustomerProfile, ttl time.Duration) error
}

const profileKeyPrefix = "routing:profile:"

type redisProfileCache struct {
	client *redis.Client
}

// NewRedisProfileCache creates a Redis-backed profile cache.
func NewRedisProfileCache(r *Redis) ProfileCache {
	if r == nil {
		return &redisProfileCache{client: nil}
	}
	return &redisProfileCache{client: r.Client}
}

func (c *redisProfileCache) Get(ctx context.Context, customerID string) (*domain.CustomerProfile, error) {
	if c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, profileKeyPrefix+customerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var profile domain.CustomerProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *redisProfileCache) Set(ctx context.Context, profile *domain.CustomerProfile, ttl time.Duration) error {
	if c.client == nil || profile == nil {
		return nil
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileKeyPrefix+profile.CustomerID, raw, ttl).Err()
}

type memoryProfileEntry struct {
	profile   domain.CustomerProfile
	expiresAt time.Time
}

type memoryProfileCache struct {
	mu      sync.Mutex
	entries map[string]memoryProfileEntry
	now     func() time.Time
}

// NewMemoryProfileCache creates an in-process cache, used when Redis is not
// configured and in tests.
func NewMemoryProfileCache() ProfileCache {
	return &memoryProfileCache{
		entries: make(map[string]memoryProfileEntry),
		now:     time.Now,
	}
}

func (c *memoryProfileCache) Get(_ context.Context, customerID string) (*domain.CustomerProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[customerID]
	if !ok {
		return nil, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, customerID)
		return nil, nil
	}
	profile := entry.profile
	return &profile, nil
}

func (c *memoryProfileCache) Set(_ context.Context, profile *domain.CustomerProfile, ttl time.Duration) error {
	if profile == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[profile.CustomerID] = memoryProfileEntry{
		profile:   *profile,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}
