package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper acquires a once-only marker with a TTL. Acquire returns true the
// first time a key is seen within the TTL window.
type Deduper interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisDeduper backs the marker with redis SETNX so warning sends survive
// restarts and dedupe across instances.
type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func (d *RedisDeduper) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.client.SetNX(ctx, key, "1", ttl).Result()
}

// MemoryDeduper is the fallback when redis is not configured, and the test
// double. Expiry is checked lazily on acquire.
type MemoryDeduper struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	clock Clock
}

func NewMemoryDeduper(clock Clock) *MemoryDeduper {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryDeduper{seen: make(map[string]time.Time), clock: clock}
}

func (d *MemoryDeduper) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.clock()
	if expires, ok := d.seen[key]; ok && now.Before(expires) {
		return false, nil
	}
	d.seen[key] = now.Add(ttl)
	return true, nil
}
