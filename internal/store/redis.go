package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client used for health checks and read caching.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// GetJSON loads a cached value into dest. Returns false on miss or any error;
// callers treat the cache as best effort.
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) bool {
	if r == nil || r.Client == nil {
		return false
	}
	raw, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores a value under key with a TTL. Errors are swallowed.
func (r *Redis) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) {
	if r == nil || r.Client == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = r.Client.Set(ctx, key, raw, ttl).Err()
}

// Delete drops a cached key, used for invalidation after writes.
func (r *Redis) Delete(ctx context.Context, key string) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Del(ctx, key).Err()
}
