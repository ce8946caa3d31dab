package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxJitterMinutes = 5

// NewRedisCache keeps cart sessions in redis for ttl plus up to a few
// minutes of jitter. A zero ttl means two hours, about one meal's browsing.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

// RedisCache is the CartCache behind the public cart routes. Every write
// restarts the expiry, so only idle carts disappear.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// Get loads a session. Expired and never-created carts both answer
// ErrCacheMiss so callers can treat them alike.
func (r RedisCache) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := r.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &session, nil
}

// Set stores the session and restarts its expiry. Jitter keeps carts opened
// together from expiring together.
func (r RedisCache) Set(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(maxJitterMinutes)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(session.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
