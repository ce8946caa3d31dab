package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tokens remembers submission tokens so a checkout retried with the same
// Idempotency-Key, or with the same unchanged cart, never produces a second
// order.
type Tokens struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokens(client *redis.Client, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{client: client, ttl: ttl}
}

// Claim reports true only for the first caller presenting token.
func (t *Tokens) Claim(ctx context.Context, token string) (bool, error) {
	ok, err := t.client.SetNX(ctx, tokenKey(token), time.Now().UTC().Format(time.RFC3339), t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (t *Tokens) Release(ctx context.Context, token string) error {
	if err := t.client.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func tokenKey(token string) string {
	return fmt.Sprintf("checkout:token:%s", token)
}
