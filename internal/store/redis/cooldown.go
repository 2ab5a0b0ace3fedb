package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "ledger:alert:cooldown:"

// Cooldown keeps alert dedup keys in Redis so that suppression holds across
// worker replicas and restarts.
type Cooldown struct {
	client redis.UniversalClient
}

func NewCooldown(url string) (*Cooldown, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cooldown{client: client}, nil
}

// NewCooldownWithClient wraps an existing client.
func NewCooldownWithClient(client redis.UniversalClient) *Cooldown {
	return &Cooldown{client: client}
}

// Acquire sets the key only if absent, expiring after ttl.
func (c *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, cooldownKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire cooldown %s: %w", key, err)
	}
	return ok, nil
}

func (c *Cooldown) Close() error {
	return c.client.Close()
}
