package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skyfleethq/identity/internal/identity/store"

	"github.com/redis/go-redis/v9"
)

// Ephemeral is a Redis-backed TTL key/value store. Keys expire server-side,
// so a Get on an expired key is indistinguishable from one never written.
type Ephemeral struct {
	client *redis.Client
}

func NewEphemeral(addr, password string, db int) *Ephemeral {
	return &Ephemeral{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewEphemeralFromClient wraps an existing client. Used by tests with
// miniredis.
func NewEphemeralFromClient(client *redis.Client) *Ephemeral {
	return &Ephemeral{client: client}
}

func (e *Ephemeral) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := e.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("ephemeral set: %w", err)
	}
	return nil
}

func (e *Ephemeral) Get(ctx context.Context, key string) (string, error) {
	val, err := e.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("ephemeral get: %w", err)
	}
	return val, nil
}

func (e *Ephemeral) Delete(ctx context.Context, key string) error {
	if err := e.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("ephemeral delete: %w", err)
	}
	return nil
}

func (e *Ephemeral) Ping(ctx context.Context) error {
	return e.client.Ping(ctx).Err()
}

func (e *Ephemeral) Close() error {
	return e.client.Close()
}
