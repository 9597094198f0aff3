package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache tracks how many live sockets each user has across instances
type PresenceCache interface {
	Connected(ctx context.Context, userID string) error
	Disconnected(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

type presenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
		ttl:    2 * time.Hour,
	}
}

func (c *presenceCache) key(userID string) string {
	return "presence:" + userID
}

func (c *presenceCache) Connected(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.key(userID))
		pipe.Expire(ctx, c.key(userID), c.ttl)
		return nil
	})
	return err
}

func (c *presenceCache) Disconnected(ctx context.Context, userID string) error {
	n, err := c.client.Decr(ctx, c.key(userID)).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		return c.client.Del(ctx, c.key(userID)).Err()
	}
	return nil
}

func (c *presenceCache) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := c.client.Get(ctx, c.key(userID)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
