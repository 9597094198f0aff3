package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"wordrooms/internal/model"
)

// RoomCache holds room-code reservations and the index of open rooms
type RoomCache interface {
	ReserveCode(ctx context.Context, code, roomID string) (bool, error)
	LookupCode(ctx context.Context, code string) (string, error)
	ReleaseCode(ctx context.Context, code string) error
	IndexOpen(ctx context.Context, summary model.RoomSummary) error
	RemoveOpen(ctx context.Context, roomID string) error
	ListOpen(ctx context.Context, offset, limit int) ([]model.RoomSummary, int64, error)
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRoomCache creates a new room cache
func NewRoomCache(client *redis.Client, ttl time.Duration) RoomCache {
	return &roomCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

const (
	openRoomsKey     = "rooms:open"
	openRoomsMetaKey = "rooms:open:meta"

	// same members scored by expiresAt
	openRoomsExpiryKey = "rooms:open:expiry"
)

func (c *roomCache) codeKey(code string) string {
	return fmt.Sprintf("room:code:%s", code)
}

// ReserveCode claims code for roomID; false means another room already holds it
func (c *roomCache) ReserveCode(ctx context.Context, code, roomID string) (bool, error) {
	return c.client.SetNX(ctx, c.codeKey(code), roomID, c.ttl).Result()
}

func (c *roomCache) LookupCode(ctx context.Context, code string) (string, error) {
	id, err := c.client.Get(ctx, c.codeKey(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

func (c *roomCache) ReleaseCode(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.codeKey(code)).Err()
}

func (c *roomCache) IndexOpen(ctx context.Context, summary model.RoomSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, openRoomsKey, redis.Z{
			Score:  float64(summary.CreatedAt.UnixMilli()),
			Member: summary.RoomID,
		})
		pipe.HSet(ctx, openRoomsMetaKey, summary.RoomID, data)
		if !summary.ExpiresAt.IsZero() {
			pipe.ZAdd(ctx, openRoomsExpiryKey, redis.Z{
				Score:  float64(summary.ExpiresAt.UnixMilli()),
				Member: summary.RoomID,
			})
		}
		return nil
	})
	return err
}

func (c *roomCache) RemoveOpen(ctx context.Context, roomID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, openRoomsKey, roomID)
		pipe.HDel(ctx, openRoomsMetaKey, roomID)
		pipe.ZRem(ctx, openRoomsExpiryKey, roomID)
		return nil
	})
	return err
}

// sweepExpired drops rooms whose expiresAt has passed. The store deletes them by TTL,
// so nothing else would ever remove their index entries.
func (c *roomCache) sweepExpired(ctx context.Context) error {
	cutoff := strconv.FormatInt(c.now().UnixMilli(), 10)
	ids, err := c.client.ZRangeByScore(ctx, openRoomsExpiryKey, &redis.ZRangeBy{Min: "-inf", Max: cutoff}).Result()
	if err != nil || len(ids) == 0 {
		return err
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, openRoomsKey, members...)
		pipe.HDel(ctx, openRoomsMetaKey, ids...)
		pipe.ZRem(ctx, openRoomsExpiryKey, members...)
		return nil
	})
	return err
}

func (c *roomCache) ListOpen(ctx context.Context, offset, limit int) ([]model.RoomSummary, int64, error) {
	if err := c.sweepExpired(ctx); err != nil {
		return nil, 0, err
	}
	total, err := c.client.ZCard(ctx, openRoomsKey).Result()
	if err != nil {
		return nil, 0, err
	}
	ids, err := c.client.ZRevRange(ctx, openRoomsKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []model.RoomSummary{}, total, nil
	}
	vals, err := c.client.HMGet(ctx, openRoomsMetaKey, ids...).Result()
	if err != nil {
		return nil, 0, err
	}

	out := make([]model.RoomSummary, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var summary model.RoomSummary
		if err := json.Unmarshal([]byte(s), &summary); err != nil {
			return nil, 0, err
		}
		out = append(out, summary)
	}
	return out, total, nil
}
