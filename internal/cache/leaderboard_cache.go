package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for per-game standings
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, gameID, userID string, score int) error
	GetTop(ctx context.Context, gameID string, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, gameID, userID string) (int64, error)
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *leaderboardCache) key(gameID string) string {
	return fmt.Sprintf("game:%s:lb", gameID)
}

func (c *leaderboardCache) UpdateScore(ctx context.Context, gameID, userID string, score int) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, c.key(gameID), redis.Z{
			Score:  float64(score),
			Member: userID,
		})
		pipe.Expire(ctx, c.key(gameID), c.ttl)
		return nil
	})
	return err
}

func (c *leaderboardCache) GetTop(ctx context.Context, gameID string, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(gameID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			UserID: z.Member.(string),
			Score:  int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, gameID, userID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(gameID), userID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
