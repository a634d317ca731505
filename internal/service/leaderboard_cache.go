package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// LeaderboardCache keeps recent leaderboard snapshots in Redis. A nil client
// disables caching.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func leaderboardKey(limit int) string {
	return "leaderboard:" + strconv.Itoa(limit)
}

func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]domain.LeaderboardEntry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, leaderboardKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.WithContext(ctx).Warn("leaderboard cache read failed", "error", err)
		}
		return nil, false
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) Set(ctx context.Context, limit int, entries []domain.LeaderboardEntry) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, leaderboardKey(limit), raw, c.ttl).Err(); err != nil {
		logger.WithContext(ctx).Warn("leaderboard cache write failed", "error", err)
	}
}
