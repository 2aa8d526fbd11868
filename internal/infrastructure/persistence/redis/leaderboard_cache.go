// Package redis implements Redis caching for Momentum.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache using Redis Sorted Sets.
//
// Architecture:
//   - Sorted Set "leaderboard:rank:{metric}" stores userID -> metric value
//   - Hash "leaderboard:info:{metric}" stores userID -> Entry JSON
//
// Ranks are computed by the domain before caching and travel inside the
// JSON, so competition ranking (ties share a rank) survives round-trips
// that a raw ZREVRANK position would flatten.
//
// Only lifetime rankings live here. Windowed queries change value with
// every passing day and always go to the journal.
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	// keyLeaderboardRank is the sorted set for metric rankings.
	keyLeaderboardRank = "leaderboard:rank:"

	// keyLeaderboardInfo is the hash for entry details.
	keyLeaderboardInfo = "leaderboard:info:"
)

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// ─────────────────────────────────────────────────────────────────────────────
// Read path
// ─────────────────────────────────────────────────────────────────────────────

// GetCachedTop returns the cached top-N entries for a metric.
// Returns nil without error when the cache is cold.
func (l *LeaderboardCache) GetCachedTop(ctx context.Context, metric leaderboard.Metric, limit int) ([]*leaderboard.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rankKey := keyLeaderboardRank + string(metric)

	userIDs, err := l.cache.Client().ZRevRange(ctx, rankKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	infoKey := keyLeaderboardInfo + string(metric)
	data, err := l.cache.Client().HMGet(ctx, infoKey, userIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*leaderboard.Entry, 0, len(userIDs))
	for _, v := range data {
		str, ok := v.(string)
		if !ok {
			// Hash and sorted set drifted apart; treat as a miss so the
			// caller rebuilds from the store.
			return nil, nil
		}

		var entry leaderboard.Entry
		if err := json.Unmarshal([]byte(str), &entry); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

// GetCachedRank returns the cached entry for one user.
// Returns nil without error when the user is not cached.
func (l *LeaderboardCache) GetCachedRank(ctx context.Context, userID string, metric leaderboard.Metric) (*leaderboard.Entry, error) {
	if userID == "" {
		return nil, ErrCacheKeyEmpty
	}

	infoKey := keyLeaderboardInfo + string(metric)

	data, err := l.cache.Client().HGet(ctx, infoKey, userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry leaderboard.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	return &entry, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Write path
// ─────────────────────────────────────────────────────────────────────────────

// SetCachedTop replaces the cached ranking for a metric with a sorted
// top-N. The rebuild is a transaction: readers never observe a half
// replaced ranking.
func (l *LeaderboardCache) SetCachedTop(ctx context.Context, metric leaderboard.Metric, entries []*leaderboard.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}

	rankKey := keyLeaderboardRank + string(metric)
	infoKey := keyLeaderboardInfo + string(metric)

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, rankKey, infoKey)

	if len(entries) > 0 {
		zMembers := make([]redis.Z, 0, len(entries))
		hashData := make(map[string]interface{}, len(entries))

		for _, entry := range entries {
			if entry == nil || entry.UserID == "" {
				continue
			}

			zMembers = append(zMembers, redis.Z{
				Score:  float64(entry.Value),
				Member: entry.UserID,
			})

			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
			}
			hashData[entry.UserID] = data
		}

		if len(zMembers) > 0 {
			pipe.ZAdd(ctx, rankKey, zMembers...)
			pipe.HSet(ctx, infoKey, hashData)
		}
	}

	pipe.Expire(ctx, rankKey, ttl)
	pipe.Expire(ctx, infoKey, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Maintenance
// ─────────────────────────────────────────────────────────────────────────────

// InvalidateCache removes all cached data for a metric.
func (l *LeaderboardCache) InvalidateCache(ctx context.Context, metric leaderboard.Metric) error {
	return l.cache.Client().Del(ctx,
		keyLeaderboardRank+string(metric),
		keyLeaderboardInfo+string(metric),
	).Err()
}

// InvalidateAll removes all cached leaderboard data.
func (l *LeaderboardCache) InvalidateAll(ctx context.Context) error {
	if err := l.cache.DeleteByPattern(ctx, keyLeaderboardRank+"*"); err != nil {
		return err
	}
	return l.cache.DeleteByPattern(ctx, keyLeaderboardInfo+"*")
}
