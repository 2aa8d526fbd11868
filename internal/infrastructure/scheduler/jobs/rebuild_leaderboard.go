// Package jobs contains implementations of scheduled jobs for Momentum.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob rebuilds the cached lifetime leaderboards.
// Reads run against the cache, so a periodic rebuild keeps rankings
// fresh without touching Postgres on every request. Ranks are assigned
// here, in the domain Ranking, and stored alongside each cached entry.
type RebuildLeaderboardJob struct {
	// Dependencies
	leaderboardRepo  leaderboard.Repository
	leaderboardCache leaderboard.Cache
	eventPublisher   shared.EventPublisher
	logger           *slog.Logger

	// Configuration
	config RebuildLeaderboardConfig

	// State
	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// Metrics are the leaderboard metrics to rebuild (empty = XP and level).
	Metrics []leaderboard.Metric

	// TopN is how many entries to cache per metric.
	TopN int

	// CacheTTL is the TTL for cached leaderboard data.
	CacheTTL time.Duration

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		Metrics:  []leaderboard.Metric{leaderboard.MetricXP, leaderboard.MetricLevel},
		TopN:     leaderboard.MaxLimit,
		CacheTTL: 10 * time.Minute,
		Timeout:  2 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	MetricsProcessed int
	EntriesCached    int
	Errors           []error
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	leaderboardRepo leaderboard.Repository,
	leaderboardCache leaderboard.Cache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if len(config.Metrics) == 0 {
		config.Metrics = DefaultRebuildLeaderboardConfig().Metrics
	}
	if config.TopN <= 0 {
		config.TopN = leaderboard.MaxLimit
	}

	return &RebuildLeaderboardJob{
		leaderboardRepo:  leaderboardRepo,
		leaderboardCache: leaderboardCache,
		eventPublisher:   eventPublisher,
		logger:           logger,
		config:           config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds cached leaderboard rankings from the XP store"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting rebuild_leaderboard job")

	// Apply timeout
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	for _, metric := range j.config.Metrics {
		cached, err := j.rebuildMetric(ctx, metric)
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to rebuild leaderboard",
				"metric", metric.String(),
				"error", err,
			)
			continue
		}
		stats.MetricsProcessed++
		stats.EntriesCached += cached
	}

	// Finalize stats
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"duration", stats.Duration.String(),
		"metrics_processed", stats.MetricsProcessed,
		"entries_cached", stats.EntriesCached,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}

	return nil
}

// rebuildMetric rebuilds the cached ranking for a single metric.
func (j *RebuildLeaderboardJob) rebuildMetric(ctx context.Context, metric leaderboard.Metric) (int, error) {
	query := leaderboard.Query{
		Metric: metric,
		Limit:  j.config.TopN,
	}.Normalize()

	candidates, err := j.leaderboardRepo.ListRanked(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to list candidates: %w", err)
	}

	ranking := leaderboard.NewRanking()
	for _, entry := range candidates {
		if err := ranking.Add(entry); err != nil {
			j.logger.Warn("failed to add entry to ranking",
				"user_id", entry.UserID,
				"error", err,
			)
		}
	}
	ranking.Sort()

	top := ranking.Top(j.config.TopN)
	if err := j.leaderboardCache.SetCachedTop(ctx, metric, top, j.config.CacheTTL); err != nil {
		return 0, fmt.Errorf("failed to cache ranking: %w", err)
	}

	if j.eventPublisher != nil {
		event := shared.NewLeaderboardRebuiltEvent(metric.String(), len(top))
		_ = j.eventPublisher.Publish(event)
	}

	j.logger.Debug("leaderboard rebuilt",
		"metric", metric.String(),
		"entries", len(top),
	)

	return len(top), nil
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
