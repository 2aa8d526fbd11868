package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

type fakeLeaderboardRepo struct {
	entries map[leaderboard.Metric][]*leaderboard.Entry
	err     error
}

func (r *fakeLeaderboardRepo) ListRanked(_ context.Context, q leaderboard.Query) ([]*leaderboard.Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.entries[q.Metric], nil
}

func (r *fakeLeaderboardRepo) GetUserEntry(_ context.Context, _ string, _ leaderboard.Query) (*leaderboard.Entry, error) {
	return nil, nil
}

func (r *fakeLeaderboardRepo) CountUsers(_ context.Context) (int, error) {
	total := 0
	for _, entries := range r.entries {
		total += len(entries)
	}
	return total, nil
}

type fakeLeaderboardCache struct {
	stored map[leaderboard.Metric][]*leaderboard.Entry
	ttl    time.Duration
	err    error
}

func newFakeLeaderboardCache() *fakeLeaderboardCache {
	return &fakeLeaderboardCache{stored: make(map[leaderboard.Metric][]*leaderboard.Entry)}
}

func (c *fakeLeaderboardCache) GetCachedTop(_ context.Context, metric leaderboard.Metric, _ int) ([]*leaderboard.Entry, error) {
	return c.stored[metric], nil
}

func (c *fakeLeaderboardCache) SetCachedTop(_ context.Context, metric leaderboard.Metric, entries []*leaderboard.Entry, ttl time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.stored[metric] = entries
	c.ttl = ttl
	return nil
}

func (c *fakeLeaderboardCache) GetCachedRank(_ context.Context, _ string, _ leaderboard.Metric) (*leaderboard.Entry, error) {
	return nil, nil
}

func (c *fakeLeaderboardCache) InvalidateCache(_ context.Context, metric leaderboard.Metric) error {
	delete(c.stored, metric)
	return nil
}

func (c *fakeLeaderboardCache) InvalidateAll(_ context.Context) error {
	c.stored = make(map[leaderboard.Metric][]*leaderboard.Entry)
	return nil
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func entry(userID string, value int) *leaderboard.Entry {
	return &leaderboard.Entry{UserID: userID, Value: value, TotalXP: value, Level: 1}
}

func TestRebuildLeaderboard_CachesRankedEntries(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: map[leaderboard.Metric][]*leaderboard.Entry{
		leaderboard.MetricXP: {entry("alice", 100), entry("bob", 300)},
	}}
	cache := newFakeLeaderboardCache()
	publisher := &fakePublisher{}

	job := NewRebuildLeaderboardJob(repo, cache, publisher, nil, RebuildLeaderboardConfig{
		Metrics:  []leaderboard.Metric{leaderboard.MetricXP},
		TopN:     10,
		CacheTTL: time.Minute,
	})

	require.NoError(t, job.Run(context.Background()))

	stored := cache.stored[leaderboard.MetricXP]
	require.Len(t, stored, 2)
	assert.Equal(t, "bob", stored[0].UserID)
	assert.Equal(t, leaderboard.Rank(1), stored[0].Rank, "ranks are assigned before caching")
	assert.Equal(t, time.Minute, cache.ttl)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventLeaderboardRebuilt, publisher.events[0].EventType())
}

func TestRebuildLeaderboard_DefaultsToBothMetrics(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: map[leaderboard.Metric][]*leaderboard.Entry{
		leaderboard.MetricXP:    {entry("alice", 100)},
		leaderboard.MetricLevel: {entry("alice", 2)},
	}}
	cache := newFakeLeaderboardCache()

	job := NewRebuildLeaderboardJob(repo, cache, nil, nil, RebuildLeaderboardConfig{})
	require.NoError(t, job.Run(context.Background()))

	assert.Len(t, cache.stored, 2)

	stats := job.LastRebuildStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.MetricsProcessed)
	assert.Equal(t, 2, stats.EntriesCached)
	assert.Empty(t, stats.Errors)
}

func TestRebuildLeaderboard_RepositoryErrorIsReported(t *testing.T) {
	repo := &fakeLeaderboardRepo{err: shared.ErrStoreUnavailable}
	cache := newFakeLeaderboardCache()

	job := NewRebuildLeaderboardJob(repo, cache, nil, nil, RebuildLeaderboardConfig{
		Metrics: []leaderboard.Metric{leaderboard.MetricXP},
	})

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, cache.stored)

	stats := job.LastRebuildStats()
	require.NotNil(t, stats)
	assert.Zero(t, stats.MetricsProcessed)
	assert.Len(t, stats.Errors, 1)
}

func TestRebuildLeaderboard_TopNLimitsCachedEntries(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: map[leaderboard.Metric][]*leaderboard.Entry{
		leaderboard.MetricXP: {entry("a", 10), entry("b", 20), entry("c", 30)},
	}}
	cache := newFakeLeaderboardCache()

	job := NewRebuildLeaderboardJob(repo, cache, nil, nil, RebuildLeaderboardConfig{
		Metrics: []leaderboard.Metric{leaderboard.MetricXP},
		TopN:    2,
	})
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, cache.stored[leaderboard.MetricXP], 2)
	assert.Equal(t, "c", cache.stored[leaderboard.MetricXP][0].UserID)
}

func TestRebuildLeaderboard_Name(t *testing.T) {
	job := NewRebuildLeaderboardJob(&fakeLeaderboardRepo{}, newFakeLeaderboardCache(), nil, nil, RebuildLeaderboardConfig{})
	assert.Equal(t, "rebuild_leaderboard", job.Name())
	assert.NotEmpty(t, job.Description())
}
