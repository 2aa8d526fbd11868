package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeLeaderboardRepo struct {
	entries   []*leaderboard.Entry
	listCalls int
	lastQuery leaderboard.Query
}

func (r *fakeLeaderboardRepo) ListRanked(_ context.Context, q leaderboard.Query) ([]*leaderboard.Entry, error) {
	r.listCalls++
	r.lastQuery = q
	return r.entries, nil
}

func (r *fakeLeaderboardRepo) GetUserEntry(_ context.Context, userID string, _ leaderboard.Query) (*leaderboard.Entry, error) {
	for _, e := range r.entries {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeLeaderboardRepo) CountUsers(_ context.Context) (int, error) {
	return len(r.entries), nil
}

type fakeLeaderboardCache struct {
	top      []*leaderboard.Entry
	getCalls int
}

func (c *fakeLeaderboardCache) GetCachedTop(_ context.Context, _ leaderboard.Metric, _ int) ([]*leaderboard.Entry, error) {
	c.getCalls++
	return c.top, nil
}

func (c *fakeLeaderboardCache) SetCachedTop(_ context.Context, _ leaderboard.Metric, _ []*leaderboard.Entry, _ time.Duration) error {
	return nil
}

func (c *fakeLeaderboardCache) GetCachedRank(_ context.Context, _ string, _ leaderboard.Metric) (*leaderboard.Entry, error) {
	return nil, nil
}

func (c *fakeLeaderboardCache) InvalidateCache(_ context.Context, _ leaderboard.Metric) error {
	return nil
}

func (c *fakeLeaderboardCache) InvalidateAll(_ context.Context) error {
	return nil
}

func entry(userID string, value int) *leaderboard.Entry {
	return &leaderboard.Entry{UserID: userID, Value: value, TotalXP: value, Level: 1}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestGetLeaderboard_RanksCandidates(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: []*leaderboard.Entry{
		entry("alice", 300),
		entry("bob", 500),
		entry("carol", 300),
	}}
	handler := NewGetLeaderboardHandler(repo, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "bob", result.Entries[0].UserID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, 2, result.Entries[2].Rank, "tied values share a rank")
	assert.Equal(t, "alice", result.Entries[1].UserID, "ties ordered by user id")
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, "xp", result.Metric)
}

func TestGetLeaderboard_ServesFromCache(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: []*leaderboard.Entry{entry("alice", 100)}}
	cache := &fakeLeaderboardCache{top: []*leaderboard.Entry{
		{Rank: 1, UserID: "bob", Value: 500, TotalXP: 500, Level: 3},
	}}
	handler := NewGetLeaderboardHandler(repo, cache)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.getCalls)
	assert.Zero(t, repo.listCalls, "cache hit skips the repository")
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "bob", result.Entries[0].UserID)
}

func TestGetLeaderboard_EmptyCacheFallsThrough(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: []*leaderboard.Entry{entry("alice", 100)}}
	cache := &fakeLeaderboardCache{}
	handler := NewGetLeaderboardHandler(repo, cache)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "alice", result.Entries[0].UserID)
}

func TestGetLeaderboard_WindowedQueryBypassesCache(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: []*leaderboard.Entry{entry("alice", 100)}}
	cache := &fakeLeaderboardCache{top: []*leaderboard.Entry{
		{Rank: 1, UserID: "stale", Value: 999},
	}}
	handler := NewGetLeaderboardHandler(repo, cache)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{WindowDays: 7})
	require.NoError(t, err)

	assert.Zero(t, cache.getCalls, "windowed rankings are never cached")
	assert.Equal(t, 7, repo.lastQuery.WindowDays)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "alice", result.Entries[0].UserID)
}

func TestGetLeaderboard_LimitNormalization(t *testing.T) {
	repo := &fakeLeaderboardRepo{}
	handler := NewGetLeaderboardHandler(repo, nil)

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, leaderboard.MaxLimit, repo.lastQuery.Limit)

	_, err = handler.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, leaderboard.DefaultLimit, repo.lastQuery.Limit)
}

func TestGetLeaderboard_Validation(t *testing.T) {
	handler := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, nil)

	cases := []struct {
		name  string
		query GetLeaderboardQuery
	}{
		{"unknown metric", GetLeaderboardQuery{Metric: "karma"}},
		{"negative limit", GetLeaderboardQuery{Limit: -1}},
		{"negative window", GetLeaderboardQuery{WindowDays: -7}},
		{"windowed level ranking", GetLeaderboardQuery{Metric: "level", WindowDays: 7}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), tc.query)
			assert.Error(t, err)
		})
	}
}
