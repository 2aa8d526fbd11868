package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

type fakeCache struct {
	invalidateAllCalls int
	invalidateErr      error
}

func (c *fakeCache) GetCachedTop(_ context.Context, _ leaderboard.Metric, _ int) ([]*leaderboard.Entry, error) {
	return nil, nil
}

func (c *fakeCache) SetCachedTop(_ context.Context, _ leaderboard.Metric, _ []*leaderboard.Entry, _ time.Duration) error {
	return nil
}

func (c *fakeCache) GetCachedRank(_ context.Context, _ string, _ leaderboard.Metric) (*leaderboard.Entry, error) {
	return nil, nil
}

func (c *fakeCache) InvalidateCache(_ context.Context, _ leaderboard.Metric) error {
	return nil
}

func (c *fakeCache) InvalidateAll(_ context.Context) error {
	c.invalidateAllCalls++
	return c.invalidateErr
}

func TestOnXPAwarded_InvalidatesCache(t *testing.T) {
	cache := &fakeCache{}
	handler := NewOnXPAwardedHandler(cache, nil, DefaultXPAwardedConfig())

	event := shared.NewXPAwardedEvent("user-1", 50, 150, "goal_completed", "")
	require.NoError(t, handler.Handle(event))

	assert.Equal(t, 1, cache.invalidateAllCalls)
}

func TestOnXPAwarded_InvalidationDisabled(t *testing.T) {
	cache := &fakeCache{}
	handler := NewOnXPAwardedHandler(cache, nil, XPAwardedConfig{InvalidateLeaderboard: false})

	require.NoError(t, handler.Handle(shared.NewXPAwardedEvent("user-1", 50, 150, "goal_completed", "")))
	assert.Zero(t, cache.invalidateAllCalls)
}

func TestOnXPAwarded_CacheErrorIsSwallowed(t *testing.T) {
	cache := &fakeCache{invalidateErr: errors.New("redis down")}
	handler := NewOnXPAwardedHandler(cache, nil, DefaultXPAwardedConfig())

	err := handler.Handle(shared.NewXPAwardedEvent("user-1", 50, 150, "goal_completed", ""))
	assert.NoError(t, err, "a cold cache is not a processing failure")
}

func TestOnXPAwarded_IgnoresOtherEvents(t *testing.T) {
	cache := &fakeCache{}
	handler := NewOnXPAwardedHandler(cache, nil, DefaultXPAwardedConfig())

	require.NoError(t, handler.Handle(shared.NewLevelUpEvent("user-1", 1, 2, 150)))
	assert.Zero(t, cache.invalidateAllCalls)
}

func TestOnXPAwarded_EventType(t *testing.T) {
	handler := NewOnXPAwardedHandler(&fakeCache{}, nil, DefaultXPAwardedConfig())
	assert.Equal(t, shared.EventXPAwarded, handler.EventType())
}
