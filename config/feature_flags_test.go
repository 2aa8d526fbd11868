package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()
	ctx := &FeatureContext{UserID: "user-1"}

	assert.True(t, ff.IsEnabled(FeatureGamificationStreaks, ctx))
	assert.True(t, ff.IsEnabled(FeatureLeaderboardGlobal, ctx))
	assert.False(t, ff.IsEnabled(FeatureGamificationStreakFreeze, ctx))
	assert.False(t, ff.IsEnabled(FeatureExperimentalWebhooks, ctx))
	assert.False(t, ff.IsEnabled("does.not.exist", ctx))
}

func TestFeatureFlags_EnvironmentOverride(t *testing.T) {
	t.Setenv("FEATURE_LEADERBOARD_WINDOWED", "false")
	t.Setenv("FEATURE_EXPERIMENTAL_WEBHOOKS", "true")
	t.Setenv("FEATURE_SCHEDULE_CUSTOM_FREQUENCY", "0")

	ff := LoadFeatureFlags()
	ctx := &FeatureContext{UserID: "user-1"}

	assert.False(t, ff.IsEnabled(FeatureLeaderboardWindowed, ctx))
	assert.True(t, ff.IsEnabled(FeatureExperimentalWebhooks, ctx))
	assert.False(t, ff.IsEnabled(FeatureScheduleCustom, ctx))
}

func TestFeatureFlags_AdminSeesEverything(t *testing.T) {
	ff := LoadFeatureFlags()
	admin := &FeatureContext{UserID: "admin-1", IsAdmin: true}

	assert.True(t, ff.IsEnabled(FeatureExperimentalWebhooks, admin))
	assert.True(t, ff.IsEnabled(FeatureGamificationStreakFreeze, admin))
}

func TestFeatureFlags_UserOverrideWinsOverAdmin(t *testing.T) {
	ff := LoadFeatureFlags()
	admin := &FeatureContext{UserID: "admin-1", IsAdmin: true}

	ff.SetUserOverride("admin-1", FeatureLeaderboardGlobal, false)
	assert.False(t, ff.IsEnabled(FeatureLeaderboardGlobal, admin))

	ff.ClearUserOverrides("admin-1")
	assert.True(t, ff.IsEnabled(FeatureLeaderboardGlobal, admin))
}

func TestFeatureFlags_RolloutIsConsistentPerUser(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureScheduleCustom, 50))

	ctx := &FeatureContext{UserID: "user-1"}
	first := ff.IsEnabled(FeatureScheduleCustom, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureScheduleCustom, ctx), "bucket assignment must be stable")
	}
}

func TestFeatureFlags_RolloutBoundaries(t *testing.T) {
	ff := LoadFeatureFlags()
	ctx := &FeatureContext{UserID: "user-1"}

	require.NoError(t, ff.SetRolloutPercent(FeatureScheduleCustom, 100))
	assert.True(t, ff.IsEnabled(FeatureScheduleCustom, ctx))

	require.NoError(t, ff.SetRolloutPercent(FeatureScheduleCustom, 0))
	assert.False(t, ff.IsEnabled(FeatureScheduleCustom, ctx))
}

func TestFeatureFlags_SetRolloutPercentErrors(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("does.not.exist", 50), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureScheduleCustom, 150), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureScheduleCustom, -1), ErrInvalidRolloutPercent)
}

func TestFeatureFlags_GetVariant(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.EnableFeature(FeatureExperimentalLevelCurve))

	ctx := &FeatureContext{UserID: "user-1"}
	variant := ff.GetVariant(FeatureExperimentalLevelCurve, ctx)
	assert.Contains(t, []string{"quadratic", "exponential"}, variant)

	// Stable assignment
	assert.Equal(t, variant, ff.GetVariant(FeatureExperimentalLevelCurve, ctx))

	// Disabled feature or missing variants return no variant.
	require.NoError(t, ff.DisableFeature(FeatureExperimentalLevelCurve))
	assert.Empty(t, ff.GetVariant(FeatureExperimentalLevelCurve, ctx))
	assert.Empty(t, ff.GetVariant(FeatureLeaderboardGlobal, &FeatureContext{UserID: "user-1"}))
}

func TestFeatureFlags_GetAllFeaturesReturnsCopies(t *testing.T) {
	ff := LoadFeatureFlags()

	all := ff.GetAllFeatures()
	require.Contains(t, all, FeatureLeaderboardGlobal)

	all[FeatureLeaderboardGlobal].Enabled = false
	assert.True(t, ff.IsEnabled(FeatureLeaderboardGlobal, &FeatureContext{UserID: "user-1"}),
		"mutating the copy must not affect live flags")
}
