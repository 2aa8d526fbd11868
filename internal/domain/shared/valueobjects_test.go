package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXP_Level(t *testing.T) {
	// Reaching level N+1 costs 100*N XP, so the thresholds are
	// cumulative: level 2 at 100, level 3 at 300, level 4 at 600.
	assert.Equal(t, Level(1), XP(0).Level())
	assert.Equal(t, Level(1), XP(99).Level())
	assert.Equal(t, Level(2), XP(100).Level())
	assert.Equal(t, Level(2), XP(299).Level())
	assert.Equal(t, Level(3), XP(300).Level())
	assert.Equal(t, Level(3), XP(599).Level())
	assert.Equal(t, Level(4), XP(600).Level())
	assert.Equal(t, Level(5), XP(1000).Level())
}

func TestXP_LevelIsMonotonic(t *testing.T) {
	prev := Level(0)
	for xp := 0; xp <= 5000; xp += 50 {
		level := XP(xp).Level()
		assert.GreaterOrEqual(t, level, prev, "level must never decrease as XP grows (xp=%d)", xp)
		prev = level
	}
}

func TestLevel_RequiredXP(t *testing.T) {
	assert.Equal(t, 0, Level(1).RequiredXP())
	assert.Equal(t, 100, Level(2).RequiredXP())
	assert.Equal(t, 300, Level(3).RequiredXP())
	assert.Equal(t, 600, Level(4).RequiredXP())
	assert.Equal(t, 1000, Level(5).RequiredXP())
}

func TestXP_ProgressToNextLevel(t *testing.T) {
	// At an exact threshold progress resets to zero.
	assert.InDelta(t, 0.0, XP(100).ProgressToNextLevel(), 0.001)

	// Halfway from level 2 (100) to level 3 (300).
	assert.InDelta(t, 0.5, XP(200).ProgressToNextLevel(), 0.001)

	// Progress stays in [0, 1).
	for xp := 0; xp <= 2000; xp += 17 {
		p := XP(xp).ProgressToNextLevel()
		assert.GreaterOrEqual(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}
}

func TestLevelFor(t *testing.T) {
	info, err := LevelFor(300)
	require.NoError(t, err)
	assert.Equal(t, Level(3), info.Level)
	assert.InDelta(t, 0.0, info.ProgressToNext, 0.001)

	_, err = LevelFor(-1)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestXP_AddCapsAtMax(t *testing.T) {
	assert.Equal(t, MaxXP, MaxXP.Add(100))
	assert.Equal(t, XP(150), XP(100).Add(50))
	assert.Equal(t, MinXP, XP(10).Add(-100))
}

func TestNewUserID(t *testing.T) {
	id, err := NewUserID("7ED99BD0-87B2-4DBB-A97B-596C3F29C49B")
	require.NoError(t, err)
	// Normalized to lowercase.
	assert.Equal(t, UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"), id)

	_, err = NewUserID("not-a-uuid")
	assert.Error(t, err)

	_, err = NewUserID("")
	assert.Error(t, err)
}

func TestNewModuleID(t *testing.T) {
	id, err := NewModuleID("fitness")
	require.NoError(t, err)
	assert.Equal(t, ModuleID("fitness"), id)

	_, err = NewModuleID("strength-training")
	assert.NoError(t, err)

	_, err = NewModuleID("Fitness Module")
	assert.Error(t, err)

	_, err = NewModuleID("x")
	assert.Error(t, err, "single character is below the minimum length")
}

func TestRank(t *testing.T) {
	assert.True(t, Rank(1).IsValid())
	assert.False(t, Unranked.IsValid())
	assert.True(t, Unranked.IsUnranked())
	assert.True(t, Rank(10).IsTop(10))
	assert.False(t, Rank(11).IsTop(10))
}
