package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

func TestAchievementEvaluator_Evaluate(t *testing.T) {
	catalog := []Achievement{
		{ID: "first-goal", Condition: GoalsCreatedCondition{Threshold: 1}, XPReward: 25},
		{ID: "finisher", Condition: GoalsCompletedCondition{Threshold: 5}, XPReward: 100},
		{ID: "week-streak", Condition: StreakCondition{Threshold: 7}, XPReward: 50},
	}

	evaluator := NewAchievementEvaluator()

	stats := StatsSnapshot{
		TotalGoals:     3,
		CompletedGoals: 5,
		StreakCount:    2,
	}

	unlockable := evaluator.Evaluate(catalog, map[string]bool{}, stats)
	require.Len(t, unlockable, 2)
	assert.Equal(t, "first-goal", unlockable[0].ID)
	assert.Equal(t, "finisher", unlockable[1].ID)
}

func TestAchievementEvaluator_SkipsAlreadyUnlocked(t *testing.T) {
	catalog := []Achievement{
		{ID: "first-goal", Condition: GoalsCreatedCondition{Threshold: 1}},
	}

	evaluator := NewAchievementEvaluator()
	stats := StatsSnapshot{TotalGoals: 10}

	unlockable := evaluator.Evaluate(catalog, map[string]bool{"first-goal": true}, stats)
	assert.Empty(t, unlockable)
}

func TestAchievementEvaluator_SkipsNilCondition(t *testing.T) {
	catalog := []Achievement{
		{ID: "broken", Condition: nil},
	}

	evaluator := NewAchievementEvaluator()
	unlockable := evaluator.Evaluate(catalog, map[string]bool{}, StatsSnapshot{TotalGoals: 100})
	assert.Empty(t, unlockable)
}

func TestStreakCondition_ChecksCurrentStreakOnly(t *testing.T) {
	// A streak broken before evaluation does not count, even if the
	// user once held a longer one.
	cond := StreakCondition{Threshold: 7}

	assert.False(t, cond.Met(StatsSnapshot{StreakCount: 1}))
	assert.True(t, cond.Met(StatsSnapshot{StreakCount: 7}))
	assert.True(t, cond.Met(StatsSnapshot{StreakCount: 30}))
}

func TestModuleGoalsCompletedCondition(t *testing.T) {
	cond := ModuleGoalsCompletedCondition{ModuleID: "fitness", Threshold: 3}

	stats := StatsSnapshot{
		CompletedGoalsByModule: map[shared.ModuleID]int{
			"fitness":  3,
			"learning": 10,
		},
	}
	assert.True(t, cond.Met(stats))

	stats.CompletedGoalsByModule["fitness"] = 2
	assert.False(t, cond.Met(stats))

	// Missing module counts as zero.
	assert.False(t, cond.Met(StatsSnapshot{}))
}

func TestParseCondition(t *testing.T) {
	cond, err := ParseCondition(ConditionStreak, 7, "")
	require.NoError(t, err)
	assert.Equal(t, ConditionStreak, cond.Kind())

	cond, err = ParseCondition(ConditionModuleGoalsCompleted, 3, "fitness")
	require.NoError(t, err)
	assert.Equal(t, ConditionModuleGoalsCompleted, cond.Kind())
}

func TestParseCondition_Errors(t *testing.T) {
	_, err := ParseCondition(ConditionStreak, 0, "")
	assert.Error(t, err, "threshold below 1 is rejected")

	_, err = ParseCondition(ConditionModuleGoalsCompleted, 3, "")
	assert.Error(t, err, "module condition requires a module ID")

	_, err = ParseCondition("unknown_kind", 1, "")
	assert.Error(t, err, "unknown kinds must fail loudly, not become never-unlockable")
}
