package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-app/momentum-core/internal/domain/gamification"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

const testUserID = "6fa1cbb8-5f40-4f8e-9c1d-2a7b3d4e5f60"

// ──────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeProfileRepo struct {
	mu            sync.Mutex
	profiles      map[shared.UserID]*gamification.UserProfile
	conflictsLeft int
	applyCalls    int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[shared.UserID]*gamification.UserProfile)}
}

func (r *fakeProfileRepo) GetOrCreate(_ context.Context, userID shared.UserID) (*gamification.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		clone := *p
		return &clone, nil
	}
	p, err := gamification.NewUserProfile(userID, "UTC")
	if err != nil {
		return nil, err
	}
	r.profiles[userID] = p
	clone := *p
	return &clone, nil
}

func (r *fakeProfileRepo) ApplyProgress(_ context.Context, userID shared.UserID, update gamification.ProgressUpdate) (*gamification.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyCalls++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return nil, shared.ErrConcurrentModification
	}
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	p.TotalXP = p.TotalXP.Add(update.XPDelta)
	p.CurrentLevel = p.TotalXP.Level()
	p.StreakCount = update.StreakCount
	last := update.LastActivityAt
	p.LastActivityAt = &last
	clone := *p
	return &clone, nil
}

func (r *fakeProfileRepo) has(userID shared.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.profiles[userID]
	return ok
}

type fakeTransactionRepo struct {
	mu       sync.Mutex
	appended []gamification.XPTransaction
}

func (r *fakeTransactionRepo) Append(_ context.Context, tx gamification.XPTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, tx)
	return nil
}

func (r *fakeTransactionRepo) ListByUser(_ context.Context, userID shared.UserID, limit int) ([]gamification.XPTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []gamification.XPTransaction
	for _, tx := range r.appended {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// fkTransactionRepo mirrors the xp_transactions schema: user_id references
// user_profiles, so an append without a profile row fails.
type fkTransactionRepo struct {
	fakeTransactionRepo
	profiles *fakeProfileRepo
}

func (r *fkTransactionRepo) Append(ctx context.Context, tx gamification.XPTransaction) error {
	if !r.profiles.has(tx.UserID) {
		return shared.WrapError("gamification", "Append", shared.ErrInvalidEntity,
			"foreign key violation: user_profiles row missing", nil)
	}
	return r.fakeTransactionRepo.Append(ctx, tx)
}

type fakeAchievementRepo struct {
	mu          sync.Mutex
	catalog     []gamification.Achievement
	unlocked    map[string]bool
	loseTheRace bool
	created     []gamification.Unlock
}

func newFakeAchievementRepo(catalog ...gamification.Achievement) *fakeAchievementRepo {
	return &fakeAchievementRepo{catalog: catalog, unlocked: make(map[string]bool)}
}

func (r *fakeAchievementRepo) ListDefinitions(_ context.Context) ([]gamification.Achievement, error) {
	return r.catalog, nil
}

func (r *fakeAchievementRepo) ListUnlockedIDs(_ context.Context, _ shared.UserID) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.unlocked))
	for id := range r.unlocked {
		out[id] = true
	}
	return out, nil
}

func (r *fakeAchievementRepo) CreateUnlockIfAbsent(_ context.Context, unlock gamification.Unlock) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loseTheRace || r.unlocked[unlock.AchievementID] {
		return false, nil
	}
	r.unlocked[unlock.AchievementID] = true
	r.created = append(r.created, unlock)
	return true, nil
}

func (r *fakeAchievementRepo) ListUnlocks(_ context.Context, _ shared.UserID) ([]gamification.Unlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created, nil
}

type fakeStatsRepo struct {
	snapshot gamification.StatsSnapshot
}

func (r *fakeStatsRepo) Snapshot(_ context.Context, _ shared.UserID) (gamification.StatsSnapshot, error) {
	return r.snapshot, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) eventTypes() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

type handlerFixture struct {
	handler      *ProcessActionHandler
	profiles     *fakeProfileRepo
	transactions *fakeTransactionRepo
	achievements *fakeAchievementRepo
	stats        *fakeStatsRepo
	publisher    *fakePublisher
}

func newHandlerFixture(catalog ...gamification.Achievement) *handlerFixture {
	f := &handlerFixture{
		profiles:     newFakeProfileRepo(),
		transactions: &fakeTransactionRepo{},
		achievements: newFakeAchievementRepo(catalog...),
		stats:        &fakeStatsRepo{},
		publisher:    &fakePublisher{},
	}
	f.handler = NewProcessActionHandler(f.profiles, f.transactions, f.achievements, f.stats, f.publisher)
	return f
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestProcessAction_AwardsXPAndWritesJournal(t *testing.T) {
	f := newHandlerFixture()

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "goal_completed",
		Difficulty: "easy",
	})
	require.NoError(t, err)

	assert.Equal(t, 50, result.XPAwarded)
	assert.Equal(t, 50, result.TotalXP)
	assert.Equal(t, 1, result.Level)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.StreakCount, "first activity starts a streak of one")
	assert.False(t, result.StreakBroken)

	require.Len(t, f.transactions.appended, 1)
	tx := f.transactions.appended[0]
	assert.Equal(t, gamification.ActionGoalCompleted, tx.ActionType)
	assert.Equal(t, 50, tx.XPAwarded)
	assert.NotEmpty(t, tx.ID)

	assert.Contains(t, f.publisher.eventTypes(), shared.EventXPAwarded)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventStreakUpdated)
	assert.NotContains(t, f.publisher.eventTypes(), shared.EventLevelUp)
}

func TestProcessAction_FirstActionOfNewUserReachesJournal(t *testing.T) {
	// The journal table references user_profiles, so the very first action
	// of a user must create the profile row before appending.
	profiles := newFakeProfileRepo()
	transactions := &fkTransactionRepo{profiles: profiles}
	achievements := newFakeAchievementRepo()
	stats := &fakeStatsRepo{}
	publisher := &fakePublisher{}

	handler := NewProcessActionHandler(profiles, transactions, achievements, stats, publisher)

	result, err := handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "goal_created",
	})
	require.NoError(t, err, "a fresh user's first action must not trip the profile reference")

	assert.Equal(t, 10, result.XPAwarded)
	assert.Len(t, transactions.appended, 1)
	assert.True(t, profiles.has(shared.UserID(testUserID)))
}

func TestProcessAction_ConcurrentActionsLoseNoUpdates(t *testing.T) {
	f := newHandlerFixture(gamification.Achievement{
		ID:        "first-goal",
		Condition: gamification.GoalsCreatedCondition{Threshold: 1},
		XPReward:  25,
	})
	f.stats.snapshot = gamification.StatsSnapshot{TotalGoals: 1}

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.handler.Handle(context.Background(), ProcessActionCommand{
				UserID:     testUserID,
				ActionType: "goal_progress",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	profile, err := f.profiles.GetOrCreate(context.Background(), shared.UserID(testUserID))
	require.NoError(t, err)

	// Every award lands: workers * 5 XP plus the one-time unlock bonus.
	assert.Equal(t, workers*5+25, profile.TotalXP.Int())
	assert.Len(t, f.achievements.created, 1, "the unlock race has exactly one winner")
	assert.Len(t, f.transactions.appended, workers+1, "one journal row per action plus one bonus row")
}

func TestProcessAction_DefaultsToEasyDifficulty(t *testing.T) {
	f := newHandlerFixture()

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "goal_created",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.XPAwarded)
	assert.Equal(t, gamification.DifficultyEasy, f.transactions.appended[0].Difficulty)
}

func TestProcessAction_DifficultyMultiplier(t *testing.T) {
	f := newHandlerFixture()

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "workout_completed",
		Difficulty: "expert",
	})
	require.NoError(t, err)
	assert.Equal(t, 120, result.XPAwarded)
}

func TestProcessAction_LevelUp(t *testing.T) {
	f := newHandlerFixture()

	// Lift the profile to the edge of level 2 first.
	profile, err := f.profiles.GetOrCreate(context.Background(), shared.UserID(testUserID))
	require.NoError(t, err)
	_, err = f.profiles.ApplyProgress(context.Background(), profile.UserID, gamification.ProgressUpdate{
		XPDelta:        95,
		StreakCount:    1,
		LastActivityAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "goal_created",
	})
	require.NoError(t, err)

	assert.Equal(t, 105, result.TotalXP)
	assert.Equal(t, 2, result.Level)
	assert.True(t, result.LeveledUp)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventLevelUp)
}

func TestProcessAction_StreakContinuesOnConsecutiveDay(t *testing.T) {
	f := newHandlerFixture()

	yesterday := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	profile, err := f.profiles.GetOrCreate(context.Background(), shared.UserID(testUserID))
	require.NoError(t, err)
	_, err = f.profiles.ApplyProgress(context.Background(), profile.UserID, gamification.ProgressUpdate{
		XPDelta:        10,
		StreakCount:    3,
		LastActivityAt: yesterday,
	})
	require.NoError(t, err)

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "habit_checked",
		OccurredAt: today,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.StreakCount)
	assert.False(t, result.StreakBroken)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventStreakUpdated)
	assert.NotContains(t, f.publisher.eventTypes(), shared.EventStreakBroken)
}

func TestProcessAction_StreakBreaksAfterGap(t *testing.T) {
	f := newHandlerFixture()

	lastWeek := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	profile, err := f.profiles.GetOrCreate(context.Background(), shared.UserID(testUserID))
	require.NoError(t, err)
	_, err = f.profiles.ApplyProgress(context.Background(), profile.UserID, gamification.ProgressUpdate{
		XPDelta:        10,
		StreakCount:    7,
		LastActivityAt: lastWeek,
	})
	require.NoError(t, err)

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "habit_checked",
		OccurredAt: today,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.StreakCount)
	assert.True(t, result.StreakBroken)
	assert.Equal(t, 7, result.PreviousStreak)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventStreakBroken)
	assert.NotContains(t, f.publisher.eventTypes(), shared.EventStreakUpdated)
}

func TestProcessAction_UnlocksAchievementWithBonus(t *testing.T) {
	f := newHandlerFixture(gamification.Achievement{
		ID:        "first-goal",
		Name:      "First Goal",
		Condition: gamification.GoalsCreatedCondition{Threshold: 1},
		XPReward:  25,
	})
	f.stats.snapshot = gamification.StatsSnapshot{TotalGoals: 1}

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "goal_created",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"first-goal"}, result.AchievementsUnlocked)
	assert.Equal(t, 10, result.XPAwarded)
	assert.Equal(t, 25, result.BonusXP)
	assert.Equal(t, 35, result.TotalXP)

	// The bonus lands in the journal as a system transaction.
	require.Len(t, f.transactions.appended, 2)
	bonus := f.transactions.appended[1]
	assert.Equal(t, gamification.ActionAchievementBonus, bonus.ActionType)
	assert.Equal(t, 25, bonus.XPAwarded)

	assert.Contains(t, f.publisher.eventTypes(), shared.EventAchievementUnlocked)
}

func TestProcessAction_LostUnlockRaceSkipsBonus(t *testing.T) {
	f := newHandlerFixture(gamification.Achievement{
		ID:        "first-goal",
		Condition: gamification.GoalsCreatedCondition{Threshold: 1},
		XPReward:  25,
	})
	f.stats.snapshot = gamification.StatsSnapshot{TotalGoals: 1}
	f.achievements.loseTheRace = true

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "goal_created",
	})
	require.NoError(t, err)

	assert.Empty(t, result.AchievementsUnlocked)
	assert.Zero(t, result.BonusXP)
	assert.Equal(t, 10, result.TotalXP)
	assert.Len(t, f.transactions.appended, 1, "no bonus journal entry when the race is lost")
	assert.NotContains(t, f.publisher.eventTypes(), shared.EventAchievementUnlocked)
}

func TestProcessAction_StreakAchievementSeesAdvancedStreak(t *testing.T) {
	f := newHandlerFixture(gamification.Achievement{
		ID:        "week-streak",
		Condition: gamification.StreakCondition{Threshold: 7},
		XPReward:  100,
	})

	yesterday := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	profile, err := f.profiles.GetOrCreate(context.Background(), shared.UserID(testUserID))
	require.NoError(t, err)
	_, err = f.profiles.ApplyProgress(context.Background(), profile.UserID, gamification.ProgressUpdate{
		XPDelta:        10,
		StreakCount:    6,
		LastActivityAt: yesterday,
	})
	require.NoError(t, err)

	// The stats store still reports the stale streak.
	f.stats.snapshot = gamification.StatsSnapshot{StreakCount: 6}

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "habit_checked",
		OccurredAt: today,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, result.StreakCount)
	assert.Equal(t, []string{"week-streak"}, result.AchievementsUnlocked)
}

func TestProcessAction_RetriesOnceOnConflict(t *testing.T) {
	f := newHandlerFixture()
	f.profiles.conflictsLeft = 1

	result, err := f.handler.Handle(context.Background(), ProcessActionCommand{
		UserID:     testUserID,
		ActionType: "goal_progress",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.XPAwarded)
	assert.Equal(t, 2, f.profiles.applyCalls)
	assert.Len(t, f.transactions.appended, 1, "the journal is written once regardless of retries")
}

func TestProcessAction_ValidationErrors(t *testing.T) {
	f := newHandlerFixture()

	cases := []struct {
		name string
		cmd  ProcessActionCommand
	}{
		{"invalid user id", ProcessActionCommand{UserID: "not-a-uuid", ActionType: "goal_created"}},
		{"unknown action type", ProcessActionCommand{UserID: testUserID, ActionType: "coffee_brewed"}},
		{"achievement bonus is not an input action", ProcessActionCommand{UserID: testUserID, ActionType: "achievement_bonus"}},
		{"unknown difficulty", ProcessActionCommand{UserID: testUserID, ActionType: "goal_created", Difficulty: "nightmare"}},
		{"invalid module id", ProcessActionCommand{UserID: testUserID, ActionType: "goal_created", ModuleID: "Has Spaces"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.handler.Handle(context.Background(), tc.cmd)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}

	assert.Empty(t, f.transactions.appended, "invalid commands never reach the journal")
}
