// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/momentum-app/momentum-core/internal/domain/gamification"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
	"github.com/momentum-app/momentum-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROCESS ACTION COMMAND
// The single entry point of the gamification engine: one user action in,
// XP/level/streak/achievement updates out.
// ══════════════════════════════════════════════════════════════════════════════

// ProcessActionCommand contains the data of a single user action.
type ProcessActionCommand struct {
	// UserID is the ID of the acting user.
	UserID string

	// ActionType is what the user did (goal_created, goal_completed, ...).
	ActionType string

	// ModuleID is the goal module the action belongs to (optional).
	ModuleID string

	// Difficulty of the completed action. Defaults to "easy" when empty.
	Difficulty string

	// OccurredAt is when the action happened (defaults to now if zero).
	OccurredAt time.Time

	// Metadata contains additional action-specific data.
	Metadata map[string]interface{}

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ProcessActionCommand) Validate() error {
	const op = "ProcessAction"

	if _, err := shared.NewUserID(c.UserID); err != nil {
		return shared.ValidationError("gamification", op, "userId", "must be a valid UUID")
	}
	if !gamification.ActionType(c.ActionType).IsValid() {
		return shared.ValidationError("gamification", op, "actionType", fmt.Sprintf("unknown action type %q", c.ActionType))
	}
	if c.Difficulty != "" && !gamification.Difficulty(c.Difficulty).IsValid() {
		return shared.ValidationError("gamification", op, "difficulty", fmt.Sprintf("unknown difficulty %q", c.Difficulty))
	}
	if c.ModuleID != "" {
		if _, err := shared.NewModuleID(c.ModuleID); err != nil {
			return shared.ValidationError("gamification", op, "moduleId", "invalid module ID format")
		}
	}
	return nil
}

// ProcessActionResult contains the outcome of processing an action.
type ProcessActionResult struct {
	// UserID is the acting user.
	UserID string

	// XPAwarded is the XP for the action itself (without achievement bonuses).
	XPAwarded int

	// BonusXP is the total XP from achievements unlocked by this action.
	BonusXP int

	// TotalXP is the user's XP total after all awards.
	TotalXP int

	// Level is the user's level after all awards.
	Level int

	// LeveledUp indicates the action crossed at least one level boundary.
	LeveledUp bool

	// StreakCount is the streak after this action.
	StreakCount int

	// StreakBroken indicates the previous streak was reset by this action.
	StreakBroken bool

	// PreviousStreak is the streak length before a reset (if broken).
	PreviousStreak int

	// AchievementsUnlocked lists IDs of achievements unlocked by this action.
	AchievementsUnlocked []string

	// Events contains domain events generated.
	Events []shared.Event

	// ProcessedAt is when the action was processed.
	ProcessedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ProcessActionHandler handles the ProcessActionCommand.
//
// The handler never does a read-modify-write of the whole profile: XP and
// streak changes go through ProfileRepository.ApplyProgress, which the store
// applies atomically. A concurrency conflict is retried once with fresh data;
// an unavailable store is propagated as-is.
type ProcessActionHandler struct {
	profiles     gamification.ProfileRepository
	transactions gamification.TransactionRepository
	achievements gamification.AchievementRepository
	stats        gamification.StatsRepository
	evaluator    *gamification.AchievementEvaluator
	publisher    shared.EventPublisher
	retrier      *retry.Retrier
}

// NewProcessActionHandler creates a new ProcessActionHandler.
func NewProcessActionHandler(
	profiles gamification.ProfileRepository,
	transactions gamification.TransactionRepository,
	achievements gamification.AchievementRepository,
	stats gamification.StatsRepository,
	publisher shared.EventPublisher,
) *ProcessActionHandler {
	return &ProcessActionHandler{
		profiles:     profiles,
		transactions: transactions,
		achievements: achievements,
		stats:        stats,
		evaluator:    gamification.NewAchievementEvaluator(),
		publisher:    publisher,
		retrier:      retry.ConflictRetrier(),
	}
}

// Handle executes the process action command.
func (h *ProcessActionHandler) Handle(ctx context.Context, cmd ProcessActionCommand) (*ProcessActionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID := shared.UserID(cmd.UserID)
	difficulty := gamification.Difficulty(cmd.Difficulty)
	if cmd.Difficulty == "" {
		difficulty = gamification.DifficultyEasy
	}

	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	amount, err := gamification.CalculateXP(gamification.ActionType(cmd.ActionType), difficulty)
	if err != nil {
		return nil, err
	}

	// The journal row references the profile, so the zero-state profile
	// must exist before the append. Creating it is not a progress
	// mutation: the journal still precedes every XP and streak update,
	// and idempotent retries of the profile update never duplicate it.
	if _, err := h.profiles.GetOrCreate(ctx, userID); err != nil {
		return nil, fmt.Errorf("process_action: ensure profile: %w", err)
	}

	tx := gamification.XPTransaction{
		ID:         uuid.New().String(),
		UserID:     userID,
		ActionType: gamification.ActionType(cmd.ActionType),
		ModuleID:   shared.ModuleID(cmd.ModuleID),
		Difficulty: difficulty,
		XPAwarded:  amount,
		OccurredAt: occurredAt,
	}
	if err := h.transactions.Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("process_action: append transaction: %w", err)
	}

	updated, adv, err := h.applyProgress(ctx, userID, amount, occurredAt)
	if err != nil {
		return nil, err
	}

	oldInfo, _ := shared.LevelFor(updated.TotalXP.Int() - amount)
	newInfo := updated.LevelInfo()

	result := &ProcessActionResult{
		UserID:         cmd.UserID,
		XPAwarded:      amount,
		TotalXP:        updated.TotalXP.Int(),
		Level:          newInfo.Level.Int(),
		LeveledUp:      newInfo.Level > oldInfo.Level,
		StreakCount:    adv.StreakCount,
		StreakBroken:   adv.Broken,
		PreviousStreak: adv.PreviousStreak,
		ProcessedAt:    occurredAt,
		Events:         make([]shared.Event, 0, 4),
	}

	result.Events = append(result.Events,
		shared.NewXPAwardedEvent(cmd.UserID, amount, result.TotalXP, cmd.ActionType, cmd.ModuleID))
	if result.LeveledUp {
		result.Events = append(result.Events,
			shared.NewLevelUpEvent(cmd.UserID, oldInfo.Level.Int(), newInfo.Level.Int(), result.TotalXP))
	}
	if adv.Broken {
		result.Events = append(result.Events,
			shared.NewStreakBrokenEvent(cmd.UserID, adv.PreviousStreak))
	} else if adv.Continued {
		result.Events = append(result.Events,
			shared.NewStreakUpdatedEvent(cmd.UserID, adv.StreakCount))
	}

	if err := h.unlockAchievements(ctx, userID, adv.StreakCount, occurredAt, result); err != nil {
		return nil, err
	}

	for _, event := range result.Events {
		_ = h.publisher.Publish(event)
	}

	return result, nil
}

// applyProgress reads the profile, advances the streak, and applies the
// atomic update. On a concurrency conflict the whole read-advance-apply
// cycle runs once more with fresh data.
func (h *ProcessActionHandler) applyProgress(
	ctx context.Context,
	userID shared.UserID,
	xpDelta int,
	occurredAt time.Time,
) (*gamification.UserProfile, gamification.StreakAdvance, error) {
	var (
		updated *gamification.UserProfile
		adv     gamification.StreakAdvance
	)

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		profile, err := h.profiles.GetOrCreate(ctx, userID)
		if err != nil {
			return retry.Permanent(err)
		}

		adv = gamification.AdvanceStreak(profile.StreakCount, profile.LastActivityAt, occurredAt, profile.Location())

		updated, err = h.profiles.ApplyProgress(ctx, userID, gamification.ProgressUpdate{
			XPDelta:        xpDelta,
			StreakCount:    adv.StreakCount,
			LastActivityAt: occurredAt,
		})
		if err != nil {
			if shared.IsConflict(err) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}
		return nil
	})
	if err != nil {
		return nil, gamification.StreakAdvance{}, fmt.Errorf("process_action: apply progress: %w", err)
	}
	return updated, adv, nil
}

// unlockAchievements evaluates the catalog against a fresh stats snapshot
// and records unlocks. Losing the unlock race to a concurrent action is
// not an error: the bonus is simply skipped.
func (h *ProcessActionHandler) unlockAchievements(
	ctx context.Context,
	userID shared.UserID,
	streakCount int,
	occurredAt time.Time,
	result *ProcessActionResult,
) error {
	catalog, err := h.achievements.ListDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("process_action: list achievements: %w", err)
	}
	if len(catalog) == 0 {
		return nil
	}

	unlockedIDs, err := h.achievements.ListUnlockedIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("process_action: list unlocked: %w", err)
	}

	snapshot, err := h.stats.Snapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("process_action: stats snapshot: %w", err)
	}
	// The streak achievements see the streak as advanced by this action,
	// even if the stats store lags behind.
	snapshot.StreakCount = streakCount

	for _, a := range h.evaluator.Evaluate(catalog, unlockedIDs, snapshot) {
		created, err := h.achievements.CreateUnlockIfAbsent(ctx, gamification.Unlock{
			UserID:        userID,
			AchievementID: a.ID,
			UnlockedAt:    occurredAt,
		})
		if err != nil {
			return fmt.Errorf("process_action: create unlock: %w", err)
		}
		if !created {
			// A concurrent action already unlocked it; base XP stands,
			// the bonus is credited exactly once elsewhere.
			continue
		}

		result.AchievementsUnlocked = append(result.AchievementsUnlocked, a.ID)
		result.Events = append(result.Events,
			shared.NewAchievementUnlockedEvent(userID.String(), a.ID, a.XPReward))

		if a.XPReward > 0 {
			bonus, err := h.profiles.ApplyProgress(ctx, userID, gamification.ProgressUpdate{
				XPDelta:        a.XPReward,
				StreakCount:    streakCount,
				LastActivityAt: occurredAt,
			})
			if err != nil {
				return fmt.Errorf("process_action: apply achievement bonus: %w", err)
			}

			// The bonus goes through the journal too, so windowed
			// leaderboards see it.
			bonusTx := gamification.XPTransaction{
				ID:         uuid.New().String(),
				UserID:     userID,
				ActionType: gamification.ActionAchievementBonus,
				Difficulty: gamification.DifficultyEasy,
				XPAwarded:  a.XPReward,
				OccurredAt: occurredAt,
			}
			if err := h.transactions.Append(ctx, bonusTx); err != nil {
				return fmt.Errorf("process_action: append bonus transaction: %w", err)
			}

			result.BonusXP += a.XPReward
			result.TotalXP = bonus.TotalXP.Int()
			info := bonus.LevelInfo()
			if info.Level.Int() > result.Level {
				result.Events = append(result.Events,
					shared.NewLevelUpEvent(userID.String(), result.Level, info.Level.Int(), result.TotalXP))
				result.LeveledUp = true
			}
			result.Level = info.Level.Int()
		}
	}

	return nil
}
