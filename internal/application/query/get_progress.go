package query

import (
	"context"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/gamification"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Возвращает игровой прогресс пользователя: XP, уровень, серию,
// разблокированные достижения и последние начисления.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery содержит параметры запроса прогресса.
type GetProgressQuery struct {
	// UserID - идентификатор пользователя.
	UserID string

	// RecentLimit - сколько последних начислений вернуть (по умолчанию 10).
	RecentLimit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetProgressQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return shared.ValidationError("gamification", "GetProgress", "userId", "must be a valid UUID")
	}
	if q.RecentLimit < 0 {
		return shared.ValidationError("gamification", "GetProgress", "recentLimit", "cannot be negative")
	}
	return nil
}

// TransactionDTO - одно начисление XP.
type TransactionDTO struct {
	ID         string    `json:"id"`
	ActionType string    `json:"action_type"`
	ModuleID   string    `json:"module_id,omitempty"`
	Difficulty string    `json:"difficulty"`
	XPAwarded  int       `json:"xp_awarded"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UnlockDTO - разблокированное достижение.
type UnlockDTO struct {
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// GetProgressResult содержит результат запроса прогресса.
type GetProgressResult struct {
	UserID         string           `json:"user_id"`
	TotalXP        int              `json:"total_xp"`
	Level          int              `json:"level"`
	ProgressToNext float64          `json:"progress_to_next"`
	StreakCount    int              `json:"streak_count"`
	LastActivityAt *time.Time       `json:"last_activity_at,omitempty"`
	Unlocks        []UnlockDTO      `json:"unlocks"`
	Recent         []TransactionDTO `json:"recent"`
}

// GetProgressHandler обрабатывает запросы прогресса пользователя.
type GetProgressHandler struct {
	profiles     gamification.ProfileRepository
	transactions gamification.TransactionRepository
	achievements gamification.AchievementRepository
}

// NewGetProgressHandler создаёт новый обработчик.
func NewGetProgressHandler(
	profiles gamification.ProfileRepository,
	transactions gamification.TransactionRepository,
	achievements gamification.AchievementRepository,
) *GetProgressHandler {
	return &GetProgressHandler{
		profiles:     profiles,
		transactions: transactions,
		achievements: achievements,
	}
}

// Handle выполняет запрос прогресса.
func (h *GetProgressHandler) Handle(ctx context.Context, query GetProgressQuery) (*GetProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	limit := query.RecentLimit
	if limit == 0 {
		limit = 10
	}

	userID := shared.UserID(query.UserID)

	profile, err := h.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("gamification", "GetProgress", shared.ErrStoreUnavailable, "failed to load profile", err)
	}

	unlocks, err := h.achievements.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("gamification", "GetProgress", shared.ErrStoreUnavailable, "failed to load unlocks", err)
	}

	recent, err := h.transactions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, shared.WrapError("gamification", "GetProgress", shared.ErrStoreUnavailable, "failed to load transactions", err)
	}

	info := profile.LevelInfo()

	result := &GetProgressResult{
		UserID:         query.UserID,
		TotalXP:        profile.TotalXP.Int(),
		Level:          info.Level.Int(),
		ProgressToNext: info.ProgressToNext,
		StreakCount:    profile.StreakCount,
		LastActivityAt: profile.LastActivityAt,
		Unlocks:        make([]UnlockDTO, 0, len(unlocks)),
		Recent:         make([]TransactionDTO, 0, len(recent)),
	}

	for _, u := range unlocks {
		result.Unlocks = append(result.Unlocks, UnlockDTO{
			AchievementID: u.AchievementID,
			UnlockedAt:    u.UnlockedAt,
		})
	}
	for _, tx := range recent {
		result.Recent = append(result.Recent, TransactionDTO{
			ID:         tx.ID,
			ActionType: tx.ActionType.String(),
			ModuleID:   tx.ModuleID.String(),
			Difficulty: tx.Difficulty.String(),
			XPAwarded:  tx.XPAwarded,
			OccurredAt: tx.OccurredAt,
		})
	}

	return result, nil
}
