package postgres

import (
	"context"

	"github.com/momentum-app/momentum-core/internal/domain/gamification"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements gamification.AchievementRepository
// for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// ListDefinitions returns the achievement catalog.
// A stored condition that fails to parse aborts the listing: a silently
// skipped definition would look like a never-unlockable achievement.
func (r *AchievementRepository) ListDefinitions(ctx context.Context) ([]gamification.Achievement, error) {
	query := `
		SELECT id, name, module_id, condition_kind, condition_threshold, xp_reward
		FROM achievements
		ORDER BY created_at, id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, wrapStoreError("gamification", "ListDefinitions", err)
	}
	defer rows.Close()

	var defs []gamification.Achievement
	for rows.Next() {
		var (
			a         gamification.Achievement
			moduleID  string
			kind      string
			threshold int
		)

		if err := rows.Scan(&a.ID, &a.Name, &moduleID, &kind, &threshold, &a.XPReward); err != nil {
			return nil, wrapStoreError("gamification", "ListDefinitions", err)
		}

		a.ModuleID = shared.ModuleID(moduleID)
		a.Condition, err = gamification.ParseCondition(gamification.ConditionKind(kind), threshold, a.ModuleID)
		if err != nil {
			return nil, err
		}

		defs = append(defs, a)
	}

	return defs, rows.Err()
}

// ListUnlockedIDs returns the set of achievement IDs the user has unlocked.
func (r *AchievementRepository) ListUnlockedIDs(ctx context.Context, userID shared.UserID) (map[string]bool, error) {
	query := `SELECT achievement_id FROM user_achievements WHERE user_id = $1`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, wrapStoreError("gamification", "ListUnlockedIDs", err)
	}
	defer rows.Close()

	unlocked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapStoreError("gamification", "ListUnlockedIDs", err)
		}
		unlocked[id] = true
	}

	return unlocked, rows.Err()
}

// CreateUnlockIfAbsent records an unlock unless the (user, achievement)
// pair already exists. The loser of a concurrent race observes
// created=false, not an error.
func (r *AchievementRepository) CreateUnlockIfAbsent(ctx context.Context, unlock gamification.Unlock) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query,
		unlock.UserID.String(),
		unlock.AchievementID,
		unlock.UnlockedAt,
	)
	if err != nil {
		return false, wrapStoreError("gamification", "CreateUnlockIfAbsent", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListUnlocks returns the user's unlocks, newest first.
func (r *AchievementRepository) ListUnlocks(ctx context.Context, userID shared.UserID) ([]gamification.Unlock, error) {
	query := `
		SELECT user_id, achievement_id, unlocked_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at DESC, achievement_id
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, wrapStoreError("gamification", "ListUnlocks", err)
	}
	defer rows.Close()

	var unlocks []gamification.Unlock
	for rows.Next() {
		var (
			u      gamification.Unlock
			userID string
		)
		if err := rows.Scan(&userID, &u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, wrapStoreError("gamification", "ListUnlocks", err)
		}
		u.UserID = shared.UserID(userID)
		unlocks = append(unlocks, u)
	}

	return unlocks, rows.Err()
}
