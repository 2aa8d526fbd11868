package postgres

import (
	"context"

	"github.com/momentum-app/momentum-core/internal/domain/gamification"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StatsRepository implements gamification.StatsRepository by aggregating
// the XP journal. Goal counts are derived from journal entries instead of
// maintaining separate counters that could drift.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// Snapshot returns a statistics snapshot for achievement evaluation.
func (r *StatsRepository) Snapshot(ctx context.Context, userID shared.UserID) (gamification.StatsSnapshot, error) {
	var snap gamification.StatsSnapshot

	query := `
		SELECT
			COUNT(*) FILTER (WHERE action_type = 'goal_created'),
			COUNT(*) FILTER (WHERE action_type = 'goal_completed'),
			COALESCE((SELECT streak_count FROM user_profiles WHERE user_id = $1), 0)
		FROM xp_transactions
		WHERE user_id = $1
	`

	err := r.conn.QueryRow(ctx, query, userID.String()).Scan(
		&snap.TotalGoals,
		&snap.CompletedGoals,
		&snap.StreakCount,
	)
	if err != nil {
		return snap, wrapStoreError("gamification", "Snapshot", err)
	}

	byModule := `
		SELECT module_id, COUNT(*)
		FROM xp_transactions
		WHERE user_id = $1 AND action_type = 'goal_completed' AND module_id <> ''
		GROUP BY module_id
	`

	rows, err := r.conn.Query(ctx, byModule, userID.String())
	if err != nil {
		return snap, wrapStoreError("gamification", "Snapshot", err)
	}
	defer rows.Close()

	snap.CompletedGoalsByModule = make(map[shared.ModuleID]int)
	for rows.Next() {
		var (
			moduleID string
			count    int
		)
		if err := rows.Scan(&moduleID, &count); err != nil {
			return snap, wrapStoreError("gamification", "Snapshot", err)
		}
		snap.CompletedGoalsByModule[shared.ModuleID(moduleID)] = count
	}
	if err := rows.Err(); err != nil {
		return snap, wrapStoreError("gamification", "Snapshot", err)
	}

	return snap, nil
}
