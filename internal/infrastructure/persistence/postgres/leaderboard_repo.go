package postgres

import (
	"context"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
	"github.com/momentum-app/momentum-core/pkg/timeutil"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
//
// Lifetime queries read pre-aggregated values from user_profiles.
// Windowed queries sum the XP journal over the window; the journal is
// the only place per-day awards survive, so windows cannot be served
// from the profile table.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// ListRanked returns candidate entries for the query. Value carries the
// ranked metric; rank assignment and tie-breaking stay in the domain.
func (r *LeaderboardRepository) ListRanked(ctx context.Context, q leaderboard.Query) ([]*leaderboard.Entry, error) {
	q = q.Normalize()

	if q.WindowDays > 0 {
		return r.listWindowed(ctx, q)
	}
	return r.listLifetime(ctx, q)
}

func (r *LeaderboardRepository) listLifetime(ctx context.Context, q leaderboard.Query) ([]*leaderboard.Entry, error) {
	metric := "total_xp"
	if q.Metric == leaderboard.MetricLevel {
		metric = "current_level"
	}

	query := `
		SELECT user_id, ` + metric + `, total_xp, current_level, updated_at
		FROM user_profiles
		WHERE total_xp > 0
		ORDER BY ` + metric + ` DESC, user_id
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, q.Limit)
	if err != nil {
		return nil, wrapStoreError("leaderboard", "ListRanked", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *LeaderboardRepository) listWindowed(ctx context.Context, q leaderboard.Query) ([]*leaderboard.Entry, error) {
	since := timeutil.WindowStart(time.Now(), q.WindowDays)

	query := `
		SELECT t.user_id, SUM(t.xp_awarded)::int AS window_xp,
			   p.total_xp, p.current_level, p.updated_at
		FROM xp_transactions t
		JOIN user_profiles p ON p.user_id = t.user_id
		WHERE t.occurred_at >= $1
		GROUP BY t.user_id, p.total_xp, p.current_level, p.updated_at
		HAVING SUM(t.xp_awarded) > 0
		ORDER BY window_xp DESC, t.user_id
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, since, q.Limit)
	if err != nil {
		return nil, wrapStoreError("leaderboard", "ListRanked", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetUserEntry returns the entry for one user, or nil if the user has no
// progress within the query's scope.
func (r *LeaderboardRepository) GetUserEntry(ctx context.Context, userID string, q leaderboard.Query) (*leaderboard.Entry, error) {
	q = q.Normalize()

	var row pgx.Row
	if q.WindowDays > 0 {
		since := timeutil.WindowStart(time.Now(), q.WindowDays)
		row = r.conn.QueryRow(ctx, `
			SELECT t.user_id, SUM(t.xp_awarded)::int,
				   p.total_xp, p.current_level, p.updated_at
			FROM xp_transactions t
			JOIN user_profiles p ON p.user_id = t.user_id
			WHERE t.user_id = $1 AND t.occurred_at >= $2
			GROUP BY t.user_id, p.total_xp, p.current_level, p.updated_at
		`, userID, since)
	} else {
		metric := "total_xp"
		if q.Metric == leaderboard.MetricLevel {
			metric = "current_level"
		}
		row = r.conn.QueryRow(ctx, `
			SELECT user_id, `+metric+`, total_xp, current_level, updated_at
			FROM user_profiles
			WHERE user_id = $1 AND total_xp > 0
		`, userID)
	}

	entry, err := scanEntry(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, wrapStoreError("leaderboard", "GetUserEntry", err)
	}
	return entry, nil
}

// CountUsers returns the number of users with any progress.
func (r *LeaderboardRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM user_profiles WHERE total_xp > 0`).Scan(&count)
	if err != nil {
		return 0, wrapStoreError("leaderboard", "CountUsers", err)
	}
	return count, nil
}

func scanEntry(row pgx.Row) (*leaderboard.Entry, error) {
	var e leaderboard.Entry
	err := row.Scan(&e.UserID, &e.Value, &e.TotalXP, &e.Level, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntries(rows pgx.Rows) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry
	for rows.Next() {
		var e leaderboard.Entry
		if err := rows.Scan(&e.UserID, &e.Value, &e.TotalXP, &e.Level, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
