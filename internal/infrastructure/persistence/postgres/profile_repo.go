// Package postgres implements the PostgreSQL persistence layer for Momentum.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/gamification"
	"github.com/momentum-app/momentum-core/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements gamification.ProfileRepository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `user_id, total_xp, current_level, streak_count,
	   last_activity_at, timezone, created_at, updated_at`

// GetOrCreate returns the profile for the user, inserting a zero-progress
// row on first contact. The insert races safely: ON CONFLICT keeps the
// existing row and the follow-up select always sees one.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID shared.UserID) (*gamification.UserProfile, error) {
	insert := `
		INSERT INTO user_profiles (user_id, total_xp, current_level, streak_count, timezone)
		VALUES ($1, 0, 1, 0, 'UTC')
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.conn.Exec(ctx, insert, userID.String()); err != nil {
		return nil, wrapStoreError("gamification", "GetOrCreate", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM user_profiles WHERE user_id = $1`, profileColumns)
	row := r.conn.QueryRow(ctx, query, userID.String())

	profile, err := scanProfile(row)
	if err != nil {
		return nil, wrapStoreError("gamification", "GetOrCreate", err)
	}
	return profile, nil
}

// ApplyProgress atomically applies a progress update. The XP increment is
// executed store-side (total_xp = total_xp + delta) so concurrent awards
// never lose an update; the derived level is recomputed from the returned
// total inside the same transaction.
func (r *ProfileRepository) ApplyProgress(ctx context.Context, userID shared.UserID, update gamification.ProgressUpdate) (*gamification.UserProfile, error) {
	if update.XPDelta < 0 {
		return nil, shared.ErrNegativeXP
	}

	var profile *gamification.UserProfile

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE user_profiles SET
				total_xp = LEAST(total_xp + $2, $3),
				streak_count = $4,
				last_activity_at = $5,
				updated_at = NOW()
			WHERE user_id = $1
			RETURNING %s
		`, profileColumns)

		row := tx.QueryRow(ctx, query,
			userID.String(),
			update.XPDelta,
			int(shared.MaxXP),
			update.StreakCount,
			update.LastActivityAt,
		)

		p, err := scanProfile(row)
		if err != nil {
			return err
		}

		level := p.TotalXP.Level()
		if level != p.CurrentLevel {
			_, err = tx.Exec(ctx,
				`UPDATE user_profiles SET current_level = $2 WHERE user_id = $1`,
				userID.String(), int(level),
			)
			if err != nil {
				return err
			}
			p.CurrentLevel = level
		}

		profile = p
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("gamification", "ApplyProgress", err)
	}

	return profile, nil
}

// scanProfile scans a profile row.
func scanProfile(row pgx.Row) (*gamification.UserProfile, error) {
	var (
		p              gamification.UserProfile
		userID         string
		totalXP        int
		currentLevel   int
		lastActivityAt *time.Time
	)

	err := row.Scan(
		&userID,
		&totalXP,
		&currentLevel,
		&p.StreakCount,
		&lastActivityAt,
		&p.Timezone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.UserID = shared.UserID(userID)
	p.TotalXP = shared.XP(totalXP)
	p.CurrentLevel = shared.Level(currentLevel)
	p.LastActivityAt = lastActivityAt

	return &p, nil
}

// wrapStoreError maps low-level pgx failures to domain error kinds so the
// application layer can branch on IsNotFound / IsAlreadyExists /
// IsStoreUnavailable without importing this package.
func wrapStoreError(domain, op string, err error) error {
	switch {
	case IsNoRows(err):
		return shared.NewDomainError(domain, op, shared.ErrNotFound, "record not found")
	case IsUniqueViolation(err):
		return shared.NewDomainError(domain, op, shared.ErrAlreadyExists, "record already exists")
	case IsForeignKeyViolation(err):
		return shared.NewDomainError(domain, op, shared.ErrInvalidEntity, "referenced record does not exist")
	case IsSerializationFailure(err):
		return shared.NewDomainError(domain, op, shared.ErrConcurrentModification, "concurrent modification")
	case isUnavailable(err):
		return shared.NewDomainError(domain, op, shared.ErrStoreUnavailable, err.Error())
	default:
		return fmt.Errorf("%s.%s: %w", domain, op, err)
	}
}
