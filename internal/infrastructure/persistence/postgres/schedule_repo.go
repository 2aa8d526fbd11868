package postgres

import (
	"context"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/schedule"
	"github.com/momentum-app/momentum-core/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleRepository implements schedule.Repository for PostgreSQL.
type ScheduleRepository struct {
	conn *Connection
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(conn *Connection) *ScheduleRepository {
	return &ScheduleRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Patterns
// ─────────────────────────────────────────────────────────────────────────────

// CreatePattern persists a new pattern.
func (r *ScheduleRepository) CreatePattern(ctx context.Context, p *schedule.RecurringPattern) error {
	query := `
		INSERT INTO recurring_patterns (
			id, user_id, workout_template_id, frequency, days_of_week,
			times_per_week, start_date, end_date, duration_weeks, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var endDate *time.Time
	if !p.EndDate.IsZero() {
		endDate = &p.EndDate
	}

	days := make([]int32, len(p.DaysOfWeek))
	for i, d := range p.DaysOfWeek {
		days[i] = int32(d)
	}

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.UserID.String(),
		p.WorkoutTemplateID,
		string(p.Frequency),
		days,
		p.TimesPerWeek,
		p.StartDate,
		endDate,
		p.DurationWeeks,
		p.CreatedAt,
	)
	if err != nil {
		return wrapStoreError("schedule", "CreatePattern", err)
	}

	return nil
}

// GetPattern returns a pattern by ID.
func (r *ScheduleRepository) GetPattern(ctx context.Context, id string) (*schedule.RecurringPattern, error) {
	query := `
		SELECT id, user_id, workout_template_id, frequency, days_of_week,
			   times_per_week, start_date, end_date, duration_weeks, created_at
		FROM recurring_patterns
		WHERE id = $1
	`

	p, err := scanPattern(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPatternNotFound
		}
		return nil, wrapStoreError("schedule", "GetPattern", err)
	}
	return p, nil
}

// ListPatternsByUser returns the user's patterns, newest first.
func (r *ScheduleRepository) ListPatternsByUser(ctx context.Context, userID shared.UserID) ([]*schedule.RecurringPattern, error) {
	query := `
		SELECT id, user_id, workout_template_id, frequency, days_of_week,
			   times_per_week, start_date, end_date, duration_weeks, created_at
		FROM recurring_patterns
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, wrapStoreError("schedule", "ListPatternsByUser", err)
	}
	defer rows.Close()

	var patterns []*schedule.RecurringPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, wrapStoreError("schedule", "ListPatternsByUser", err)
		}
		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Occurrences
// ─────────────────────────────────────────────────────────────────────────────

// CreateOccurrence persists one occurrence. A duplicate
// (pattern_id, scheduled_for) pair returns ErrOccurrenceExists.
func (r *ScheduleRepository) CreateOccurrence(ctx context.Context, occ *schedule.Occurrence) error {
	query := `
		INSERT INTO scheduled_occurrences (id, pattern_id, user_id, scheduled_for, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		occ.ID,
		occ.PatternID,
		occ.UserID.String(),
		occ.ScheduledFor,
		string(occ.Status),
		occ.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrOccurrenceExists
		}
		return wrapStoreError("schedule", "CreateOccurrence", err)
	}

	return nil
}

// ListOccurrences returns a pattern's occurrences within [from, to].
func (r *ScheduleRepository) ListOccurrences(ctx context.Context, patternID string, from, to time.Time) ([]*schedule.Occurrence, error) {
	query := `
		SELECT id, pattern_id, user_id, scheduled_for, status, created_at
		FROM scheduled_occurrences
		WHERE pattern_id = $1 AND scheduled_for BETWEEN $2 AND $3
		ORDER BY scheduled_for
	`

	rows, err := r.conn.Query(ctx, query, patternID, from, to)
	if err != nil {
		return nil, wrapStoreError("schedule", "ListOccurrences", err)
	}
	defer rows.Close()

	return scanOccurrences(rows)
}

// ListOccurrencesByUser returns a user's occurrences within [from, to].
func (r *ScheduleRepository) ListOccurrencesByUser(ctx context.Context, userID shared.UserID, from, to time.Time) ([]*schedule.Occurrence, error) {
	query := `
		SELECT id, pattern_id, user_id, scheduled_for, status, created_at
		FROM scheduled_occurrences
		WHERE user_id = $1 AND scheduled_for BETWEEN $2 AND $3
		ORDER BY scheduled_for, pattern_id
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), from, to)
	if err != nil {
		return nil, wrapStoreError("schedule", "ListOccurrencesByUser", err)
	}
	defer rows.Close()

	return scanOccurrences(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanPattern(row pgx.Row) (*schedule.RecurringPattern, error) {
	var (
		p         schedule.RecurringPattern
		userID    string
		frequency string
		days      []int32
		endDate   *time.Time
	)

	err := row.Scan(
		&p.ID,
		&userID,
		&p.WorkoutTemplateID,
		&frequency,
		&days,
		&p.TimesPerWeek,
		&p.StartDate,
		&endDate,
		&p.DurationWeeks,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.UserID = shared.UserID(userID)
	p.Frequency = schedule.Frequency(frequency)
	p.DaysOfWeek = make([]int, len(days))
	for i, d := range days {
		p.DaysOfWeek[i] = int(d)
	}
	if endDate != nil {
		p.EndDate = *endDate
	}

	return &p, nil
}

func scanOccurrences(rows pgx.Rows) ([]*schedule.Occurrence, error) {
	var occs []*schedule.Occurrence
	for rows.Next() {
		var (
			occ    schedule.Occurrence
			userID string
			status string
		)

		err := rows.Scan(&occ.ID, &occ.PatternID, &userID, &occ.ScheduledFor, &status, &occ.CreatedAt)
		if err != nil {
			return nil, err
		}

		occ.UserID = shared.UserID(userID)
		occ.Status = schedule.OccurrenceStatus(status)
		occs = append(occs, &occ)
	}

	return occs, rows.Err()
}
