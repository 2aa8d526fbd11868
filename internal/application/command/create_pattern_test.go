package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-app/momentum-core/internal/domain/schedule"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ──────────────────────────────────────────────────────────────────────────────
// In-memory fake
// ──────────────────────────────────────────────────────────────────────────────

type fakeScheduleRepo struct {
	mu          sync.Mutex
	patterns    map[string]*schedule.RecurringPattern
	occurrences []*schedule.Occurrence

	// failOn and duplicateOn are keyed by date in 2006-01-02 format.
	failOn      map[string]bool
	duplicateOn map[string]bool
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		patterns:    make(map[string]*schedule.RecurringPattern),
		failOn:      make(map[string]bool),
		duplicateOn: make(map[string]bool),
	}
}

func (r *fakeScheduleRepo) CreatePattern(_ context.Context, pattern *schedule.RecurringPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[pattern.ID] = pattern
	return nil
}

func (r *fakeScheduleRepo) GetPattern(_ context.Context, id string) (*schedule.RecurringPattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patterns[id]
	if !ok {
		return nil, shared.ErrPatternNotFound
	}
	return p, nil
}

func (r *fakeScheduleRepo) ListPatternsByUser(_ context.Context, userID shared.UserID) ([]*schedule.RecurringPattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*schedule.RecurringPattern
	for _, p := range r.patterns {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) CreateOccurrence(_ context.Context, occ *schedule.Occurrence) error {
	key := occ.ScheduledFor.Format("2006-01-02")

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn[key] {
		return shared.ErrStoreUnavailable
	}
	if r.duplicateOn[key] {
		return shared.ErrOccurrenceExists
	}
	r.occurrences = append(r.occurrences, occ)
	return nil
}

func (r *fakeScheduleRepo) ListOccurrences(_ context.Context, patternID string, from, to time.Time) ([]*schedule.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*schedule.Occurrence
	for _, occ := range r.occurrences {
		if occ.PatternID == patternID && !occ.ScheduledFor.Before(from) && !occ.ScheduledFor.After(to) {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) ListOccurrencesByUser(_ context.Context, userID shared.UserID, from, to time.Time) ([]*schedule.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*schedule.Occurrence
	for _, occ := range r.occurrences {
		if occ.UserID == userID && !occ.ScheduledFor.Before(from) && !occ.ScheduledFor.After(to) {
			out = append(out, occ)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func dailyCommand() CreatePatternCommand {
	return CreatePatternCommand{
		UserID:            testUserID,
		WorkoutTemplateID: "morning-run",
		Frequency:         "daily",
		StartDate:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreatePattern_MaterializesAllDates(t *testing.T) {
	repo := newFakeScheduleRepo()
	publisher := &fakePublisher{}
	handler := NewCreatePatternHandler(repo, publisher)

	result, err := handler.Handle(context.Background(), dailyCommand())
	require.NoError(t, err)

	assert.Equal(t, 7, result.Materialization.Created)
	assert.Zero(t, result.Materialization.Failed)
	assert.Empty(t, result.Materialization.FailedDates)

	require.Contains(t, repo.patterns, result.Pattern.ID)
	assert.Len(t, repo.occurrences, 7)
	for _, occ := range repo.occurrences {
		assert.Equal(t, result.Pattern.ID, occ.PatternID)
		assert.Equal(t, schedule.OccurrenceScheduled, occ.Status)
	}

	assert.Contains(t, publisher.eventTypes(), shared.EventPatternCreated)
	assert.Contains(t, publisher.eventTypes(), shared.EventOccurrencesMaterialized)
}

func TestCreatePattern_DuplicateOccurrenceCountsAsCreated(t *testing.T) {
	repo := newFakeScheduleRepo()
	repo.duplicateOn["2026-03-04"] = true
	handler := NewCreatePatternHandler(repo, &fakePublisher{})

	result, err := handler.Handle(context.Background(), dailyCommand())
	require.NoError(t, err)

	assert.Equal(t, 7, result.Materialization.Created, "idempotent re-run counts the existing date")
	assert.Zero(t, result.Materialization.Failed)
	assert.Len(t, repo.occurrences, 6)
}

func TestCreatePattern_PartialFailureReportsFailedDates(t *testing.T) {
	repo := newFakeScheduleRepo()
	repo.failOn["2026-03-06"] = true
	repo.failOn["2026-03-03"] = true
	handler := NewCreatePatternHandler(repo, &fakePublisher{})

	result, err := handler.Handle(context.Background(), dailyCommand())
	require.NoError(t, err, "per-date failures do not fail the command")

	assert.Equal(t, 5, result.Materialization.Created)
	assert.Equal(t, 2, result.Materialization.Failed)
	require.Len(t, result.Materialization.FailedDates, 2)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), result.Materialization.FailedDates[0])
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), result.Materialization.FailedDates[1])
}

func TestCreatePattern_InvalidPatternPersistsNothing(t *testing.T) {
	repo := newFakeScheduleRepo()
	publisher := &fakePublisher{}
	handler := NewCreatePatternHandler(repo, publisher)

	cmd := dailyCommand()
	cmd.EndDate = cmd.StartDate.AddDate(0, 0, -1)

	_, err := handler.Handle(context.Background(), cmd)
	require.ErrorIs(t, err, shared.ErrEndBeforeStart)

	assert.Empty(t, repo.patterns, "validation runs before anything is persisted")
	assert.Empty(t, repo.occurrences)
	assert.Empty(t, publisher.events)
}

func TestCreatePattern_InvalidUserID(t *testing.T) {
	handler := NewCreatePatternHandler(newFakeScheduleRepo(), &fakePublisher{})

	cmd := dailyCommand()
	cmd.UserID = "not-a-uuid"

	_, err := handler.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestCreatePattern_WeeklySchedulesSelectedDays(t *testing.T) {
	repo := newFakeScheduleRepo()
	handler := NewCreatePatternHandler(repo, &fakePublisher{})

	cmd := dailyCommand()
	cmd.Frequency = "weekly"
	cmd.DaysOfWeek = []int{1, 3} // Monday and Wednesday

	result, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Materialization.Created)
	for _, occ := range repo.occurrences {
		day := occ.ScheduledFor.Weekday()
		assert.True(t, day == time.Monday || day == time.Wednesday)
	}
}
