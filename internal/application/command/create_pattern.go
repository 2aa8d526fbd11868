package command

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/momentum-app/momentum-core/internal/domain/schedule"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE PATTERN COMMAND
// Persists a recurring workout pattern and materializes its occurrences.
// ══════════════════════════════════════════════════════════════════════════════

// CreatePatternCommand contains the data to create a recurring pattern.
type CreatePatternCommand struct {
	// UserID is the owner of the pattern.
	UserID string

	// WorkoutTemplateID is the workout to materialize.
	WorkoutTemplateID string

	// Frequency is daily, weekly or custom.
	Frequency string

	// DaysOfWeek for weekly patterns (0 = Sunday ... 6 = Saturday).
	DaysOfWeek []int

	// TimesPerWeek for custom patterns (1-7).
	TimesPerWeek int

	// StartDate is the first possible date (inclusive).
	StartDate time.Time

	// EndDate is the last possible date (inclusive, optional).
	EndDate time.Time

	// DurationWeeks derives the end date when EndDate is zero (optional).
	DurationWeeks int

	// CorrelationID for tracing.
	CorrelationID string
}

// CreatePatternResult contains the persisted pattern and the typed
// materialization outcome. Partial failure is reported here, not hidden
// in logs: created occurrences stay, failed dates are listed.
type CreatePatternResult struct {
	// Pattern is the persisted pattern.
	Pattern *schedule.RecurringPattern

	// Materialization is the per-date outcome.
	Materialization schedule.MaterializationResult

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// maxConcurrentMaterializations bounds the parallel occurrence writes.
const maxConcurrentMaterializations = 8

// CreatePatternHandler handles the CreatePatternCommand.
type CreatePatternHandler struct {
	schedules schedule.Repository
	publisher shared.EventPublisher
}

// NewCreatePatternHandler creates a new CreatePatternHandler.
func NewCreatePatternHandler(schedules schedule.Repository, publisher shared.EventPublisher) *CreatePatternHandler {
	return &CreatePatternHandler{
		schedules: schedules,
		publisher: publisher,
	}
}

// Handle validates the pattern, persists it, generates the date sequence
// and creates one occurrence per date. Dates are independent: a failure on
// one date does not stop the others.
func (h *CreatePatternHandler) Handle(ctx context.Context, cmd CreatePatternCommand) (*CreatePatternResult, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, shared.ValidationError("schedule", "CreatePattern", "userId", "must be a valid UUID")
	}

	pattern := &schedule.RecurringPattern{
		ID:                uuid.New().String(),
		UserID:            userID,
		WorkoutTemplateID: cmd.WorkoutTemplateID,
		Frequency:         schedule.Frequency(cmd.Frequency),
		DaysOfWeek:        cmd.DaysOfWeek,
		TimesPerWeek:      cmd.TimesPerWeek,
		StartDate:         cmd.StartDate,
		EndDate:           cmd.EndDate,
		DurationWeeks:     cmd.DurationWeeks,
		CreatedAt:         time.Now().UTC(),
	}

	// Validation happens before anything is persisted.
	dates, err := schedule.Generate(pattern)
	if err != nil {
		return nil, err
	}

	if err := h.schedules.CreatePattern(ctx, pattern); err != nil {
		return nil, fmt.Errorf("create_pattern: persist pattern: %w", err)
	}

	materialization := h.materialize(ctx, pattern, dates)

	result := &CreatePatternResult{
		Pattern:         pattern,
		Materialization: materialization,
		Events: []shared.Event{
			shared.NewPatternCreatedEvent(cmd.UserID, pattern.ID, cmd.Frequency),
			shared.NewOccurrencesMaterializedEvent(pattern.ID, materialization.Created, materialization.Failed),
		},
	}

	for _, event := range result.Events {
		_ = h.publisher.Publish(event)
	}

	return result, nil
}

// materialize creates one occurrence per date with bounded parallelism.
// An already existing occurrence counts as created (idempotent re-run).
func (h *CreatePatternHandler) materialize(
	ctx context.Context,
	pattern *schedule.RecurringPattern,
	dates []time.Time,
) schedule.MaterializationResult {
	result := schedule.MaterializationResult{PatternID: pattern.ID}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(maxConcurrentMaterializations)

	for _, date := range dates {
		date := date
		g.Go(func() error {
			occ := &schedule.Occurrence{
				ID:           uuid.New().String(),
				PatternID:    pattern.ID,
				UserID:       pattern.UserID,
				ScheduledFor: date,
				Status:       schedule.OccurrenceScheduled,
				CreatedAt:    time.Now().UTC(),
			}

			err := h.schedules.CreateOccurrence(ctx, occ)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil, shared.IsAlreadyExists(err):
				result.Created++
			default:
				result.Failed++
				result.FailedDates = append(result.FailedDates, date)
			}
			return nil
		})
	}

	// Workers never return errors: per-date failures are collected
	// into the result instead.
	_ = g.Wait()

	sort.Slice(result.FailedDates, func(i, j int) bool {
		return result.FailedDates[i].Before(result.FailedDates[j])
	})

	return result
}
