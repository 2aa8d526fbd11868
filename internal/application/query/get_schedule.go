package query

import (
	"context"
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/schedule"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SCHEDULE QUERY
// Возвращает запланированные тренировки пользователя в диапазоне дат.
// ══════════════════════════════════════════════════════════════════════════════

// GetScheduleQuery содержит параметры запроса расписания.
type GetScheduleQuery struct {
	// UserID - идентификатор пользователя.
	UserID string

	// From - начало диапазона (включительно).
	From time.Time

	// To - конец диапазона (включительно).
	To time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetScheduleQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return shared.ValidationError("schedule", "GetSchedule", "userId", "must be a valid UUID")
	}
	if q.From.IsZero() || q.To.IsZero() {
		return shared.ValidationError("schedule", "GetSchedule", "range", "from and to are required")
	}
	if q.To.Before(q.From) {
		return shared.ErrEndBeforeStart
	}
	return nil
}

// OccurrenceDTO - одна запланированная тренировка.
type OccurrenceDTO struct {
	ID           string    `json:"id"`
	PatternID    string    `json:"pattern_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Status       string    `json:"status"`
}

// GetScheduleResult содержит результат запроса расписания.
type GetScheduleResult struct {
	UserID      string          `json:"user_id"`
	Occurrences []OccurrenceDTO `json:"occurrences"`
}

// GetScheduleHandler обрабатывает запросы расписания.
type GetScheduleHandler struct {
	schedules schedule.Repository
}

// NewGetScheduleHandler создаёт новый обработчик.
func NewGetScheduleHandler(schedules schedule.Repository) *GetScheduleHandler {
	return &GetScheduleHandler{schedules: schedules}
}

// Handle выполняет запрос расписания.
func (h *GetScheduleHandler) Handle(ctx context.Context, query GetScheduleQuery) (*GetScheduleResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	occurrences, err := h.schedules.ListOccurrencesByUser(ctx, shared.UserID(query.UserID), query.From, query.To)
	if err != nil {
		return nil, shared.WrapError("schedule", "GetSchedule", shared.ErrStoreUnavailable, "failed to list occurrences", err)
	}

	result := &GetScheduleResult{
		UserID:      query.UserID,
		Occurrences: make([]OccurrenceDTO, 0, len(occurrences)),
	}
	for _, occ := range occurrences {
		result.Occurrences = append(result.Occurrences, OccurrenceDTO{
			ID:           occ.ID,
			PatternID:    occ.PatternID,
			ScheduledFor: occ.ScheduledFor,
			Status:       string(occ.Status),
		})
	}

	return result, nil
}
