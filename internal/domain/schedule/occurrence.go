package schedule

import (
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULED OCCURRENCE
// ══════════════════════════════════════════════════════════════════════════════

// OccurrenceStatus представляет состояние запланированной тренировки.
type OccurrenceStatus string

const (
	// OccurrenceScheduled - запланирована, ещё не выполнена.
	OccurrenceScheduled OccurrenceStatus = "scheduled"
	// OccurrenceCompleted - выполнена.
	OccurrenceCompleted OccurrenceStatus = "completed"
	// OccurrenceSkipped - пропущена пользователем.
	OccurrenceSkipped OccurrenceStatus = "skipped"
)

// IsValid проверяет, что статус известен.
func (s OccurrenceStatus) IsValid() bool {
	switch s {
	case OccurrenceScheduled, OccurrenceCompleted, OccurrenceSkipped:
		return true
	default:
		return false
	}
}

// Occurrence - одна запланированная тренировка, материализованная
// из паттерна на конкретную календарную дату.
type Occurrence struct {
	// ID - идентификатор вхождения (UUID).
	ID string

	// PatternID - паттерн-источник.
	PatternID string

	// UserID - владелец.
	UserID shared.UserID

	// ScheduledFor - календарная дата тренировки (полночь UTC).
	ScheduledFor time.Time

	// Status - текущее состояние.
	Status OccurrenceStatus

	// CreatedAt - время материализации.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// MATERIALIZATION RESULT
// ══════════════════════════════════════════════════════════════════════════════

// MaterializationResult - типизированный итог материализации паттерна.
// Частичный провал - не ошибка вызова: созданные вхождения остаются,
// несозданные даты перечислены явно.
type MaterializationResult struct {
	// PatternID - материализованный паттерн.
	PatternID string

	// Created - сколько вхождений создано.
	Created int

	// Failed - сколько дат не удалось материализовать.
	Failed int

	// FailedDates - даты, для которых создание не удалось.
	FailedDates []time.Time
}

// Partial возвращает true, если часть дат не материализовалась.
func (r MaterializationResult) Partial() bool {
	return r.Failed > 0
}
