// Package schedule содержит доменную модель регулярного расписания тренировок.
// Пакет определяет паттерн повторения (RecurringPattern), чистый генератор
// дат и сущность запланированного вхождения (Occurrence).
package schedule

import (
	"time"

	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FREQUENCY
// ══════════════════════════════════════════════════════════════════════════════

// Frequency представляет вид повторения паттерна.
type Frequency string

const (
	// FrequencyDaily - каждый день.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly - в указанные дни недели.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyCustom - N раз в неделю с равномерным шагом.
	FrequencyCustom Frequency = "custom"
)

// IsValid проверяет, что частота известна.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление.
func (f Frequency) String() string {
	return string(f)
}

// ══════════════════════════════════════════════════════════════════════════════
// RECURRING PATTERN
// ══════════════════════════════════════════════════════════════════════════════

// DefaultHorizonDays - горизонт генерации, когда конец не задан ни датой,
// ни длительностью: один год от начала.
const DefaultHorizonDays = 365

// RecurringPattern описывает правило повторения тренировки.
//
// Даты паттерна - календарные (полночь UTC, без компоненты времени).
type RecurringPattern struct {
	// ID - идентификатор паттерна (UUID).
	ID string

	// UserID - владелец паттерна.
	UserID shared.UserID

	// WorkoutTemplateID - шаблон тренировки, который материализуется.
	WorkoutTemplateID string

	// Frequency - вид повторения.
	Frequency Frequency

	// DaysOfWeek - дни недели для FrequencyWeekly.
	// 0 = воскресенье ... 6 = суббота (как time.Weekday).
	DaysOfWeek []int

	// TimesPerWeek - количество тренировок в неделю для FrequencyCustom (1-7).
	TimesPerWeek int

	// StartDate - первая возможная дата (включительно).
	StartDate time.Time

	// EndDate - последняя возможная дата (включительно).
	// Нулевая, если конец задаётся DurationWeeks или горизонтом по умолчанию.
	EndDate time.Time

	// DurationWeeks - длительность в неделях, если EndDate не задана.
	DurationWeeks int

	// CreatedAt - время создания паттерна.
	CreatedAt time.Time
}

// Validate проверяет инварианты паттерна до любой генерации.
// Возвращает ValidationError с именем поля при первом нарушении.
func (p *RecurringPattern) Validate() error {
	const op = "Validate"

	if p.UserID.IsEmpty() {
		return shared.ValidationError("schedule", op, "userId", "cannot be empty")
	}
	if p.WorkoutTemplateID == "" {
		return shared.ValidationError("schedule", op, "workoutTemplateId", "cannot be empty")
	}
	if !p.Frequency.IsValid() {
		return shared.ErrInvalidFrequency
	}
	if p.StartDate.IsZero() {
		return shared.ValidationError("schedule", op, "startDate", "cannot be empty")
	}

	switch p.Frequency {
	case FrequencyWeekly:
		if len(p.DaysOfWeek) == 0 {
			return shared.ErrEmptyDaysOfWeek
		}
		for _, d := range p.DaysOfWeek {
			if d < 0 || d > 6 {
				return shared.ErrInvalidDayOfWeek
			}
		}
	case FrequencyCustom:
		if p.TimesPerWeek < 1 || p.TimesPerWeek > 7 {
			return shared.ErrInvalidTimesPerWeek
		}
	}

	if p.DurationWeeks < 0 {
		return shared.ValidationError("schedule", op, "durationWeeks", "cannot be negative")
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(truncateDate(p.StartDate)) {
		return shared.ErrEndBeforeStart
	}

	return nil
}

// EffectiveEndDate возвращает последнюю дату генерации: явная EndDate,
// иначе окно DurationWeeks, иначе годовой горизонт.
//
// Окно DurationWeeks покрывает ровно DurationWeeks*7 дней, включая сам
// StartDate, поэтому последняя дата - это StartDate + DurationWeeks*7 - 1.
// Вариант StartDate + DurationWeeks*7 дал бы окно в 7n+1 день и
// дублировал бы день недели старта лишним вхождением.
func (p *RecurringPattern) EffectiveEndDate() time.Time {
	start := truncateDate(p.StartDate)
	if !p.EndDate.IsZero() {
		return truncateDate(p.EndDate)
	}
	if p.DurationWeeks > 0 {
		return start.AddDate(0, 0, p.DurationWeeks*7-1)
	}
	return start.AddDate(0, 0, DefaultHorizonDays)
}

// truncateDate приводит время к календарной дате (полночь UTC).
func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
