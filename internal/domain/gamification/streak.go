package gamification

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (Серия активных дней)
// ══════════════════════════════════════════════════════════════════════════════

// StreakAdvance - результат продвижения серии после засчитанного действия.
type StreakAdvance struct {
	// StreakCount - новая длина серии.
	StreakCount int

	// Continued - серия продолжена (+1 день) или начата.
	Continued bool

	// Broken - серия была сброшена из-за пропущенных дней.
	Broken bool

	// PreviousStreak - длина серии до сброса (заполняется при Broken).
	PreviousStreak int
}

// AdvanceStreak продвигает серию активных дней.
//
// Сравнение идёт по календарным датам в таймзоне loc, а не по
// прошедшим часам: действие в 23:59 и действие в 00:01 следующего
// дня - это соседние дни.
//
//   - нет предыдущей активности: серия начинается с 1
//   - тот же календарный день: серия не меняется
//   - ровно следующий день: серия +1
//   - пропущено больше одного дня: сброс до 1, Broken=true
func AdvanceStreak(prevStreak int, lastActivityAt *time.Time, now time.Time, loc *time.Location) StreakAdvance {
	if loc == nil {
		loc = time.UTC
	}

	if lastActivityAt == nil || lastActivityAt.IsZero() {
		return StreakAdvance{StreakCount: 1, Continued: true}
	}

	nowDay := dateOnly(now.In(loc))
	lastDay := dateOnly(lastActivityAt.In(loc))

	daysDiff := int(nowDay.Sub(lastDay).Hours() / 24)

	switch {
	case daysDiff <= 0:
		// Тот же день (или часы назад) - серия не меняется
		if prevStreak < 1 {
			return StreakAdvance{StreakCount: 1, Continued: true}
		}
		return StreakAdvance{StreakCount: prevStreak}
	case daysDiff == 1:
		// Следующий день - продолжаем серию
		return StreakAdvance{StreakCount: prevStreak + 1, Continued: true}
	default:
		// Пропущены дни - сбрасываем серию
		return StreakAdvance{
			StreakCount:    1,
			Continued:      true,
			Broken:         true,
			PreviousStreak: prevStreak,
		}
	}
}

// dateOnly переносит календарную дату в UTC-полночь, чтобы разница дат
// делилась на 24 часа ровно даже при переходах на летнее время.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
