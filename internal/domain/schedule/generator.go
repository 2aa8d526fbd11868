package schedule

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATE GENERATOR
// ══════════════════════════════════════════════════════════════════════════════

// Generate возвращает конечную последовательность календарных дат
// для паттерна: отсортированную по возрастанию, без дубликатов,
// в границах [StartDate, EffectiveEndDate] включительно.
//
// Чистая функция: валидирует паттерн и вычисляет даты, не обращаясь
// к хранилищу.
func Generate(p *RecurringPattern) ([]time.Time, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := truncateDate(p.StartDate)
	end := p.EffectiveEndDate()

	var dates []time.Time
	switch p.Frequency {
	case FrequencyDaily:
		dates = generateDaily(start, end)
	case FrequencyWeekly:
		dates = generateWeekly(start, end, p.DaysOfWeek)
	case FrequencyCustom:
		dates = generateCustom(start, end, p.TimesPerWeek)
	}

	return dedupeSorted(dates), nil
}

// generateDaily - каждая дата диапазона.
func generateDaily(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// generateWeekly - даты диапазона, приходящиеся на указанные дни недели.
func generateWeekly(start, end time.Time, daysOfWeek []int) []time.Time {
	wanted := make(map[time.Weekday]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		wanted[time.Weekday(d)] = true
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates
}

// generateCustom - timesPerWeek тренировок в неделю с равномерным
// шагом floor(7/timesPerWeek) дней, неделя отсчитывается от StartDate.
//
// Это приближение равномерности: при timesPerWeek, не делящем 7,
// последняя тренировка недели оказывается ближе к первой тренировке
// следующей, а неполная последняя неделя может дать меньше вхождений.
func generateCustom(start, end time.Time, timesPerWeek int) []time.Time {
	step := 7 / timesPerWeek

	var dates []time.Time
	for weekStart := start; !weekStart.After(end); weekStart = weekStart.AddDate(0, 0, 7) {
		for k := 0; k < timesPerWeek; k++ {
			d := weekStart.AddDate(0, 0, k*step)
			if d.After(end) {
				break
			}
			dates = append(dates, d)
		}
	}
	return dates
}

// dedupeSorted сортирует даты по возрастанию и убирает дубликаты.
func dedupeSorted(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return dates
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	out := dates[:1]
	for _, d := range dates[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}
