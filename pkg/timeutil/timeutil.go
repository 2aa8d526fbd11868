// Package timeutil provides calendar-day utilities for time-based features:
// streak day comparison, sliding leaderboard windows, and schedule date ranges.
// Day boundaries are computed in a caller-supplied location (UTC by default),
// so users in different timezones get their own midnight.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
)

// orUTC substitutes UTC for a nil location.
func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// StartOfDay returns the start of the day (00:00:00) in the given location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	loc = orUTC(loc)
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the given location.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	loc = orUTC(loc)
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, loc)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in the given location.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	loc = orUTC(loc)
	local := t.In(loc)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(local.AddDate(0, 0, -daysToSubtract), loc)
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in the given location.
func EndOfWeek(t time.Time, loc *time.Location) time.Time {
	start := StartOfWeek(t, loc)
	return EndOfDay(start.AddDate(0, 0, 6), loc)
}

// WindowStart returns the start of a sliding window of the given number of
// days ending at t. Used for windowed leaderboard queries.
func WindowStart(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, -days)
}

// IsSameDay checks if two times fall on the same calendar day in the given location.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	loc = orUTC(loc)
	a, b := t1.In(loc), t2.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsConsecutiveDay checks if t2 is the calendar day after t1.
func IsConsecutiveDay(t1, t2 time.Time, loc *time.Location) bool {
	nextDay := t1.In(orUTC(loc)).AddDate(0, 0, 1)
	return IsSameDay(nextDay, t2, loc)
}

// DaysBetween calculates the number of whole calendar days between two times.
// The dates are normalized to UTC midnight first, so the difference divides
// by 24 hours exactly even across DST transitions.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	a := asUTCMidnight(StartOfDay(t1, loc))
	b := asUTCMidnight(StartOfDay(t2, loc))
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

func asUTCMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend checks if the given time is on a weekend in the given location.
func IsWeekend(t time.Time, loc *time.Location) bool {
	weekday := t.In(orUTC(loc)).Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in UTC.
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ParseDate parses a date string (YYYY-MM-DD) in the given location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, orUTC(loc))
}
