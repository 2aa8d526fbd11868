package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2026, 3, 10, 15, 30, 45, 123, time.UTC)

	got := StartOfDay(ts, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)

	// nil location defaults to UTC
	assert.Equal(t, got, StartOfDay(ts, nil))
}

func TestStartOfDay_InLocation(t *testing.T) {
	almaty := time.FixedZone("UTC+5", 5*60*60)

	// 22:00 UTC is already the next day at UTC+5.
	ts := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	got := StartOfDay(ts, almaty)
	assert.Equal(t, 11, got.Day())
	assert.Equal(t, 0, got.Hour())
}

func TestStartOfWeek(t *testing.T) {
	// Wednesday
	ts := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	got := StartOfWeek(ts, time.UTC)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.Equal(t, 9, got.Day())

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, got, StartOfWeek(sunday, time.UTC))
}

func TestEndOfWeek(t *testing.T) {
	ts := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	got := EndOfWeek(ts, time.UTC)
	assert.Equal(t, time.Sunday, got.Weekday())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 23, got.Hour())
}

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)
	night := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	nextDay := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)

	assert.True(t, IsSameDay(morning, night, time.UTC))
	assert.False(t, IsSameDay(night, nextDay, time.UTC))
}

func TestIsSameDay_DependsOnLocation(t *testing.T) {
	almaty := time.FixedZone("UTC+5", 5*60*60)

	// 18:00 and 20:00 UTC share the UTC day, but at UTC+5 the second
	// one is already past local midnight.
	t1 := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	assert.True(t, IsSameDay(t1, t2, time.UTC))
	assert.False(t, IsSameDay(t1, t2, almaty), "23:00 local vs 01:00 local next day")
}

func TestIsConsecutiveDay(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	day3 := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsConsecutiveDay(day1, day2, time.UTC))
	assert.False(t, IsConsecutiveDay(day1, day3, time.UTC))
	assert.False(t, IsConsecutiveDay(day2, day1, time.UTC), "order matters")
}

func TestDaysBetween(t *testing.T) {
	t1 := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 13, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, DaysBetween(t1, t2, time.UTC))
	assert.Equal(t, 3, DaysBetween(t2, t1, time.UTC), "absolute value")
	assert.Equal(t, 0, DaysBetween(t1, t1, time.UTC))
}

func TestDaysBetween_AcrossDSTTransition(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// DST starts in Berlin on 2026-03-29; that local day has 23 hours.
	before := time.Date(2026, 3, 28, 12, 0, 0, 0, berlin)
	after := time.Date(2026, 3, 30, 12, 0, 0, 0, berlin)

	assert.Equal(t, 2, DaysBetween(before, after, berlin))
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	got := WindowStart(now, 7)
	assert.Equal(t, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), got)
}

func TestIsWeekend(t *testing.T) {
	saturday := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsWeekend(saturday, time.UTC))
	assert.False(t, IsWeekend(monday, time.UTC))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("10.03.2026", time.UTC)
	assert.Error(t, err)
}

func TestFormatDateStr(t *testing.T) {
	ts := time.Date(2026, 3, 10, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*60*60))
	// 23:30 at UTC-2 is already March 11 in UTC.
	assert.Equal(t, "2026-03-11", FormatDateStr(ts))
}
