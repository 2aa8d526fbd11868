package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-app/momentum-core/internal/domain/shared"
)

const testUserID = shared.UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validPattern() *RecurringPattern {
	return &RecurringPattern{
		ID:                "p1",
		UserID:            testUserID,
		WorkoutTemplateID: "w1",
		Frequency:         FrequencyDaily,
		StartDate:         date(2026, time.March, 2), // Monday
		EndDate:           date(2026, time.March, 8), // Sunday
	}
}

func TestGenerate_Daily(t *testing.T) {
	p := validPattern()

	dates, err := Generate(p)
	require.NoError(t, err)

	// Inclusive range: Mon..Sun = 7 days.
	require.Len(t, dates, 7)
	assert.Equal(t, date(2026, time.March, 2), dates[0])
	assert.Equal(t, date(2026, time.March, 8), dates[6])
}

func TestGenerate_Weekly(t *testing.T) {
	p := validPattern()
	p.Frequency = FrequencyWeekly
	p.DaysOfWeek = []int{1, 3, 5} // Mon, Wed, Fri
	p.EndDate = date(2026, time.March, 15)

	dates, err := Generate(p)
	require.NoError(t, err)

	require.Len(t, dates, 6)
	for _, d := range dates {
		wd := d.Weekday()
		assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, wd)
	}
}

func TestGenerate_CustomThreePerWeek(t *testing.T) {
	p := validPattern()
	p.Frequency = FrequencyCustom
	p.TimesPerWeek = 3
	p.EndDate = date(2026, time.March, 8)

	dates, err := Generate(p)
	require.NoError(t, err)

	// step = floor(7/3) = 2: Mon, Wed, Fri of the single full week.
	require.Len(t, dates, 3)
	assert.Equal(t, date(2026, time.March, 2), dates[0])
	assert.Equal(t, date(2026, time.March, 4), dates[1])
	assert.Equal(t, date(2026, time.March, 6), dates[2])
}

func TestGenerate_CustomDailyEquivalent(t *testing.T) {
	p := validPattern()
	p.Frequency = FrequencyCustom
	p.TimesPerWeek = 7

	dates, err := Generate(p)
	require.NoError(t, err)
	assert.Len(t, dates, 7, "7 times per week over one week is every day")
}

func TestGenerate_SortedWithoutDuplicates(t *testing.T) {
	p := validPattern()
	p.Frequency = FrequencyWeekly
	p.DaysOfWeek = []int{2, 2, 4} // duplicate Tuesday
	p.EndDate = date(2026, time.March, 15)

	dates, err := Generate(p)
	require.NoError(t, err)

	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].Before(dates[i]), "dates must be strictly increasing")
	}
}

func TestGenerate_DurationWeeks(t *testing.T) {
	p := validPattern()
	p.EndDate = time.Time{}
	p.DurationWeeks = 2

	dates, err := Generate(p)
	require.NoError(t, err)
	assert.Len(t, dates, 14, "two weeks without the duplicate start day")
}

func TestGenerate_DefaultHorizon(t *testing.T) {
	p := validPattern()
	p.EndDate = time.Time{}

	dates, err := Generate(p)
	require.NoError(t, err)
	assert.Len(t, dates, DefaultHorizonDays+1, "one year inclusive of both endpoints")
}

func TestGenerate_ValidationErrors(t *testing.T) {
	p := validPattern()
	p.EndDate = date(2026, time.March, 1)
	_, err := Generate(p)
	assert.ErrorIs(t, err, shared.ErrEndBeforeStart)

	p = validPattern()
	p.Frequency = "yearly"
	_, err = Generate(p)
	assert.ErrorIs(t, err, shared.ErrInvalidFrequency)

	p = validPattern()
	p.Frequency = FrequencyWeekly
	p.DaysOfWeek = nil
	_, err = Generate(p)
	assert.ErrorIs(t, err, shared.ErrEmptyDaysOfWeek)

	p = validPattern()
	p.Frequency = FrequencyWeekly
	p.DaysOfWeek = []int{7}
	_, err = Generate(p)
	assert.ErrorIs(t, err, shared.ErrInvalidDayOfWeek)

	p = validPattern()
	p.Frequency = FrequencyCustom
	p.TimesPerWeek = 8
	_, err = Generate(p)
	assert.ErrorIs(t, err, shared.ErrInvalidTimesPerWeek)

	p = validPattern()
	p.UserID = ""
	_, err = Generate(p)
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestGenerate_SingleDayRange(t *testing.T) {
	p := validPattern()
	p.EndDate = p.StartDate

	dates, err := Generate(p)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, date(2026, time.March, 2), dates[0])
}
