package dayclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOfNormalizesToMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 01:30 UTC on March 2nd is still March 1st in New York.
	instant := time.Date(2026, time.March, 2, 1, 30, 0, 0, time.UTC)
	day := DayOf(instant, loc)

	assert.Equal(t, "2026-03-01", day.String())
	assert.Equal(t, 0, day.Time().Hour())
	assert.Equal(t, loc, day.Time().Location())
}

func TestParseDayRoundTrip(t *testing.T) {
	day, err := ParseDay("2026-02-14", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", day.String())

	_, err = ParseDay("not-a-day", time.UTC)
	assert.Error(t, err)
}

func TestDayArithmetic(t *testing.T) {
	day := FromDate(2026, time.January, 31, time.UTC)

	next := day.AddDays(1)
	assert.Equal(t, "2026-02-01", next.String())
	assert.Equal(t, 1, next.Sub(day))
	assert.True(t, day.Before(next))
	assert.False(t, next.Before(day))

	assert.Equal(t, -3, day.AddDays(-3).Sub(day))
}

func TestDaySubAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// The spring-forward weekend: March 8 2026 has only 23 hours, but the
	// calendar distance must still be whole days.
	before := FromDate(2026, time.March, 7, loc)
	after := FromDate(2026, time.March, 9, loc)
	assert.Equal(t, 2, after.Sub(before))

	// Adjacent days spanning the transition are 23h apart on the wall clock
	// and exactly one calendar day apart.
	assert.Equal(t, 1, FromDate(2026, time.March, 8, loc).Sub(before))
	assert.Equal(t, 1, after.Sub(FromDate(2026, time.March, 8, loc)))

	// Fall-back: November 1 2026 has 25 hours.
	assert.Equal(t, 1, FromDate(2026, time.November, 2, loc).Sub(FromDate(2026, time.November, 1, loc)))
}

func TestClockToday(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	at := time.Date(2026, time.June, 15, 3, 0, 0, 0, time.UTC)
	clock := NewFixed(at, loc)

	// 03:00 UTC is 23:00 the previous evening in New York.
	assert.Equal(t, "2026-06-14", clock.Today().String())
	assert.Equal(t, loc, clock.Location())
}

func TestClockDaysAgo(t *testing.T) {
	at := time.Date(2026, time.June, 15, 18, 45, 0, 0, time.UTC)
	clock := NewFixed(at, time.UTC)

	assert.Equal(t, time.Date(2026, time.June, 8, 0, 0, 0, 0, time.UTC), clock.DaysAgo(7))
	assert.Equal(t, clock.Today().Time(), clock.DaysAgo(0))
}

func TestZeroDay(t *testing.T) {
	var day Day
	assert.True(t, day.IsZero())
	assert.False(t, FromDate(2026, time.January, 1, time.UTC).IsZero())
}
