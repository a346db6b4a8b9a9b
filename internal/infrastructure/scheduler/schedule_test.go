package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryNext(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(15*time.Minute), Every(15*time.Minute).Next(now))

	// Non-positive intervals fall back to a sane minimum.
	assert.Equal(t, now.Add(time.Minute), Every(0).Next(now))
}

func TestDailyAtNext(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := DailyAt(2, 30, loc)

	// Before today's run time: next run is later today.
	after := time.Date(2026, time.March, 2, 1, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, time.March, 2, 2, 30, 0, 0, loc), s.Next(after))

	// Exactly at the run time: next run is tomorrow, never now.
	at := time.Date(2026, time.March, 2, 2, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, time.March, 3, 2, 30, 0, 0, loc), s.Next(at))

	// After today's run time: next run is tomorrow.
	late := time.Date(2026, time.March, 2, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, time.March, 3, 2, 30, 0, 0, loc), s.Next(late))
}

func TestDailyAtResolvesInPlatformZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := DailyAt(2, 30, loc)

	// 06:00 UTC is 01:00 in New York, so the run is still ahead that day.
	after := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)
	got := s.Next(after)
	assert.Equal(t, time.Date(2026, time.March, 2, 2, 30, 0, 0, loc), got)
}

func TestWeeklyAtNext(t *testing.T) {
	s := WeeklyAt(time.Monday, 8, 0, time.UTC)

	// Mid-week: jumps to next Monday.
	wed := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC) // Wednesday
	assert.Equal(t, time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC), s.Next(wed))

	// Monday before the run time: runs later the same day.
	monEarly := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC), s.Next(monEarly))

	// Monday after the run time: wraps a full week.
	monLate := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC), s.Next(monLate))
}

func TestSchedulesAlwaysAdvance(t *testing.T) {
	loc := time.UTC
	schedules := []Schedule{
		Every(time.Hour),
		DailyAt(0, 0, loc),
		WeeklyAt(time.Sunday, 23, 59, loc),
	}

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, loc)
	for _, s := range schedules {
		next := s.Next(now)
		assert.True(t, next.After(now))
	}
}
