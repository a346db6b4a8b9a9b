package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

func day(s string) dayclock.Day {
	d, err := dayclock.ParseDay(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

// activeOn builds login-active snapshots for the given days, most recent
// first, the ordering the repository guarantees.
func activeOn(days ...string) []*Snapshot {
	snapshots := make([]*Snapshot, 0, len(days))
	for _, d := range days {
		snapshots = append(snapshots, &Snapshot{UserID: "u1", Day: day(d), Logins: 1})
	}
	return snapshots
}

func TestCalculateStreaksEmpty(t *testing.T) {
	assert.Equal(t, Streaks{}, CalculateStreaks(nil, day("2026-03-10")))
}

func TestCalculateStreaksUnbrokenRun(t *testing.T) {
	snapshots := activeOn("2026-03-10", "2026-03-09", "2026-03-08")

	got := CalculateStreaks(snapshots, day("2026-03-10"))
	assert.Equal(t, Streaks{Current: 3, Longest: 3}, got)
}

func TestCalculateStreaksTodayNotYetActive(t *testing.T) {
	// No snapshot for today yet: the run anchored at yesterday still counts,
	// because today is not over.
	snapshots := activeOn("2026-03-09", "2026-03-08")

	got := CalculateStreaks(snapshots, day("2026-03-10"))
	assert.Equal(t, 2, got.Current)
}

func TestCalculateStreaksGapBreaksCurrent(t *testing.T) {
	// Last activity the day before yesterday: the gap day has passed, so the
	// current streak is gone.
	snapshots := activeOn("2026-03-08", "2026-03-07")

	got := CalculateStreaks(snapshots, day("2026-03-10"))
	assert.Equal(t, 0, got.Current)
	assert.Equal(t, 2, got.Longest)
}

func TestCalculateStreaksLongestInHistory(t *testing.T) {
	snapshots := activeOn(
		"2026-03-10",
		// gap
		"2026-03-05", "2026-03-04", "2026-03-03", "2026-03-02",
	)

	got := CalculateStreaks(snapshots, day("2026-03-10"))
	assert.Equal(t, 1, got.Current)
	assert.Equal(t, 4, got.Longest)
}

func TestCalculateStreaksIgnoresInactiveDays(t *testing.T) {
	snapshots := []*Snapshot{
		{UserID: "u1", Day: day("2026-03-10"), Logins: 1},
		{UserID: "u1", Day: day("2026-03-09"), Posts: 2}, // no login
		{UserID: "u1", Day: day("2026-03-08"), Logins: 1},
	}

	got := CalculateStreaks(snapshots, day("2026-03-10"))
	assert.Equal(t, 1, got.Current)
	assert.Equal(t, 1, got.Longest)
}

func TestCalculateStreaksSurvivesDSTTransition(t *testing.T) {
	// March 8 2026 is spring-forward in New York: the local day is 23 hours
	// long, but a run across the transition is still consecutive.
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}

	snapshots := []*Snapshot{
		{UserID: "u1", Day: dayclock.FromDate(2026, time.March, 9, loc), Logins: 1},
		{UserID: "u1", Day: dayclock.FromDate(2026, time.March, 8, loc), Logins: 1},
		{UserID: "u1", Day: dayclock.FromDate(2026, time.March, 7, loc), Logins: 1},
	}

	got := CalculateStreaks(snapshots, dayclock.FromDate(2026, time.March, 9, loc))
	assert.Equal(t, Streaks{Current: 3, Longest: 3}, got)
}

func TestCalculateStreaksIgnoresFutureDays(t *testing.T) {
	// A snapshot dated past today (clock skew upstream) must not count.
	snapshots := activeOn("2026-03-11", "2026-03-10")

	got := CalculateStreaks(snapshots, day("2026-03-10"))
	assert.Equal(t, Streaks{Current: 1, Longest: 1}, got)
}
