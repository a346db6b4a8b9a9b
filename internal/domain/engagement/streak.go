package engagement

import (
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// StreakLookback bounds how many snapshots the streak calculator inspects.
// Streaks longer than this are reported as the bound; in practice they are
// indistinguishable from "very long".
const StreakLookback = 100

// Streaks holds a user's consecutive-active-day streak numbers.
type Streaks struct {
	Current int
	Longest int
}

// CalculateStreaks computes current and longest streaks from snapshots
// ordered by day descending (most recent first). A day counts only if a
// snapshot exists for that exact date with at least one login; any gap day
// breaks the run, with no grace-day forgiveness.
//
// The current streak starts at today, or at yesterday when today has no
// active snapshot yet: a streak is not considered broken until the day with
// no login is actually over. Both numbers come from a single pass over the
// ordered list.
func CalculateStreaks(snapshots []*Snapshot, today dayclock.Day) Streaks {
	if len(snapshots) == 0 {
		return Streaks{}
	}

	active := make([]dayclock.Day, 0, len(snapshots))
	for _, s := range snapshots {
		if s.IsActive() && !s.Day.Time().After(today.Time()) {
			active = append(active, s.Day)
		}
	}
	if len(active) == 0 {
		return Streaks{}
	}

	// Current streak: walk backward one calendar day at a time from the
	// anchor, stopping at the first missing day.
	current := 0
	anchor := today
	if !active[0].Equal(today) {
		anchor = today.AddDays(-1)
	}
	expected := anchor
	for _, day := range active {
		if !day.Equal(expected) {
			break
		}
		current++
		expected = expected.AddDays(-1)
	}

	// Longest streak: longest run of exactly consecutive active days
	// anywhere in the list.
	longest := 1
	run := 1
	for i := 1; i < len(active); i++ {
		if active[i-1].Sub(active[i]) == 1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	if current > longest {
		longest = current
	}

	return Streaks{Current: current, Longest: longest}
}
