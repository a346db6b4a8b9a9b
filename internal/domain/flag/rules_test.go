package flag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

func day(s string) dayclock.Day {
	d, err := dayclock.ParseDay(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func snap(d string, logins, posts, responses int) *engagement.Snapshot {
	return &engagement.Snapshot{
		UserID:    "u1",
		Day:       day(d),
		Logins:    logins,
		Posts:     posts,
		Responses: responses,
	}
}

func findType(candidates []Candidate, t Type) *Candidate {
	for i := range candidates {
		if candidates[i].Type == t {
			return &candidates[i]
		}
	}
	return nil
}

func TestRedFiresOnConsecutiveMissedCommitments(t *testing.T) {
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{snap("2026-03-10", 1, 1, 0)}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{ConsecutiveMissed: 3}, today)

	red := findType(got, TypeRed)
	require.NotNil(t, red)
	assert.Equal(t, 3, red.Context["consecutive_missed"])
}

func TestRedFiresOnInactivityWithOutstandingCommitment(t *testing.T) {
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{snap("2026-03-01", 1, 0, 0)}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{Outstanding: 2}, today)

	red := findType(got, TypeRed)
	require.NotNil(t, red)
	assert.Equal(t, 9, red.Context["days_inactive"])
}

func TestRedNeedsOutstandingCommitment(t *testing.T) {
	// Same inactivity, but nothing owed to a partner: no red flag.
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{snap("2026-03-01", 1, 0, 0)}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)
	assert.Nil(t, findType(got, TypeRed))
}

func TestYellowFiresOnLurking(t *testing.T) {
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{
		snap("2026-03-10", 1, 0, 0),
		snap("2026-03-09", 2, 0, 0),
		snap("2026-03-08", 1, 0, 0),
	}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)

	yellow := findType(got, TypeYellow)
	require.NotNil(t, yellow)
	assert.Equal(t, 4, yellow.Context["logins"])
}

func TestYellowFiresOnWeeklyDecline(t *testing.T) {
	today := day("2026-03-14")
	// Last week busy, this week a single login plus post. 2 <= 0.5 * 20.
	snapshots := []*engagement.Snapshot{
		snap("2026-03-14", 1, 1, 0),
		snap("2026-03-05", 5, 5, 0),
		snap("2026-03-04", 5, 5, 0),
	}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)

	yellow := findType(got, TypeYellow)
	require.NotNil(t, yellow)
	assert.Equal(t, 2, yellow.Context["this_week"])
	assert.Equal(t, 20, yellow.Context["last_week"])
}

func TestYellowQuietWeeksDoNotFire(t *testing.T) {
	// No activity at all in either week: a decline ratio over zero history
	// means nothing.
	today := day("2026-03-14")

	got := EvaluateRules(DefaultPolicy(), nil, CommitmentStats{}, today)
	assert.Nil(t, findType(got, TypeYellow))
}

func TestYellowSingleStaleLoginIsNotADecline(t *testing.T) {
	// One login nine days ago and nothing since. That is inactivity, and the
	// red rule's business; a 1-to-0 "decline" must not raise a yellow flag on
	// every evaluation.
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{snap("2026-03-01", 1, 0, 0)}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)
	assert.Nil(t, findType(got, TypeYellow))
}

func TestYellowDeclineNeedsPriorWeekFloor(t *testing.T) {
	// Last week's activity is below YellowDeclineMinPrior, so the ratio check
	// is skipped even though 1 <= 0.5 * 2.
	today := day("2026-03-14")
	snapshots := []*engagement.Snapshot{
		snap("2026-03-14", 0, 0, 1),
		snap("2026-03-04", 1, 1, 0),
	}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)
	assert.Nil(t, findType(got, TypeYellow))
}

func TestGreenFiresOnFirstPostAfterSilence(t *testing.T) {
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{
		snap("2026-03-10", 1, 1, 0),
		snap("2026-03-09", 1, 0, 1), // logins but no posts
		snap("2026-03-01", 1, 2, 0), // last post nine days ago
	}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)

	green := findType(got, TypeGreen)
	require.NotNil(t, green)
	assert.Equal(t, 9, green.Context["silent_days"])
}

func TestGreenFiresOnResponseBurst(t *testing.T) {
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{
		snap("2026-03-10", 1, 0, 8),
		snap("2026-03-09", 1, 1, 2),
		snap("2026-03-08", 1, 1, 2),
	}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)

	green := findType(got, TypeGreen)
	require.NotNil(t, green)
	assert.Equal(t, 8, green.Context["responses_today"])
}

func TestGreenNeedsTodaySnapshot(t *testing.T) {
	// The positive signals are about something that happened today; stale
	// history alone never produces a green.
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{
		snap("2026-03-08", 1, 3, 9),
		snap("2026-03-01", 1, 0, 1),
	}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{}, today)
	assert.Nil(t, findType(got, TypeGreen))
}

func TestRulesAreIndependent(t *testing.T) {
	// Missed commitments plus lurking: both rules fire in one pass.
	today := day("2026-03-10")
	snapshots := []*engagement.Snapshot{
		snap("2026-03-10", 1, 0, 0),
		snap("2026-03-09", 1, 0, 0),
	}

	got := EvaluateRules(DefaultPolicy(), snapshots, CommitmentStats{ConsecutiveMissed: 5}, today)

	assert.NotNil(t, findType(got, TypeRed))
	assert.NotNil(t, findType(got, TypeYellow))
}
