package flag

import (
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// Policy holds the rule thresholds. The exact cutoffs are configuration, not
// correctness: only the shape of each rule is fixed. Defaults mirror the
// values the admin tooling ships with.
type Policy struct {
	// LookbackDays bounds both rule evaluation and flag deduplication.
	LookbackDays int

	// Red: no login for RedInactiveDays consecutive days while at least one
	// partner commitment is outstanding, or RedMissedCommitments consecutive
	// missed/partial partner commitments.
	RedInactiveDays      int
	RedMissedCommitments int

	// Yellow: logins present but zero posts/responses for YellowLurkDays, or
	// this week's activity at or below YellowDeclineRatio of last week's.
	// The decline comparison only runs when last week reached
	// YellowDeclineMinPrior; a lone stale login is inactivity, not a decline.
	YellowLurkDays        int
	YellowDeclineRatio    float64
	YellowDeclineMinPrior int

	// Green: first post after GreenSilenceDays without posting, or a day's
	// responses at least GreenBurstFactor times the trailing daily average.
	GreenSilenceDays int
	GreenBurstFactor float64
}

// DefaultPolicy returns the default rule thresholds.
func DefaultPolicy() Policy {
	return Policy{
		LookbackDays:          30,
		RedInactiveDays:       7,
		RedMissedCommitments:  3,
		YellowLurkDays:        5,
		YellowDeclineRatio:    0.5,
		YellowDeclineMinPrior: 3,
		GreenSilenceDays:      7,
		GreenBurstFactor:      2.0,
	}
}

// CommitmentStats is the partner-commitment signal the red rule needs. It is
// supplied by the partner-pairing subsystem, which is external to this
// pipeline.
type CommitmentStats struct {
	Outstanding       int
	ConsecutiveMissed int
}

// Candidate is a flag the rules want to raise. The engine dedups candidates
// against existing unresolved flags before persisting them.
type Candidate struct {
	Type    Type
	Reason  string
	Context map[string]any
}

// EvaluateRules runs the red/yellow/green rules over a user's snapshot
// window. Snapshots must be ordered by day descending and bounded to the
// policy's lookback window; today anchors all day arithmetic. Pure function:
// the caller owns persistence and deduplication.
func EvaluateRules(policy Policy, snapshots []*engagement.Snapshot, commitments CommitmentStats, today dayclock.Day) []Candidate {
	var candidates []Candidate

	if c := evaluateRed(policy, snapshots, commitments, today); c != nil {
		candidates = append(candidates, *c)
	}
	if c := evaluateYellow(policy, snapshots, today); c != nil {
		candidates = append(candidates, *c)
	}
	if c := evaluateGreen(policy, snapshots, today); c != nil {
		candidates = append(candidates, *c)
	}

	return candidates
}

func evaluateRed(policy Policy, snapshots []*engagement.Snapshot, commitments CommitmentStats, today dayclock.Day) *Candidate {
	if commitments.ConsecutiveMissed >= policy.RedMissedCommitments {
		return &Candidate{
			Type:   TypeRed,
			Reason: fmt.Sprintf("%d consecutive missed partner commitments", commitments.ConsecutiveMissed),
			Context: map[string]any{
				"consecutive_missed": commitments.ConsecutiveMissed,
				"threshold":          policy.RedMissedCommitments,
			},
		}
	}

	if commitments.Outstanding == 0 {
		return nil
	}

	days := daysSinceLastLogin(snapshots, today)
	if days >= policy.RedInactiveDays {
		return &Candidate{
			Type:   TypeRed,
			Reason: fmt.Sprintf("no login activity for %d days with %d outstanding partner commitment(s)", days, commitments.Outstanding),
			Context: map[string]any{
				"days_inactive":           days,
				"outstanding_commitments": commitments.Outstanding,
				"threshold_days":          policy.RedInactiveDays,
			},
		}
	}

	return nil
}

func evaluateYellow(policy Policy, snapshots []*engagement.Snapshot, today dayclock.Day) *Candidate {
	// Lurking: logged in within the lurk window but contributed nothing.
	windowStart := today.AddDays(-policy.YellowLurkDays + 1)
	logins, contributions := 0, 0
	for _, s := range snapshots {
		if s.Day.Before(windowStart) {
			break
		}
		logins += s.Logins
		contributions += s.ContributionCount()
	}
	if logins > 0 && contributions == 0 {
		return &Candidate{
			Type:   TypeYellow,
			Reason: fmt.Sprintf("active logins but no posts or responses in the last %d days", policy.YellowLurkDays),
			Context: map[string]any{
				"window_days":   policy.YellowLurkDays,
				"logins":        logins,
				"contributions": 0,
			},
		}
	}

	// Week-over-week decline beyond the relative threshold. Last week must
	// have reached the floor: a ratio against near-zero activity flags every
	// quiet user on every evaluation.
	thisWeek, lastWeek := weeklyActivity(snapshots, today)
	if lastWeek > 0 && lastWeek >= policy.YellowDeclineMinPrior &&
		float64(thisWeek) <= policy.YellowDeclineRatio*float64(lastWeek) {
		return &Candidate{
			Type:   TypeYellow,
			Reason: fmt.Sprintf("weekly activity dropped from %d to %d", lastWeek, thisWeek),
			Context: map[string]any{
				"this_week":     thisWeek,
				"last_week":     lastWeek,
				"decline_ratio": policy.YellowDeclineRatio,
			},
		}
	}

	return nil
}

func evaluateGreen(policy Policy, snapshots []*engagement.Snapshot, today dayclock.Day) *Candidate {
	if len(snapshots) == 0 {
		return nil
	}

	// First post after a period of silence.
	latest := snapshots[0]
	if latest.Day.Equal(today) && latest.Posts > 0 {
		silence := postSilenceBefore(snapshots[1:], today)
		if silence >= policy.GreenSilenceDays {
			return &Candidate{
				Type:   TypeGreen,
				Reason: fmt.Sprintf("first post after %d days of silence", silence),
				Context: map[string]any{
					"silent_days": silence,
					"posts_today": latest.Posts,
				},
			}
		}
	}

	// Response burst relative to the user's own trailing average.
	if latest.Day.Equal(today) && latest.Responses > 0 {
		avg := trailingResponseAverage(snapshots[1:])
		if avg > 0 && float64(latest.Responses) >= policy.GreenBurstFactor*avg {
			return &Candidate{
				Type:   TypeGreen,
				Reason: fmt.Sprintf("%d responses today against a trailing average of %.1f", latest.Responses, avg),
				Context: map[string]any{
					"responses_today":  latest.Responses,
					"trailing_average": avg,
					"burst_factor":     policy.GreenBurstFactor,
				},
			}
		}
	}

	return nil
}

// daysSinceLastLogin returns whole days between today and the most recent
// login-active snapshot, or a large value when the window has none.
func daysSinceLastLogin(snapshots []*engagement.Snapshot, today dayclock.Day) int {
	for _, s := range snapshots {
		if s.IsActive() {
			return today.Sub(s.Day)
		}
	}
	if len(snapshots) == 0 {
		// Empty window: the user has not logged in at all inside the
		// lookback, which exceeds any sane threshold.
		return 1 << 20
	}
	return today.Sub(snapshots[len(snapshots)-1].Day) + 1
}

// weeklyActivity sums logins+posts+responses for the last 7 days and the 7
// days before that.
func weeklyActivity(snapshots []*engagement.Snapshot, today dayclock.Day) (thisWeek, lastWeek int) {
	thisWeekStart := today.AddDays(-6)
	lastWeekStart := today.AddDays(-13)
	for _, s := range snapshots {
		total := s.Logins + s.ContributionCount()
		switch {
		case !s.Day.Before(thisWeekStart):
			thisWeek += total
		case !s.Day.Before(lastWeekStart):
			lastWeek += total
		}
	}
	return thisWeek, lastWeek
}

// postSilenceBefore returns days since the last snapshot with a post, looking
// at snapshots strictly before today.
func postSilenceBefore(previous []*engagement.Snapshot, today dayclock.Day) int {
	for _, s := range previous {
		if s.Posts > 0 {
			return today.Sub(s.Day)
		}
	}
	if len(previous) == 0 {
		return 0
	}
	return today.Sub(previous[len(previous)-1].Day) + 1
}

// trailingResponseAverage is the mean responses per snapshot day, excluding
// today.
func trailingResponseAverage(previous []*engagement.Snapshot) float64 {
	if len(previous) == 0 {
		return 0
	}
	total := 0
	for _, s := range previous {
		total += s.Responses
	}
	return float64(total) / float64(len(previous))
}
