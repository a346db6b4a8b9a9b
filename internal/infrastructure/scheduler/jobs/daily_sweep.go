// Package jobs contains the scheduled jobs the engagement pipeline runs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// EvaluationQueue is the enqueue side of the evaluation pipeline.
type EvaluationQueue interface {
	Enqueue(userID string) bool
}

// DailySweep re-enqueues every recently seen user for evaluation once a day.
// Event-driven evaluation only fires when a user does something; inactivity
// flags need this sweep to catch the users who did nothing at all.
type DailySweep struct {
	snapshots    engagement.Repository
	queue        EvaluationQueue
	clock        dayclock.Clock
	lookbackDays int
	logger       *slog.Logger
}

// NewDailySweep creates a new DailySweep job. lookbackDays bounds how far
// back a user's last snapshot may be and still get swept; it should match
// the flag policy's lookback so the sweep covers exactly the users the
// rules can still flag.
func NewDailySweep(
	snapshots engagement.Repository,
	queue EvaluationQueue,
	clock dayclock.Clock,
	lookbackDays int,
	logger *slog.Logger,
) *DailySweep {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &DailySweep{
		snapshots:    snapshots,
		queue:        queue,
		clock:        clock,
		lookbackDays: lookbackDays,
		logger:       logger.With("job", "daily_sweep"),
	}
}

// Name implements scheduler.Job.
func (j *DailySweep) Name() string { return "daily_sweep" }

// Run enqueues every user seen inside the lookback window.
func (j *DailySweep) Run(ctx context.Context) error {
	since := j.clock.DayOf(j.clock.DaysAgo(j.lookbackDays))

	ids, err := j.snapshots.ListUserIDsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("daily sweep: list users: %w", err)
	}

	enqueued, dropped := 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if j.queue.Enqueue(id.String()) {
			enqueued++
		} else {
			dropped++
		}
	}

	j.logger.Info("sweep finished",
		"users", len(ids), "enqueued", enqueued, "dropped", dropped)

	if dropped > 0 {
		return fmt.Errorf("daily sweep: %d of %d users dropped by full queue", dropped, len(ids))
	}
	return nil
}
