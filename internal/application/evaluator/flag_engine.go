// Package evaluator contains the asynchronous evaluation side of the
// pipeline: the flag and achievement engines that run after activity is
// recorded. Evaluation is always safe to re-run; both engines are idempotent
// against their storage constraints.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// FlagEngine evaluates the red/yellow/green rules for one user and persists
// the flags that survive deduplication.
type FlagEngine struct {
	snapshots   engagement.Repository
	flags       flag.Repository
	commitments flag.CommitmentProvider
	publisher   shared.EventPublisher
	policy      flag.Policy
	clock       dayclock.Clock
	logger      *slog.Logger
}

// NewFlagEngine creates a new FlagEngine.
func NewFlagEngine(
	snapshots engagement.Repository,
	flags flag.Repository,
	commitments flag.CommitmentProvider,
	publisher shared.EventPublisher,
	policy flag.Policy,
	clock dayclock.Clock,
	logger *slog.Logger,
) *FlagEngine {
	if policy.LookbackDays == 0 {
		policy = flag.DefaultPolicy()
	}
	return &FlagEngine{
		snapshots:   snapshots,
		flags:       flags,
		commitments: commitments,
		publisher:   publisher,
		policy:      policy,
		clock:       clock,
		logger:      logger.With("engine", "flags"),
	}
}

// Evaluate runs the rules for one user. A candidate is dropped when the user
// already has an unresolved flag of the same type raised inside the lookback
// window; re-running evaluation therefore never floods the admin queue.
func (e *FlagEngine) Evaluate(ctx context.Context, userID string) ([]*flag.Flag, error) {
	today := e.clock.Today()
	from := today.AddDays(-e.policy.LookbackDays + 1)

	snapshots, err := e.snapshots.ListRange(ctx, engagement.UserID(userID), from, today)
	if err != nil {
		return nil, fmt.Errorf("flag engine: load snapshots: %w", err)
	}

	commitments, err := e.commitments.CommitmentStats(ctx, userID)
	if err != nil {
		// The commitment signal is external; without it the red rule loses
		// its input but yellow and green still run.
		e.logger.Warn("commitment stats unavailable", "user_id", userID, "error", err)
		commitments = flag.CommitmentStats{}
	}

	candidates := flag.EvaluateRules(e.policy, snapshots, commitments, today)
	if len(candidates) == 0 {
		return nil, nil
	}

	since := from.Time()
	now := time.Now().UTC()

	var raised []*flag.Flag
	for _, c := range candidates {
		exists, err := e.flags.HasUnresolved(ctx, userID, c.Type, since)
		if err != nil {
			return raised, fmt.Errorf("flag engine: dedup check: %w", err)
		}
		if exists {
			continue
		}

		f, err := flag.New(uuid.NewString(), userID, c.Type, c.Reason, c.Context, now)
		if err != nil {
			return raised, fmt.Errorf("flag engine: build flag: %w", err)
		}
		if err := e.flags.Create(ctx, f); err != nil {
			return raised, fmt.Errorf("flag engine: create flag: %w", err)
		}
		raised = append(raised, f)

		e.logger.Info("flag raised",
			"user_id", userID, "flag_id", f.ID, "flag_type", f.Type, "reason", f.Reason)

		if err := e.publisher.Publish(shared.NewFlagRaisedEvent(f.ID, userID, string(f.Type), f.Reason)); err != nil {
			e.logger.Warn("failed to publish flag raised event", "flag_id", f.ID, "error", err)
		}
	}

	return raised, nil
}
