package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/achievement"
	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// AchievementEngine walks the catalog and awards everything the user's
// cumulative metrics satisfy. Idempotency lives in the storage layer's unique
// constraint, so concurrent evaluations of the same user are harmless.
type AchievementEngine struct {
	snapshots engagement.Repository
	awards    achievement.Repository
	publisher shared.EventPublisher
	clock     dayclock.Clock
	logger    *slog.Logger
}

// NewAchievementEngine creates a new AchievementEngine.
func NewAchievementEngine(
	snapshots engagement.Repository,
	awards achievement.Repository,
	publisher shared.EventPublisher,
	clock dayclock.Clock,
	logger *slog.Logger,
) *AchievementEngine {
	return &AchievementEngine{
		snapshots: snapshots,
		awards:    awards,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("engine", "achievements"),
	}
}

// Evaluate awards every catalog entry the user newly satisfies and returns
// the fresh awards. Already-earned entries are skipped via the storage
// constraint, not a pre-read, so two racing evaluations cannot double-award.
func (e *AchievementEngine) Evaluate(ctx context.Context, userID string) ([]*achievement.UserAchievement, error) {
	uid := engagement.UserID(userID)

	totals, err := e.snapshots.Totals(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("achievement engine: load totals: %w", err)
	}

	snapshots, err := e.snapshots.ListRecentByUser(ctx, uid, engagement.StreakLookback)
	if err != nil {
		return nil, fmt.Errorf("achievement engine: load snapshots: %w", err)
	}
	streaks := engagement.CalculateStreaks(snapshots, e.clock.Today())

	now := time.Now().UTC()
	var earned []*achievement.UserAchievement

	for _, entry := range achievement.Catalog() {
		if !entry.Criteria.SatisfiedBy(totals, streaks.Longest) {
			continue
		}

		ua, err := achievement.NewUserAchievement(userID, entry.ID, now)
		if err != nil {
			return earned, fmt.Errorf("achievement engine: build award: %w", err)
		}

		created, err := e.awards.Award(ctx, ua)
		if err != nil {
			return earned, fmt.Errorf("achievement engine: award %s: %w", entry.ID, err)
		}
		if !created {
			continue
		}
		earned = append(earned, ua)

		e.logger.Info("achievement unlocked",
			"user_id", userID, "achievement_id", entry.ID, "points", entry.Points)

		if err := e.publisher.Publish(shared.NewAchievementUnlockedEvent(userID, entry.ID, entry.Points)); err != nil {
			e.logger.Warn("failed to publish achievement event",
				"achievement_id", entry.ID, "error", err)
		}
	}

	return earned, nil
}
