package query

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STREAKS QUERY
// Current and longest login streaks, recomputed from snapshots on demand.
// Streaks are derived state: there is no stored streak counter to drift.
// ══════════════════════════════════════════════════════════════════════════════

// GetStreaksQuery contains parameters for the streak query.
type GetStreaksQuery struct {
	UserID string
}

// Validate validates the query.
func (q GetStreaksQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("engagement", "get_streaks", shared.ErrValidation, "user_id is required")
	}
	return nil
}

// GetStreaksResult contains the computed streaks.
type GetStreaksResult struct {
	UserID  string
	Streaks engagement.Streaks

	// AsOfDay is the day the current streak was anchored to.
	AsOfDay dayclock.Day
}

// GetStreaksHandler handles the GetStreaksQuery.
type GetStreaksHandler struct {
	snapshots engagement.Repository
	clock     dayclock.Clock
}

// NewGetStreaksHandler creates a new GetStreaksHandler.
func NewGetStreaksHandler(snapshots engagement.Repository, clock dayclock.Clock) *GetStreaksHandler {
	return &GetStreaksHandler{snapshots: snapshots, clock: clock}
}

// Handle computes the user's streaks from their recent snapshots. A user with
// no snapshots gets zero streaks, not an error.
func (h *GetStreaksHandler) Handle(ctx context.Context, q GetStreaksQuery) (*GetStreaksResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	snapshots, err := h.snapshots.ListRecentByUser(ctx, engagement.UserID(q.UserID), engagement.StreakLookback)
	if err != nil {
		return nil, fmt.Errorf("get_streaks: %w", err)
	}

	today := h.clock.Today()
	return &GetStreaksResult{
		UserID:  q.UserID,
		Streaks: engagement.CalculateStreaks(snapshots, today),
		AsOfDay: today,
	}, nil
}
