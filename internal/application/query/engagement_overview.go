package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGAGEMENT OVERVIEW QUERY
// Cohort-level numbers for the admin dashboard and the weekly health report:
// active users, unresolved flags by type, and participation over a window.
// ══════════════════════════════════════════════════════════════════════════════

// EngagementOverviewQuery contains parameters for the overview.
type EngagementOverviewQuery struct {
	// WindowDays bounds the activity window (default 7).
	WindowDays int
}

// EngagementOverview is the cohort-level engagement summary.
type EngagementOverview struct {
	// WindowDays is the window the numbers cover.
	WindowDays int

	// From is the first day of the window.
	From dayclock.Day

	// To is the last day of the window (today).
	To dayclock.Day

	// ActiveUsers is the count of users with login activity in the window.
	ActiveUsers int

	// TotalUsers is the count of users ever seen by the pipeline.
	TotalUsers int

	// UnresolvedFlags counts open flags by type.
	UnresolvedFlags map[flag.Type]int
}

// ActiveRatio returns active users as a fraction of total, 0 when empty.
func (o *EngagementOverview) ActiveRatio() float64 {
	if o.TotalUsers == 0 {
		return 0
	}
	return float64(o.ActiveUsers) / float64(o.TotalUsers)
}

// EngagementOverviewHandler assembles the overview.
type EngagementOverviewHandler struct {
	snapshots SnapshotCounter
	flags     flag.Repository
	clock     dayclock.Clock
	logger    *slog.Logger
}

// SnapshotCounter is the subset of the snapshot repository the overview needs.
type SnapshotCounter interface {
	CountActiveUsersSince(ctx context.Context, since dayclock.Day) (int, error)
	CountUsers(ctx context.Context) (int, error)
}

// NewEngagementOverviewHandler creates a new EngagementOverviewHandler.
func NewEngagementOverviewHandler(
	snapshots SnapshotCounter,
	flags flag.Repository,
	clock dayclock.Clock,
	logger *slog.Logger,
) *EngagementOverviewHandler {
	return &EngagementOverviewHandler{
		snapshots: snapshots,
		flags:     flags,
		clock:     clock,
		logger:    logger.With("handler", "engagement_overview"),
	}
}

// Handle assembles the overview.
func (h *EngagementOverviewHandler) Handle(ctx context.Context, q EngagementOverviewQuery) (*EngagementOverview, error) {
	windowDays := q.WindowDays
	if windowDays <= 0 {
		windowDays = 7
	}

	today := h.clock.Today()
	from := today.AddDays(-windowDays + 1)

	active, err := h.snapshots.CountActiveUsersSince(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("engagement_overview: count active users: %w", err)
	}

	total, err := h.snapshots.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("engagement_overview: count users: %w", err)
	}

	unresolved, err := h.flags.CountUnresolvedByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("engagement_overview: count unresolved flags: %w", err)
	}

	return &EngagementOverview{
		WindowDays:      windowDays,
		From:            from,
		To:              today,
		ActiveUsers:     active,
		TotalUsers:      total,
		UnresolvedFlags: unresolved,
	}, nil
}
