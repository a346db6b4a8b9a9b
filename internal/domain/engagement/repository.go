package engagement

import (
	"context"
	"time"

	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// Repository persists daily activity snapshots.
//
// ApplyIncrement and RaiseModulesWatermark must be atomic per (user, day):
// concurrent recordings from multiple requests may target the same snapshot
// and no increment may be lost. Implementations achieve this with an
// increment-or-initialize upsert at the storage layer, not with application
// locking.
type Repository interface {
	// ApplyIncrement records a single counting event (login, post, response,
	// partner interaction) against the user's snapshot for the given day,
	// creating the snapshot row if absent.
	ApplyIncrement(ctx context.Context, userID UserID, day dayclock.Day, kind EventKind, occurredAt time.Time) error

	// RaiseModulesWatermark raises the modules-completed watermark on the
	// user's snapshot for the given day to max(current, completed).
	RaiseModulesWatermark(ctx context.Context, userID UserID, day dayclock.Day, completed int) error

	// GetByUserAndDay returns the snapshot for a specific day, or
	// shared.ErrSnapshotNotFound if the user has no snapshot for it.
	GetByUserAndDay(ctx context.Context, userID UserID, day dayclock.Day) (*Snapshot, error)

	// ListRecentByUser returns up to limit snapshots ordered by day
	// descending (most recent first).
	ListRecentByUser(ctx context.Context, userID UserID, limit int) ([]*Snapshot, error)

	// ListRange returns the user's snapshots with from <= day <= to, ordered
	// by day descending.
	ListRange(ctx context.Context, userID UserID, from, to dayclock.Day) ([]*Snapshot, error)

	// Totals returns the user's cumulative engagement numbers across all
	// snapshots. A user with no snapshots gets zero totals, not an error.
	Totals(ctx context.Context, userID UserID) (Totals, error)

	// CountActiveUsersSince counts distinct users with at least one
	// login-active snapshot on or after the given day.
	CountActiveUsersSince(ctx context.Context, since dayclock.Day) (int, error)

	// CountUsers counts distinct users that have ever recorded a snapshot.
	CountUsers(ctx context.Context) (int, error)

	// ListUserIDsSince returns the distinct users with any snapshot on or
	// after the given day. The daily evaluation sweep walks this set so
	// that users who went silent still get evaluated.
	ListUserIDsSince(ctx context.Context, since dayclock.Day) ([]UserID, error)
}
