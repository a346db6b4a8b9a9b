// Package program is the read-only view of the curriculum side of the
// platform that the context assembler needs: program settings, recent
// discussions, and upcoming events. The CRUD screens that write these tables
// live outside the engagement pipeline.
package program

import (
	"context"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
)

// Setting keys the assembler looks up.
const (
	SettingCurrentWeek   = "current_week"
	SettingCurrentModule = "current_module"
)

// Repository reads program state for context assembly. All methods are
// side-effect free.
type Repository interface {
	// GetSetting returns a program setting value, or shared.ErrNotFound when
	// the key has never been set. Callers fall back to documented defaults.
	GetSetting(ctx context.Context, key string) (string, error)

	// RecentDiscussions returns discussions created at or after since,
	// newest first, with per-thread response counts, bounded to limit.
	RecentDiscussions(ctx context.Context, since time.Time, limit int) ([]content.DiscussionSummary, error)

	// UpcomingEvents returns the next limit events starting at or after now.
	UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]content.EventSummary, error)
}
