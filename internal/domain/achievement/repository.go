package achievement

import (
	"context"
)

// Repository persists earned achievements.
//
// Award must rely on the storage layer's uniqueness constraint on
// (user_id, achievement_id) rather than a check-then-insert pattern, so that
// concurrent evaluations for the same user cannot double-award.
type Repository interface {
	// Award inserts the join record if it does not exist yet. It returns
	// true when this call created the record and false when the pair was
	// already awarded.
	Award(ctx context.Context, ua *UserAchievement) (bool, error)

	// ListEarned returns the user's earned achievements, oldest first.
	ListEarned(ctx context.Context, userID string) ([]*UserAchievement, error)

	// EarnedIDs returns just the achievement IDs the user has earned.
	EarnedIDs(ctx context.Context, userID string) ([]string, error)
}
