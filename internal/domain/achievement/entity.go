// Package achievement contains the achievement catalog and the earned-award
// join records. Awards are idempotent and never revoked; a user's point total
// is the sum of the points of everything they have earned.
package achievement

import (
	"errors"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
)

// Domain errors for achievement package.
var (
	ErrInvalidID     = errors.New("achievement: invalid achievement ID")
	ErrInvalidUserID = errors.New("achievement: invalid user ID")
	ErrNotInCatalog  = errors.New("achievement: not in catalog")
)

// Category groups achievements in the catalog.
type Category string

const (
	CategoryConsistency   Category = "consistency"
	CategoryParticipation Category = "participation"
	CategoryProgress      Category = "progress"
	CategoryCommunity     Category = "community"
)

// Criteria are the cumulative thresholds an achievement requires. Zero-valued
// fields are ignored; all non-zero fields must be satisfied.
type Criteria struct {
	MinTotalLogins      int
	MinTotalPosts       int
	MinTotalResponses   int
	MinModulesCompleted int
	MinLongestStreak    int
	MinActiveDays       int
}

// SatisfiedBy reports whether the user's cumulative metrics meet the criteria.
func (c Criteria) SatisfiedBy(totals engagement.Totals, longestStreak int) bool {
	if c.MinTotalLogins > 0 && totals.TotalLogins < c.MinTotalLogins {
		return false
	}
	if c.MinTotalPosts > 0 && totals.TotalPosts < c.MinTotalPosts {
		return false
	}
	if c.MinTotalResponses > 0 && totals.TotalResponses < c.MinTotalResponses {
		return false
	}
	if c.MinModulesCompleted > 0 && totals.ModulesCompleted < c.MinModulesCompleted {
		return false
	}
	if c.MinLongestStreak > 0 && longestStreak < c.MinLongestStreak {
		return false
	}
	if c.MinActiveDays > 0 && totals.ActiveDays < c.MinActiveDays {
		return false
	}
	return true
}

// Achievement is a static catalog entry.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Points      int
	Icon        string
	Criteria    Criteria
}

// UserAchievement is the join record created at most once per
// (user, achievement) pair.
type UserAchievement struct {
	UserID        string
	AchievementID string
	EarnedAt      time.Time
}

// NewUserAchievement creates a new award record.
func NewUserAchievement(userID, achievementID string, earnedAt time.Time) (*UserAchievement, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if achievementID == "" {
		return nil, ErrInvalidID
	}
	return &UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      earnedAt,
	}, nil
}

// TotalPoints sums catalog points over a set of earned achievement IDs.
// Unknown IDs contribute nothing.
func TotalPoints(catalog []Achievement, earnedIDs []string) int {
	points := make(map[string]int, len(catalog))
	for _, a := range catalog {
		points[a.ID] = a.Points
	}
	total := 0
	for _, id := range earnedIDs {
		total += points[id]
	}
	return total
}
