package query

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/achievement"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// The user's earned achievements joined with catalog metadata, plus their
// point total.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery contains parameters for the achievements query.
type GetAchievementsQuery struct {
	UserID string
}

// EarnedAchievement is an earned award joined with its catalog entry.
type EarnedAchievement struct {
	Achievement achievement.Achievement
	EarnedAt    string
}

// GetAchievementsResult contains the earned list and point total.
type GetAchievementsResult struct {
	UserID      string
	Earned      []EarnedAchievement
	TotalPoints int
}

// GetAchievementsHandler handles the GetAchievementsQuery.
type GetAchievementsHandler struct {
	awards achievement.Repository
}

// NewGetAchievementsHandler creates a new GetAchievementsHandler.
func NewGetAchievementsHandler(awards achievement.Repository) *GetAchievementsHandler {
	return &GetAchievementsHandler{awards: awards}
}

// Handle returns the user's earned achievements, oldest first. Awards whose
// catalog entry has since been renamed keep their stored id; entries are
// never removed from the catalog.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) (*GetAchievementsResult, error) {
	if q.UserID == "" {
		return nil, shared.NewDomainError("achievement", "list", shared.ErrValidation, "user_id is required")
	}

	earned, err := h.awards.ListEarned(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_achievements: %w", err)
	}

	result := &GetAchievementsResult{UserID: q.UserID}
	ids := make([]string, 0, len(earned))
	for _, ua := range earned {
		ids = append(ids, ua.AchievementID)
		entry, err := achievement.FromCatalog(ua.AchievementID)
		if err != nil {
			// Stored award without a catalog entry should be impossible.
			continue
		}
		result.Earned = append(result.Earned, EarnedAchievement{
			Achievement: entry,
			EarnedAt:    ua.EarnedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	result.TotalPoints = achievement.TotalPoints(achievement.Catalog(), ids)

	return result, nil
}
