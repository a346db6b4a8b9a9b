package postgres

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/achievement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements achievement.Repository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// Award inserts the join record if absent. Idempotency comes from
// ON CONFLICT DO NOTHING against the (user_id, achievement_id) primary key;
// there is deliberately no pre-read, so concurrent evaluations race safely.
func (r *AchievementRepository) Award(ctx context.Context, ua *achievement.UserAchievement) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query, ua.UserID, ua.AchievementID, ua.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("achievement repo: award: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListEarned returns the user's earned achievements, oldest first.
func (r *AchievementRepository) ListEarned(ctx context.Context, userID string) ([]*achievement.UserAchievement, error) {
	query := `
		SELECT user_id, achievement_id, earned_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY earned_at ASC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("achievement repo: list earned: %w", err)
	}
	defer rows.Close()

	var earned []*achievement.UserAchievement
	for rows.Next() {
		var ua achievement.UserAchievement
		if err := rows.Scan(&ua.UserID, &ua.AchievementID, &ua.EarnedAt); err != nil {
			return nil, fmt.Errorf("achievement repo: scan: %w", err)
		}
		earned = append(earned, &ua)
	}
	return earned, rows.Err()
}

// EarnedIDs returns just the achievement IDs the user has earned.
func (r *AchievementRepository) EarnedIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT achievement_id
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY earned_at ASC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("achievement repo: earned ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("achievement repo: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
