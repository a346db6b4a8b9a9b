package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM REPOSITORY IMPLEMENTATION
// Read-only access to the curriculum-owned tables for context assembly.
// ══════════════════════════════════════════════════════════════════════════════

// ProgramRepository implements program.Repository for PostgreSQL.
type ProgramRepository struct {
	conn *Connection
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(conn *Connection) *ProgramRepository {
	return &ProgramRepository{conn: conn}
}

// GetSetting returns a program setting value.
func (r *ProgramRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.conn.QueryRow(ctx, `SELECT value FROM program_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if IsNoRows(err) {
			return "", shared.NewDomainError("program", "GetSetting", shared.ErrNotFound,
				fmt.Sprintf("setting %q not found", key))
		}
		return "", fmt.Errorf("program repo: get setting: %w", err)
	}
	return value, nil
}

// RecentDiscussions returns discussions created at or after since, newest
// first.
func (r *ProgramRepository) RecentDiscussions(ctx context.Context, since time.Time, limit int) ([]content.DiscussionSummary, error) {
	query := `
		SELECT id, title, author, response_count, created_at
		FROM discussions
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("program repo: recent discussions: %w", err)
	}
	defer rows.Close()

	var discussions []content.DiscussionSummary
	for rows.Next() {
		var d content.DiscussionSummary
		if err := rows.Scan(&d.ID, &d.Title, &d.Author, &d.ResponseCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("program repo: scan discussion: %w", err)
		}
		discussions = append(discussions, d)
	}
	return discussions, rows.Err()
}

// UpcomingEvents returns the next limit events starting at or after now.
func (r *ProgramRepository) UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]content.EventSummary, error) {
	query := `
		SELECT id, title, location, starts_at
		FROM community_events
		WHERE starts_at >= $1
		ORDER BY starts_at ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("program repo: upcoming events: %w", err)
	}
	defer rows.Close()

	var events []content.EventSummary
	for rows.Next() {
		var e content.EventSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.Location, &e.StartsAt); err != nil {
			return nil, fmt.Errorf("program repo: scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
