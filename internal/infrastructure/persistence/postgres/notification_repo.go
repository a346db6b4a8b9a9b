package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// Plain storage. The cached unread count lives in the redis decorator, which
// wraps this type; everything here reads and writes the source of truth.
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Create stores a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, kind, title, body, metadata, is_read, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	metaJSON, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("notification repo: marshal metadata: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		n.ID,
		n.UserID,
		string(n.Kind),
		n.Title,
		n.Body,
		metaJSON,
		n.IsRead,
		n.ReadAt,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("notification repo: create: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT id, user_id, kind, title, body, metadata, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notification repo: list by user: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := r.scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notification repo: scan: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// UnreadCount returns the number of unread notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`

	var count int
	if err := r.conn.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("notification repo: unread count: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read. The user_id predicate stops users
// from acking each other's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT is_read
	`

	tag, err := r.conn.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("notification repo: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish "already read" (fine) from "not yours / missing".
		var exists bool
		err := r.conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`,
			id, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("notification repo: mark read check: %w", err)
		}
		if !exists {
			return shared.ErrNotificationNotFound
		}
	}
	return nil
}

// MarkAllRead marks every unread notification read and returns the count.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND NOT is_read
	`

	tag, err := r.conn.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repo: mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *NotificationRepository) scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n        notification.Notification
		kind     string
		metaJSON []byte
	)

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&kind,
		&n.Title,
		&n.Body,
		&metaJSON,
		&n.IsRead,
		&n.ReadAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Kind = notification.Kind(kind)
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &n, nil
}
