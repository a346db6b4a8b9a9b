package query

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION QUERIES
// Inbox listing and unread count. Fan-out is at-least-once, so the listing
// dedups by notification id before returning.
// ══════════════════════════════════════════════════════════════════════════════

// ListNotificationsQuery contains parameters for the inbox listing.
type ListNotificationsQuery struct {
	UserID string

	// Limit bounds the page (default 50).
	Limit int
}

// Validate validates the query.
func (q ListNotificationsQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("notification", "list", shared.ErrValidation, "user_id is required")
	}
	return nil
}

// ListNotificationsResult contains the inbox page and unread count.
type ListNotificationsResult struct {
	Notifications []*notification.Notification
	UnreadCount   int
}

// ListNotificationsHandler handles the ListNotificationsQuery.
type ListNotificationsHandler struct {
	notifications notification.Repository
}

// NewListNotificationsHandler creates a new ListNotificationsHandler.
func NewListNotificationsHandler(notifications notification.Repository) *ListNotificationsHandler {
	return &ListNotificationsHandler{notifications: notifications}
}

// Handle returns the user's notifications, newest first, deduplicated by id.
func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) (*ListNotificationsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	list, err := h.notifications.ListByUser(ctx, q.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list_notifications: %w", err)
	}

	unread, err := h.notifications.UnreadCount(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("list_notifications: unread count: %w", err)
	}

	return &ListNotificationsResult{
		Notifications: notification.DedupByID(list),
		UnreadCount:   unread,
	}, nil
}

// UnreadCountQuery contains parameters for the badge count.
type UnreadCountQuery struct {
	UserID string
}

// UnreadCountHandler handles the UnreadCountQuery.
type UnreadCountHandler struct {
	notifications notification.Repository
}

// NewUnreadCountHandler creates a new UnreadCountHandler.
func NewUnreadCountHandler(notifications notification.Repository) *UnreadCountHandler {
	return &UnreadCountHandler{notifications: notifications}
}

// Handle returns the user's unread notification count.
func (h *UnreadCountHandler) Handle(ctx context.Context, q UnreadCountQuery) (int, error) {
	if q.UserID == "" {
		return 0, shared.NewDomainError("notification", "unread_count", shared.ErrValidation, "user_id is required")
	}
	count, err := h.notifications.UnreadCount(ctx, q.UserID)
	if err != nil {
		return 0, fmt.Errorf("unread_count: %w", err)
	}
	return count, nil
}
