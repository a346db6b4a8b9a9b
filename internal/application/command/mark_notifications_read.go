package command

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK NOTIFICATIONS READ COMMANDS
// Read-state updates for the user's notification inbox. Both paths invalidate
// the cached unread count so it can never be stale-high.
// ══════════════════════════════════════════════════════════════════════════════

// MarkNotificationReadCommand marks one notification read.
type MarkNotificationReadCommand struct {
	UserID         string
	NotificationID string
}

// Validate validates the command.
func (c MarkNotificationReadCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("notification", "mark_read", shared.ErrValidation, "user_id is required")
	}
	if c.NotificationID == "" {
		return shared.NewDomainError("notification", "mark_read", shared.ErrValidation, "notification_id is required")
	}
	return nil
}

// MarkNotificationReadHandler handles MarkNotificationReadCommand.
type MarkNotificationReadHandler struct {
	notifications notification.Repository
}

// NewMarkNotificationReadHandler creates a new MarkNotificationReadHandler.
func NewMarkNotificationReadHandler(notifications notification.Repository) *MarkNotificationReadHandler {
	return &MarkNotificationReadHandler{notifications: notifications}
}

// Handle executes the command. Marking an already-read notification is a
// no-op; a notification id that does not belong to the user is not found.
func (h *MarkNotificationReadHandler) Handle(ctx context.Context, cmd MarkNotificationReadCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := h.notifications.MarkRead(ctx, cmd.UserID, cmd.NotificationID); err != nil {
		return fmt.Errorf("mark_notification_read: %w", err)
	}
	return nil
}

// MarkAllNotificationsReadCommand marks the user's whole inbox read.
type MarkAllNotificationsReadCommand struct {
	UserID string
}

// Validate validates the command.
func (c MarkAllNotificationsReadCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("notification", "mark_all_read", shared.ErrValidation, "user_id is required")
	}
	return nil
}

// MarkAllNotificationsReadResult reports how many notifications were affected.
type MarkAllNotificationsReadResult struct {
	MarkedCount int
}

// MarkAllNotificationsReadHandler handles MarkAllNotificationsReadCommand.
type MarkAllNotificationsReadHandler struct {
	notifications notification.Repository
}

// NewMarkAllNotificationsReadHandler creates a new handler.
func NewMarkAllNotificationsReadHandler(notifications notification.Repository) *MarkAllNotificationsReadHandler {
	return &MarkAllNotificationsReadHandler{notifications: notifications}
}

// Handle executes the command.
func (h *MarkAllNotificationsReadHandler) Handle(ctx context.Context, cmd MarkAllNotificationsReadCommand) (*MarkAllNotificationsReadResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	count, err := h.notifications.MarkAllRead(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("mark_all_notifications_read: %w", err)
	}
	return &MarkAllNotificationsReadResult{MarkedCount: count}, nil
}
