package notification

import (
	"context"
)

// Repository persists notifications and maintains the unread count.
//
// The unread count is derived state: count of rows with is_read = false.
// Implementations may cache it, but a cached value must never exceed the real
// count - briefly stale-low is tolerable, stale-high misleads the user.
type Repository interface {
	// Create stores a new notification.
	Create(ctx context.Context, n *Notification) error

	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Notification, error)

	// UnreadCount returns the number of unread notifications for the user.
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead marks one notification read. Returns
	// shared.ErrNotificationNotFound if the id does not belong to the user.
	MarkRead(ctx context.Context, userID, id string) error

	// MarkAllRead marks every unread notification for the user as read and
	// returns how many were affected.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// Subscriber receives published notifications. Delivery is fire-and-forget
// from the publisher's perspective; a subscriber that disconnects simply
// releases its subscription handle.
type Subscriber interface {
	Deliver(n *Notification)
}
