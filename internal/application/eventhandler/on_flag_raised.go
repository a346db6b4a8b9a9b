// Package eventhandler contains subscribers wired to the in-process event
// bus. They run asynchronously after commands commit; every handler tolerates
// redelivery because the bus offers at-least-once semantics.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// Fanout pushes a stored notification to connected delivery channels
// (websockets, pollers). Best effort: the inbox row is the source of truth.
type Fanout interface {
	Broadcast(ctx context.Context, n *notification.Notification) error
}

// OnFlagRaised creates an admin-facing notification when the flag engine
// raises a flag.
type OnFlagRaised struct {
	notifications notification.Repository
	fanout        Fanout
	publisher     shared.EventPublisher
	logger        *slog.Logger
}

// NewOnFlagRaised creates the handler. fanout may be nil.
func NewOnFlagRaised(
	notifications notification.Repository,
	fanout Fanout,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *OnFlagRaised {
	return &OnFlagRaised{
		notifications: notifications,
		fanout:        fanout,
		publisher:     publisher,
		logger:        logger.With("handler", "on_flag_raised"),
	}
}

// Handle processes a FlagRaisedEvent.
func (h *OnFlagRaised) Handle(event shared.Event) error {
	e, ok := event.(shared.FlagRaisedEvent)
	if !ok {
		return fmt.Errorf("on_flag_raised: unexpected event type %T", event)
	}

	ctx := context.Background()

	title := fmt.Sprintf("Engagement flag: %s", e.FlagType)
	n, err := notification.New(
		uuid.NewString(),
		e.UserID,
		notification.KindFlagRaised,
		title,
		e.Reason,
		map[string]any{
			"flag_id":   e.FlagID,
			"flag_type": e.FlagType,
		},
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("on_flag_raised: build notification: %w", err)
	}

	if err := h.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("on_flag_raised: store notification: %w", err)
	}

	if err := h.publisher.Publish(shared.NewNotificationCreatedEvent(n.ID, n.UserID, string(n.Kind))); err != nil {
		h.logger.Warn("failed to publish notification created event", "notification_id", n.ID, "error", err)
	}

	if h.fanout != nil {
		if err := h.fanout.Broadcast(ctx, n); err != nil {
			h.logger.Warn("notification fan-out failed", "notification_id", n.ID, "error", err)
		}
	}

	return nil
}
