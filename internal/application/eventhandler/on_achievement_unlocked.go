package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/compass-cohort/compass-engagement/internal/domain/achievement"
	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// OnAchievementUnlocked congratulates the user when they earn an achievement.
type OnAchievementUnlocked struct {
	notifications notification.Repository
	fanout        Fanout
	publisher     shared.EventPublisher
	logger        *slog.Logger
}

// NewOnAchievementUnlocked creates the handler. fanout may be nil.
func NewOnAchievementUnlocked(
	notifications notification.Repository,
	fanout Fanout,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *OnAchievementUnlocked {
	return &OnAchievementUnlocked{
		notifications: notifications,
		fanout:        fanout,
		publisher:     publisher,
		logger:        logger.With("handler", "on_achievement_unlocked"),
	}
}

// Handle processes an AchievementUnlockedEvent.
func (h *OnAchievementUnlocked) Handle(event shared.Event) error {
	e, ok := event.(shared.AchievementUnlockedEvent)
	if !ok {
		return fmt.Errorf("on_achievement_unlocked: unexpected event type %T", event)
	}

	ctx := context.Background()

	title := "Achievement unlocked!"
	body := fmt.Sprintf("You earned an achievement worth %d points.", e.Points)
	if entry, err := achievement.FromCatalog(e.AchievementID); err == nil {
		title = fmt.Sprintf("Achievement unlocked: %s", entry.Name)
		body = entry.Description
	}

	n, err := notification.New(
		uuid.NewString(),
		e.UserID,
		notification.KindAchievement,
		title,
		body,
		map[string]any{
			"achievement_id": e.AchievementID,
			"points":         e.Points,
		},
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("on_achievement_unlocked: build notification: %w", err)
	}

	if err := h.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("on_achievement_unlocked: store notification: %w", err)
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
