package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the engagement pipeline.
const (
	// Engagement events
	EventActivityRecorded EventType = "engagement.activity_recorded"
	EventStreakBroken     EventType = "engagement.streak_broken"

	// Flag events
	EventFlagRaised   EventType = "flag.raised"
	EventFlagResolved EventType = "flag.resolved"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Content events
	EventContentSubmitted EventType = "content.submitted"
	EventContentApproved  EventType = "content.approved"

	// Notification events
	EventNotificationCreated EventType = "notification.created"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]any
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`

	// CorrelationID links events caused by the same external request.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WithCorrelationID returns a copy of the event carrying a correlation ID.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ActivityRecordedEvent is emitted after an activity increment lands on a
// user's daily snapshot. It is what triggers asynchronous flag and
// achievement evaluation.
type ActivityRecordedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
	Day    string `json:"day"`
}

// Payload implements Event interface.
func (e ActivityRecordedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id": e.UserID,
		"kind":    e.Kind,
		"day":     e.Day,
	}
}

// NewActivityRecordedEvent creates a new ActivityRecordedEvent.
func NewActivityRecordedEvent(userID, kind, day string) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		BaseEvent: NewBaseEvent(EventActivityRecorded, userID),
		UserID:    userID,
		Kind:      kind,
		Day:       day,
	}
}

// FlagRaisedEvent is emitted when the flag engine raises a new flag.
type FlagRaisedEvent struct {
	BaseEvent
	FlagID   string `json:"flag_id"`
	UserID   string `json:"user_id"`
	FlagType string `json:"flag_type"`
	Reason   string `json:"reason"`
}

// Payload implements Event interface.
func (e FlagRaisedEvent) Payload() map[string]any {
	return map[string]any{
		"flag_id":   e.FlagID,
		"user_id":   e.UserID,
		"flag_type": e.FlagType,
		"reason":    e.Reason,
	}
}

// NewFlagRaisedEvent creates a new FlagRaisedEvent.
func NewFlagRaisedEvent(flagID, userID, flagType, reason string) FlagRaisedEvent {
	return FlagRaisedEvent{
		BaseEvent: NewBaseEvent(EventFlagRaised, flagID),
		FlagID:    flagID,
		UserID:    userID,
		FlagType:  flagType,
		Reason:    reason,
	}
}

// FlagResolvedEvent is emitted when an admin resolves a flag.
type FlagResolvedEvent struct {
	BaseEvent
	FlagID     string `json:"flag_id"`
	UserID     string `json:"user_id"`
	ResolvedBy string `json:"resolved_by"`
}

// Payload implements Event interface.
func (e FlagResolvedEvent) Payload() map[string]any {
	return map[string]any{
		"flag_id":     e.FlagID,
		"user_id":     e.UserID,
		"resolved_by": e.ResolvedBy,
	}
}

// NewFlagResolvedEvent creates a new FlagResolvedEvent.
func NewFlagResolvedEvent(flagID, userID, resolvedBy string) FlagResolvedEvent {
	return FlagResolvedEvent{
		BaseEvent:  NewBaseEvent(EventFlagResolved, flagID),
		FlagID:     flagID,
		UserID:     userID,
		ResolvedBy: resolvedBy,
	}
}

// AchievementUnlockedEvent is emitted when a user earns an achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	Points        int    `json:"points"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"points":         e.Points,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID string, points int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:        userID,
		AchievementID: achievementID,
		Points:        points,
	}
}

// ContentSubmittedEvent is emitted when a generated candidate enters the
// review queue.
type ContentSubmittedEvent struct {
	BaseEvent
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
}

// Payload implements Event interface.
func (e ContentSubmittedEvent) Payload() map[string]any {
	return map[string]any{
		"content_id":   e.ContentID,
		"content_type": e.ContentType,
	}
}

// NewContentSubmittedEvent creates a new ContentSubmittedEvent.
func NewContentSubmittedEvent(contentID, contentType string) ContentSubmittedEvent {
	return ContentSubmittedEvent{
		BaseEvent:   NewBaseEvent(EventContentSubmitted, contentID),
		ContentID:   contentID,
		ContentType: contentType,
	}
}

// ContentApprovedEvent is emitted when generated content is approved and
// activated.
type ContentApprovedEvent struct {
	BaseEvent
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
	ApprovedBy  string `json:"approved_by"`
}

// Payload implements Event interface.
func (e ContentApprovedEvent) Payload() map[string]any {
	return map[string]any{
		"content_id":   e.ContentID,
		"content_type": e.ContentType,
		"approved_by":  e.ApprovedBy,
	}
}

// NewContentApprovedEvent creates a new ContentApprovedEvent.
func NewContentApprovedEvent(contentID, contentType, approvedBy string) ContentApprovedEvent {
	return ContentApprovedEvent{
		BaseEvent:   NewBaseEvent(EventContentApproved, contentID),
		ContentID:   contentID,
		ContentType: contentType,
		ApprovedBy:  approvedBy,
	}
}

// NotificationCreatedEvent is emitted when a notification is published to a
// user. Fan-out subscribers deliver it; duplicates are possible and consumers
// dedup by notification id.
type NotificationCreatedEvent struct {
	BaseEvent
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Kind           string `json:"kind"`
}

// Payload implements Event interface.
func (e NotificationCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"notification_id": e.NotificationID,
		"user_id":         e.UserID,
		"kind":            e.Kind,
	}
}

// NewNotificationCreatedEvent creates a new NotificationCreatedEvent.
func NewNotificationCreatedEvent(notificationID, userID, kind string) NotificationCreatedEvent {
	return NotificationCreatedEvent{
		BaseEvent:      NewBaseEvent(EventNotificationCreated, notificationID),
		NotificationID: notificationID,
		UserID:         userID,
		Kind:           kind,
	}
}
