// Package notification contains the notification entity and the unread-count
// bookkeeping rules. Delivery is at-least-once: consumers must tolerate
// duplicate delivery of the same notification id and dedup on read.
package notification

import (
	"errors"
	"time"
)

// Domain errors for notification package.
var (
	ErrInvalidUserID = errors.New("notification: invalid user ID")
	ErrEmptyTitle    = errors.New("notification: title is required")
	ErrInvalidKind   = errors.New("notification: invalid kind")
)

// Kind classifies a notification.
type Kind string

const (
	KindFlagRaised     Kind = "flag_raised"
	KindAchievement    Kind = "achievement_unlocked"
	KindPartnerMessage Kind = "partner_message"
)

// IsValid checks if the kind is valid.
func (k Kind) IsValid() bool {
	switch k {
	case KindFlagRaised, KindAchievement, KindPartnerMessage:
		return true
	}
	return false
}

// Notification is one message delivered to a user's inbox.
type Notification struct {
	ID     string
	UserID string
	Kind   Kind
	Title  string
	Body   string

	// Metadata carries structured data for the client (flag id, achievement
	// id, sender, ...).
	Metadata map[string]any

	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}

// New creates a new unread notification.
func New(id, userID string, kind Kind, title, body string, metadata map[string]any, createdAt time.Time) (*Notification, error) {
	if id == "" {
		return nil, errors.New("notification: invalid notification ID")
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Notification{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}, nil
}

// MarkRead marks the notification as read. Marking twice is a no-op.
func (n *Notification) MarkRead(at time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	t := at
	n.ReadAt = &t
}

// DedupByID removes duplicate deliveries of the same notification id,
// keeping first occurrence order. At-least-once delivery makes duplicates
// legal on the wire; they must never be legal on screen.
func DedupByID(notifications []*Notification) []*Notification {
	// Fresh slice: filtering in place would shuffle the caller's backing
	// array.
	seen := make(map[string]struct{}, len(notifications))
	out := make([]*Notification, 0, len(notifications))
	for _, n := range notifications {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}
