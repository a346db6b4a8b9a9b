// Package engagement contains domain entities and business logic for the
// per-day activity snapshots that feed streaks, flags, and achievements.
// This is a pure domain layer with zero external dependencies.
package engagement

import (
	"errors"
	"fmt"
	"time"

	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// Domain errors for engagement package.
var (
	ErrInvalidUserID   = errors.New("engagement: invalid user ID")
	ErrInvalidDay      = errors.New("engagement: invalid day")
	ErrNegativeCounter = errors.New("engagement: counter cannot be negative")
	ErrUnknownKind     = errors.New("engagement: unknown event kind")
)

// UserID represents a unique identifier for a platform user.
type UserID string

// IsValid checks if the user ID is valid.
func (u UserID) IsValid() bool {
	return u != ""
}

// String returns the string representation of UserID.
func (u UserID) String() string {
	return string(u)
}

// EventKind is the kind of raw user action the recorder accepts.
type EventKind string

const (
	KindLogin              EventKind = "login"
	KindLessonCompleted    EventKind = "lesson_completed"
	KindDiscussionPost     EventKind = "discussion_post"
	KindResponse           EventKind = "response"
	KindPartnerInteraction EventKind = "partner_interaction"
)

// IsValid checks if the event kind is one of the recordable kinds.
func (k EventKind) IsValid() bool {
	switch k {
	case KindLogin, KindLessonCompleted, KindDiscussionPost, KindResponse, KindPartnerInteraction:
		return true
	}
	return false
}

// Snapshot is one day's engagement counters for one user. There is at most
// one snapshot per (user, day); counters only ever move up, and
// ModulesCompleted is a monotonic high-water mark rather than a per-day
// delta.
type Snapshot struct {
	UserID UserID
	Day    dayclock.Day

	Logins    int
	Posts     int
	Responses int

	// ModulesCompleted is the cumulative modules-completed watermark as of
	// this day. It never decreases across a user's snapshots.
	ModulesCompleted int

	// LastPartnerInteraction is the most recent partner interaction seen on
	// this day, nil if none.
	LastPartnerInteraction *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSnapshot creates an empty snapshot for the given user and day.
func NewSnapshot(userID UserID, day dayclock.Day) (*Snapshot, error) {
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}
	if day.IsZero() {
		return nil, ErrInvalidDay
	}

	now := time.Now().UTC()
	return &Snapshot{
		UserID:    userID,
		Day:       day,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the snapshot invariants.
func (s *Snapshot) Validate() error {
	if !s.UserID.IsValid() {
		return ErrInvalidUserID
	}
	if s.Day.IsZero() {
		return ErrInvalidDay
	}
	if s.Logins < 0 || s.Posts < 0 || s.Responses < 0 || s.ModulesCompleted < 0 {
		return ErrNegativeCounter
	}
	return nil
}

// Apply applies a single event to the snapshot's counters. For
// lesson_completed the modules value is a watermark: the snapshot keeps
// max(current, modules) so out-of-order completions never lower it.
func (s *Snapshot) Apply(kind EventKind, occurredAt time.Time, modules int) error {
	switch kind {
	case KindLogin:
		s.Logins++
	case KindDiscussionPost:
		s.Posts++
	case KindResponse:
		s.Responses++
	case KindPartnerInteraction:
		if s.LastPartnerInteraction == nil || occurredAt.After(*s.LastPartnerInteraction) {
			t := occurredAt
			s.LastPartnerInteraction = &t
		}
	case KindLessonCompleted:
		if modules < 0 {
			return ErrNegativeCounter
		}
		if modules > s.ModulesCompleted {
			s.ModulesCompleted = modules
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	s.UpdatedAt = occurredAt
	return nil
}

// IsActive reports whether the user logged in on this day. Streaks and the
// active-user window both count a day only if it had login activity.
func (s *Snapshot) IsActive() bool {
	return s.Logins > 0
}

// ContributionCount returns posts plus responses, the "participation" signal
// used by the lurking and decline rules.
func (s *Snapshot) ContributionCount() int {
	return s.Posts + s.Responses
}

// Totals are a user's cumulative engagement numbers, summed (or maxed, for
// the watermark) over all of their snapshots. Achievements are evaluated
// against these.
type Totals struct {
	UserID              UserID
	TotalLogins         int
	TotalPosts          int
	TotalResponses      int
	ModulesCompleted    int // max watermark across snapshots
	ActiveDays          int // days with at least one login
	PartnerInteractions int // days with a partner interaction recorded
}
