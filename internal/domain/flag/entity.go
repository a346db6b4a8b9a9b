// Package flag contains the engagement flag domain: raised concerns and
// commendations about a user's engagement pattern, each with an independent
// resolve lifecycle. Flags are additive history - multiple flags per user may
// coexist and red/yellow/green carry no ordering relationship.
package flag

import (
	"errors"
	"time"
)

// Domain errors for flag package.
var (
	ErrInvalidUserID   = errors.New("flag: invalid user ID")
	ErrInvalidType     = errors.New("flag: invalid flag type")
	ErrEmptyReason     = errors.New("flag: reason is required")
	ErrAlreadyResolved = errors.New("flag: already resolved")
	ErrEmptyResolver   = errors.New("flag: resolved-by is required")
)

// Type classifies a flag: red for at-risk, yellow for early-warning, green
// for positive signal worth a commendation.
type Type string

const (
	TypeRed    Type = "red"
	TypeYellow Type = "yellow"
	TypeGreen  Type = "green"
)

// IsValid checks if the flag type is valid.
func (t Type) IsValid() bool {
	return t == TypeRed || t == TypeYellow || t == TypeGreen
}

// Flag is a single raised engagement flag. Once created it is immutable
// except for the resolution fields, which are set exactly once by an explicit
// admin action.
type Flag struct {
	ID     string
	UserID string
	Type   Type

	// Reason is free text describing why the rule fired.
	Reason string

	// Context holds structured key/value evidence captured at raise time.
	Context map[string]any

	Resolved      bool
	ResolvedBy    string
	ResolvedAt    *time.Time
	ResolvedNotes string

	CreatedAt time.Time
}

// New creates a new unresolved flag.
func New(id, userID string, flagType Type, reason string, context map[string]any, createdAt time.Time) (*Flag, error) {
	if id == "" {
		return nil, errors.New("flag: invalid flag ID")
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !flagType.IsValid() {
		return nil, ErrInvalidType
	}
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if context == nil {
		context = map[string]any{}
	}

	return &Flag{
		ID:        id,
		UserID:    userID,
		Type:      flagType,
		Reason:    reason,
		Context:   context,
		CreatedAt: createdAt,
	}, nil
}

// Resolve transitions the flag from unresolved to resolved. Resolving twice
// is a caller error, not an idempotent no-op.
func (f *Flag) Resolve(resolvedBy, notes string, at time.Time) error {
	if f.Resolved {
		return ErrAlreadyResolved
	}
	if resolvedBy == "" {
		return ErrEmptyResolver
	}

	f.Resolved = true
	f.ResolvedBy = resolvedBy
	f.ResolvedNotes = notes
	t := at
	f.ResolvedAt = &t
	return nil
}
