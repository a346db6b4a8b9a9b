// Package content contains generated-content approval and the community
// context snapshot that feeds content generation. The core invariant: at most
// one row of a given content type is active at any moment, and activating a
// new row atomically deactivates the previous one.
package content

import (
	"encoding/json"
	"errors"
	"time"
)

// Domain errors for content package.
var (
	ErrInvalidType     = errors.New("content: invalid content type")
	ErrEmptyPayload    = errors.New("content: payload is required")
	ErrNotPending      = errors.New("content: not pending review")
	ErrEmptyApprover   = errors.New("content: approver is required")
	ErrAlreadyApproved = errors.New("content: already approved")
)

// Type enumerates the generated content kinds.
type Type string

const (
	TypeHeroMessage     Type = "hero_message"
	TypeCohortActivity  Type = "cohort_activity"
	TypePracticeActions Type = "practice_actions"
	TypeFullDashboard   Type = "full_dashboard"
)

// IsValid checks if the content type is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypeHeroMessage, TypeCohortActivity, TypePracticeActions, TypeFullDashboard:
		return true
	}
	return false
}

// Status tracks the approval state machine:
// generated -> pending review -> approved | rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Generated is one generated content candidate. A freshly submitted row is
// pending; approval marks it approved and active, atomically deactivating the
// previously active row of the same type. A losing concurrent approval stays
// approved but inactive.
type Generated struct {
	ID   string
	Type Type

	// Payload is the formatted content returned by the generator.
	Payload json.RawMessage

	// Context is the community context the generator was given, kept for
	// audit and regeneration.
	Context CommunityContext

	Status     Status
	Approved   bool
	ApprovedBy string
	ApprovedAt *time.Time
	Active     bool

	GeneratedAt time.Time
}

// NewGenerated creates a pending content candidate.
func NewGenerated(id string, contentType Type, payload json.RawMessage, genCtx CommunityContext, generatedAt time.Time) (*Generated, error) {
	if id == "" {
		return nil, errors.New("content: invalid content ID")
	}
	if !contentType.IsValid() {
		return nil, ErrInvalidType
	}
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	return &Generated{
		ID:          id,
		Type:        contentType,
		Payload:     payload,
		Context:     genCtx,
		Status:      StatusPending,
		GeneratedAt: generatedAt,
	}, nil
}

// Approve marks the candidate approved and active. The repository is
// responsible for deactivating the previously active row in the same atomic
// unit.
func (g *Generated) Approve(approvedBy string, at time.Time) error {
	if g.Approved {
		return ErrAlreadyApproved
	}
	if g.Status != StatusPending {
		return ErrNotPending
	}
	if approvedBy == "" {
		return ErrEmptyApprover
	}

	g.Status = StatusApproved
	g.Approved = true
	g.ApprovedBy = approvedBy
	t := at
	g.ApprovedAt = &t
	g.Active = true
	return nil
}

// Reject marks a pending candidate rejected. Rejected content is never
// activated.
func (g *Generated) Reject() error {
	if g.Status != StatusPending {
		return ErrNotPending
	}
	g.Status = StatusRejected
	return nil
}
