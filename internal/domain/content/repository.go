package content

import (
	"context"
)

// Repository persists generated content.
type Repository interface {
	// Create stores a new pending candidate.
	Create(ctx context.Context, g *Generated) error

	// GetByID returns a candidate, or shared.ErrContentNotFound.
	GetByID(ctx context.Context, id string) (*Generated, error)

	// GetActive returns the currently active row of the given type, or
	// shared.ErrContentNotFound when none has been approved yet.
	GetActive(ctx context.Context, contentType Type) (*Generated, error)

	// ApproveAndActivate atomically (a) deactivates the currently active row
	// of the target's content type and (b) marks the target approved and
	// active. Concurrent approvals resolve last-writer-wins: the loser stays
	// approved but inactive, and at no point are zero or two rows active
	// once a type has its first approval.
	ApproveAndActivate(ctx context.Context, id, approvedBy string) error

	// Reject marks a pending candidate rejected.
	Reject(ctx context.Context, id string) error

	// ListPending returns pending candidates, oldest first, for the review
	// queue.
	ListPending(ctx context.Context, limit int) ([]*Generated, error)
}
