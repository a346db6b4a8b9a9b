package query

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST FLAGS QUERY
// A user's flag history for the admin view, resolved and unresolved alike.
// ══════════════════════════════════════════════════════════════════════════════

// ListFlagsQuery contains parameters for the flag listing.
type ListFlagsQuery struct {
	UserID string

	// Limit bounds the page (default 50).
	Limit int
}

// Validate validates the query.
func (q ListFlagsQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("flag", "list", shared.ErrValidation, "user_id is required")
	}
	return nil
}

// ListFlagsHandler handles the ListFlagsQuery.
type ListFlagsHandler struct {
	flags flag.Repository
}

// NewListFlagsHandler creates a new ListFlagsHandler.
func NewListFlagsHandler(flags flag.Repository) *ListFlagsHandler {
	return &ListFlagsHandler{flags: flags}
}

// Handle returns the user's flags, newest first.
func (h *ListFlagsHandler) Handle(ctx context.Context, q ListFlagsQuery) ([]*flag.Flag, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	flags, err := h.flags.ListByUser(ctx, q.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list_flags: %w", err)
	}
	return flags, nil
}
