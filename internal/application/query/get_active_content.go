package query

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT QUERIES
// Read side of the approval workflow: the live content per type and the
// pending review queue.
// ══════════════════════════════════════════════════════════════════════════════

// GetActiveContentQuery contains parameters for the active content query.
type GetActiveContentQuery struct {
	Type content.Type
}

// Validate validates the query.
func (q GetActiveContentQuery) Validate() error {
	if !q.Type.IsValid() {
		return shared.NewDomainError("content", "get_active", shared.ErrValidation,
			fmt.Sprintf("unknown content type: %s", q.Type))
	}
	return nil
}

// GetActiveContentHandler handles the GetActiveContentQuery.
type GetActiveContentHandler struct {
	contents content.Repository
}

// NewGetActiveContentHandler creates a new GetActiveContentHandler.
func NewGetActiveContentHandler(contents content.Repository) *GetActiveContentHandler {
	return &GetActiveContentHandler{contents: contents}
}

// Handle returns the active content of the given type, or
// shared.ErrContentNotFound when no content of the type has been approved
// yet. Callers render their own placeholder for the not-found case.
func (h *GetActiveContentHandler) Handle(ctx context.Context, q GetActiveContentQuery) (*content.Generated, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	g, err := h.contents.GetActive(ctx, q.Type)
	if err != nil {
		return nil, fmt.Errorf("get_active_content: %w", err)
	}
	return g, nil
}

// ListPendingContentQuery contains parameters for the review queue.
type ListPendingContentQuery struct {
	// Limit bounds the queue page (default 50).
	Limit int
}

// ListPendingContentHandler handles the ListPendingContentQuery.
type ListPendingContentHandler struct {
	contents content.Repository
}

// NewListPendingContentHandler creates a new ListPendingContentHandler.
func NewListPendingContentHandler(contents content.Repository) *ListPendingContentHandler {
	return &ListPendingContentHandler{contents: contents}
}

// Handle returns pending candidates, oldest first.
func (h *ListPendingContentHandler) Handle(ctx context.Context, q ListPendingContentQuery) ([]*content.Generated, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	pending, err := h.contents.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list_pending_content: %w", err)
	}
	return pending, nil
}
