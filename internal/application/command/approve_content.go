package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPROVE / REJECT CONTENT COMMANDS
// Admin review of generated candidates. Approval atomically swaps the active
// row of the content type; at most one row per type is active at any moment.
// ══════════════════════════════════════════════════════════════════════════════

// ApproveContentCommand contains the data to approve a candidate.
type ApproveContentCommand struct {
	// ContentID identifies the pending candidate.
	ContentID string

	// ApprovedBy is the admin approving the candidate.
	ApprovedBy string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ApproveContentCommand) Validate() error {
	if c.ContentID == "" {
		return shared.NewDomainError("content", "approve", shared.ErrValidation, "content_id is required")
	}
	if c.ApprovedBy == "" {
		return shared.NewDomainError("content", "approve", shared.ErrValidation, "approved_by is required")
	}
	return nil
}

// ApproveContentResult contains the result of approving content.
type ApproveContentResult struct {
	Content *content.Generated
}

// ApproveContentHandler handles the ApproveContentCommand.
type ApproveContentHandler struct {
	contents  content.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewApproveContentHandler creates a new ApproveContentHandler.
func NewApproveContentHandler(contents content.Repository, publisher shared.EventPublisher, logger *slog.Logger) *ApproveContentHandler {
	return &ApproveContentHandler{
		contents:  contents,
		publisher: publisher,
		logger:    logger.With("handler", "approve_content"),
	}
}

// Handle executes the approve content command. Deactivating the previous
// active row and activating this one happen in one transaction inside the
// repository; concurrent approvals of different candidates resolve
// last-writer-wins with exactly one winner active.
func (h *ApproveContentHandler) Handle(ctx context.Context, cmd ApproveContentCommand) (*ApproveContentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	g, err := h.contents.GetByID(ctx, cmd.ContentID)
	if err != nil {
		return nil, fmt.Errorf("approve_content: %w", err)
	}
	if g.Status != content.StatusPending {
		return nil, shared.ErrContentNotPending
	}

	if err := h.contents.ApproveAndActivate(ctx, cmd.ContentID, cmd.ApprovedBy); err != nil {
		return nil, fmt.Errorf("approve_content: approve and activate: %w", err)
	}

	// Re-read for the post-approval state (approved_at, active).
	g, err = h.contents.GetByID(ctx, cmd.ContentID)
	if err != nil {
		return nil, fmt.Errorf("approve_content: read back: %w", err)
	}

	event := shared.NewContentApprovedEvent(g.ID, string(g.Type), cmd.ApprovedBy)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish content approved event", "content_id", g.ID, "error", err)
	}

	return &ApproveContentResult{Content: g}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REJECT
// ══════════════════════════════════════════════════════════════════════════════

// RejectContentCommand contains the data to reject a candidate.
type RejectContentCommand struct {
	ContentID string
}

// Validate validates the command.
func (c RejectContentCommand) Validate() error {
	if c.ContentID == "" {
		return shared.NewDomainError("content", "reject", shared.ErrValidation, "content_id is required")
	}
	return nil
}

// RejectContentHandler handles the RejectContentCommand.
type RejectContentHandler struct {
	contents content.Repository
}

// NewRejectContentHandler creates a new RejectContentHandler.
func NewRejectContentHandler(contents content.Repository) *RejectContentHandler {
	return &RejectContentHandler{contents: contents}
}

// Handle executes the reject content command. Rejected candidates stay in the
// table for audit but are never activated.
func (h *RejectContentHandler) Handle(ctx context.Context, cmd RejectContentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	g, err := h.contents.GetByID(ctx, cmd.ContentID)
	if err != nil {
		return fmt.Errorf("reject_content: %w", err)
	}

	if err := g.Reject(); err != nil {
		if errors.Is(err, content.ErrNotPending) {
			return shared.ErrContentNotPending
		}
		return shared.NewDomainError("content", "reject", shared.ErrValidation, err.Error())
	}

	if err := h.contents.Reject(ctx, cmd.ContentID); err != nil {
		return fmt.Errorf("reject_content: persist: %w", err)
	}
	return nil
}
