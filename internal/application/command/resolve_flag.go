package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVE FLAG COMMAND
// An admin acknowledges a raised flag. Flags are append-only history: resolve
// is the single permitted mutation, applied exactly once.
// ══════════════════════════════════════════════════════════════════════════════

// ResolveFlagCommand contains the data to resolve a flag.
type ResolveFlagCommand struct {
	// FlagID identifies the flag being resolved.
	FlagID string

	// ResolvedBy is the admin performing the resolution.
	ResolvedBy string

	// Notes is an optional free-text resolution note.
	Notes string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ResolveFlagCommand) Validate() error {
	if c.FlagID == "" {
		return shared.NewDomainError("flag", "resolve", shared.ErrValidation, "flag_id is required")
	}
	if c.ResolvedBy == "" {
		return shared.NewDomainError("flag", "resolve", shared.ErrValidation, "resolved_by is required")
	}
	return nil
}

// ResolveFlagResult contains the result of resolving a flag.
type ResolveFlagResult struct {
	Flag       *flag.Flag
	ResolvedAt time.Time
}

// ResolveFlagHandler handles the ResolveFlagCommand.
type ResolveFlagHandler struct {
	flags     flag.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewResolveFlagHandler creates a new ResolveFlagHandler.
func NewResolveFlagHandler(flags flag.Repository, publisher shared.EventPublisher, logger *slog.Logger) *ResolveFlagHandler {
	return &ResolveFlagHandler{
		flags:     flags,
		publisher: publisher,
		logger:    logger.With("handler", "resolve_flag"),
	}
}

// Handle executes the resolve flag command. An unknown flag id and an
// already-resolved flag both surface as not-found: from the caller's view
// there is no unresolved flag with that id.
func (h *ResolveFlagHandler) Handle(ctx context.Context, cmd ResolveFlagCommand) (*ResolveFlagResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	f, err := h.flags.GetByID(ctx, cmd.FlagID)
	if err != nil {
		return nil, fmt.Errorf("resolve_flag: %w", err)
	}

	now := time.Now().UTC()
	if err := f.Resolve(cmd.ResolvedBy, cmd.Notes, now); err != nil {
		if errors.Is(err, flag.ErrAlreadyResolved) {
			return nil, shared.ErrFlagAlreadyResolved
		}
		return nil, shared.NewDomainError("flag", "resolve", shared.ErrValidation, err.Error())
	}

	if err := h.flags.SaveResolution(ctx, f); err != nil {
		return nil, fmt.Errorf("resolve_flag: save resolution: %w", err)
	}

	event := shared.NewFlagResolvedEvent(f.ID, f.UserID, cmd.ResolvedBy)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish flag resolved event", "flag_id", f.ID, "error", err)
	}

	return &ResolveFlagResult{Flag: f, ResolvedAt: now}, nil
}
