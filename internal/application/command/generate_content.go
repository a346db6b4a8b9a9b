package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/compass-cohort/compass-engagement/internal/application/query"
	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE CONTENT COMMAND
// Assembles the community context, calls the external generator, and stores
// the result as a pending candidate in the review queue. Nothing generated
// here is user-visible until an admin approves it.
// ══════════════════════════════════════════════════════════════════════════════

// Generator produces formatted content from a community context.
type Generator interface {
	Generate(ctx context.Context, contentType content.Type, cc content.CommunityContext) (json.RawMessage, error)
}

// GenerateContentCommand contains the data to generate a content candidate.
type GenerateContentCommand struct {
	// Type is the content kind to generate.
	Type content.Type

	// BypassCache forces a fresh context assembly.
	BypassCache bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c GenerateContentCommand) Validate() error {
	if !c.Type.IsValid() {
		return shared.NewDomainError("content", "generate", shared.ErrValidation,
			fmt.Sprintf("unknown content type: %s", c.Type))
	}
	return nil
}

// GenerateContentResult contains the result of generating content.
type GenerateContentResult struct {
	Content *content.Generated

	// UsedFallback indicates the generator was unavailable and the stored
	// payload is the static fallback.
	UsedFallback bool
}

// GenerateContentHandler handles the GenerateContentCommand.
type GenerateContentHandler struct {
	contents  content.Repository
	assembler *query.CommunityContextHandler
	generator Generator
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewGenerateContentHandler creates a new GenerateContentHandler.
func NewGenerateContentHandler(
	contents content.Repository,
	assembler *query.CommunityContextHandler,
	generator Generator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *GenerateContentHandler {
	return &GenerateContentHandler{
		contents:  contents,
		assembler: assembler,
		generator: generator,
		publisher: publisher,
		logger:    logger.With("handler", "generate_content"),
	}
}

// Handle executes the generate content command. A generator failure degrades
// to a static fallback payload rather than failing the command: the review
// queue always gets a candidate, and the admin sees that it is a fallback.
func (h *GenerateContentHandler) Handle(ctx context.Context, cmd GenerateContentCommand) (*GenerateContentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cc, err := h.assembler.Handle(ctx, query.CommunityContextQuery{BypassCache: cmd.BypassCache})
	if err != nil {
		return nil, fmt.Errorf("generate_content: assemble context: %w", err)
	}

	usedFallback := false
	payload, err := h.generator.Generate(ctx, cmd.Type, *cc)
	if err != nil {
		h.logger.Warn("generator unavailable, using fallback content",
			"content_type", cmd.Type, "error", err)
		payload = FallbackPayload(cmd.Type)
		usedFallback = true
	}

	g, err := content.NewGenerated(uuid.NewString(), cmd.Type, payload, *cc, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("generate_content: %w", err)
	}

	if err := h.contents.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("generate_content: store candidate: %w", err)
	}

	event := shared.NewContentSubmittedEvent(g.ID, string(g.Type))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish content submitted event", "content_id", g.ID, "error", err)
	}

	return &GenerateContentResult{Content: g, UsedFallback: usedFallback}, nil
}

// FallbackPayload returns the static content used when the generator is
// unavailable. Deliberately bland: it must be safe to approve without edits.
func FallbackPayload(contentType content.Type) json.RawMessage {
	switch contentType {
	case content.TypeHeroMessage:
		return json.RawMessage(`{"headline":"Keep going!","body":"Your cohort is making steady progress this week."}`)
	case content.TypeCohortActivity:
		return json.RawMessage(`{"summary":"The community has been active. Check the discussion board for the latest threads."}`)
	case content.TypePracticeActions:
		return json.RawMessage(`{"actions":["Review this week's module","Post one reflection in the discussion board","Check in with your accountability partner"]}`)
	default:
		return json.RawMessage(`{"sections":[],"note":"Dashboard content is being refreshed."}`)
	}
}
