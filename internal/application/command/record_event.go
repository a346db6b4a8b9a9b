// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD EVENT COMMAND
// Records one raw activity event against the user's daily snapshot. This is
// the single entry point of the engagement pipeline: everything downstream
// (streaks, flags, achievements) derives from the snapshots written here.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationQueue accepts users whose engagement state should be re-evaluated.
// Enqueue never blocks; it reports whether the user was accepted.
type EvaluationQueue interface {
	Enqueue(userID string) bool
}

// RecordEventCommand contains the data to record an activity event.
type RecordEventCommand struct {
	// UserID is the internal ID of the user.
	UserID string

	// Kind is the type of event.
	Kind engagement.EventKind

	// OccurredAt is when the event occurred (defaults to now if zero).
	OccurredAt time.Time

	// ModulesCompleted is the user's module watermark as reported by the
	// curriculum side (for lesson_completed events).
	ModulesCompleted int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordEventCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("engagement", "record_event", shared.ErrValidation, "user_id is required")
	}
	if !c.Kind.IsValid() {
		return shared.NewDomainError("engagement", "record_event", shared.ErrValidation,
			fmt.Sprintf("unknown event kind: %s", c.Kind))
	}
	if c.Kind == engagement.KindLessonCompleted && c.ModulesCompleted < 0 {
		return shared.NewDomainError("engagement", "record_event", shared.ErrValidation,
			"modules_completed must not be negative")
	}
	return nil
}

// RecordEventResult contains the result of recording an event.
type RecordEventResult struct {
	// UserID is the internal ID of the user.
	UserID string

	// Day is the snapshot day the event landed on, in the platform timezone.
	Day dayclock.Day

	// Snapshot is the snapshot state after the write.
	Snapshot *engagement.Snapshot

	// Enqueued indicates whether the user was accepted for re-evaluation.
	// False means the evaluation queue was full; the write itself succeeded.
	Enqueued bool

	// RecordedAt is when the event was recorded.
	RecordedAt time.Time
}

// RecordEventHandler handles the RecordEventCommand.
type RecordEventHandler struct {
	snapshots engagement.Repository
	publisher shared.EventPublisher
	evalQueue EvaluationQueue
	clock     dayclock.Clock
	logger    *slog.Logger
}

// NewRecordEventHandler creates a new RecordEventHandler.
func NewRecordEventHandler(
	snapshots engagement.Repository,
	publisher shared.EventPublisher,
	evalQueue EvaluationQueue,
	clock dayclock.Clock,
	logger *slog.Logger,
) *RecordEventHandler {
	return &RecordEventHandler{
		snapshots: snapshots,
		publisher: publisher,
		evalQueue: evalQueue,
		clock:     clock,
		logger:    logger.With("handler", "record_event"),
	}
}

// Handle executes the record event command.
//
// The snapshot write is a storage-level atomic upsert, so concurrent events
// for the same user and day never lose increments. Evaluation is
// fire-and-forget: a full queue is logged and reported in the result but
// never fails the write.
func (h *RecordEventHandler) Handle(ctx context.Context, cmd RecordEventCommand) (*RecordEventResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	// The day boundary is resolved in the platform timezone, not in whatever
	// zone the event timestamp arrived in.
	day := h.clock.DayOf(occurredAt)
	userID := engagement.UserID(cmd.UserID)

	if err := h.snapshots.ApplyIncrement(ctx, userID, day, cmd.Kind, occurredAt); err != nil {
		return nil, fmt.Errorf("record_event: apply increment: %w", err)
	}

	if cmd.Kind == engagement.KindLessonCompleted && cmd.ModulesCompleted > 0 {
		if err := h.snapshots.RaiseModulesWatermark(ctx, userID, day, cmd.ModulesCompleted); err != nil {
			return nil, fmt.Errorf("record_event: raise modules watermark: %w", err)
		}
	}

	snap, err := h.snapshots.GetByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("record_event: read back snapshot: %w", err)
	}

	event := shared.NewActivityRecordedEvent(cmd.UserID, string(cmd.Kind), day.String())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish activity event",
			"user_id", cmd.UserID, "error", err)
	}

	enqueued := h.evalQueue.Enqueue(cmd.UserID)
	if !enqueued {
		h.logger.Warn("evaluation queue full, dropping evaluation request",
			"user_id", cmd.UserID)
	}

	return &RecordEventResult{
		UserID:     cmd.UserID,
		Day:        day,
		Snapshot:   snap,
		Enqueued:   enqueued,
		RecordedAt: occurredAt,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH RECORD COMMAND
// For replaying events from an upstream backlog.
// ══════════════════════════════════════════════════════════════════════════════

// RecordBatchCommand contains multiple events to record.
type RecordBatchCommand struct {
	Events        []RecordEventCommand
	CorrelationID string
}

// RecordBatchResult contains results for batch recording.
type RecordBatchResult struct {
	TotalCount   int
	SuccessCount int
	FailedCount  int
	Errors       map[string]error
}

// RecordBatchHandler handles batch event recording.
type RecordBatchHandler struct {
	handler *RecordEventHandler
}

// NewRecordBatchHandler creates a new batch handler.
func NewRecordBatchHandler(handler *RecordEventHandler) *RecordBatchHandler {
	return &RecordBatchHandler{handler: handler}
}

// Handle executes the batch record command. Individual failures do not stop
// the batch.
func (h *RecordBatchHandler) Handle(ctx context.Context, cmd RecordBatchCommand) (*RecordBatchResult, error) {
	result := &RecordBatchResult{
		TotalCount: len(cmd.Events),
		Errors:     make(map[string]error),
	}

	for i, ev := range cmd.Events {
		if ev.CorrelationID == "" {
			ev.CorrelationID = cmd.CorrelationID
		}

		if _, err := h.handler.Handle(ctx, ev); err != nil {
			result.FailedCount++
			result.Errors[fmt.Sprintf("%d:%s", i, ev.UserID)] = err
			continue
		}
		result.SuccessCount++
	}

	if result.FailedCount == result.TotalCount && result.TotalCount > 0 {
		return result, errors.New("record_batch: all events failed")
	}
	return result, nil
}
