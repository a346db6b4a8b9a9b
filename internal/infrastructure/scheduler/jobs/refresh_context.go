package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compass-cohort/compass-engagement/internal/application/query"
)

// RefreshContext rebuilds the community context ahead of its cache TTL so
// admin reads and content generation rarely pay assembly latency.
type RefreshContext struct {
	handler *query.CommunityContextHandler
	logger  *slog.Logger
}

// NewRefreshContext creates a new RefreshContext job.
func NewRefreshContext(handler *query.CommunityContextHandler, logger *slog.Logger) *RefreshContext {
	return &RefreshContext{
		handler: handler,
		logger:  logger.With("job", "refresh_context"),
	}
}

// Name implements scheduler.Job.
func (j *RefreshContext) Name() string { return "refresh_context" }

// Run reassembles the context, bypassing the cache so the fresh copy is
// what gets stored.
func (j *RefreshContext) Run(ctx context.Context) error {
	cc, err := j.handler.Handle(ctx, query.CommunityContextQuery{BypassCache: true})
	if err != nil {
		return fmt.Errorf("refresh context: %w", err)
	}

	j.logger.Debug("context refreshed", "active_users", cc.ActiveUsers)
	return nil
}
