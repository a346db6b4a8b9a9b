package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compass-cohort/compass-engagement/internal/application/command"
)

// WeeklyReport emails the engagement overview to the configured recipients.
type WeeklyReport struct {
	handler *command.SendReportHandler
	logger  *slog.Logger
}

// NewWeeklyReport creates a new WeeklyReport job.
func NewWeeklyReport(handler *command.SendReportHandler, logger *slog.Logger) *WeeklyReport {
	return &WeeklyReport{
		handler: handler,
		logger:  logger.With("job", "weekly_report"),
	}
}

// Name implements scheduler.Job.
func (j *WeeklyReport) Name() string { return "weekly_report" }

// Run sends the report over the trailing seven days.
func (j *WeeklyReport) Run(ctx context.Context) error {
	result, err := j.handler.Handle(ctx, command.SendReportCommand{WindowDays: 7})
	if err != nil {
		return fmt.Errorf("weekly report: %w", err)
	}

	j.logger.Info("report sent",
		"recipients", len(result.Recipients),
		"active_users", result.Overview.ActiveUsers,
		"total_users", result.Overview.TotalUsers)
	return nil
}
