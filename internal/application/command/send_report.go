package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/compass-cohort/compass-engagement/internal/application/query"
	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND HEALTH REPORT COMMAND
// Emails the weekly cohort health summary to the facilitator list. Typically
// triggered by an external cron hitting the admin API.
// ══════════════════════════════════════════════════════════════════════════════

// Mailer sends plain-text email.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SendReportCommand contains the data to send a health report.
type SendReportCommand struct {
	// Recipients overrides the configured recipient list when non-empty.
	Recipients []string

	// WindowDays bounds the report window (default 7).
	WindowDays int
}

// SendReportResult contains the result of sending a report.
type SendReportResult struct {
	Recipients []string
	Overview   *query.EngagementOverview
}

// SendReportHandler handles the SendReportCommand.
type SendReportHandler struct {
	overview   *query.EngagementOverviewHandler
	mailer     Mailer
	recipients []string
	logger     *slog.Logger
}

// NewSendReportHandler creates a new SendReportHandler.
func NewSendReportHandler(
	overview *query.EngagementOverviewHandler,
	mailer Mailer,
	recipients []string,
	logger *slog.Logger,
) *SendReportHandler {
	return &SendReportHandler{
		overview:   overview,
		mailer:     mailer,
		recipients: recipients,
		logger:     logger.With("handler", "send_report"),
	}
}

// Handle executes the send report command.
func (h *SendReportHandler) Handle(ctx context.Context, cmd SendReportCommand) (*SendReportResult, error) {
	recipients := cmd.Recipients
	if len(recipients) == 0 {
		recipients = h.recipients
	}
	if len(recipients) == 0 {
		return nil, shared.NewDomainError("report", "send", shared.ErrValidation, "no recipients configured")
	}

	overview, err := h.overview.Handle(ctx, query.EngagementOverviewQuery{WindowDays: cmd.WindowDays})
	if err != nil {
		return nil, fmt.Errorf("send_report: %w", err)
	}

	subject := fmt.Sprintf("Cohort health report: %s to %s", overview.From, overview.To)
	body := formatReportBody(overview)

	if err := h.mailer.Send(ctx, recipients, subject, body); err != nil {
		return nil, shared.WrapError("report", "send", shared.ErrExternalDependency, "mailer failed", err)
	}

	h.logger.Info("health report sent",
		"recipients", len(recipients),
		"active_users", overview.ActiveUsers,
		"total_users", overview.TotalUsers)

	return &SendReportResult{Recipients: recipients, Overview: overview}, nil
}

func formatReportBody(o *query.EngagementOverview) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cohort health, %s to %s (%d days)\n\n", o.From, o.To, o.WindowDays)
	fmt.Fprintf(&b, "Active users: %d of %d (%.0f%%)\n\n", o.ActiveUsers, o.TotalUsers, o.ActiveRatio()*100)

	b.WriteString("Open flags:\n")
	for _, t := range []flag.Type{flag.TypeRed, flag.TypeYellow, flag.TypeGreen} {
		fmt.Fprintf(&b, "  %-6s %d\n", t, o.UnresolvedFlags[t])
	}

	return b.String()
}
