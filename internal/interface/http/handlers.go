package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/application/command"
	"github.com/compass-cohort/compass-engagement/internal/application/query"
	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Compass Engagement API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":        "/health",
			"events":        "/api/v1/events",
			"streaks":       "/api/v1/users/{id}/streaks",
			"notifications": "/api/v1/users/{id}/notifications",
			"content":       "/api/v1/content/active/{type}",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT INGESTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// recordEventRequest is the request body for POST /api/v1/events.
type recordEventRequest struct {
	UserID           string    `json:"user_id"`
	Kind             string    `json:"kind"`
	OccurredAt       time.Time `json:"occurred_at,omitempty"`
	ModulesCompleted int       `json:"modules_completed,omitempty"`
}

func (req recordEventRequest) toCommand(correlationID string) command.RecordEventCommand {
	return command.RecordEventCommand{
		UserID:           req.UserID,
		Kind:             engagement.EventKind(req.Kind),
		OccurredAt:       req.OccurredAt,
		ModulesCompleted: req.ModulesCompleted,
		CorrelationID:    correlationID,
	}
}

// snapshotDTO is the wire form of one daily snapshot.
type snapshotDTO struct {
	UserID                 string     `json:"user_id"`
	Day                    string     `json:"day"`
	Logins                 int        `json:"logins"`
	Posts                  int        `json:"posts"`
	Responses              int        `json:"responses"`
	ModulesCompleted       int        `json:"modules_completed"`
	LastPartnerInteraction *time.Time `json:"last_partner_interaction,omitempty"`
}

func toSnapshotDTO(s *engagement.Snapshot) snapshotDTO {
	return snapshotDTO{
		UserID:                 string(s.UserID),
		Day:                    s.Day.String(),
		Logins:                 s.Logins,
		Posts:                  s.Posts,
		Responses:              s.Responses,
		ModulesCompleted:       s.ModulesCompleted,
		LastPartnerInteraction: s.LastPartnerInteraction,
	}
}

// handleRecordEvent handles POST /api/v1/events.
func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	result, err := s.deps.RecordEvent.Handle(r.Context(), req.toCommand(getRequestID(r.Context())))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"user_id":  result.UserID,
		"day":      result.Day.String(),
		"snapshot": toSnapshotDTO(result.Snapshot),
		"enqueued": result.Enqueued,
	})
}

// recordBatchRequest is the request body for POST /api/v1/events/batch.
type recordBatchRequest struct {
	Events []recordEventRequest `json:"events"`
}

// handleRecordBatch handles POST /api/v1/events/batch.
func (s *Server) handleRecordBatch(w http.ResponseWriter, r *http.Request) {
	var req recordBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}
	if len(req.Events) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "events must not be empty")
		return
	}

	cmd := command.RecordBatchCommand{CorrelationID: getRequestID(r.Context())}
	for _, ev := range req.Events {
		cmd.Events = append(cmd.Events, ev.toCommand(""))
	}

	result, err := s.deps.RecordBatch.Handle(r.Context(), cmd)
	if err != nil && result == nil {
		s.writeDomainError(w, r, err)
		return
	}

	errs := make(map[string]string, len(result.Errors))
	for key, e := range result.Errors {
		errs[key] = e.Error()
	}

	status := http.StatusAccepted
	if result.FailedCount == result.TotalCount {
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]interface{}{
		"total":   result.TotalCount,
		"success": result.SuccessCount,
		"failed":  result.FailedCount,
		"errors":  errs,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK & ACHIEVEMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStreaks handles GET /api/v1/users/{id}/streaks.
func (s *Server) handleGetStreaks(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetStreaks.Handle(r.Context(), query.GetStreaksQuery{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":   result.UserID,
		"current":   result.Streaks.Current,
		"longest":   result.Streaks.Longest,
		"as_of_day": result.AsOfDay.String(),
	})
}

// handleGetAchievements handles GET /api/v1/users/{id}/achievements.
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetAchievements.Handle(r.Context(), query.GetAchievementsQuery{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	type earnedDTO struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Points      int    `json:"points"`
		Icon        string `json:"icon,omitempty"`
		EarnedAt    string `json:"earned_at"`
	}

	earned := make([]earnedDTO, 0, len(result.Earned))
	for _, e := range result.Earned {
		earned = append(earned, earnedDTO{
			ID:          e.Achievement.ID,
			Name:        e.Achievement.Name,
			Description: e.Achievement.Description,
			Category:    string(e.Achievement.Category),
			Points:      e.Achievement.Points,
			Icon:        e.Achievement.Icon,
			EarnedAt:    e.EarnedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      result.UserID,
		"achievements": earned,
		"total_points": result.TotalPoints,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// FLAG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// flagDTO is the wire form of one engagement flag.
type flagDTO struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Type          string         `json:"type"`
	Reason        string         `json:"reason"`
	Context       map[string]any `json:"context,omitempty"`
	Resolved      bool           `json:"resolved"`
	ResolvedBy    string         `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	ResolvedNotes string         `json:"resolved_notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func toFlagDTO(f *flag.Flag) flagDTO {
	return flagDTO{
		ID:            f.ID,
		UserID:        f.UserID,
		Type:          string(f.Type),
		Reason:        f.Reason,
		Context:       f.Context,
		Resolved:      f.Resolved,
		ResolvedBy:    f.ResolvedBy,
		ResolvedAt:    f.ResolvedAt,
		ResolvedNotes: f.ResolvedNotes,
		CreatedAt:     f.CreatedAt,
	}
}

// handleListFlags handles GET /api/v1/users/{id}/flags.
func (s *Server) handleListFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := s.deps.ListFlags.Handle(r.Context(), query.ListFlagsQuery{
		UserID: r.PathValue("id"),
		Limit:  getQueryParamInt(r, "limit", 50),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]flagDTO, 0, len(flags))
	for _, f := range flags {
		dtos = append(dtos, toFlagDTO(f))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"flags": dtos})
}

// resolveFlagRequest is the request body for flag resolution.
type resolveFlagRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Notes      string `json:"notes,omitempty"`
}

// handleResolveFlag handles POST /api/v1/admin/flags/{id}/resolve.
func (s *Server) handleResolveFlag(w http.ResponseWriter, r *http.Request) {
	var req resolveFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	result, err := s.deps.ResolveFlag.Handle(r.Context(), command.ResolveFlagCommand{
		FlagID:        r.PathValue("id"),
		ResolvedBy:    req.ResolvedBy,
		Notes:         req.Notes,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFlagDTO(result.Flag))
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// notificationDTO is the wire form of one notification.
type notificationDTO struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"is_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toNotificationDTO(n *notification.Notification) notificationDTO {
	return notificationDTO{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// handleListNotifications handles GET /api/v1/users/{id}/notifications.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ListNotifications.Handle(r.Context(), query.ListNotificationsQuery{
		UserID: r.PathValue("id"),
		Limit:  getQueryParamInt(r, "limit", 50),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]notificationDTO, 0, len(result.Notifications))
	for _, n := range result.Notifications {
		dtos = append(dtos, toNotificationDTO(n))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": dtos,
		"unread_count":  result.UnreadCount,
	})
}

// handleUnreadCount handles GET /api/v1/users/{id}/notifications/unread.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.deps.UnreadCount.Handle(r.Context(), query.UnreadCountQuery{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// handleMarkRead handles POST /api/v1/users/{id}/notifications/{notificationID}/read.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	err := s.deps.MarkRead.Handle(r.Context(), command.MarkNotificationReadCommand{
		UserID:         r.PathValue("id"),
		NotificationID: r.PathValue("notificationID"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// handleMarkAllRead handles POST /api/v1/users/{id}/notifications/read-all.
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.MarkAllRead.Handle(r.Context(), command.MarkAllNotificationsReadCommand{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"marked_count": result.MarkedCount})
}

// handleNotificationStream handles GET /api/v1/users/{id}/notifications/stream.
// Server-sent events; one event per delivered notification. The stream is
// best-effort: anything missed here is still in the inbox.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Streamer == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notification streaming is not enabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Streaming unsupported")
		return
	}

	sub, err := s.deps.Streamer.Subscribe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Heartbeat keeps intermediaries from closing the idle connection.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case n, ok := <-sub.Notifications():
			if !ok {
				return
			}
			payload, err := json.Marshal(toNotificationDTO(n))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, payload)
			flusher.Flush()
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// contentDTO is the wire form of one generated content record.
type contentDTO struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Approved    bool            `json:"approved"`
	ApprovedBy  string          `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	Active      bool            `json:"active"`
	GeneratedAt time.Time       `json:"generated_at"`
}

func toContentDTO(g *content.Generated) contentDTO {
	return contentDTO{
		ID:          g.ID,
		Type:        string(g.Type),
		Payload:     g.Payload,
		Status:      string(g.Status),
		Approved:    g.Approved,
		ApprovedBy:  g.ApprovedBy,
		ApprovedAt:  g.ApprovedAt,
		Active:      g.Active,
		GeneratedAt: g.GeneratedAt,
	}
}

// handleGetActiveContent handles GET /api/v1/content/active/{type}.
func (s *Server) handleGetActiveContent(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.GetActiveContent.Handle(r.Context(), query.GetActiveContentQuery{
		Type: content.Type(r.PathValue("type")),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentDTO(g))
}

// generateContentRequest is the request body for content generation.
type generateContentRequest struct {
	Type        string `json:"type"`
	BypassCache bool   `json:"bypass_cache,omitempty"`
}

// handleGenerateContent handles POST /api/v1/admin/content/generate.
func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	var req generateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	result, err := s.deps.GenerateContent.Handle(r.Context(), command.GenerateContentCommand{
		Type:          content.Type(req.Type),
		BypassCache:   req.BypassCache,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"content":       toContentDTO(result.Content),
		"used_fallback": result.UsedFallback,
	})
}

// handleListPendingContent handles GET /api/v1/admin/content/pending.
func (s *Server) handleListPendingContent(w http.ResponseWriter, r *http.Request) {
	pending, err := s.deps.ListPendingContent.Handle(r.Context(), query.ListPendingContentQuery{
		Limit: getQueryParamInt(r, "limit", 50),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]contentDTO, 0, len(pending))
	for _, g := range pending {
		dtos = append(dtos, toContentDTO(g))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"pending": dtos})
}

// approveContentRequest is the request body for content approval.
type approveContentRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// handleApproveContent handles POST /api/v1/admin/content/{id}/approve.
func (s *Server) handleApproveContent(w http.ResponseWriter, r *http.Request) {
	var req approveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	result, err := s.deps.ApproveContent.Handle(r.Context(), command.ApproveContentCommand{
		ContentID:     r.PathValue("id"),
		ApprovedBy:    req.ApprovedBy,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentDTO(result.Content))
}

// handleRejectContent handles POST /api/v1/admin/content/{id}/reject.
func (s *Server) handleRejectContent(w http.ResponseWriter, r *http.Request) {
	err := s.deps.RejectContent.Handle(r.Context(), command.RejectContentCommand{
		ContentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN OVERVIEW & REPORTING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleOverview handles GET /api/v1/admin/overview.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.deps.Overview.Handle(r.Context(), query.EngagementOverviewQuery{
		WindowDays: getQueryParamInt(r, "window_days", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	unresolved := make(map[string]int, len(overview.UnresolvedFlags))
	for t, n := range overview.UnresolvedFlags {
		unresolved[string(t)] = n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"window_days":      overview.WindowDays,
		"from":             overview.From.String(),
		"to":               overview.To.String(),
		"active_users":     overview.ActiveUsers,
		"total_users":      overview.TotalUsers,
		"active_ratio":     overview.ActiveRatio(),
		"unresolved_flags": unresolved,
	})
}

// handleCommunityContext handles GET /api/v1/admin/context.
func (s *Server) handleCommunityContext(w http.ResponseWriter, r *http.Request) {
	cc, err := s.deps.CommunityContext.Handle(r.Context(), query.CommunityContextQuery{
		BypassCache: getQueryParamBool(r, "fresh"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cc)
}

// sendReportRequest is the request body for POST /api/v1/admin/reports/weekly.
type sendReportRequest struct {
	Recipients []string `json:"recipients,omitempty"`
	WindowDays int      `json:"window_days,omitempty"`
}

// handleSendReport handles POST /api/v1/admin/reports/weekly.
func (s *Server) handleSendReport(w http.ResponseWriter, r *http.Request) {
	var req sendReportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
			return
		}
	}

	result, err := s.deps.SendReport.Handle(r.Context(), command.SendReportCommand{
		Recipients: req.Recipients,
		WindowDays: req.WindowDays,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipients":   result.Recipients,
		"window_days":  result.Overview.WindowDays,
		"active_users": result.Overview.ActiveUsers,
		"total_users":  result.Overview.TotalUsers,
	})
}
