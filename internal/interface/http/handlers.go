// Package http implements the REST API for Momentum.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/momentum-app/momentum-core/internal/application/command"
	"github.com/momentum-app/momentum-core/internal/application/query"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
	"github.com/momentum-app/momentum-core/pkg/logger"
	"github.com/momentum-app/momentum-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Momentum Core API",
		"version":     "v1",
		"description": "Gamification and scheduling engine for Momentum",
		"endpoints": map[string]string{
			"health":      "/health",
			"actions":     "/api/v1/actions",
			"progress":    "/api/v1/users/{id}/progress",
			"leaderboard": "/api/v1/leaderboard",
			"patterns":    "/api/v1/patterns",
			"schedule":    "/api/v1/users/{id}/schedule",
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

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
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

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleMetrics handles the metrics endpoint with basic server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": s.Uptime().Seconds(),
		"running":        s.IsRunning(),
	}

	writeJSON(w, http.StatusOK, metrics)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// processActionRequest is the request body for POST /api/v1/actions.
type processActionRequest struct {
	UserID     string                 `json:"user_id"`
	ActionType string                 `json:"action_type"`
	ModuleID   string                 `json:"module_id,omitempty"`
	Difficulty string                 `json:"difficulty,omitempty"`
	OccurredAt time.Time              `json:"occurred_at,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// handleProcessAction handles POST /api/v1/actions
func (s *Server) handleProcessAction(w http.ResponseWriter, r *http.Request) {
	if s.deps.ProcessActionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Action handler not configured")
		return
	}

	var req processActionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.ProcessActionCommand{
		UserID:        req.UserID,
		ActionType:    req.ActionType,
		ModuleID:      req.ModuleID,
		Difficulty:    req.Difficulty,
		OccurredAt:    req.OccurredAt,
		Metadata:      req.Metadata,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.ProcessActionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to process action",
			logger.UserID(req.UserID), logger.ActionType(req.ActionType))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetProgress handles GET /api/v1/users/{id}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	if s.deps.GetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	q := query.GetProgressQuery{
		UserID:      userID,
		RecentLimit: getQueryParamInt(r, "recent", 10),
	}

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get progress", logger.UserID(userID))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Metric:     getQueryParam(r, "metric", "xp"),
		Limit:      getQueryParamInt(r, "limit", 20),
		WindowDays: getQueryParamInt(r, "window_days", 0),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get leaderboard", logger.MetricName(q.Metric))
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// createPatternRequest is the request body for POST /api/v1/patterns.
type createPatternRequest struct {
	UserID            string    `json:"user_id"`
	WorkoutTemplateID string    `json:"workout_template_id"`
	Frequency         string    `json:"frequency"`
	DaysOfWeek        []int     `json:"days_of_week,omitempty"`
	TimesPerWeek      int       `json:"times_per_week,omitempty"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date,omitempty"`
	DurationWeeks     int       `json:"duration_weeks,omitempty"`
}

// handleCreatePattern handles POST /api/v1/patterns
func (s *Server) handleCreatePattern(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreatePatternHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Pattern handler not configured")
		return
	}

	var req createPatternRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.CreatePatternCommand{
		UserID:            req.UserID,
		WorkoutTemplateID: req.WorkoutTemplateID,
		Frequency:         req.Frequency,
		DaysOfWeek:        req.DaysOfWeek,
		TimesPerWeek:      req.TimesPerWeek,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		DurationWeeks:     req.DurationWeeks,
		CorrelationID:     getRequestID(r.Context()),
	}

	result, err := s.deps.CreatePatternHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to create pattern", logger.UserID(req.UserID))
		return
	}

	// Partial materialization keeps the pattern: report it with 207-style
	// detail in the payload but a created status.
	writeJSON(w, http.StatusCreated, result)
}

// handleGetSchedule handles GET /api/v1/users/{id}/schedule
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	if s.deps.GetScheduleHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Schedule handler not configured")
		return
	}

	from, err := parseDateParam(r, "from")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "from must be an RFC 3339 date")
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "to must be an RFC 3339 date")
		return
	}

	q := query.GetScheduleQuery{
		UserID: userID,
		From:   from,
		To:     to,
	}

	result, err := s.deps.GetScheduleHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get schedule", logger.UserID(userID))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain errors to HTTP status codes and logs
// the failures that are worth operator attention.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, msg string, fields ...logger.Field) {
	switch {
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_error", "Invalid request parameters", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", "Concurrent modification, please retry")
	case shared.IsStoreUnavailable(err):
		s.logger.Error(msg, append(fields, logger.Err(err))...)
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "Storage temporarily unavailable")
	default:
		s.logger.Error(msg, append(fields, logger.Err(err))...)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// maxRequestBody bounds request body size for JSON endpoints.
const maxRequestBody = 1 << 20 // 1 MB

// decodeJSONBody decodes a JSON request body into dst.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, dst)
}

// parseDateParam parses a required date query parameter.
// Accepts both full RFC 3339 timestamps and plain dates.
func parseDateParam(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, errors.New("missing parameter " + key)
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return timeutil.ParseDate(value, time.UTC)
}
