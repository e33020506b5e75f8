package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports 503 until the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{"templates": "ok", "store": "ok"}

	if s.svc.Ready == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.svc.Ready(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	metrics := s.Metrics()
	NewJSONResponse(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
		"metrics": map[string]int64{
			"total_requests":  metrics.TotalRequests,
			"server_errors":   metrics.ServerErrors,
			"suspicious":      s.detector.SuspiciousCount(),
			"limited_clients": int64(s.loginLimiter.ActiveClients()),
		},
	}).Status(code).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/expenses/", http.StatusFound)
}

// serverError logs err and answers with a generic message.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error, component, op string) {
	fields := log.NewFields()
	if u, ok := userFrom(r.Context()); ok {
		fields.WithUser(u.ID)
	}
	s.events.LogError(r.Context(), "Request failed", err, component, op, fields)
	http.Error(w, "Something went wrong, please try again later", http.StatusInternalServerError)
}

// failJSON is serverError for JSON endpoints.
func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error, component, op string) {
	s.events.LogError(r.Context(), "Request failed", err, component, op, nil)
	ErrorJSON(http.StatusInternalServerError, "internal error").Write(w)
}

// validationMessage extracts the user-facing text of a validation failure.
func validationMessage(err error) (string, bool) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	return "", false
}
