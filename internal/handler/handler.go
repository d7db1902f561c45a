package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hotelops/taskrouter/internal/domain"
	"github.com/hotelops/taskrouter/internal/engine"
	"github.com/hotelops/taskrouter/internal/handler/dto"
	"github.com/hotelops/taskrouter/internal/middleware"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine         *engine.Engine
	authMiddleware *middleware.AuthMiddleware
	healthCheck    func(ctx context.Context) error
}

// New creates a new Handler. healthCheck may be nil when there is no
// backing connection to probe.
func New(eng *engine.Engine, resolver middleware.StaffResolver, healthCheck func(ctx context.Context) error) *Handler {
	return &Handler{
		engine:         eng,
		authMiddleware: middleware.NewAuthMiddleware(resolver),
		healthCheck:    healthCheck,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	auth := h.authMiddleware.Authenticate
	mux.Handle("POST /api/v1/tasks", auth(http.HandlerFunc(h.handleCreateTask)))
	mux.Handle("GET /api/v1/tasks", auth(http.HandlerFunc(h.handleListTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", auth(http.HandlerFunc(h.handleGetTask)))
	mux.Handle("POST /api/v1/tasks/{id}/assign", auth(http.HandlerFunc(h.handleAssignTask)))
	mux.Handle("POST /api/v1/tasks/{id}/allocate", auth(http.HandlerFunc(h.handleAllocateTask)))
	mux.Handle("PATCH /api/v1/tasks/{id}/status", auth(http.HandlerFunc(h.handleUpdateStatus)))
	mux.Handle("POST /api/v1/tasks/{id}/handoff", auth(http.HandlerFunc(h.handleRequestHandoff)))
	mux.Handle("POST /api/v1/tasks/{id}/handoff/accept", auth(http.HandlerFunc(h.handleAcceptHandoff)))
	mux.Handle("POST /api/v1/tasks/{id}/escalate", auth(http.HandlerFunc(h.handleEscalateTask)))
}

// handleHealthz returns 200 OK if the backing store is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.healthCheck != nil {
		if err := h.healthCheck(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a domain error and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// extractTaskID extracts and validates the task ID path parameter.
// Returns ("", false) if invalid, with the error already sent.
func extractTaskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := r.PathValue("id")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return "", false
	}
	if _, err := uuid.Parse(taskID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id must be a valid UUID")
		return "", false
	}
	return taskID, true
}

// taskResponse builds the canonical task payload with the derived
// grace-period fields.
func (h *Handler) taskResponse(t *domain.Task) dto.TaskResponse {
	canEdit, remaining := h.engine.CanEdit(t)
	return dto.ToTaskResponse(t, canEdit, remaining)
}
