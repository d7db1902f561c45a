package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hotelops/taskrouter/internal/domain"
	"github.com/hotelops/taskrouter/internal/engine"
	"github.com/hotelops/taskrouter/internal/handler/dto"
	"github.com/hotelops/taskrouter/internal/middleware"
)

// handleCreateTask creates a new task, optionally auto-allocating it.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staff, err := middleware.GetStaffFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Title == "" || len(req.Title) > 200 {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title must be between 1 and 200 characters")
		return
	}

	task, err := h.engine.CreateTask(ctx, engine.CreateTaskInput{
		Title:              req.Title,
		Description:        req.Description,
		Department:         req.Department,
		Category:           req.Category,
		Priority:           req.Priority,
		RoomNumber:         req.RoomNumber,
		Location:           req.Location,
		DueDate:            req.DueDate,
		EstimatedDuration:  req.EstimatedDuration,
		RequiredSkills:     req.RequiredSkills,
		IsUrgent:           req.IsUrgent,
		AutoCreateFollowUp: req.AutoCreateFollowUp,
		AutoAssign:         req.AutoAssign,
		CreatedBy:          staff.ID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.taskResponse(task))
}

// handleGetTask retrieves a single task.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}
	task, err := h.engine.GetTask(ctx, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.taskResponse(task))
}

// handleListTasks lists tasks visible to the caller.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staff, err := middleware.GetStaffFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	filter, err := parseListFilter(r, staff)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	tasks, err := h.engine.ListTasks(ctx, staff, filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]dto.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, h.taskResponse(t))
	}
	respondJSON(w, http.StatusOK, dto.TasksListResponse{Tasks: out, Total: len(out)})
}

func parseListFilter(r *http.Request, staff *domain.Staff) (engine.TaskFilter, error) {
	var filter engine.TaskFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := domain.NormalizeStatus(part)
			if err != nil {
				return filter, err
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if raw := q.Get("department"); raw != "" {
		dept, err := domain.NormalizeDepartment(raw)
		if err != nil {
			return filter, err
		}
		filter.Department = &dept
	}
	if raw := q.Get("assignee"); raw != "" {
		assignee := raw
		if raw == "me" {
			assignee = staff.ID
		}
		filter.AssignedTo = &assignee
	}
	if q.Get("unassigned") == "true" {
		filter.Unassigned = true
	}
	return filter, nil
}

// handleAssignTask assigns a task to a specific staff member.
func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staff, err := middleware.GetStaffFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.StaffID == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "staff_id is required")
		return
	}

	task, err := h.engine.AssignTask(ctx, taskID, req.StaffID, staff.ID, req.Notes)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.taskResponse(task))
}

// handleAllocateTask runs the allocator for a pending task.
func (h *Handler) handleAllocateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}
	if _, err := h.engine.Allocator().Allocate(ctx, taskID); err != nil {
		respondDomainError(w, err)
		return
	}
	task, err := h.engine.GetTask(ctx, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.taskResponse(task))
}

// handleUpdateStatus applies a lifecycle transition.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staff, err := middleware.GetStaffFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status is required")
		return
	}

	task, err := h.engine.UpdateStatus(ctx, taskID, staff.ID, engine.UpdateStatusInput{
		Status:         req.Status,
		Notes:          req.Notes,
		ActualDuration: req.ActualDuration,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.taskResponse(task))
}

// handleRequestHandoff marks a task for transfer to another department.
func (h *Handler) handleRequestHandoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staff, err := middleware.GetStaffFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.HandoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Department == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "department is required")
		return
	}

	task, err := h.engine.RequestHandoff(ctx, taskID, req.Department, staff.ID, req.Reason)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.taskResponse(task))
}

// handleAcceptHandoff accepts a pending handoff for the caller.
func (h *Handler) handleAcceptHandoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staff, err := middleware.GetStaffFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.engine.AcceptHandoff(ctx, taskID, staff.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.taskResponse(task))
}

// handleEscalateTask raises a task's priority one step.
func (h *Handler) handleEscalateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}
	task, err := h.engine.Escalate(ctx, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.taskResponse(task))
}
