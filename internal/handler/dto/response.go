package dto

import (
	"time"

	"github.com/hotelops/taskrouter/internal/domain"
)

// TaskResponse is the canonical task representation returned by every
// mutation and read, including the derived grace-period fields.
type TaskResponse struct {
	ID                 string                    `json:"id"`
	Title              string                    `json:"title"`
	Description        string                    `json:"description"`
	Department         string                    `json:"department"`
	Category           string                    `json:"category"`
	Priority           string                    `json:"priority"`
	Status             string                    `json:"status"`
	AssignedTo         *string                   `json:"assigned_to"`
	AssignedBy         *string                   `json:"assigned_by,omitempty"`
	CreatedBy          string                    `json:"created_by"`
	AssignmentHistory  []domain.AssignmentRecord `json:"assignment_history,omitempty"`
	RoomNumber         string                    `json:"room_number,omitempty"`
	Location           string                    `json:"location,omitempty"`
	DueDate            *time.Time                `json:"due_date,omitempty"`
	EstimatedDuration  int                       `json:"estimated_duration,omitempty"`
	ActualDuration     int                       `json:"actual_duration,omitempty"`
	AcceptedBy         *string                   `json:"accepted_by,omitempty"`
	AcceptedAt         *time.Time                `json:"accepted_at,omitempty"`
	CompletedAt        *time.Time                `json:"completed_at,omitempty"`
	CompletedBy        *string                   `json:"completed_by,omitempty"`
	IsUrgent           bool                      `json:"is_urgent"`
	AutoCreateFollowUp bool                      `json:"auto_create_follow_up"`
	ParentTaskID       *string                   `json:"parent_task_id,omitempty"`
	FollowUpTaskID     *string                   `json:"follow_up_task_id,omitempty"`
	HandoffDepartment  *string                   `json:"handoff_department,omitempty"`
	HandoffReason      string                    `json:"handoff_reason,omitempty"`
	CanEdit            bool                      `json:"can_edit"`
	RemainingSeconds   int64                     `json:"remaining_seconds"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// ToTaskResponse converts a domain.Task plus the derived grace-period
// fields into the wire representation.
func ToTaskResponse(t *domain.Task, canEdit bool, remainingSeconds int64) TaskResponse {
	var handoffDept *string
	if t.HandoffDepartment != nil {
		d := string(*t.HandoffDepartment)
		handoffDept = &d
	}
	return TaskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Department:         string(t.Department),
		Category:           string(t.Category),
		Priority:           string(t.Priority),
		Status:             string(t.Status),
		AssignedTo:         t.AssignedTo,
		AssignedBy:         t.AssignedBy,
		CreatedBy:          t.CreatedBy,
		AssignmentHistory:  t.AssignmentHistory,
		RoomNumber:         t.RoomNumber,
		Location:           t.Location,
		DueDate:            t.DueDate,
		EstimatedDuration:  t.EstimatedDuration,
		ActualDuration:     t.ActualDuration,
		AcceptedBy:         t.AcceptedBy,
		AcceptedAt:         t.AcceptedAt,
		CompletedAt:        t.CompletedAt,
		CompletedBy:        t.CompletedBy,
		IsUrgent:           t.IsUrgent,
		AutoCreateFollowUp: t.AutoCreateFollowUp,
		ParentTaskID:       t.ParentTaskID,
		FollowUpTaskID:     t.FollowUpTaskID,
		HandoffDepartment:  handoffDept,
		HandoffReason:      t.HandoffReason,
		CanEdit:            canEdit,
		RemainingSeconds:   remainingSeconds,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}
