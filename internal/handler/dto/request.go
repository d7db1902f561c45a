package dto

import "time"

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Department         string             `json:"department"`
	Category           string             `json:"category,omitempty"`
	Priority           string             `json:"priority,omitempty"`
	RoomNumber         string             `json:"room_number,omitempty"`
	Location           string             `json:"location,omitempty"`
	DueDate            *time.Time         `json:"due_date,omitempty"`
	EstimatedDuration  int                `json:"estimated_duration,omitempty"`
	RequiredSkills     map[string]float64 `json:"required_skills,omitempty"`
	IsUrgent           bool               `json:"is_urgent,omitempty"`
	AutoCreateFollowUp bool               `json:"auto_create_follow_up,omitempty"`
	AutoAssign         bool               `json:"auto_assign,omitempty"`
}

// AssignTaskRequest represents the request body for POST /tasks/:id/assign.
type AssignTaskRequest struct {
	StaffID string `json:"staff_id"`
	Notes   string `json:"notes,omitempty"`
}

// UpdateStatusRequest represents the request body for PATCH /tasks/:id/status.
type UpdateStatusRequest struct {
	Status         string `json:"status"`
	Notes          string `json:"notes,omitempty"`
	ActualDuration *int   `json:"actual_duration,omitempty"`
}

// HandoffRequest represents the request body for POST /tasks/:id/handoff.
type HandoffRequest struct {
	Department string `json:"department"`
	Reason     string `json:"reason,omitempty"`
}

// ListTasksFilters represents query parameters for GET /tasks.
type ListTasksFilters struct {
	Status     []string // ?status=pending,assigned
	Department *string  // ?department=kitchen
	AssigneeID *string  // ?assignee=<uuid> or ?assignee=me
	Unassigned bool     // ?unassigned=true
}
