package domain

import "time"

// TaskStatus represents the status of a task in the lifecycle state machine.
type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "pending"
	TaskStatusAssigned        TaskStatus = "assigned"
	TaskStatusInProgress      TaskStatus = "in_progress"
	TaskStatusCompleted       TaskStatus = "completed"
	TaskStatusCancelled       TaskStatus = "cancelled"
	TaskStatusHandoffPending  TaskStatus = "handoff_pending"
	TaskStatusHandoffAccepted TaskStatus = "handoff_accepted"
)

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusCancelled,
		TaskStatusHandoffPending, TaskStatusHandoffAccepted:
		return true
	default:
		return false
	}
}

// CompletionGracePeriod is the window after completion during which a
// completed task may still be edited or reopened.
const CompletionGracePeriod = 15 * time.Minute

// TaskPriority represents the priority level of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// IsValid checks if the priority is one of the allowed values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

// Escalated returns the priority one step up, saturating at urgent.
func (p TaskPriority) Escalated() TaskPriority {
	switch p {
	case TaskPriorityLow:
		return TaskPriorityMedium
	case TaskPriorityMedium:
		return TaskPriorityHigh
	default:
		return TaskPriorityUrgent
	}
}

// Boosting returns true for priorities that add the allocation score boost.
func (p TaskPriority) Boosting() bool {
	return p == TaskPriorityHigh || p == TaskPriorityUrgent
}

// Assignment sources recorded in the assignment history.
const (
	AssignmentSourceSystem = "system"
	AssignmentSourceManual = "manual"
)

// AssignmentRecord is one append-only entry in a task's assignment log.
type AssignmentRecord struct {
	AssignedTo string     `json:"assigned_to"`
	AssignedBy string     `json:"assigned_by"`
	Source     string     `json:"source"`
	Status     TaskStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Task represents a tracked unit of operational work.
type Task struct {
	ID                 string
	Title              string
	Description        string
	Department         Department
	Category           Category
	Priority           TaskPriority
	Status             TaskStatus
	AssignedTo         *string
	AssignedBy         *string
	CreatedBy          string
	AssignmentHistory  []AssignmentRecord
	RoomNumber         string
	Location           string
	DueDate            *time.Time
	EstimatedDuration  int // minutes
	ActualDuration     int // minutes, computed at completion
	RequiredSkills     map[string]float64
	AcceptedBy         *string
	AcceptedAt         *time.Time
	CompletedAt        *time.Time
	CompletedBy        *string
	IsUrgent           bool
	AutoCreateFollowUp bool
	ParentTaskID       *string
	FollowUpTaskID     *string
	HandoffDepartment  *Department
	HandoffReason      string
	HandoffFrom        *string
	HandoffTo          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAssignedTo checks if the task is assigned to the given staff member.
func (t *Task) IsAssignedTo(staffID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == staffID
}

// InFlight returns true for statuses that still represent open work.
func (t *Task) InFlight() bool {
	switch t.Status {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusHandoffPending, TaskStatusHandoffAccepted:
		return true
	default:
		return false
	}
}

// RemainingGraceSeconds returns how many whole seconds of the
// post-completion grace period are left at the given instant. Zero for
// tasks that are not completed or whose window has elapsed.
func (t *Task) RemainingGraceSeconds(now time.Time) int64 {
	if t.Status != TaskStatusCompleted || t.CompletedAt == nil {
		return 0
	}
	remaining := CompletionGracePeriod - now.Sub(*t.CompletedAt)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

// Editable reports whether the task may still be mutated at the given
// instant: any non-completed task, or a completed one inside its grace
// period.
func (t *Task) Editable(now time.Time) bool {
	if t.Status != TaskStatusCompleted {
		return true
	}
	return t.RemainingGraceSeconds(now) > 0
}

// Clone returns a deep copy of the task. Stores hand out clones so
// callers never alias persisted state.
func (t *Task) Clone() *Task {
	c := *t
	c.AssignmentHistory = append([]AssignmentRecord(nil), t.AssignmentHistory...)
	if t.RequiredSkills != nil {
		c.RequiredSkills = make(map[string]float64, len(t.RequiredSkills))
		for k, v := range t.RequiredSkills {
			c.RequiredSkills[k] = v
		}
	}
	c.AssignedTo = cloneStr(t.AssignedTo)
	c.AssignedBy = cloneStr(t.AssignedBy)
	c.AcceptedBy = cloneStr(t.AcceptedBy)
	c.CompletedBy = cloneStr(t.CompletedBy)
	c.ParentTaskID = cloneStr(t.ParentTaskID)
	c.FollowUpTaskID = cloneStr(t.FollowUpTaskID)
	c.HandoffFrom = cloneStr(t.HandoffFrom)
	c.HandoffTo = cloneStr(t.HandoffTo)
	c.DueDate = cloneTime(t.DueDate)
	c.AcceptedAt = cloneTime(t.AcceptedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	if t.HandoffDepartment != nil {
		d := *t.HandoffDepartment
		c.HandoffDepartment = &d
	}
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
