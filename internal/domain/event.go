package domain

import "time"

// EventType identifies a task notification emitted after a mutation.
type EventType string

const (
	EventTaskCreated     EventType = "task_created"
	EventTaskAssigned    EventType = "task_assigned"
	EventTaskAccepted    EventType = "task_accepted"
	EventTaskCompleted   EventType = "task_completed"
	EventTaskHandoff     EventType = "task_handoff"
	EventHandoffAccepted EventType = "handoff_accepted"
	EventTaskUpdated     EventType = "task_updated"
	EventTaskEscalated   EventType = "task_escalated"
)

// Event is the fire-and-forget notification payload handed to the
// notifier gateway after a committed mutation. Delivery failures never
// roll back the mutation that produced the event.
type Event struct {
	Type       EventType  `json:"type"`
	TaskID     string     `json:"task_id"`
	Department Department `json:"department"`
	ActorID    *string    `json:"actor_id,omitempty"` // nil for system events
	AssignedTo *string    `json:"assigned_to,omitempty"`
	Status     TaskStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
