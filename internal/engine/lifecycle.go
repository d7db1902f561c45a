package engine

import (
	"fmt"
	"time"

	"github.com/hotelops/taskrouter/internal/domain"
)

// transitions lists the permitted target statuses per current status.
// The grace period and per-operation guards are enforced on top of this
// table, not inside it.
var transitions = map[domain.TaskStatus][]domain.TaskStatus{
	domain.TaskStatusPending: {
		domain.TaskStatusAssigned,
		domain.TaskStatusCompleted,
		domain.TaskStatusHandoffPending,
		domain.TaskStatusCancelled,
	},
	domain.TaskStatusAssigned: {
		domain.TaskStatusInProgress,
		domain.TaskStatusCompleted,
		domain.TaskStatusHandoffPending,
		domain.TaskStatusCancelled,
	},
	domain.TaskStatusInProgress: {
		domain.TaskStatusCompleted,
		domain.TaskStatusHandoffPending,
		domain.TaskStatusCancelled,
	},
	domain.TaskStatusHandoffPending: {
		domain.TaskStatusHandoffAccepted,
		domain.TaskStatusCompleted,
		domain.TaskStatusCancelled,
	},
	domain.TaskStatusHandoffAccepted: {
		domain.TaskStatusInProgress,
		domain.TaskStatusCompleted,
		domain.TaskStatusCancelled,
	},
	domain.TaskStatusCompleted: {
		domain.TaskStatusPending,
		domain.TaskStatusAssigned,
		domain.TaskStatusInProgress,
		domain.TaskStatusCancelled,
	},
	domain.TaskStatusCancelled: {},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to domain.TaskStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// applyTransition validates and applies a status change in place,
// recording timestamps. The actor may be nil for system transitions.
// Duration override, when non-nil, replaces the computed actual
// duration on completion.
func applyTransition(t *domain.Task, to domain.TaskStatus, actor *domain.Staff, durationOverride *int, now time.Time) error {
	if !to.IsValid() {
		return domain.ErrInvalidStatus
	}
	from := t.Status
	if from == to {
		return fmt.Errorf("%w: task %s is already %s", domain.ErrInvalidTransition, t.ID, to)
	}
	if from == domain.TaskStatusCompleted && t.RemainingGraceSeconds(now) == 0 {
		return fmt.Errorf("%w: task %s completed at %s", domain.ErrGracePeriodExpired, t.ID, t.CompletedAt.Format(time.RFC3339))
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: task %s cannot transition %s -> %s", domain.ErrInvalidTransition, t.ID, from, to)
	}

	switch to {
	case domain.TaskStatusAssigned:
		if t.AssignedTo == nil {
			return fmt.Errorf("%w: task %s has no assignee", domain.ErrInvalidTransition, t.ID)
		}

	case domain.TaskStatusInProgress:
		if from == domain.TaskStatusAssigned || from == domain.TaskStatusHandoffAccepted {
			// Accepting work: only the assignee or a supervisor.
			if actor != nil {
				if !t.IsAssignedTo(actor.ID) && !actor.Role.IsSupervisor() {
					return fmt.Errorf("%w: task %s assigned to someone else", domain.ErrNotAssignee, t.ID)
				}
				t.AcceptedBy = &actor.ID
				acceptedAt := now
				t.AcceptedAt = &acceptedAt
			}
		}

	case domain.TaskStatusCompleted:
		if actor != nil && t.AssignedTo != nil && !t.IsAssignedTo(actor.ID) && !actor.Role.IsSupervisor() {
			return fmt.Errorf("%w: task %s assigned to someone else", domain.ErrNotAssignee, t.ID)
		}
		completedAt := now
		t.CompletedAt = &completedAt
		if actor != nil {
			t.CompletedBy = &actor.ID
		} else {
			t.CompletedBy = nil
		}
		if durationOverride != nil {
			t.ActualDuration = maxInt(0, *durationOverride)
		} else {
			t.ActualDuration = maxInt(0, int(completedAt.Sub(t.CreatedAt).Minutes()))
		}

	case domain.TaskStatusHandoffPending:
		if t.HandoffDepartment == nil {
			return domain.ErrMissingHandoffTarget
		}

	case domain.TaskStatusHandoffAccepted:
		// Only AcceptHandoff lands here, with assignee and department
		// already rewritten by the caller.
		if t.AssignedTo == nil {
			return fmt.Errorf("%w: handoff acceptance without an assignee", domain.ErrInvalidTransition)
		}
	}

	// Reverting away from completed clears the completion record.
	if from == domain.TaskStatusCompleted && to != domain.TaskStatusCompleted {
		t.CompletedAt = nil
		t.CompletedBy = nil
		t.ActualDuration = 0
	}

	t.Status = to
	t.UpdatedAt = now
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
