package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hotelops/taskrouter/internal/domain"
	"github.com/hotelops/taskrouter/internal/metrics"
)

// Allocator selects a staff member for a task and performs the
// assignment transactionally against the task store.
type Allocator struct {
	store       TaskStore
	directory   Directory
	notifier    Notifier
	skillWeight float64
	now         func() time.Time
}

// NewAllocator creates an Allocator. skillWeight scales the skill-match
// term of the score; zero disables it.
func NewAllocator(store TaskStore, directory Directory, notifier Notifier, skillWeight float64) *Allocator {
	return &Allocator{
		store:       store,
		directory:   directory,
		notifier:    notifier,
		skillWeight: skillWeight,
		now:         time.Now,
	}
}

// Allocate assigns the task to the best-scoring eligible candidate. If
// a concurrent writer assigned the task first, the existing assignment
// wins and its staff id is returned.
func (a *Allocator) Allocate(ctx context.Context, taskID string) (string, error) {
	return a.allocate(ctx, taskID, false)
}

// Reallocate reconsiders an existing assignment, replacing the current
// assignee with the best-scoring candidate. Used by escalation.
func (a *Allocator) Reallocate(ctx context.Context, taskID string) (string, error) {
	return a.allocate(ctx, taskID, true)
}

func (a *Allocator) allocate(ctx context.Context, taskID string, reassign bool) (string, error) {
	// One transparent retry on a version conflict; the retry re-reads,
	// it never replays stale data.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		staffID, err := a.tryAllocate(ctx, taskID, reassign)
		if err == nil {
			return staffID, nil
		}
		if !isConflict(err) {
			return "", err
		}
		metrics.AllocationConflicts.Inc()
		lastErr = err
	}
	return "", lastErr
}

func (a *Allocator) tryAllocate(ctx context.Context, taskID string, reassign bool) (string, error) {
	t, version, err := a.store.Get(ctx, taskID)
	if err != nil {
		return "", err
	}
	if !reassign && t.AssignedTo != nil {
		// Lost the race to another writer: the assignment condition is
		// "still unassigned", so the existing assignment stands.
		return *t.AssignedTo, nil
	}
	// Only settled statuses may gain a new assignee. A task mid-handoff
	// or already being worked keeps its owner and its handoff state;
	// the state machine has no edge back to assigned from those.
	switch t.Status {
	case domain.TaskStatusPending, domain.TaskStatusAssigned:
	default:
		return "", fmt.Errorf("%w: task %s cannot be allocated while %s", domain.ErrInvalidTransition, t.ID, t.Status)
	}

	candidates, err := a.directory.FindEligibleStaff(ctx, t.Department)
	if err != nil {
		return "", fmt.Errorf("find eligible staff: %w", err)
	}
	if len(candidates) == 0 {
		metrics.AllocationsFailed.WithLabelValues(string(t.Department)).Inc()
		return "", fmt.Errorf("%w: department %s", domain.ErrNoEligibleStaff, t.Department)
	}

	ranked := Rank(candidates, t, a.skillWeight)
	top := ranked[0]

	now := a.now()
	t.AssignedTo = &top.StaffID
	t.AssignedBy = nil // system assignment
	t.AcceptedBy = nil
	t.AcceptedAt = nil
	t.AssignmentHistory = append(t.AssignmentHistory, domain.AssignmentRecord{
		AssignedTo: top.StaffID,
		AssignedBy: domain.AssignmentSourceSystem,
		Source:     domain.AssignmentSourceSystem,
		Status:     domain.TaskStatusAssigned,
		Timestamp:  now,
	})
	t.Status = domain.TaskStatusAssigned
	t.UpdatedAt = now

	// A cancelled allocation must leave the task unmodified.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := a.store.ConditionalUpdate(ctx, t.ID, version, t); err != nil {
		return "", err
	}

	metrics.AllocationsTotal.WithLabelValues(string(t.Department)).Inc()
	slog.Info("task allocated",
		"task_id", t.ID,
		"staff_id", top.StaffID,
		"department", string(t.Department),
		"score", top.Score,
	)

	// Post-commit, best-effort.
	a.emit(ctx, domain.Event{
		Type:       domain.EventTaskAssigned,
		TaskID:     t.ID,
		Department: t.Department,
		AssignedTo: &top.StaffID,
		Status:     t.Status,
		OccurredAt: now,
	})
	return top.StaffID, nil
}

func (a *Allocator) emit(ctx context.Context, event domain.Event) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, event); err != nil {
		metrics.NotifyFailures.Inc()
		slog.Error("notification failed", "event", string(event.Type), "task_id", event.TaskID, "error", err)
	}
}
