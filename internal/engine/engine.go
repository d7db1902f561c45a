// Package engine implements the staff task assignment and workflow
// core: workload-aware allocation, the task lifecycle state machine
// with its post-completion edit lock, handoff and escalation, and
// cross-department workflow chaining. All mutations go through
// optimistic read-validate-write cycles against the task store; side
// effects (notifications, follow-up creation) run strictly post-commit
// and never fail the triggering mutation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/taskrouter/internal/domain"
	"github.com/hotelops/taskrouter/internal/metrics"
)

// Engine coordinates task operations against the store, directory and
// notifier collaborators.
type Engine struct {
	store     TaskStore
	directory Directory
	notifier  Notifier
	allocator *Allocator

	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used by tests to pin
// the grace-period window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.allocator.now = now
	}
}

// WithSkillWeight sets the skill-match weight used by the allocator.
func WithSkillWeight(w float64) Option {
	return func(e *Engine) { e.allocator.skillWeight = w }
}

// New creates an Engine.
func New(store TaskStore, directory Directory, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		directory: directory,
		notifier:  notifier,
		allocator: NewAllocator(store, directory, notifier, 0),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocator exposes the engine's allocator for callers that trigger
// allocation directly.
func (e *Engine) Allocator() *Allocator {
	return e.allocator
}

// CreateTaskInput carries boundary input for CreateTask. Department,
// category, and priority arrive raw and are normalized exactly once.
type CreateTaskInput struct {
	Title              string
	Description        string
	Department         string
	Category           string
	Priority           string
	RoomNumber         string
	Location           string
	DueDate            *time.Time
	EstimatedDuration  int
	RequiredSkills     map[string]float64
	IsUrgent           bool
	AutoCreateFollowUp bool
	AutoAssign         bool
	CreatedBy          string
}

// CreateTask validates and persists a new pending task. With AutoAssign
// set the allocator runs after the insert; an allocation failure (for
// example no eligible staff) leaves the task pending and unassigned and
// is not a creation failure.
func (e *Engine) CreateTask(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	dept, err := domain.NormalizeDepartment(in.Department)
	if err != nil {
		return nil, err
	}
	category, err := domain.NormalizeCategory(in.Category, dept)
	if err != nil {
		return nil, err
	}
	priority, err := domain.NormalizePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	if in.IsUrgent {
		priority = domain.TaskPriorityUrgent
	}

	now := e.now()
	t := &domain.Task{
		ID:                 e.newID(),
		Title:              in.Title,
		Description:        in.Description,
		Department:         dept,
		Category:           category,
		Priority:           priority,
		Status:             domain.TaskStatusPending,
		CreatedBy:          in.CreatedBy,
		RoomNumber:         in.RoomNumber,
		Location:           in.Location,
		DueDate:            in.DueDate,
		EstimatedDuration:  in.EstimatedDuration,
		RequiredSkills:     in.RequiredSkills,
		IsUrgent:           in.IsUrgent,
		AutoCreateFollowUp: in.AutoCreateFollowUp,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.store.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	slog.Info("task created",
		"task_id", t.ID,
		"department", string(t.Department),
		"category", string(t.Category),
		"priority", string(t.Priority),
	)
	e.emit(ctx, domain.Event{
		Type:       domain.EventTaskCreated,
		TaskID:     t.ID,
		Department: t.Department,
		ActorID:    &in.CreatedBy,
		Status:     t.Status,
		OccurredAt: now,
	})

	if in.AutoAssign {
		if _, err := e.allocator.Allocate(ctx, t.ID); err != nil {
			slog.Warn("auto-assignment failed, task remains pending",
				"task_id", t.ID, "error", err)
		}
		return e.GetTask(ctx, t.ID)
	}
	return t, nil
}

// AssignTask assigns a task to a specific staff member by explicit
// manager/staff action.
func (e *Engine) AssignTask(ctx context.Context, taskID, staffID, actorID, notes string) (*domain.Task, error) {
	staff, err := e.activeStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	t, err := e.mutate(ctx, taskID, func(t *domain.Task) error {
		if !t.Editable(now) {
			return fmt.Errorf("%w: task %s", domain.ErrGracePeriodExpired, t.ID)
		}
		switch t.Status {
		case domain.TaskStatusPending, domain.TaskStatusAssigned:
		default:
			return fmt.Errorf("%w: task %s cannot be assigned while %s", domain.ErrInvalidTransition, t.ID, t.Status)
		}
		t.AssignedTo = &staff.ID
		t.AssignedBy = &actorID
		t.AcceptedBy = nil
		t.AcceptedAt = nil
		t.AssignmentHistory = append(t.AssignmentHistory, domain.AssignmentRecord{
			AssignedTo: staff.ID,
			AssignedBy: actorID,
			Source:     domain.AssignmentSourceManual,
			Status:     domain.TaskStatusAssigned,
			Notes:      notes,
			Timestamp:  now,
		})
		t.Status = domain.TaskStatusAssigned
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.TaskStatusAssigned)).Inc()
	slog.Info("task assigned", "task_id", t.ID, "staff_id", staff.ID, "assigned_by", actorID)
	e.emit(ctx, domain.Event{
		Type:       domain.EventTaskAssigned,
		TaskID:     t.ID,
		Department: t.Department,
		ActorID:    &actorID,
		AssignedTo: &staff.ID,
		Status:     t.Status,
		Notes:      notes,
		OccurredAt: now,
	})
	return t, nil
}

// UpdateStatusInput carries boundary input for UpdateStatus.
type UpdateStatusInput struct {
	Status         string
	Notes          string
	ActualDuration *int // minutes; overrides the computed duration on completion
}

// UpdateStatus applies a lifecycle transition on behalf of an actor. A
// rejected transition leaves the persisted task untouched. A transition
// into completed may trigger workflow chaining post-commit.
func (e *Engine) UpdateStatus(ctx context.Context, taskID, actorID string, in UpdateStatusInput) (*domain.Task, error) {
	newStatus, err := domain.NormalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if newStatus == domain.TaskStatusHandoffAccepted {
		return nil, fmt.Errorf("%w: handoff acceptance goes through AcceptHandoff", domain.ErrInvalidTransition)
	}
	actor, err := e.activeStaff(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var oldStatus domain.TaskStatus
	now := e.now()
	t, err := e.mutate(ctx, taskID, func(t *domain.Task) error {
		oldStatus = t.Status
		return applyTransition(t, newStatus, actor, in.ActualDuration, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(newStatus)).Inc()
	slog.Info("task status changed",
		"task_id", t.ID,
		"old_status", string(oldStatus),
		"new_status", string(newStatus),
		"actor_id", actorID,
	)
	e.emit(ctx, domain.Event{
		Type:       eventForStatus(newStatus),
		TaskID:     t.ID,
		Department: t.Department,
		ActorID:    &actorID,
		AssignedTo: t.AssignedTo,
		Status:     t.Status,
		Notes:      in.Notes,
		OccurredAt: now,
	})

	if newStatus == domain.TaskStatusCompleted && oldStatus != domain.TaskStatusCompleted {
		e.chainFollowUp(ctx, t)
	}
	return t, nil
}

// chainFollowUp runs the workflow chainer post-commit. Failures are
// recovered locally: the parent's completion already stands.
func (e *Engine) chainFollowUp(ctx context.Context, parent *domain.Task) {
	if !parent.AutoCreateFollowUp {
		return
	}
	child, err := e.spawnFollowUp(ctx, parent)
	switch {
	case errors.Is(err, domain.ErrFollowUpExists):
		// Already chained; re-triggered completion is a no-op.
	case err != nil:
		metrics.ChainFailures.Inc()
		slog.Error("workflow chaining failed", "task_id", parent.ID, "error", err)
	case child != nil:
		metrics.FollowUpsCreated.Inc()
		parent.FollowUpTaskID = &child.ID
		slog.Info("follow-up task created",
			"parent_task_id", parent.ID,
			"task_id", child.ID,
			"department", string(child.Department),
		)
	}
}

// RequestHandoff marks a task for transfer to another department.
func (e *Engine) RequestHandoff(ctx context.Context, taskID, targetDepartment, actorID, reason string) (*domain.Task, error) {
	dept, err := domain.NormalizeDepartment(targetDepartment)
	if err != nil {
		return nil, err
	}
	actor, err := e.activeStaff(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	t, err := e.mutate(ctx, taskID, func(t *domain.Task) error {
		if dept == t.Department {
			return fmt.Errorf("%w: task already belongs to %s", domain.ErrValidation, dept)
		}
		t.HandoffDepartment = &dept
		t.HandoffReason = reason
		if t.AssignedTo != nil {
			t.HandoffFrom = cloneID(t.AssignedTo)
		} else {
			t.HandoffFrom = &actor.ID
		}
		return applyTransition(t, domain.TaskStatusHandoffPending, actor, nil, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.TaskStatusHandoffPending)).Inc()
	slog.Info("handoff requested",
		"task_id", t.ID,
		"target_department", string(dept),
		"actor_id", actorID,
	)
	e.emit(ctx, domain.Event{
		Type:       domain.EventTaskHandoff,
		TaskID:     t.ID,
		Department: t.Department,
		ActorID:    &actorID,
		Status:     t.Status,
		Notes:      reason,
		OccurredAt: now,
	})
	return t, nil
}

// AcceptHandoff lets an eligible staff member in the target department
// take over a pending handoff. Ownership and department are rewritten
// together and the task re-enters in_progress under the new owner.
func (e *Engine) AcceptHandoff(ctx context.Context, taskID, actorID string) (*domain.Task, error) {
	actor, err := e.activeStaff(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	t, err := e.mutate(ctx, taskID, func(t *domain.Task) error {
		if t.Status != domain.TaskStatusHandoffPending {
			return fmt.Errorf("%w: task %s has no pending handoff", domain.ErrInvalidTransition, t.ID)
		}
		if t.HandoffDepartment == nil {
			return domain.ErrMissingHandoffTarget
		}
		if actor.Department != *t.HandoffDepartment && !actor.Role.IsSupervisor() {
			return fmt.Errorf("%w: staff %s is not in department %s", domain.ErrPermissionDenied, actor.ID, *t.HandoffDepartment)
		}

		t.Department = *t.HandoffDepartment
		t.AssignedTo = &actor.ID
		t.AssignedBy = &actor.ID
		t.HandoffTo = &actor.ID
		t.AssignmentHistory = append(t.AssignmentHistory, domain.AssignmentRecord{
			AssignedTo: actor.ID,
			AssignedBy: actor.ID,
			Source:     domain.AssignmentSourceManual,
			Status:     domain.TaskStatusHandoffAccepted,
			Notes:      t.HandoffReason,
			Timestamp:  now,
		})
		if err := applyTransition(t, domain.TaskStatusHandoffAccepted, actor, nil, now); err != nil {
			return err
		}
		if err := applyTransition(t, domain.TaskStatusInProgress, actor, nil, now); err != nil {
			return err
		}
		// The handoff request is consumed once the task re-enters
		// in_progress under the new owner.
		t.HandoffDepartment = nil
		t.HandoffReason = ""
		t.HandoffFrom = nil
		t.HandoffTo = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.TaskStatusHandoffAccepted)).Inc()
	slog.Info("handoff accepted", "task_id", t.ID, "staff_id", actorID, "department", string(t.Department))
	e.emit(ctx, domain.Event{
		Type:       domain.EventHandoffAccepted,
		TaskID:     t.ID,
		Department: t.Department,
		ActorID:    &actorID,
		AssignedTo: t.AssignedTo,
		Status:     t.Status,
		OccurredAt: now,
	})
	return t, nil
}

// Escalate raises the task's priority one step, saturating at urgent.
// When the resulting priority is urgent the allocator reconsiders the
// assignment; a failed reallocation does not undo the priority raise.
func (e *Engine) Escalate(ctx context.Context, taskID string) (*domain.Task, error) {
	now := e.now()
	var oldPriority domain.TaskPriority
	t, err := e.mutate(ctx, taskID, func(t *domain.Task) error {
		if !t.InFlight() {
			return fmt.Errorf("%w: task %s is %s", domain.ErrInvalidTransition, t.ID, t.Status)
		}
		oldPriority = t.Priority
		t.Priority = t.Priority.Escalated()
		if t.Priority == domain.TaskPriorityUrgent {
			t.IsUrgent = true
		}
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EscalationsTotal.Inc()
	slog.Info("task escalated",
		"task_id", t.ID,
		"old_priority", string(oldPriority),
		"new_priority", string(t.Priority),
	)
	e.emit(ctx, domain.Event{
		Type:       domain.EventTaskEscalated,
		TaskID:     t.ID,
		Department: t.Department,
		AssignedTo: t.AssignedTo,
		Status:     t.Status,
		OccurredAt: now,
	})

	if t.Priority == domain.TaskPriorityUrgent {
		if _, err := e.allocator.Reallocate(ctx, t.ID); err != nil {
			slog.Warn("escalation reallocation failed", "task_id", t.ID, "error", err)
		}
		return e.GetTask(ctx, t.ID)
	}
	return t, nil
}

// CanEdit reports whether the task may still be edited and how many
// seconds of its post-completion grace period remain. Pure query.
func (e *Engine) CanEdit(t *domain.Task) (bool, int64) {
	now := e.now()
	return t.Editable(now), t.RemainingGraceSeconds(now)
}

// GetTask fetches a task by id.
func (e *Engine) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	t, _, err := e.store.Get(ctx, taskID)
	return t, err
}

// ListTasks returns tasks matching the filter, restricted to what the
// actor may see: staff see their own department's tasks plus their own
// assignments anywhere; managers and admins see everything.
func (e *Engine) ListTasks(ctx context.Context, actor *domain.Staff, f TaskFilter) ([]*domain.Task, error) {
	tasks, err := e.store.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role.IsSupervisor() {
		return tasks, nil
	}
	visible := tasks[:0]
	for _, t := range tasks {
		if t.Department == actor.Department || t.IsAssignedTo(actor.ID) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// SweepEscalations escalates every overdue in-flight task. Invoked by
// the sweep-escalations command. Returns the number of tasks escalated.
func (e *Engine) SweepEscalations(ctx context.Context) (int, error) {
	now := e.now()
	tasks, err := e.store.Find(ctx, TaskFilter{
		Statuses: []domain.TaskStatus{
			domain.TaskStatusPending,
			domain.TaskStatusAssigned,
			domain.TaskStatusInProgress,
		},
		DueBefore: &now,
	})
	if err != nil {
		return 0, fmt.Errorf("find overdue tasks: %w", err)
	}

	count := 0
	var errs []error
	for _, t := range tasks {
		if _, err := e.Escalate(ctx, t.ID); err != nil {
			slog.Error("failed to escalate overdue task", "task_id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
			continue
		}
		count++
	}
	slog.Info("escalation sweep finished", "total", len(tasks), "escalated", count, "failed", len(errs))
	if len(errs) > 0 {
		return count, fmt.Errorf("escalated %d/%d overdue tasks: %v", count, len(tasks), errs)
	}
	return count, nil
}

// mutate runs a read-validate-write cycle against the store with one
// transparent retry on a version conflict. The retry re-reads; it never
// replays stale data. Returns the committed task.
func (e *Engine) mutate(ctx context.Context, taskID string, fn func(t *domain.Task) error) (*domain.Task, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		t, version, err := e.store.Get(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if err := fn(t); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := e.store.ConditionalUpdate(ctx, taskID, version, t); err != nil {
			if isConflict(err) {
				metrics.WriteConflicts.Inc()
				lastErr = err
				continue
			}
			return nil, err
		}
		return t, nil
	}
	return nil, lastErr
}

// activeStaff fetches a staff member and verifies they are active.
func (e *Engine) activeStaff(ctx context.Context, staffID string) (*domain.Staff, error) {
	staff, err := e.directory.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !staff.IsActive {
		return nil, domain.ErrStaffInactive
	}
	return staff, nil
}

func (e *Engine) emit(ctx context.Context, event domain.Event) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event); err != nil {
		metrics.NotifyFailures.Inc()
		slog.Error("notification failed", "event", string(event.Type), "task_id", event.TaskID, "error", err)
	}
}

// eventForStatus maps a transition target to its notification type.
func eventForStatus(s domain.TaskStatus) domain.EventType {
	switch s {
	case domain.TaskStatusAssigned:
		return domain.EventTaskAssigned
	case domain.TaskStatusInProgress:
		return domain.EventTaskAccepted
	case domain.TaskStatusCompleted:
		return domain.EventTaskCompleted
	case domain.TaskStatusHandoffPending:
		return domain.EventTaskHandoff
	case domain.TaskStatusHandoffAccepted:
		return domain.EventHandoffAccepted
	default:
		return domain.EventTaskUpdated
	}
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConcurrentModification)
}

func cloneID(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
