package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hotelops/taskrouter/internal/domain"
)

// chainRule describes the follow-up task synthesized when a qualifying
// task completes.
type chainRule struct {
	targetDept       domain.Department
	category         domain.Category
	dueIn            time.Duration
	estimatedMinutes int
}

// followUpRule returns the chaining rule for a completed task's
// department and category, if one exists. Kitchen food work spawns a
// room-service run; any maintenance work spawns a housekeeping clean.
func followUpRule(dept domain.Department, cat domain.Category) (chainRule, bool) {
	switch dept {
	case domain.DepartmentKitchen:
		if cat == domain.CategoryFoodPreparation || cat == domain.CategoryCooking {
			return chainRule{
				targetDept:       domain.DepartmentService,
				category:         domain.CategoryRoomService,
				dueIn:            15 * time.Minute,
				estimatedMinutes: 10,
			}, true
		}
	case domain.DepartmentMaintenance:
		return chainRule{
			targetDept:       domain.DepartmentHousekeeping,
			category:         domain.CategoryCleaning,
			dueIn:            30 * time.Minute,
			estimatedMinutes: 20,
		}, true
	}
	return chainRule{}, false
}

// spawnFollowUp creates the chained follow-up for a just-completed
// parent and links both directions. The parent's FollowUpTaskID is
// reserved first under the version token, so a re-triggered completion
// can never create a second follow-up.
func (e *Engine) spawnFollowUp(ctx context.Context, parent *domain.Task) (*domain.Task, error) {
	rule, ok := followUpRule(parent.Department, parent.Category)
	if !ok {
		return nil, nil
	}
	if parent.FollowUpTaskID != nil {
		return nil, domain.ErrFollowUpExists
	}

	now := e.now()
	dueDate := now.Add(rule.dueIn)
	child := &domain.Task{
		ID:                e.newID(),
		Title:             "Follow-up: " + parent.Title,
		Description:       fmt.Sprintf("Generated after completion of %s task %s.", parent.Department, parent.ID),
		Department:        rule.targetDept,
		Category:          rule.category,
		Priority:          parent.Priority,
		Status:            domain.TaskStatusPending,
		CreatedBy:         domain.AssignmentSourceSystem,
		RoomNumber:        parent.RoomNumber,
		Location:          parent.Location,
		DueDate:           &dueDate,
		EstimatedDuration: rule.estimatedMinutes,
		IsUrgent:          parent.IsUrgent,
		ParentTaskID:      &parent.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// Reserve the link on the parent before inserting, so the chain is
	// idempotent under concurrent completion retriggers.
	_, err := e.mutate(ctx, parent.ID, func(p *domain.Task) error {
		if p.FollowUpTaskID != nil {
			return domain.ErrFollowUpExists
		}
		p.FollowUpTaskID = &child.ID
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.Insert(ctx, child); err != nil {
		// Release the reservation so the parent never points at a task
		// that was not created and a later completion can retry.
		if _, rerr := e.mutate(ctx, parent.ID, func(p *domain.Task) error {
			if p.FollowUpTaskID != nil && *p.FollowUpTaskID == child.ID {
				p.FollowUpTaskID = nil
				p.UpdatedAt = now
			}
			return nil
		}); rerr != nil {
			slog.Error("failed to release follow-up reservation", "task_id", parent.ID, "error", rerr)
		}
		return nil, fmt.Errorf("insert follow-up: %w", err)
	}

	e.emit(ctx, domain.Event{
		Type:       domain.EventTaskCreated,
		TaskID:     child.ID,
		Department: child.Department,
		Status:     child.Status,
		OccurredAt: now,
	})
	return child, nil
}
