package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelops/taskrouter/internal/domain"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.TaskStatus
		ok       bool
	}{
		{domain.TaskStatusPending, domain.TaskStatusAssigned, true},
		{domain.TaskStatusPending, domain.TaskStatusCompleted, true},
		{domain.TaskStatusPending, domain.TaskStatusInProgress, false},
		{domain.TaskStatusAssigned, domain.TaskStatusInProgress, true},
		{domain.TaskStatusAssigned, domain.TaskStatusHandoffPending, true},
		{domain.TaskStatusInProgress, domain.TaskStatusCompleted, true},
		{domain.TaskStatusInProgress, domain.TaskStatusAssigned, false},
		{domain.TaskStatusHandoffPending, domain.TaskStatusHandoffAccepted, true},
		{domain.TaskStatusHandoffPending, domain.TaskStatusInProgress, false},
		{domain.TaskStatusHandoffAccepted, domain.TaskStatusInProgress, true},
		{domain.TaskStatusCompleted, domain.TaskStatusInProgress, true},
		{domain.TaskStatusCompleted, domain.TaskStatusPending, true},
		{domain.TaskStatusCompleted, domain.TaskStatusHandoffPending, false},
		{domain.TaskStatusCancelled, domain.TaskStatusPending, false},
		{domain.TaskStatusCancelled, domain.TaskStatusCompleted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestApplyTransition_SameStatusRejected(t *testing.T) {
	now := time.Now()
	task := &domain.Task{ID: "t1", Status: domain.TaskStatusPending, CreatedAt: now}

	err := applyTransition(task, domain.TaskStatusPending, nil, nil, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApplyTransition_AssignedRequiresAssignee(t *testing.T) {
	now := time.Now()
	task := &domain.Task{ID: "t1", Status: domain.TaskStatusPending, CreatedAt: now}

	err := applyTransition(task, domain.TaskStatusAssigned, nil, nil, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
}

func TestApplyTransition_AcceptRecordsActor(t *testing.T) {
	now := time.Now()
	staffID := "staff-1"
	actor := &domain.Staff{ID: staffID, Role: domain.StaffRoleStaff}
	task := &domain.Task{
		ID:         "t1",
		Status:     domain.TaskStatusAssigned,
		AssignedTo: &staffID,
		CreatedAt:  now.Add(-5 * time.Minute),
	}

	require.NoError(t, applyTransition(task, domain.TaskStatusInProgress, actor, nil, now))
	require.NotNil(t, task.AcceptedBy)
	assert.Equal(t, staffID, *task.AcceptedBy)
	require.NotNil(t, task.AcceptedAt)
	assert.Equal(t, now, *task.AcceptedAt)
}

func TestApplyTransition_AcceptByNonAssignee(t *testing.T) {
	now := time.Now()
	assignee := "staff-1"
	actor := &domain.Staff{ID: "staff-2", Role: domain.StaffRoleStaff}
	task := &domain.Task{ID: "t1", Status: domain.TaskStatusAssigned, AssignedTo: &assignee, CreatedAt: now}

	err := applyTransition(task, domain.TaskStatusInProgress, actor, nil, now)
	assert.ErrorIs(t, err, domain.ErrNotAssignee)
	assert.Equal(t, domain.TaskStatusAssigned, task.Status)
}

func TestApplyTransition_SupervisorMayAccept(t *testing.T) {
	now := time.Now()
	assignee := "staff-1"
	manager := &domain.Staff{ID: "mgr-1", Role: domain.StaffRoleManager}
	task := &domain.Task{ID: "t1", Status: domain.TaskStatusAssigned, AssignedTo: &assignee, CreatedAt: now}

	require.NoError(t, applyTransition(task, domain.TaskStatusInProgress, manager, nil, now))
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
}

func TestApplyTransition_CompletionDuration(t *testing.T) {
	created := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	now := created.Add(42 * time.Minute)
	staffID := "staff-1"
	actor := &domain.Staff{ID: staffID, Role: domain.StaffRoleStaff}
	task := &domain.Task{
		ID:         "t1",
		Status:     domain.TaskStatusInProgress,
		AssignedTo: &staffID,
		CreatedAt:  created,
	}

	require.NoError(t, applyTransition(task, domain.TaskStatusCompleted, actor, nil, now))
	assert.Equal(t, 42, task.ActualDuration)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)
	require.NotNil(t, task.CompletedBy)
	assert.Equal(t, staffID, *task.CompletedBy)
}

func TestApplyTransition_CompletionDurationOverride(t *testing.T) {
	now := time.Now()
	staffID := "staff-1"
	actor := &domain.Staff{ID: staffID, Role: domain.StaffRoleStaff}
	task := &domain.Task{
		ID:         "t1",
		Status:     domain.TaskStatusInProgress,
		AssignedTo: &staffID,
		CreatedAt:  now.Add(-time.Hour),
	}

	override := 25
	require.NoError(t, applyTransition(task, domain.TaskStatusCompleted, actor, &override, now))
	assert.Equal(t, 25, task.ActualDuration)

	// A negative override clamps to zero.
	task2 := &domain.Task{ID: "t2", Status: domain.TaskStatusInProgress, AssignedTo: &staffID, CreatedAt: now}
	negative := -5
	require.NoError(t, applyTransition(task2, domain.TaskStatusCompleted, actor, &negative, now))
	assert.Equal(t, 0, task2.ActualDuration)
}

func TestApplyTransition_ReopenWithinGrace(t *testing.T) {
	now := time.Now()
	completedAt := now.Add(-10 * time.Minute)
	staffID := "staff-1"
	actor := &domain.Staff{ID: staffID, Role: domain.StaffRoleStaff}
	task := &domain.Task{
		ID:             "t1",
		Status:         domain.TaskStatusCompleted,
		AssignedTo:     &staffID,
		CompletedAt:    &completedAt,
		CompletedBy:    &staffID,
		ActualDuration: 30,
		CreatedAt:      now.Add(-time.Hour),
	}

	require.NoError(t, applyTransition(task, domain.TaskStatusInProgress, actor, nil, now))
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.CompletedBy)
	assert.Zero(t, task.ActualDuration)
}

func TestApplyTransition_GracePeriodExpired(t *testing.T) {
	now := time.Now()
	completedAt := now.Add(-20 * time.Minute)
	staffID := "staff-1"
	actor := &domain.Staff{ID: staffID, Role: domain.StaffRoleStaff}
	task := &domain.Task{
		ID:          "t1",
		Status:      domain.TaskStatusCompleted,
		AssignedTo:  &staffID,
		CompletedAt: &completedAt,
		CreatedAt:   now.Add(-time.Hour),
	}

	err := applyTransition(task, domain.TaskStatusInProgress, actor, nil, now)
	assert.ErrorIs(t, err, domain.ErrGracePeriodExpired)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, completedAt, *task.CompletedAt)
}

func TestApplyTransition_GraceBoundaryExact(t *testing.T) {
	now := time.Now()
	staffID := "staff-1"
	actor := &domain.Staff{ID: staffID, Role: domain.StaffRoleStaff}

	// One second inside the window still allows the transition.
	inside := now.Add(-domain.CompletionGracePeriod + time.Second)
	task := &domain.Task{ID: "t1", Status: domain.TaskStatusCompleted, AssignedTo: &staffID, CompletedAt: &inside, CreatedAt: now.Add(-time.Hour)}
	assert.NoError(t, applyTransition(task, domain.TaskStatusInProgress, actor, nil, now))

	// Exactly at the boundary the window is closed.
	boundary := now.Add(-domain.CompletionGracePeriod)
	task2 := &domain.Task{ID: "t2", Status: domain.TaskStatusCompleted, AssignedTo: &staffID, CompletedAt: &boundary, CreatedAt: now.Add(-time.Hour)}
	assert.ErrorIs(t, applyTransition(task2, domain.TaskStatusInProgress, actor, nil, now), domain.ErrGracePeriodExpired)
}

func TestApplyTransition_HandoffPendingRequiresTarget(t *testing.T) {
	now := time.Now()
	staffID := "staff-1"
	task := &domain.Task{ID: "t1", Status: domain.TaskStatusAssigned, AssignedTo: &staffID, CreatedAt: now}

	err := applyTransition(task, domain.TaskStatusHandoffPending, nil, nil, now)
	assert.ErrorIs(t, err, domain.ErrMissingHandoffTarget)

	dept := domain.DepartmentService
	task.HandoffDepartment = &dept
	assert.NoError(t, applyTransition(task, domain.TaskStatusHandoffPending, nil, nil, now))
}
