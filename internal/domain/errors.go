package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound           = errors.New("task not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrGracePeriodExpired     = errors.New("completion grace period expired")
	ErrConcurrentModification = errors.New("task modified concurrently")
	ErrFollowUpExists         = errors.New("follow-up task already created")

	// Allocation errors
	ErrNoEligibleStaff = errors.New("no eligible staff for department")

	// Permission errors
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotAssignee      = errors.New("not the assigned staff member")

	// Staff errors
	ErrStaffNotFound = errors.New("staff member not found")
	ErrStaffInactive = errors.New("staff member is inactive")
	ErrInvalidToken  = errors.New("invalid authentication token")

	// Validation errors
	ErrValidation           = errors.New("validation failed")
	ErrInvalidDepartment    = errors.New("invalid department")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidStatus        = errors.New("invalid task status")
	ErrInvalidPriority      = errors.New("invalid task priority")
	ErrMissingHandoffTarget = errors.New("handoff requires a target department")
)
