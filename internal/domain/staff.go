package domain

import "time"

// StaffRole controls what operations a staff member may perform.
type StaffRole string

const (
	StaffRoleStaff   StaffRole = "staff"
	StaffRoleManager StaffRole = "manager"
	StaffRoleAdmin   StaffRole = "admin"
)

// IsSupervisor returns true for roles allowed to act on any task.
func (r StaffRole) IsSupervisor() bool {
	return r == StaffRoleManager || r == StaffRoleAdmin
}

// Staff represents a staff member registered in the system.
type Staff struct {
	ID             string
	Name           string
	Department     Department
	Role           StaffRole
	Token          string
	IsActive       bool
	Skills         map[string]float64
	CompletionRate float64
	CreatedAt      time.Time
}

// Candidate is a staff member considered for allocation, annotated with
// workload and skill metrics. Produced by the directory, never persisted.
type Candidate struct {
	StaffID        string
	Name           string
	Department     Department
	OpenTaskCount  int
	CompletionRate float64
	Skills         map[string]float64
}
