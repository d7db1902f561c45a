package engine

import (
	"context"
	"time"

	"github.com/hotelops/taskrouter/internal/domain"
)

// TaskStore is the durable task record store. Implementations must
// support optimistic concurrency: Get returns the current version token
// and ConditionalUpdate refuses the write (with
// domain.ErrConcurrentModification) unless the token still matches.
type TaskStore interface {
	Get(ctx context.Context, id string) (*domain.Task, int64, error)
	Insert(ctx context.Context, t *domain.Task) error
	ConditionalUpdate(ctx context.Context, id string, version int64, t *domain.Task) (int64, error)
	Find(ctx context.Context, f TaskFilter) ([]*domain.Task, error)
}

// TaskFilter selects tasks in Find. Zero-value fields do not filter.
type TaskFilter struct {
	Department *domain.Department
	Statuses   []domain.TaskStatus
	AssignedTo *string
	Unassigned bool
	DueBefore  *time.Time
	CreatedBy  *string
}

// Directory resolves staff members and allocation candidates. Candidate
// order is significant: ties in scoring are broken by list position, so
// a directory that rotates its result order produces round-robin
// distribution among equally scored staff.
type Directory interface {
	FindEligibleStaff(ctx context.Context, dept domain.Department) ([]domain.Candidate, error)
	GetStaff(ctx context.Context, id string) (*domain.Staff, error)
}

// Notifier accepts fire-and-forget notification requests. Errors are
// logged and counted by the engine, never propagated as task-operation
// failures.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}
