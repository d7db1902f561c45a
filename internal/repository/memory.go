package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hotelops/taskrouter/internal/domain"
	"github.com/hotelops/taskrouter/internal/engine"
)

// MemoryTaskStore is an in-memory engine.TaskStore with optimistic
// version tokens. It backs tests and single-process deployments; tasks
// are cloned on every boundary crossing so callers never alias stored
// state.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*memoryRecord
}

type memoryRecord struct {
	task    *domain.Task
	version int64
}

// NewMemoryTaskStore creates an empty MemoryTaskStore.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*memoryRecord)}
}

// Get returns a copy of the task and its current version token.
func (s *MemoryTaskStore) Get(ctx context.Context, id string) (*domain.Task, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tasks[id]
	if !ok {
		return nil, 0, domain.ErrTaskNotFound
	}
	return rec.task.Clone(), rec.version, nil
}

// Insert stores a new task at version 1, minting an id if absent.
func (s *MemoryTaskStore) Insert(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.tasks[t.ID]; exists {
		return fmt.Errorf("task %s already exists", t.ID)
	}
	s.tasks[t.ID] = &memoryRecord{task: t.Clone(), version: 1}
	return nil
}

// ConditionalUpdate replaces the task only if the version token still
// matches, then bumps it. A losing writer gets
// domain.ErrConcurrentModification and must re-read.
func (s *MemoryTaskStore) ConditionalUpdate(ctx context.Context, id string, version int64, t *domain.Task) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tasks[id]
	if !ok {
		return 0, domain.ErrTaskNotFound
	}
	if rec.version != version {
		return 0, domain.ErrConcurrentModification
	}
	rec.task = t.Clone()
	rec.version++
	return rec.version, nil
}

// Find returns copies of all tasks matching the filter.
func (s *MemoryTaskStore) Find(ctx context.Context, f engine.TaskFilter) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Task
	for _, rec := range s.tasks {
		if matchFilter(rec.task, f) {
			out = append(out, rec.task.Clone())
		}
	}
	return out, nil
}

func matchFilter(t *domain.Task, f engine.TaskFilter) bool {
	if f.Department != nil && t.Department != *f.Department {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.AssignedTo != nil && !t.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.Unassigned && t.AssignedTo != nil {
		return false
	}
	if f.DueBefore != nil {
		if t.DueDate == nil || !t.DueDate.Before(*f.DueBefore) {
			return false
		}
	}
	if f.CreatedBy != nil && t.CreatedBy != *f.CreatedBy {
		return false
	}
	return true
}

// MemoryDirectory is an in-memory engine.Directory. Open-task counts
// are derived from the backing task store; the candidate order rotates
// per lookup so score ties distribute round-robin.
type MemoryDirectory struct {
	mu       sync.Mutex
	staff    []*domain.Staff
	store    *MemoryTaskStore
	rotation map[domain.Department]int
}

// NewMemoryDirectory creates a directory backed by the given store.
func NewMemoryDirectory(store *MemoryTaskStore) *MemoryDirectory {
	return &MemoryDirectory{
		store:    store,
		rotation: make(map[domain.Department]int),
	}
}

// AddStaff registers a staff member.
func (d *MemoryDirectory) AddStaff(staff *domain.Staff) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.staff = append(d.staff, staff)
}

// GetStaff retrieves a staff member by id.
func (d *MemoryDirectory) GetStaff(ctx context.Context, id string) (*domain.Staff, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.staff {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, domain.ErrStaffNotFound
}

// GetByToken finds a staff member by authentication token.
func (d *MemoryDirectory) GetByToken(ctx context.Context, token string) (*domain.Staff, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.staff {
		if s.Token == token {
			return s, nil
		}
	}
	return nil, domain.ErrStaffNotFound
}

// FindEligibleStaff returns active staff of the department annotated
// with current open-task counts, in an order rotated one position per
// call.
func (d *MemoryDirectory) FindEligibleStaff(ctx context.Context, dept domain.Department) ([]domain.Candidate, error) {
	d.mu.Lock()
	var eligible []*domain.Staff
	for _, s := range d.staff {
		if s.IsActive && s.Department == dept {
			eligible = append(eligible, s)
		}
	}
	offset := 0
	if len(eligible) > 0 {
		offset = d.rotation[dept] % len(eligible)
		d.rotation[dept]++
	}
	d.mu.Unlock()

	candidates := make([]domain.Candidate, 0, len(eligible))
	for i := range eligible {
		s := eligible[(offset+i)%len(eligible)]
		open, err := d.openTaskCount(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, domain.Candidate{
			StaffID:        s.ID,
			Name:           s.Name,
			Department:     s.Department,
			OpenTaskCount:  open,
			CompletionRate: s.CompletionRate,
			Skills:         s.Skills,
		})
	}
	return candidates, nil
}

func (d *MemoryDirectory) openTaskCount(ctx context.Context, staffID string) (int, error) {
	tasks, err := d.store.Find(ctx, engine.TaskFilter{
		AssignedTo: &staffID,
		Statuses: []domain.TaskStatus{
			domain.TaskStatusAssigned,
			domain.TaskStatusInProgress,
			domain.TaskStatusHandoffPending,
		},
	})
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}
