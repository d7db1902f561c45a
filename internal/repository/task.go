package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hotelops/taskrouter/internal/domain"
	"github.com/hotelops/taskrouter/internal/engine"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "title", "description", "department", "category", "priority", "status",
	"assigned_to", "assigned_by", "created_by", "assignment_history",
	"room_number", "location", "due_date", "estimated_duration", "actual_duration",
	"required_skills", "accepted_by", "accepted_at", "completed_at", "completed_by",
	"is_urgent", "auto_create_follow_up", "parent_task_id", "follow_up_task_id",
	"handoff_department", "handoff_reason", "handoff_from", "handoff_to",
	"version", "created_at", "updated_at",
}

// PostgresTaskStore implements engine.TaskStore on PostgreSQL with a
// version-column optimistic-concurrency guard.
type PostgresTaskStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(pool *pgxpool.Pool) *PostgresTaskStore {
	return &PostgresTaskStore{pool: pool}
}

// scanTask scans a single row into a Task plus its version token.
func scanTask(row pgx.Row) (*domain.Task, int64, error) {
	var (
		t       domain.Task
		history []byte
		skills  []byte
		version int64
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Department, &t.Category, &t.Priority, &t.Status,
		&t.AssignedTo, &t.AssignedBy, &t.CreatedBy, &history,
		&t.RoomNumber, &t.Location, &t.DueDate, &t.EstimatedDuration, &t.ActualDuration,
		&skills, &t.AcceptedBy, &t.AcceptedAt, &t.CompletedAt, &t.CompletedBy,
		&t.IsUrgent, &t.AutoCreateFollowUp, &t.ParentTaskID, &t.FollowUpTaskID,
		&t.HandoffDepartment, &t.HandoffReason, &t.HandoffFrom, &t.HandoffTo,
		&version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrTaskNotFound
		}
		return nil, 0, fmt.Errorf("scan task: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &t.AssignmentHistory); err != nil {
			return nil, 0, fmt.Errorf("decode assignment history: %w", err)
		}
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &t.RequiredSkills); err != nil {
			return nil, 0, fmt.Errorf("decode required skills: %w", err)
		}
	}
	return &t, version, nil
}

// Get retrieves a task and its version token.
func (s *PostgresTaskStore) Get(ctx context.Context, id string) (*domain.Task, int64, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build Get query: %w", err)
	}
	return scanTask(s.pool.QueryRow(ctx, query, args...))
}

// Insert stores a new task at version 1.
func (s *PostgresTaskStore) Insert(ctx context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	history, err := json.Marshal(t.AssignmentHistory)
	if err != nil {
		return fmt.Errorf("encode assignment history: %w", err)
	}
	skills, err := json.Marshal(t.RequiredSkills)
	if err != nil {
		return fmt.Errorf("encode required skills: %w", err)
	}

	query, args, err := psql.
		Insert("tasks").
		Columns(
			"id", "title", "description", "department", "category", "priority", "status",
			"assigned_to", "assigned_by", "created_by", "assignment_history",
			"room_number", "location", "due_date", "estimated_duration", "actual_duration",
			"required_skills", "is_urgent", "auto_create_follow_up",
			"parent_task_id", "version", "created_at", "updated_at",
		).
		Values(
			t.ID, t.Title, t.Description, t.Department, t.Category, t.Priority, t.Status,
			t.AssignedTo, t.AssignedBy, t.CreatedBy, history,
			t.RoomNumber, t.Location, t.DueDate, t.EstimatedDuration, t.ActualDuration,
			skills, t.IsUrgent, t.AutoCreateFollowUp,
			t.ParentTaskID, 1, t.CreatedAt, t.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Insert query: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ConditionalUpdate writes the task only if the stored version still
// matches, bumping it. A losing writer gets
// domain.ErrConcurrentModification.
func (s *PostgresTaskStore) ConditionalUpdate(ctx context.Context, id string, version int64, t *domain.Task) (int64, error) {
	history, err := json.Marshal(t.AssignmentHistory)
	if err != nil {
		return 0, fmt.Errorf("encode assignment history: %w", err)
	}
	skills, err := json.Marshal(t.RequiredSkills)
	if err != nil {
		return 0, fmt.Errorf("encode required skills: %w", err)
	}

	query, args, err := psql.
		Update("tasks").
		Set("title", t.Title).
		Set("description", t.Description).
		Set("department", t.Department).
		Set("category", t.Category).
		Set("priority", t.Priority).
		Set("status", t.Status).
		Set("assigned_to", t.AssignedTo).
		Set("assigned_by", t.AssignedBy).
		Set("assignment_history", history).
		Set("room_number", t.RoomNumber).
		Set("location", t.Location).
		Set("due_date", t.DueDate).
		Set("estimated_duration", t.EstimatedDuration).
		Set("actual_duration", t.ActualDuration).
		Set("required_skills", skills).
		Set("accepted_by", t.AcceptedBy).
		Set("accepted_at", t.AcceptedAt).
		Set("completed_at", t.CompletedAt).
		Set("completed_by", t.CompletedBy).
		Set("is_urgent", t.IsUrgent).
		Set("auto_create_follow_up", t.AutoCreateFollowUp).
		Set("parent_task_id", t.ParentTaskID).
		Set("follow_up_task_id", t.FollowUpTaskID).
		Set("handoff_department", t.HandoffDepartment).
		Set("handoff_reason", t.HandoffReason).
		Set("handoff_from", t.HandoffFrom).
		Set("handoff_to", t.HandoffTo).
		Set("version", version+1).
		Set("updated_at", t.UpdatedAt).
		Where(sq.Eq{"id": id, "version": version}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build ConditionalUpdate query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a lost version race.
		if _, _, err := s.Get(ctx, id); errors.Is(err, domain.ErrTaskNotFound) {
			return 0, domain.ErrTaskNotFound
		}
		return 0, domain.ErrConcurrentModification
	}
	return version + 1, nil
}

// Find returns all tasks matching the filter, newest first.
func (s *PostgresTaskStore) Find(ctx context.Context, f engine.TaskFilter) ([]*domain.Task, error) {
	q := psql.Select(taskColumns...).From("tasks").OrderBy("created_at DESC")
	if f.Department != nil {
		q = q.Where(sq.Eq{"department": *f.Department})
	}
	if len(f.Statuses) > 0 {
		q = q.Where(sq.Eq{"status": f.Statuses})
	}
	if f.AssignedTo != nil {
		q = q.Where(sq.Eq{"assigned_to": *f.AssignedTo})
	}
	if f.Unassigned {
		q = q.Where("assigned_to IS NULL")
	}
	if f.DueBefore != nil {
		q = q.Where(sq.Lt{"due_date": *f.DueBefore})
	}
	if f.CreatedBy != nil {
		q = q.Where(sq.Eq{"created_by": *f.CreatedBy})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Find query: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, _, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}
