package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hotelops/taskrouter/internal/domain"
)

// staffColumns is the shared list of columns for staff queries.
var staffColumns = []string{
	"id", "name", "department", "role", "token", "is_active",
	"skills", "completion_rate", "created_at",
}

// PostgresDirectory implements engine.Directory on PostgreSQL. Eligible
// candidates come back annotated with live open-task counts; the result
// order rotates one position per lookup so score ties distribute
// round-robin.
type PostgresDirectory struct {
	pool     *pgxpool.Pool
	rotation atomic.Uint64
}

// NewPostgresDirectory creates a new PostgresDirectory.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var (
		s      domain.Staff
		skills []byte
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Department, &s.Role, &s.Token, &s.IsActive,
		&skills, &s.CompletionRate, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStaffNotFound
		}
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &s.Skills); err != nil {
			return nil, fmt.Errorf("decode skills: %w", err)
		}
	}
	return &s, nil
}

// GetStaff retrieves a staff member by id.
func (d *PostgresDirectory) GetStaff(ctx context.Context, id string) (*domain.Staff, error) {
	query, args, err := psql.
		Select(staffColumns...).
		From("staff").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetStaff query: %w", err)
	}
	return scanStaff(d.pool.QueryRow(ctx, query, args...))
}

// GetByToken finds a staff member by authentication token.
func (d *PostgresDirectory) GetByToken(ctx context.Context, token string) (*domain.Staff, error) {
	query, args, err := psql.
		Select(staffColumns...).
		From("staff").
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByToken query: %w", err)
	}
	return scanStaff(d.pool.QueryRow(ctx, query, args...))
}

// FindEligibleStaff returns all active staff of a department with their
// current open-task counts, rotated one position per call.
func (d *PostgresDirectory) FindEligibleStaff(ctx context.Context, dept domain.Department) ([]domain.Candidate, error) {
	query, args, err := psql.
		Select(
			"s.id", "s.name", "s.department", "s.completion_rate", "s.skills",
			`count(t.id) FILTER (WHERE t.status IN ('assigned','in_progress','handoff_pending')) AS open_tasks`,
		).
		From("staff s").
		LeftJoin("tasks t ON t.assigned_to = s.id").
		Where(sq.Eq{"s.department": dept, "s.is_active": true}).
		GroupBy("s.id", "s.name", "s.department", "s.completion_rate", "s.skills", "s.created_at").
		OrderBy("s.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build FindEligibleStaff query: %w", err)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query eligible staff: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			c      domain.Candidate
			skills []byte
		)
		if err := rows.Scan(&c.StaffID, &c.Name, &c.Department, &c.CompletionRate, &skills, &c.OpenTaskCount); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if len(skills) > 0 {
			if err := json.Unmarshal(skills, &c.Skills); err != nil {
				return nil, fmt.Errorf("decode candidate skills: %w", err)
			}
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if len(candidates) > 1 {
		offset := int(d.rotation.Add(1)-1) % len(candidates)
		rotated := make([]domain.Candidate, 0, len(candidates))
		rotated = append(rotated, candidates[offset:]...)
		rotated = append(rotated, candidates[:offset]...)
		candidates = rotated
	}
	return candidates, nil
}
