package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/symbohub-api/internal/models"
)

const departmentSelect = `SELECT d.id, d.college_id, c.name AS college_name, c.status AS college_status, d.name, d.email,
d.password_hash, d.active, d.created_at, d.updated_at
FROM departments d JOIN colleges c ON c.id = d.college_id`

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if dept.CreatedAt.IsZero() {
		dept.CreatedAt = now
	}
	dept.UpdatedAt = now

	const query = `INSERT INTO departments (id, college_id, name, email, password_hash, active, created_at, updated_at)
VALUES (:id, :college_id, :name, :email, :password_hash, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, dept); err != nil {
		return writeErr("create department", err)
	}
	return nil
}

// FindByID returns a department joined with its college.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	return r.FindByIDWith(ctx, nil, id)
}

// FindByIDWith is FindByID on an explicit executor, used inside transactions.
func (r *DepartmentRepository) FindByIDWith(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Department, error) {
	var dept models.Department
	if err := sqlx.GetContext(ctx, execer(r.db, exec), &dept, departmentSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, findErr("find department", err)
	}
	return &dept, nil
}

// FindByEmail returns a department by login email.
func (r *DepartmentRepository) FindByEmail(ctx context.Context, email string) (*models.Department, error) {
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, departmentSelect+` WHERE d.email = $1`, email); err != nil {
		return nil, findErr("find department by email", err)
	}
	return &dept, nil
}

// ExistsByEmail checks email usage across all colleges, ignoring excludeID.
func (r *DepartmentRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM departments WHERE email = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check department email: %w", err)
	}
	return exists, nil
}

// ListByCollege returns the active departments of a college, newest first.
func (r *DepartmentRepository) ListByCollege(ctx context.Context, collegeID string, limit int) ([]models.Department, error) {
	query := departmentSelect + ` WHERE d.college_id = $1 AND d.active = TRUE ORDER BY d.created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var depts []models.Department
	if err := r.db.SelectContext(ctx, &depts, query, collegeID); err != nil {
		if err = listErr("list departments by college", err); err != nil {
			return nil, err
		}
	}
	return depts, nil
}

// ListRecent returns the most recently created active departments.
func (r *DepartmentRepository) ListRecent(ctx context.Context, limit int) ([]models.Department, error) {
	query := departmentSelect + ` WHERE d.active = TRUE ORDER BY d.created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var depts []models.Department
	if err := r.db.SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("list recent departments: %w", err)
	}
	return depts, nil
}

// Update persists name, email and password hash.
func (r *DepartmentRepository) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, email = :email, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, dept)
	if err != nil {
		return writeErr("update department", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes a single department.
func (r *DepartmentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE departments SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate department: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate department rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateByCollege soft-deletes every department of a college and returns
// the number of rows touched.
func (r *DepartmentRepository) DeactivateByCollege(ctx context.Context, exec sqlx.ExtContext, collegeID string) (int64, error) {
	const query = `UPDATE departments SET active = FALSE, updated_at = $2 WHERE college_id = $1 AND active = TRUE`
	res, err := execer(r.db, exec).ExecContext(ctx, query, collegeID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate college departments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate college departments rows: %w", err)
	}
	return affected, nil
}
