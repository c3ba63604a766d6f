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

const collegeColumns = `c.id, c.name, c.email, c.password_hash, c.address, c.staff_id_key, c.staff_id_file_name,
c.status, c.registered_at, c.approved_at, c.approved_by, c.rejection_reason, c.active, c.updated_at,
(SELECT COUNT(*) FROM departments d WHERE d.college_id = c.id AND d.active = TRUE) AS department_count`

// CollegeRepository persists colleges and their approval state.
type CollegeRepository struct {
	db *sqlx.DB
}

// NewCollegeRepository constructs repository.
func NewCollegeRepository(db *sqlx.DB) *CollegeRepository {
	return &CollegeRepository{db: db}
}

// StatusChange describes the side effects of a status transition.
type StatusChange struct {
	At         time.Time
	AdminID    *string
	Reason     *string
	Deactivate bool
}

// Create inserts a newly registered college.
func (r *CollegeRepository) Create(ctx context.Context, college *models.College) error {
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if college.RegisteredAt.IsZero() {
		college.RegisteredAt = now
	}
	college.UpdatedAt = now

	const query = `INSERT INTO colleges (id, name, email, password_hash, address, staff_id_key, staff_id_file_name, status, registered_at, active, updated_at)
VALUES (:id, :name, :email, :password_hash, :address, :staff_id_key, :staff_id_file_name, :status, :registered_at, :active, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, college); err != nil {
		return writeErr("create college", err)
	}
	return nil
}

// FindByID returns a college by identifier.
func (r *CollegeRepository) FindByID(ctx context.Context, id string) (*models.College, error) {
	return r.findOne(ctx, `SELECT `+collegeColumns+` FROM colleges c WHERE c.id = $1`, id)
}

// FindByEmail returns a college by login email.
func (r *CollegeRepository) FindByEmail(ctx context.Context, email string) (*models.College, error) {
	return r.findOne(ctx, `SELECT `+collegeColumns+` FROM colleges c WHERE c.email = $1`, email)
}

func (r *CollegeRepository) findOne(ctx context.Context, query, arg string) (*models.College, error) {
	var college models.College
	if err := r.db.GetContext(ctx, &college, query, arg); err != nil {
		return nil, findErr("find college", err)
	}
	return &college, nil
}

// ExistsByEmail checks email usage, ignoring excludeID when set.
func (r *CollegeRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM colleges WHERE email = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check college email: %w", err)
	}
	return exists, nil
}

// ExistsByName checks name usage, ignoring excludeID when set.
func (r *CollegeRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM colleges WHERE name = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, fmt.Errorf("check college name: %w", err)
	}
	return exists, nil
}

// ListByStatus returns colleges in status, newest registration first. A
// non-positive limit returns all rows. Approved listings only include active
// colleges.
func (r *CollegeRepository) ListByStatus(ctx context.Context, status models.CollegeStatus, limit int) ([]models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges c WHERE c.status = $1`
	if status == models.CollegeStatusApproved {
		query += ` AND c.active = TRUE`
	}
	query += ` ORDER BY c.registered_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var colleges []models.College
	if err := r.db.SelectContext(ctx, &colleges, query, status); err != nil {
		return nil, fmt.Errorf("list colleges by status: %w", err)
	}
	return colleges, nil
}

// TransitionStatus moves a college from one status to another in a single
// guarded statement. It returns ErrStatusMismatch when the row is not
// currently in from.
func (r *CollegeRepository) TransitionStatus(ctx context.Context, id string, from, to models.CollegeStatus, change StatusChange) error {
	const query = `UPDATE colleges SET
status = $3,
approved_at = CASE WHEN $3 = 'APPROVED' THEN $4 ELSE approved_at END,
approved_by = COALESCE($5, approved_by),
rejection_reason = COALESCE($6, rejection_reason),
active = CASE WHEN $7 THEN FALSE ELSE active END,
updated_at = $4
WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, change.At, change.AdminID, change.Reason, change.Deactivate)
	if err != nil {
		return fmt.Errorf("transition college status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition college status rows: %w", err)
	}
	if affected == 0 {
		return ErrStatusMismatch
	}
	return nil
}

// UpdateProfile persists name, email, address and password hash.
func (r *CollegeRepository) UpdateProfile(ctx context.Context, college *models.College) error {
	college.UpdatedAt = time.Now().UTC()
	const query = `UPDATE colleges SET name = :name, email = :email, address = :address, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, college)
	if err != nil {
		return writeErr("update college", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes a college using exec when provided.
func (r *CollegeRepository) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE colleges SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := execer(r.db, exec).ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate college: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate college rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPending returns the number of registrations awaiting review.
func (r *CollegeRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM colleges WHERE status = 'PENDING'`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count pending colleges: %w", err)
	}
	return total, nil
}
