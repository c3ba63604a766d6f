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

const brochureSelect = `SELECT b.id, b.department_id, b.title, b.description, b.file_key, b.file_name, b.file_size,
b.file_type, b.is_public, b.uploaded_at, d.name AS department_name, d.college_id, c.name AS college_name,
(SELECT COUNT(*) FROM email_history h WHERE h.brochure_id = b.id) AS email_sent_count
FROM brochures b
JOIN departments d ON d.id = b.department_id
JOIN colleges c ON c.id = d.college_id`

// BrochureRepository persists brochures. Lists are always newest first.
type BrochureRepository struct {
	db *sqlx.DB
}

// NewBrochureRepository constructs repository.
func NewBrochureRepository(db *sqlx.DB) *BrochureRepository {
	return &BrochureRepository{db: db}
}

// Create inserts a brochure using exec when provided.
func (r *BrochureRepository) Create(ctx context.Context, exec sqlx.ExtContext, brochure *models.Brochure) error {
	if brochure.ID == "" {
		brochure.ID = uuid.NewString()
	}
	if brochure.UploadedAt.IsZero() {
		brochure.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO brochures (id, department_id, title, description, file_key, file_name, file_size, file_type, is_public, uploaded_at)
VALUES (:id, :department_id, :title, :description, :file_key, :file_name, :file_size, :file_type, :is_public, :uploaded_at)`
	if _, err := sqlx.NamedExecContext(ctx, execer(r.db, exec), query, brochure); err != nil {
		return writeErr("create brochure", err)
	}
	return nil
}

// FindByID returns a brochure with its owner details.
func (r *BrochureRepository) FindByID(ctx context.Context, id string) (*models.Brochure, error) {
	var brochure models.Brochure
	if err := r.db.GetContext(ctx, &brochure, brochureSelect+` WHERE b.id = $1`, id); err != nil {
		return nil, findErr("find brochure", err)
	}
	return &brochure, nil
}

// ListByDepartment returns every brochure uploaded by a department.
func (r *BrochureRepository) ListByDepartment(ctx context.Context, departmentID string, limit int) ([]models.Brochure, error) {
	return r.list(ctx, `WHERE b.department_id = $1`, limit, departmentID)
}

// ListByCollege returns every brochure uploaded by departments of a college.
func (r *BrochureRepository) ListByCollege(ctx context.Context, collegeID string, limit int) ([]models.Brochure, error) {
	return r.list(ctx, `WHERE d.college_id = $1`, limit, collegeID)
}

// ListPublicByCollege returns public brochures of a college.
func (r *BrochureRepository) ListPublicByCollege(ctx context.Context, collegeID string) ([]models.Brochure, error) {
	return r.list(ctx, `WHERE d.college_id = $1 AND b.is_public = TRUE`, 0, collegeID)
}

// ListPublicByDepartment returns public brochures of a department.
func (r *BrochureRepository) ListPublicByDepartment(ctx context.Context, departmentID string) ([]models.Brochure, error) {
	return r.list(ctx, `WHERE b.department_id = $1 AND b.is_public = TRUE`, 0, departmentID)
}

func (r *BrochureRepository) list(ctx context.Context, where string, limit int, args ...interface{}) ([]models.Brochure, error) {
	query := brochureSelect + " " + where + ` ORDER BY b.uploaded_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	brochures := make([]models.Brochure, 0)
	if err := r.db.SelectContext(ctx, &brochures, query, args...); err != nil {
		if err = listErr("list brochures", err); err != nil {
			return nil, err
		}
	}
	return brochures, nil
}

// Delete removes the brochure row; email history rows cascade.
func (r *BrochureRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM brochures WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete brochure: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete brochure rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
