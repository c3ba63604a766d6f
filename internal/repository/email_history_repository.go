package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/symbohub-api/internal/models"
)

const emailHistorySelect = `SELECT h.id, h.brochure_id, h.brochure_title, h.department_id, d.name AS department_name,
h.receiver_email, h.subject, h.status, h.sent_at, h.delivered_at, h.read_at, h.error_message
FROM email_history h JOIN departments d ON d.id = h.department_id`

// EmailHistoryRepository persists per-recipient delivery tracking rows.
type EmailHistoryRepository struct {
	db *sqlx.DB
}

// NewEmailHistoryRepository constructs repository.
func NewEmailHistoryRepository(db *sqlx.DB) *EmailHistoryRepository {
	return &EmailHistoryRepository{db: db}
}

// Create inserts a tracking row using exec when provided.
func (r *EmailHistoryRepository) Create(ctx context.Context, exec sqlx.ExtContext, history *models.EmailHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	const query = `INSERT INTO email_history (id, brochure_id, brochure_title, department_id, receiver_email, subject, status, sent_at, error_message)
VALUES (:id, :brochure_id, :brochure_title, :department_id, :receiver_email, :subject, :status, :sent_at, :error_message)`
	if _, err := sqlx.NamedExecContext(ctx, execer(r.db, exec), query, history); err != nil {
		return writeErr("create email history", err)
	}
	return nil
}

// FindByID returns a tracking row.
func (r *EmailHistoryRepository) FindByID(ctx context.Context, id string) (*models.EmailHistory, error) {
	var history models.EmailHistory
	if err := r.db.GetContext(ctx, &history, emailHistorySelect+` WHERE h.id = $1`, id); err != nil {
		return nil, findErr("find email history", err)
	}
	return &history, nil
}

// ListByDepartment returns notifications received by a department, newest first.
func (r *EmailHistoryRepository) ListByDepartment(ctx context.Context, departmentID string, limit int) ([]models.EmailHistory, error) {
	return r.list(ctx, `WHERE h.department_id = $1`, limit, departmentID)
}

// ListByBrochure returns every notification produced by a brochure.
func (r *EmailHistoryRepository) ListByBrochure(ctx context.Context, brochureID string) ([]models.EmailHistory, error) {
	return r.list(ctx, `WHERE h.brochure_id = $1`, 0, brochureID)
}

func (r *EmailHistoryRepository) list(ctx context.Context, where string, limit int, args ...interface{}) ([]models.EmailHistory, error) {
	query := emailHistorySelect + " " + where + ` ORDER BY h.sent_at DESC NULLS LAST`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	history := make([]models.EmailHistory, 0)
	if err := r.db.SelectContext(ctx, &history, query, args...); err != nil {
		if err = listErr("list email history", err); err != nil {
			return nil, err
		}
	}
	return history, nil
}

// MarkDelivered moves a SENT row to DELIVERED.
func (r *EmailHistoryRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE email_history SET status = 'DELIVERED', delivered_at = $2 WHERE id = $1 AND status = 'SENT'`
	return r.transition(ctx, "mark email delivered", query, id, at)
}

// MarkRead moves a DELIVERED row to READ.
func (r *EmailHistoryRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE email_history SET status = 'READ', read_at = $2 WHERE id = $1 AND status = 'DELIVERED'`
	return r.transition(ctx, "mark email read", query, id, at)
}

// MarkFailed moves a PENDING or SENT row to FAILED.
func (r *EmailHistoryRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE email_history SET status = 'FAILED', error_message = $2 WHERE id = $1 AND status IN ('PENDING', 'SENT')`
	return r.transition(ctx, "mark email failed", query, id, message)
}

func (r *EmailHistoryRepository) transition(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return ErrStatusMismatch
	}
	return nil
}
