package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/symbohub-api/internal/models"
)

const adminColumns = `id, username, email, password_hash, full_name, role, active, last_login, created_at`

// AdminRepository provides database access for platform administrators.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername returns an admin by username.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE username = $1 LIMIT 1`, username)
}

// FindByEmail returns an admin by email, which is the token subject.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1 LIMIT 1`, email)
}

func (r *AdminRepository) findOne(ctx context.Context, query string, arg string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, arg); err != nil {
		return nil, findErr("find admin", err)
	}
	return &admin, nil
}

// ListActive returns every active admin.
func (r *AdminRepository) ListActive(ctx context.Context) ([]models.Admin, error) {
	const query = `SELECT ` + adminColumns + ` FROM admins WHERE active = TRUE ORDER BY created_at`
	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO admins (id, username, email, password_hash, full_name, role, active, created_at)
VALUES (:id, :username, :email, :password_hash, :full_name, :role, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return writeErr("create admin", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful login.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE admins SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return nil
}
