package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/symbohub-api/internal/dto"
)

// DashboardRepository aggregates counters for the dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminStats returns platform wide totals.
func (r *DashboardRepository) AdminStats(ctx context.Context) (*dto.AdminDashboardStats, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM colleges) AS total_colleges,
(SELECT COUNT(*) FROM colleges WHERE status = 'APPROVED') AS approved_colleges,
(SELECT COUNT(*) FROM colleges WHERE status = 'PENDING') AS pending_colleges,
(SELECT COUNT(*) FROM departments WHERE active = TRUE) AS total_departments,
(SELECT COUNT(*) FROM brochures) AS total_brochures,
(SELECT COUNT(*) FROM email_history) AS total_emails_sent`
	var stats dto.AdminDashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("admin dashboard stats: %w", err)
	}
	return &stats, nil
}

// CollegeStats returns totals scoped to one college.
func (r *DashboardRepository) CollegeStats(ctx context.Context, collegeID string) (*dto.TenantStats, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM departments WHERE college_id = $1) AS total_departments,
(SELECT COUNT(*) FROM departments WHERE college_id = $1 AND active = TRUE) AS active_departments,
(SELECT COUNT(*) FROM brochures b JOIN departments d ON d.id = b.department_id WHERE d.college_id = $1) AS total_brochures,
(SELECT COUNT(*) FROM brochures b JOIN departments d ON d.id = b.department_id WHERE d.college_id = $1 AND b.is_public = TRUE) AS public_brochures,
(SELECT COUNT(*) FROM email_history h JOIN brochures b ON b.id = h.brochure_id JOIN departments d ON d.id = b.department_id WHERE d.college_id = $1) AS total_emails_sent,
(SELECT COUNT(*) FROM email_history h JOIN departments d ON d.id = h.department_id WHERE d.college_id = $1) AS emails_received,
(SELECT COUNT(*) FROM email_history h JOIN departments d ON d.id = h.department_id WHERE d.college_id = $1 AND h.status IN ('DELIVERED', 'READ')) AS delivered_emails,
(SELECT COUNT(*) FROM email_history h JOIN departments d ON d.id = h.department_id WHERE d.college_id = $1 AND h.status = 'READ') AS read_emails`
	var stats dto.TenantStats
	if err := r.db.GetContext(ctx, &stats, query, collegeID); err != nil {
		return nil, fmt.Errorf("college dashboard stats: %w", err)
	}
	return &stats, nil
}

// DepartmentStats returns totals scoped to one department.
func (r *DashboardRepository) DepartmentStats(ctx context.Context, departmentID string) (*dto.TenantStats, error) {
	const query = `SELECT
0 AS total_departments,
0 AS active_departments,
(SELECT COUNT(*) FROM brochures WHERE department_id = $1) AS total_brochures,
(SELECT COUNT(*) FROM brochures WHERE department_id = $1 AND is_public = TRUE) AS public_brochures,
(SELECT COUNT(*) FROM email_history h JOIN brochures b ON b.id = h.brochure_id WHERE b.department_id = $1) AS total_emails_sent,
(SELECT COUNT(*) FROM email_history WHERE department_id = $1) AS emails_received,
(SELECT COUNT(*) FROM email_history WHERE department_id = $1 AND status IN ('DELIVERED', 'READ')) AS delivered_emails,
(SELECT COUNT(*) FROM email_history WHERE department_id = $1 AND status = 'READ') AS read_emails`
	var stats dto.TenantStats
	if err := r.db.GetContext(ctx, &stats, query, departmentID); err != nil {
		return nil, fmt.Errorf("department dashboard stats: %w", err)
	}
	return &stats, nil
}
