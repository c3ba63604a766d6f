package models

import "time"

// CollegeStatus is the approval state of a college registration.
type CollegeStatus string

const (
	CollegeStatusPending   CollegeStatus = "PENDING"
	CollegeStatusApproved  CollegeStatus = "APPROVED"
	CollegeStatusRejected  CollegeStatus = "REJECTED"
	CollegeStatusSuspended CollegeStatus = "SUSPENDED"
)

// College is a tenant that owns departments once approved.
type College struct {
	ID              string        `db:"id" json:"id"`
	Name            string        `db:"name" json:"name"`
	Email           string        `db:"email" json:"email"`
	PasswordHash    string        `db:"password_hash" json:"-"`
	Address         string        `db:"address" json:"address"`
	StaffIDKey      *string       `db:"staff_id_key" json:"staffIdKey,omitempty"`
	StaffIDFileName *string       `db:"staff_id_file_name" json:"staffIdFileName,omitempty"`
	Status          CollegeStatus `db:"status" json:"status"`
	RegisteredAt    time.Time     `db:"registered_at" json:"registrationDate"`
	ApprovedAt      *time.Time    `db:"approved_at" json:"approvalDate,omitempty"`
	ApprovedBy      *string       `db:"approved_by" json:"approvedBy,omitempty"`
	RejectionReason *string       `db:"rejection_reason" json:"rejectionReason,omitempty"`
	Active          bool          `db:"active" json:"active"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
	DepartmentCount int           `db:"department_count" json:"departmentCount"`
}

// CanLogin reports whether the college may authenticate.
func (c *College) CanLogin() bool {
	return c != nil && c.Active && c.Status == CollegeStatusApproved
}
