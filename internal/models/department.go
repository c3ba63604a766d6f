package models

import "time"

// Department belongs to exactly one college for its whole lifetime.
type Department struct {
	ID           string    `db:"id" json:"id"`
	CollegeID    string    `db:"college_id" json:"collegeId"`
	CollegeName  string    `db:"college_name" json:"collegeName"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	// CollegeStatus is joined from the owning college for login checks.
	CollegeStatus CollegeStatus `db:"college_status" json:"-"`
}

// CanLogin reports whether the department may authenticate.
func (d *Department) CanLogin() bool {
	return d != nil && d.Active && d.CollegeStatus == CollegeStatusApproved
}
