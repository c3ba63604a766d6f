package dto

// CreateDepartmentRequest creates a department under an approved college.
// CollegeID is taken from the caller for college principals.
type CreateDepartmentRequest struct {
	CollegeID string `json:"collegeId"`
	Name      string `json:"name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// UpdateDepartmentRequest patches a department profile.
type UpdateDepartmentRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}
