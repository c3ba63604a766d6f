package dto

import "io"

// RegisterCollegeRequest is the self-registration form of a college.
type RegisterCollegeRequest struct {
	Name     string `form:"name" json:"name" validate:"required,max=100"`
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required,min=6"`
	Address  string `form:"address" json:"address" validate:"max=200"`
}

// UpdateCollegeRequest updates a college profile. A password change requires
// the current password.
type UpdateCollegeRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Address         *string `json:"address" validate:"omitempty,max=200"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword" validate:"omitempty,min=6"`
}

// RejectCollegeRequest carries the admin's reason.
type RejectCollegeRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Upload is a file received from a multipart form.
type Upload struct {
	Reader   io.Reader
	FileName string
	Size     int64
}
