package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role is the single role claim carried by an identity token.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleCollege    Role = "COLLEGE"
	RoleDepartment Role = "DEPARTMENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCollege, RoleDepartment:
		return true
	}
	return false
}

// LoginRequest holds tenant credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginRequest holds administrator credentials.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and the authenticated identity.
type LoginResponse struct {
	Token        string `json:"token"`
	Type         string `json:"type"`
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	CollegeID    string `json:"collegeId,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// JWTClaims is the token payload. The subject is the principal's email.
type JWTClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated identity attached to a request. Exactly one
// variant is populated according to Role: admins carry only ID, colleges carry
// CollegeID == ID, departments carry both CollegeID and DepartmentID == ID.
type Principal struct {
	Role         Role   `json:"role"`
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	CollegeID    string `json:"collegeId,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
}

// IsAdmin reports whether the principal is a platform administrator.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanManageCollege is true for admins and for the college itself.
func (p *Principal) CanManageCollege(collegeID string) bool {
	if p == nil {
		return false
	}
	return p.Role == RoleAdmin || (p.Role == RoleCollege && p.CollegeID == collegeID)
}

// CanManageDepartment is true for admins, the owning college and the department itself.
func (p *Principal) CanManageDepartment(dept *Department) bool {
	if p == nil || dept == nil {
		return false
	}
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleCollege:
		return p.CollegeID == dept.CollegeID
	case RoleDepartment:
		return p.DepartmentID == dept.ID
	}
	return false
}
