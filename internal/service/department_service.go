package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type departmentRepository interface {
	Create(ctx context.Context, dept *models.Department) error
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ListByCollege(ctx context.Context, collegeID string, limit int) ([]models.Department, error)
	Update(ctx context.Context, dept *models.Department) error
	Deactivate(ctx context.Context, id string) error
}

type collegeFinder interface {
	FindByID(ctx context.Context, id string) (*models.College, error)
}

// DepartmentService manages departments under approved colleges.
type DepartmentService struct {
	repo      departmentRepository
	colleges  collegeFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo departmentRepository, colleges collegeFinder, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DepartmentService{repo: repo, colleges: colleges, validator: validate, logger: logger}
}

// Create adds a department. College principals always create under their own
// college; admins must name one.
func (s *DepartmentService) Create(ctx context.Context, principal *models.Principal, req dto.CreateDepartmentRequest) (*models.Department, error) {
	collegeID := strings.TrimSpace(req.CollegeID)
	switch {
	case principal == nil:
		return nil, appErrors.ErrUnauthorized
	case principal.Role == models.RoleCollege:
		if collegeID != "" && collegeID != principal.CollegeID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create departments for another college")
		}
		collegeID = principal.CollegeID
	case principal.IsAdmin():
		if collegeID == "" {
			return nil, appErrors.Validation(map[string]string{"collegeId": "is required"})
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only colleges and admins create departments")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}

	college, err := s.colleges.FindByID(ctx, collegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, internalError(err, "failed to load college")
	}
	if college.Status != models.CollegeStatusApproved || !college.Active {
		return nil, appErrors.Clone(appErrors.ErrIllegalState, "college must be approved to create departments")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, internalError(err, "failed to check department email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateResource, "department email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	dept := &models.Department{
		CollegeID:     college.ID,
		CollegeName:   college.Name,
		CollegeStatus: college.Status,
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hash),
		Active:        true,
	}
	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, duplicateOr(err, "failed to create department")
	}
	s.logger.Info("department created", zap.String("department_id", dept.ID), zap.String("college_id", college.ID))
	return dept, nil
}

// Get returns a department visible to the principal. Departments may view
// their siblings so they can choose distribution targets.
func (s *DepartmentService) Get(ctx context.Context, principal *models.Principal, id string) (*models.Department, error) {
	dept, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && (principal == nil || principal.CollegeID != dept.CollegeID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this department")
	}
	return dept, nil
}

// ListByCollege returns the active departments of a college.
func (s *DepartmentService) ListByCollege(ctx context.Context, principal *models.Principal, collegeID string) ([]models.Department, error) {
	if !principal.IsAdmin() && (principal == nil || principal.CollegeID != collegeID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this college")
	}
	depts, err := s.repo.ListByCollege(ctx, collegeID, 0)
	if err != nil {
		return nil, internalError(err, "failed to list departments")
	}
	if depts == nil {
		depts = []models.Department{}
	}
	return depts, nil
}

// Update patches name, email and password.
func (s *DepartmentService) Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateDepartmentRequest) (*models.Department, error) {
	req.Name = normalizeOptional(req.Name, strings.TrimSpace)
	req.Email = normalizeOptional(req.Email, normalizeEmail)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	dept, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanManageDepartment(dept) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot manage this department")
	}

	if req.Name != nil {
		dept.Name = *req.Name
	}
	if req.Email != nil {
		email := *req.Email
		if email != dept.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email, dept.ID)
			if err != nil {
				return nil, internalError(err, "failed to check department email")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrDuplicateResource, "department email already registered")
			}
			dept.Email = email
		}
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		dept.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, dept); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, duplicateOr(err, "failed to update department")
	}
	return dept, nil
}

// Deactivate soft-deletes a department. Its brochures and history stay readable.
func (s *DepartmentService) Deactivate(ctx context.Context, principal *models.Principal, id string) error {
	dept, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !principal.CanManageDepartment(dept) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot manage this department")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return internalError(err, "failed to deactivate department")
	}
	s.logger.Info("department deactivated", zap.String("department_id", id))
	return nil
}

func (s *DepartmentService) find(ctx context.Context, id string) (*models.Department, error) {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, internalError(err, "failed to load department")
	}
	return dept, nil
}
