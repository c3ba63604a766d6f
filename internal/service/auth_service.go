package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type authAdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

const (
	scopeAdmin      = "admin"
	scopeCollege    = "college"
	scopeDepartment = "department"
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy burns one bcrypt comparison so unknown accounts take as long as
// wrong passwords.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("symbohub-placeholder"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// AuthService authenticates the three principal kinds and issues tokens.
type AuthService struct {
	admins      authAdminRepository
	colleges    collegeLookup
	departments departmentLookup
	tokens      *TokenService
	guard       *LoginGuard
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(admins authAdminRepository, colleges collegeLookup, departments departmentLookup, tokens *TokenService, guard *LoginGuard, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		admins:      admins,
		colleges:    colleges,
		departments: departments,
		tokens:      tokens,
		guard:       guard,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Validate resolves a bearer token to an active principal.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.Principal, error) {
	return s.tokens.Validate(ctx, token)
}

// LoginCollege authenticates an approved, active college.
func (s *AuthService) LoginCollege(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}
	email := req.Email
	if err := s.guard.Check(ctx, scopeCollege, email); err != nil {
		s.metrics.RecordLogin(string(models.RoleCollege), "throttled")
		return nil, err
	}

	college, err := s.colleges.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupFailed(ctx, err, scopeCollege, email, req.Password)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(college.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.badPassword(ctx, scopeCollege, email)
	}
	if !college.CanLogin() {
		s.metrics.RecordLogin(string(models.RoleCollege), "rejected")
		return nil, appErrors.Clone(appErrors.ErrIllegalState, collegeLoginMessage(college))
	}

	s.guard.Succeed(ctx, scopeCollege, email)
	return s.respond(collegePrincipal(college))
}

// LoginDepartment authenticates an active department of an approved college.
func (s *AuthService) LoginDepartment(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}
	email := req.Email
	if err := s.guard.Check(ctx, scopeDepartment, email); err != nil {
		s.metrics.RecordLogin(string(models.RoleDepartment), "throttled")
		return nil, err
	}

	dept, err := s.departments.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupFailed(ctx, err, scopeDepartment, email, req.Password)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(dept.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.badPassword(ctx, scopeDepartment, email)
	}
	if !dept.Active {
		s.metrics.RecordLogin(string(models.RoleDepartment), "rejected")
		return nil, appErrors.Clone(appErrors.ErrIllegalState, "department account is deactivated")
	}
	if dept.CollegeStatus != models.CollegeStatusApproved {
		s.metrics.RecordLogin(string(models.RoleDepartment), "rejected")
		return nil, appErrors.Clone(appErrors.ErrIllegalState, fmt.Sprintf("college is %s", strings.ToLower(string(dept.CollegeStatus))))
	}

	s.guard.Succeed(ctx, scopeDepartment, email)
	return s.respond(departmentPrincipal(dept))
}

// LoginAdmin authenticates a platform administrator by username.
func (s *AuthService) LoginAdmin(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}
	username := req.Username
	if err := s.guard.Check(ctx, scopeAdmin, username); err != nil {
		s.metrics.RecordLogin(string(models.RoleAdmin), "throttled")
		return nil, err
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return nil, s.lookupFailed(ctx, err, scopeAdmin, username, req.Password)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.badPassword(ctx, scopeAdmin, username)
	}
	if !admin.Active {
		s.metrics.RecordLogin(string(models.RoleAdmin), "rejected")
		return nil, appErrors.Clone(appErrors.ErrIllegalState, "admin account is deactivated")
	}

	if err := s.admins.UpdateLastLogin(ctx, admin.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.String("admin_id", admin.ID), zap.Error(err))
	}
	s.guard.Succeed(ctx, scopeAdmin, username)
	return s.respond(adminPrincipal(admin))
}

func (s *AuthService) respond(principal *models.Principal) (*models.LoginResponse, error) {
	token, _, err := s.tokens.Issue(principal)
	if err != nil {
		return nil, internalError(err, "failed to create access token")
	}
	s.metrics.RecordLogin(string(principal.Role), "success")
	return &models.LoginResponse{
		Token:        token,
		Type:         "Bearer",
		ID:           principal.ID,
		Email:        principal.Email,
		Name:         principal.Name,
		Role:         principal.Role,
		CollegeID:    principal.CollegeID,
		DepartmentID: principal.DepartmentID,
		ExpiresIn:    int64(s.tokens.Expiry().Seconds()),
	}, nil
}

func (s *AuthService) lookupFailed(ctx context.Context, err error, scope, identifier, password string) error {
	if errors.Is(err, sql.ErrNoRows) {
		compareDummy(password)
		return s.badPassword(ctx, scope, identifier)
	}
	return internalError(err, "failed to load account")
}

func (s *AuthService) badPassword(ctx context.Context, scope, identifier string) error {
	s.guard.Fail(ctx, scope, identifier)
	s.metrics.RecordLogin(strings.ToUpper(scope), "invalid_credentials")
	return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
}

func collegeLoginMessage(c *models.College) string {
	switch {
	case c.Status == models.CollegeStatusPending:
		return "college registration is pending approval"
	case c.Status == models.CollegeStatusRejected:
		return "college registration was rejected"
	case c.Status == models.CollegeStatusSuspended:
		return "college account is suspended"
	default:
		return "college account is deactivated"
	}
}
