package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/repository"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/mailer"
	"github.com/noah-isme/symbohub-api/pkg/storage"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type collegeRepository interface {
	Create(ctx context.Context, college *models.College) error
	FindByID(ctx context.Context, id string) (*models.College, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	ListByStatus(ctx context.Context, status models.CollegeStatus, limit int) ([]models.College, error)
	TransitionStatus(ctx context.Context, id string, from, to models.CollegeStatus, change repository.StatusChange) error
	UpdateProfile(ctx context.Context, college *models.College) error
	Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type collegeDepartmentDeactivator interface {
	DeactivateByCollege(ctx context.Context, exec sqlx.ExtContext, collegeID string) (int64, error)
}

type blobStore interface {
	Store(ctx context.Context, r io.Reader, originalName, subdir string) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type emailNotifier interface {
	Notify(msg mailer.Message) error
	FrontendURL() string
}

// CollegeService drives college registration and the approval lifecycle.
type CollegeService struct {
	repo        collegeRepository
	departments collegeDepartmentDeactivator
	tx          txProvider
	blobs       blobStore
	notifier    emailNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCollegeService constructs a CollegeService.
func NewCollegeService(repo collegeRepository, departments collegeDepartmentDeactivator, tx txProvider, blobs blobStore, notifier emailNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CollegeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CollegeService{
		repo:        repo,
		departments: departments,
		tx:          tx,
		blobs:       blobs,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Register creates a PENDING college. The optional staff-id document is stored
// first and removed again if the insert fails.
func (s *CollegeService) Register(ctx context.Context, req dto.RegisterCollegeRequest, staffID *dto.Upload) (*models.College, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Address = strings.TrimSpace(req.Address)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	if err := s.ensureUnique(ctx, req.Name, req.Email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	college := &models.College{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Address:      req.Address,
		Status:       models.CollegeStatusPending,
		Active:       true,
	}

	if staffID != nil && staffID.Reader != nil {
		obj, err := s.blobs.Store(ctx, staffID.Reader, staffID.FileName, storage.DirStaffIDs)
		if err != nil {
			return nil, passThrough(err, "failed to store staff id document")
		}
		college.StaffIDKey = &obj.Key
		college.StaffIDFileName = &obj.OriginalName
	}

	if err := s.repo.Create(ctx, college); err != nil {
		if college.StaffIDKey != nil {
			if delErr := s.blobs.Delete(ctx, *college.StaffIDKey); delErr != nil {
				s.logger.Warn("failed to remove orphaned staff id document", zap.String("key", *college.StaffIDKey), zap.Error(delErr))
			}
		}
		return nil, duplicateOr(err, "failed to create college")
	}

	s.notify(mailer.Message{
		To:       college.Email,
		Subject:  "College Registration Received",
		Template: mailer.TemplateCollegeRegistration,
		Data: map[string]interface{}{
			"CollegeName":      college.Name,
			"CollegeEmail":     college.Email,
			"Status":           string(college.Status),
			"RegistrationDate": college.RegisteredAt.Format("02 Jan 2006"),
		},
	})
	s.logger.Info("college registered", zap.String("college_id", college.ID))
	return college, nil
}

// Approve moves a PENDING college to APPROVED.
func (s *CollegeService) Approve(ctx context.Context, adminID, id string) (*models.College, error) {
	college, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	change := repository.StatusChange{At: now, AdminID: &adminID}
	if err := s.transition(ctx, college, models.CollegeStatusPending, models.CollegeStatusApproved, change); err != nil {
		return nil, err
	}
	college.ApprovedAt = &now
	college.ApprovedBy = &adminID

	s.notify(mailer.Message{
		To:       college.Email,
		Subject:  "College Registration Approved",
		Template: mailer.TemplateCollegeApproval,
		Data: map[string]interface{}{
			"CollegeName":  college.Name,
			"ApprovalDate": now.Format("02 Jan 2006"),
			"LoginURL":     s.frontendURL() + "/login",
		},
	})
	return college, nil
}

// Reject moves a PENDING college to REJECTED and deactivates it.
func (s *CollegeService) Reject(ctx context.Context, adminID, id string, req dto.RejectCollegeRequest) (*models.College, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid rejection payload")
	}
	college, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	change := repository.StatusChange{At: time.Now().UTC(), AdminID: &adminID, Reason: &req.Reason, Deactivate: true}
	if err := s.transition(ctx, college, models.CollegeStatusPending, models.CollegeStatusRejected, change); err != nil {
		return nil, err
	}
	college.RejectionReason = &req.Reason
	college.Active = false

	s.notify(mailer.Message{
		To:       college.Email,
		Subject:  "College Registration Update",
		Template: mailer.TemplateCollegeRejection,
		Data: map[string]interface{}{
			"CollegeName":      college.Name,
			"RegistrationDate": college.RegisteredAt.Format("02 Jan 2006"),
			"RejectionReason":  req.Reason,
			"SupportEmail":     "support@symbohub.com",
		},
	})
	return college, nil
}

// Suspend moves an APPROVED college to SUSPENDED, which blocks its logins and
// those of its departments.
func (s *CollegeService) Suspend(ctx context.Context, adminID, id string) (*models.College, error) {
	college, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	change := repository.StatusChange{At: time.Now().UTC(), AdminID: &adminID}
	if err := s.transition(ctx, college, models.CollegeStatusApproved, models.CollegeStatusSuspended, change); err != nil {
		return nil, err
	}
	return college, nil
}

// Deactivate soft-deletes a college and all of its departments atomically.
func (s *CollegeService) Deactivate(ctx context.Context, principal *models.Principal, id string) (err error) {
	if !principal.CanManageCollege(id) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot manage this college")
	}
	if _, err = s.find(ctx, id); err != nil {
		return err
	}
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return internalError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	affected, err := s.departments.DeactivateByCollege(ctx, tx, id)
	if err != nil {
		err = internalError(err, "failed to deactivate departments")
		return err
	}
	if err = s.repo.Deactivate(ctx, tx, id); err != nil {
		err = internalError(err, "failed to deactivate college")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = internalError(err, "failed to commit deactivation")
		return err
	}

	s.logger.Info("college deactivated", zap.String("college_id", id), zap.Int64("departments", affected))
	return nil
}

// Get returns a college visible to the principal.
func (s *CollegeService) Get(ctx context.Context, principal *models.Principal, id string) (*models.College, error) {
	if !principal.CanManageCollege(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this college")
	}
	return s.find(ctx, id)
}

// ListApproved returns active approved colleges.
func (s *CollegeService) ListApproved(ctx context.Context) ([]models.College, error) {
	return s.list(ctx, models.CollegeStatusApproved, 0)
}

// ListPending returns registrations awaiting review.
func (s *CollegeService) ListPending(ctx context.Context) ([]models.College, error) {
	return s.list(ctx, models.CollegeStatusPending, 0)
}

// Update changes the college profile. Colleges must confirm their current
// password to set a new one; admins may reset it directly.
func (s *CollegeService) Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateCollegeRequest) (*models.College, error) {
	if !principal.CanManageCollege(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot manage this college")
	}
	req.Name = normalizeOptional(req.Name, strings.TrimSpace)
	req.Email = normalizeOptional(req.Email, normalizeEmail)
	req.Address = normalizeOptional(req.Address, strings.TrimSpace)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid college payload")
	}
	college, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	name, email := college.Name, college.Email
	if req.Name != nil {
		name = *req.Name
	}
	if req.Email != nil {
		email = *req.Email
	}
	if name != college.Name || email != college.Email {
		checkName, checkEmail := "", ""
		if name != college.Name {
			checkName = name
		}
		if email != college.Email {
			checkEmail = email
		}
		if err := s.ensureUnique(ctx, checkName, checkEmail, college.ID); err != nil {
			return nil, err
		}
	}
	college.Name, college.Email = name, email
	if req.Address != nil {
		college.Address = *req.Address
	}

	if req.NewPassword != "" {
		if !principal.IsAdmin() {
			if bcrypt.CompareHashAndPassword([]byte(college.PasswordHash), []byte(req.CurrentPassword)) != nil {
				return nil, appErrors.Validation(map[string]string{"currentPassword": "does not match"})
			}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		college.PasswordHash = string(hash)
	}

	if err := s.repo.UpdateProfile(ctx, college); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, duplicateOr(err, "failed to update college")
	}
	return college, nil
}

func (s *CollegeService) ensureUnique(ctx context.Context, name, email, excludeID string) error {
	if email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return internalError(err, "failed to check college email")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrDuplicateResource, "college email already registered")
		}
	}
	if name != "" {
		exists, err := s.repo.ExistsByName(ctx, name, excludeID)
		if err != nil {
			return internalError(err, "failed to check college name")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrDuplicateResource, "college name already registered")
		}
	}
	return nil
}

func (s *CollegeService) transition(ctx context.Context, college *models.College, from, to models.CollegeStatus, change repository.StatusChange) error {
	if err := s.repo.TransitionStatus(ctx, college.ID, from, to, change); err != nil {
		if errors.Is(err, repository.ErrStatusMismatch) {
			return appErrors.Clone(appErrors.ErrInvalidStateTransition,
				"college must be "+strings.ToLower(string(from))+" to become "+strings.ToLower(string(to)))
		}
		return internalError(err, "failed to update college status")
	}
	college.Status = to
	college.UpdatedAt = change.At
	s.metrics.RecordTransition(string(to))
	s.logger.Info("college status changed",
		zap.String("college_id", college.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

func (s *CollegeService) find(ctx context.Context, id string) (*models.College, error) {
	college, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, internalError(err, "failed to load college")
	}
	return college, nil
}

func (s *CollegeService) list(ctx context.Context, status models.CollegeStatus, limit int) ([]models.College, error) {
	colleges, err := s.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, internalError(err, "failed to list colleges")
	}
	if colleges == nil {
		colleges = []models.College{}
	}
	return colleges, nil
}

func (s *CollegeService) notify(msg mailer.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(msg); err != nil {
		s.logger.Warn("failed to queue email", zap.String("template", msg.Template), zap.String("to", msg.To), zap.Error(err))
	}
}

func (s *CollegeService) frontendURL() string {
	if s.notifier == nil {
		return ""
	}
	return s.notifier.FrontendURL()
}

// duplicateOr maps unique violations to DuplicateResource and wraps anything
// else as internal.
func duplicateOr(err error, message string) error {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return appErrors.Clone(appErrors.ErrDuplicateResource, duplicateMessage(dup.Constraint))
	}
	return internalError(err, message)
}

func duplicateMessage(constraint string) string {
	switch constraint {
	case "colleges_email_key":
		return "college email already registered"
	case "colleges_name_key":
		return "college name already registered"
	case "departments_email_key":
		return "department email already registered"
	case "admins_username_key", "admins_email_key":
		return "admin already exists"
	default:
		return appErrors.ErrDuplicateResource.Message
	}
}
