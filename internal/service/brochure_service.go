package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/storage"
)

type brochureRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, brochure *models.Brochure) error
	FindByID(ctx context.Context, id string) (*models.Brochure, error)
	ListByDepartment(ctx context.Context, departmentID string, limit int) ([]models.Brochure, error)
	ListPublicByCollege(ctx context.Context, collegeID string) ([]models.Brochure, error)
	ListPublicByDepartment(ctx context.Context, departmentID string) ([]models.Brochure, error)
	Delete(ctx context.Context, id string) error
}

type brochureDepartmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
	FindByIDWith(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Department, error)
}

type brochureHistoryRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, history *models.EmailHistory) error
	ListByBrochure(ctx context.Context, brochureID string) ([]models.EmailHistory, error)
	MarkFailed(ctx context.Context, id, message string) error
}

type brochureNotifier interface {
	NotifyBrochure(history models.EmailHistory, brochure *models.Brochure, sender *models.Department) error
}

// BrochureService stores brochures and fans notifications out to target
// departments, recording one tracking row per recipient.
type BrochureService struct {
	repo        brochureRepository
	departments brochureDepartmentRepository
	history     brochureHistoryRepository
	tx          txProvider
	blobs       blobStore
	notifier    brochureNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewBrochureService constructs a BrochureService.
func NewBrochureService(repo brochureRepository, departments brochureDepartmentRepository, history brochureHistoryRepository, tx txProvider, blobs blobStore, notifier brochureNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BrochureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BrochureService{
		repo:        repo,
		departments: departments,
		history:     history,
		tx:          tx,
		blobs:       blobs,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Upload stores the file, inserts the brochure and its tracking rows in one
// transaction, then queues notifications. Any unknown or inactive target
// aborts the whole distribution and removes the stored file.
func (s *BrochureService) Upload(ctx context.Context, principal *models.Principal, req dto.UploadBrochureRequest, file dto.Upload) (result *models.BrochureUploadResult, err error) {
	req.Title = strings.TrimSpace(req.Title)
	if err = s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid brochure payload")
	}
	if file.Reader == nil {
		return nil, appErrors.Validation(map[string]string{"file": "is required"})
	}

	uploader, err := s.resolveUploader(ctx, principal, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	targets := distinctTargets(req.TargetDepartmentIDs, uploader.ID)

	obj, err := s.blobs.Store(ctx, file.Reader, file.FileName, storage.DirBrochures)
	if err != nil {
		return nil, passThrough(err, "failed to store brochure file")
	}
	if s.tx == nil {
		s.removeBlob(ctx, obj.Key)
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		s.removeBlob(ctx, obj.Key)
		return nil, internalError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			s.removeBlob(ctx, obj.Key)
		}
	}()

	brochure := &models.Brochure{
		DepartmentID:   uploader.ID,
		Title:          req.Title,
		Description:    strings.TrimSpace(req.Description),
		FileKey:        obj.Key,
		FileName:       obj.OriginalName,
		FileSize:       obj.Size,
		FileType:       obj.ContentType,
		IsPublic:       req.IsPublic,
		UploadedAt:     s.now().UTC(),
		DepartmentName: uploader.Name,
		CollegeID:      uploader.CollegeID,
		CollegeName:    uploader.CollegeName,
	}
	if err = s.repo.Create(ctx, tx, brochure); err != nil {
		err = internalError(err, "failed to create brochure")
		return nil, err
	}

	histories := make([]models.EmailHistory, 0, len(targets))
	for _, targetID := range targets {
		var target *models.Department
		target, err = s.departments.FindByIDWith(ctx, tx, targetID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("target department %s not found", targetID))
				return nil, err
			}
			err = internalError(err, "failed to load target department")
			return nil, err
		}
		if !target.Active {
			err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("target department %s not found", targetID))
			return nil, err
		}

		sentAt := s.now().UTC()
		row := models.EmailHistory{
			BrochureID:     &brochure.ID,
			BrochureTitle:  brochure.Title,
			DepartmentID:   target.ID,
			DepartmentName: target.Name,
			ReceiverEmail:  target.Email,
			Subject:        "New Brochure: " + brochure.Title,
			Status:         models.EmailStatusSent,
			SentAt:         &sentAt,
		}
		if err = s.history.Create(ctx, tx, &row); err != nil {
			err = internalError(err, "failed to record email history")
			return nil, err
		}
		histories = append(histories, row)
	}

	if err = tx.Commit(); err != nil {
		err = internalError(err, "failed to commit brochure")
		return nil, err
	}

	for i := range histories {
		if qErr := s.notifier.NotifyBrochure(histories[i], brochure, uploader); qErr != nil {
			s.logger.Warn("failed to queue brochure notification", zap.String("email_history_id", histories[i].ID), zap.Error(qErr))
			if mErr := s.history.MarkFailed(ctx, histories[i].ID, qErr.Error()); mErr != nil {
				s.logger.Error("failed to mark notification failed", zap.String("email_history_id", histories[i].ID), zap.Error(mErr))
				continue
			}
			msg := qErr.Error()
			histories[i].Status = models.EmailStatusFailed
			histories[i].ErrorMessage = &msg
		}
	}

	brochure.EmailSentCount = len(histories)
	s.metrics.RecordBrochure()
	s.logger.Info("brochure distributed",
		zap.String("brochure_id", brochure.ID),
		zap.String("department_id", uploader.ID),
		zap.Int("recipients", len(histories)),
	)
	return &models.BrochureUploadResult{Brochure: brochure, EmailHistory: histories, TotalEmailsSent: len(histories)}, nil
}

// Delete removes the stored file and the brochure. File removal is best
// effort; tracking rows are removed with the brochure.
func (s *BrochureService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	brochure, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canManageBrochure(principal, brochure) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot manage this brochure")
	}
	s.removeBlob(ctx, brochure.FileKey)
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "brochure not found")
		}
		return internalError(err, "failed to delete brochure")
	}
	s.logger.Info("brochure deleted", zap.String("brochure_id", id))
	return nil
}

// Get returns a brochure. Public brochures are visible to everyone; others to
// admins and principals of the owning college.
func (s *BrochureService) Get(ctx context.Context, principal *models.Principal, id string) (*models.Brochure, error) {
	brochure, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if brochure.IsPublic || principal.IsAdmin() || (principal != nil && principal.CollegeID == brochure.CollegeID) {
		return brochure, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this brochure")
}

// ListByDepartment returns every brochure of a department, newest first.
func (s *BrochureService) ListByDepartment(ctx context.Context, principal *models.Principal, departmentID string) ([]models.Brochure, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, internalError(err, "failed to load department")
	}
	if !principal.IsAdmin() && (principal == nil || principal.CollegeID != dept.CollegeID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this department")
	}
	brochures, err := s.repo.ListByDepartment(ctx, departmentID, 0)
	if err != nil {
		return nil, internalError(err, "failed to list brochures")
	}
	return brochures, nil
}

// ListPublicByCollege returns public brochures of a college.
func (s *BrochureService) ListPublicByCollege(ctx context.Context, collegeID string) ([]models.Brochure, error) {
	brochures, err := s.repo.ListPublicByCollege(ctx, collegeID)
	if err != nil {
		return nil, internalError(err, "failed to list brochures")
	}
	return brochures, nil
}

// ListPublicByDepartment returns public brochures of a department.
func (s *BrochureService) ListPublicByDepartment(ctx context.Context, departmentID string) ([]models.Brochure, error) {
	brochures, err := s.repo.ListPublicByDepartment(ctx, departmentID)
	if err != nil {
		return nil, internalError(err, "failed to list brochures")
	}
	return brochures, nil
}

// History returns the tracking rows of a brochure to its owners.
func (s *BrochureService) History(ctx context.Context, principal *models.Principal, id string) (*models.Brochure, []models.EmailHistory, error) {
	brochure, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !canManageBrochure(principal, brochure) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this brochure")
	}
	rows, err := s.history.ListByBrochure(ctx, id)
	if err != nil {
		return nil, nil, internalError(err, "failed to list email history")
	}
	return brochure, rows, nil
}

func (s *BrochureService) resolveUploader(ctx context.Context, principal *models.Principal, requested string) (*models.Department, error) {
	requested = strings.TrimSpace(requested)
	if principal == nil {
		return nil, appErrors.ErrUnauthorized
	}
	id := requested
	if principal.Role == models.RoleDepartment {
		if requested != "" && requested != principal.DepartmentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot upload for another department")
		}
		id = principal.DepartmentID
	}
	if id == "" {
		return nil, appErrors.Validation(map[string]string{"departmentId": "is required"})
	}

	uploader, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "uploader department not found")
		}
		return nil, internalError(err, "failed to load uploader department")
	}
	if !principal.CanManageDepartment(uploader) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot upload for this department")
	}
	if !uploader.Active {
		return nil, appErrors.Clone(appErrors.ErrIllegalState, "uploader department is deactivated")
	}
	return uploader, nil
}

func (s *BrochureService) find(ctx context.Context, id string) (*models.Brochure, error) {
	brochure, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "brochure not found")
		}
		return nil, internalError(err, "failed to load brochure")
	}
	return brochure, nil
}

func (s *BrochureService) removeBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove brochure file", zap.String("key", key), zap.Error(err))
	}
}

func canManageBrochure(principal *models.Principal, brochure *models.Brochure) bool {
	if principal == nil {
		return false
	}
	switch principal.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCollege:
		return principal.CollegeID == brochure.CollegeID
	case models.RoleDepartment:
		return principal.DepartmentID == brochure.DepartmentID
	}
	return false
}

// distinctTargets drops blanks, duplicates and the uploader itself while
// keeping request order.
func distinctTargets(ids []string, uploaderID string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" || id == uploaderID {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
