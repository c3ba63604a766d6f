package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/repository"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type emailHistoryRepository interface {
	FindByID(ctx context.Context, id string) (*models.EmailHistory, error)
	ListByDepartment(ctx context.Context, departmentID string, limit int) ([]models.EmailHistory, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
}

type departmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// EmailHistoryService exposes delivery tracking reads and callbacks.
//
//	SENT -> DELIVERED -> READ
//	SENT -> FAILED
type EmailHistoryService struct {
	repo        emailHistoryRepository
	departments departmentFinder
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEmailHistoryService constructs an EmailHistoryService.
func NewEmailHistoryService(repo emailHistoryRepository, departments departmentFinder, validate *validator.Validate, logger *zap.Logger) *EmailHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EmailHistoryService{repo: repo, departments: departments, validator: validate, logger: logger, now: time.Now}
}

// ListByDepartment returns notifications received by a department.
func (s *EmailHistoryService) ListByDepartment(ctx context.Context, principal *models.Principal, departmentID string) ([]models.EmailHistory, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, internalError(err, "failed to load department")
	}
	if !principal.CanManageDepartment(dept) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this department")
	}
	rows, err := s.repo.ListByDepartment(ctx, departmentID, 0)
	if err != nil {
		return nil, internalError(err, "failed to list email history")
	}
	return rows, nil
}

// MarkDelivered records a delivery callback.
func (s *EmailHistoryService) MarkDelivered(ctx context.Context, id string) (*models.EmailHistory, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	if err := s.repo.MarkDelivered(ctx, id, at); err != nil {
		return nil, s.transitionError(err, row, models.EmailStatusDelivered)
	}
	row.Status = models.EmailStatusDelivered
	row.DeliveredAt = &at
	return row, nil
}

// MarkRead records a read receipt. Departments may only acknowledge their own mail.
func (s *EmailHistoryService) MarkRead(ctx context.Context, principal *models.Principal, id string) (*models.EmailHistory, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal == nil || (!principal.IsAdmin() && principal.DepartmentID != row.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot acknowledge this email")
	}
	at := s.now().UTC()
	if err := s.repo.MarkRead(ctx, id, at); err != nil {
		return nil, s.transitionError(err, row, models.EmailStatusRead)
	}
	row.Status = models.EmailStatusRead
	row.ReadAt = &at
	return row, nil
}

// MarkFailed records a delivery failure callback.
func (s *EmailHistoryService) MarkFailed(ctx context.Context, id string, req dto.MarkFailedRequest) (*models.EmailHistory, error) {
	req.ErrorMessage = strings.TrimSpace(req.ErrorMessage)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid failure payload")
	}
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkFailed(ctx, id, req.ErrorMessage); err != nil {
		return nil, s.transitionError(err, row, models.EmailStatusFailed)
	}
	row.Status = models.EmailStatusFailed
	row.ErrorMessage = &req.ErrorMessage
	return row, nil
}

func (s *EmailHistoryService) find(ctx context.Context, id string) (*models.EmailHistory, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "email history not found")
		}
		return nil, internalError(err, "failed to load email history")
	}
	return row, nil
}

func (s *EmailHistoryService) transitionError(err error, row *models.EmailHistory, to models.EmailStatus) error {
	if errors.Is(err, repository.ErrStatusMismatch) {
		return appErrors.Clone(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("email cannot move from %s to %s", row.Status, to))
	}
	s.logger.Error("email status update failed", zap.String("email_history_id", row.ID), zap.Error(err))
	return internalError(err, "failed to update email status")
}
