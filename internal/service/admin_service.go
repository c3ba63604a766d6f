package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/repository"
	"github.com/noah-isme/symbohub-api/pkg/config"
)

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
}

// AdminService seeds platform administrators. Admins cannot register.
type AdminService struct {
	repo   adminRepository
	logger *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, logger: logger}
}

// Bootstrap creates the configured super administrator when missing. It
// returns true when a new admin was created.
func (s *AdminService) Bootstrap(ctx context.Context, cfg config.AdminSeedConfig) (bool, error) {
	username := strings.TrimSpace(cfg.Username)
	if username == "" || cfg.Password == "" {
		s.logger.Info("admin bootstrap skipped, no credentials configured")
		return false, nil
	}

	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, internalError(err, "failed to look up bootstrap admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, internalError(err, "failed to hash bootstrap password")
	}
	fullName := strings.TrimSpace(cfg.FullName)
	if fullName == "" {
		fullName = "Super Administrator"
	}
	admin := &models.Admin{
		Username:     username,
		Email:        normalizeEmail(cfg.Email),
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.AdminRoleSuperAdmin,
		Active:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another instance seeded concurrently.
			return false, nil
		}
		return false, internalError(err, "failed to create bootstrap admin")
	}
	s.logger.Info("bootstrap admin created", zap.String("username", username))
	return true, nil
}
